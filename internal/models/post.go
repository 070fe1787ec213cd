package models

// StoredPost is a post as the data access layer returns it. AuthorID is an
// opaque foreign key that the store does not enforce.
type StoredPost struct {
	ID       string
	Title    string
	Content  string
	AuthorID string
}

// Post is the API-facing post entity. Author is nil when the author could
// not be resolved.
type Post struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Author  *User  `json:"author"`
}

// PostUpdate is the partial field set applied by UpdatePost.
type PostUpdate struct {
	Title   string
	Content string
}

// PostPayload is returned by createPost and updatePost.
type PostPayload struct {
	OK      bool   `json:"ok"`
	Post    *Post  `json:"post"`
	Message string `json:"message"`
}
