package models

// ToUser converts a stored user into the API entity. An absent or empty
// display name falls back to the username.
func ToUser(u *StoredUser) *User {
	if u == nil {
		return nil
	}
	return &User{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: displayName(u),
	}
}

// ToPost converts a stored post and its (possibly missing) author.
func ToPost(p *StoredPost, author *StoredUser) *Post {
	if p == nil {
		return nil
	}
	return &Post{
		ID:      p.ID,
		Title:   p.Title,
		Content: p.Content,
		Author:  ToUser(author),
	}
}

// ToUserWithPosts builds the me result. Every post is attributed to u.
func ToUserWithPosts(u *StoredUser, posts []StoredPost) *UserWithPosts {
	if u == nil {
		return nil
	}
	author := ToUser(u)
	out := &UserWithPosts{
		ID:          author.ID,
		Username:    author.Username,
		DisplayName: author.DisplayName,
		Posts:       make([]*Post, 0, len(posts)),
	}
	for i := range posts {
		p := ToPost(&posts[i], nil)
		p.Author = author
		out.Posts = append(out.Posts, p)
	}
	return out
}

func displayName(u *StoredUser) string {
	if u.DisplayName == "" {
		return u.Username
	}
	return u.DisplayName
}
