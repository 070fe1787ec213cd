package models

// StoredUser is a user as the data access layer returns it. ID is the
// store-assigned identifier rendered as an opaque string.
type StoredUser struct {
	ID          string
	Username    string
	Password    string // bcrypt hash, never serialize
	DisplayName string
}

// User is the API-facing user entity.
type User struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
}

// UserWithPosts is the result of the me query.
type UserWithPosts struct {
	ID          string  `json:"id"`
	Username    string  `json:"username"`
	DisplayName string  `json:"displayName"`
	Posts       []*Post `json:"posts"`
}

// NewUser is the write shape for registration.
type NewUser struct {
	Username    string
	Password    string
	DisplayName string
}

// AuthPayload is returned by register and login.
type AuthPayload struct {
	OK      bool   `json:"ok"`
	User    *User  `json:"user"`
	Token   string `json:"token,omitempty"`
	Message string `json:"message"`
}
