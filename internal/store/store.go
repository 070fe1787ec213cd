// Package store implements the data access layer for the users and posts
// collections. Identifiers cross this boundary as opaque strings; conversion
// to each backend's native id happens here and nowhere else.
package store

import "errors"

var (
	ErrNotFound  = errors.New("not found")
	ErrInvalidID = errors.New("invalid id")
	ErrDuplicate = errors.New("already exists")
)

// Backend names accepted by STORE_BACKEND.
const (
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)
