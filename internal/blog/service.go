// Package blog resolves the blog's queries and mutations. Queries swallow
// lookup failures into nil results; mutations report failures through the
// ok/message fields of their payloads.
package blog

import (
	"context"
	"errors"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ayush/myblog/backend/internal/auth"
	"github.com/ayush/myblog/backend/internal/models"
	"github.com/ayush/myblog/backend/internal/store"
)

// Messages returned to clients. The text is part of the API contract.
const (
	MsgUserExists    = "Username already exists"
	MsgRegistered    = "User registered successfully"
	MsgMissingFields = "Username and password are required"
	MsgInvalidCreds  = "Invalid credentials"
	MsgLoggedIn      = "Login successful"
	MsgInvalidToken  = "Invalid or expired token"
	MsgTitleRequired = "Title is required"
	MsgPostCreated   = "Post created"
	MsgPostNotFound  = "Post not found"
	MsgNotAuthorized = "You are not authorized to edit this post"
	MsgPostUpdated   = "Post updated successfully"
	MsgInternal      = "Internal server error"
	HelloMessage     = "Hello from myblog GraphQL!"
)

// UserStore defines the user persistence operations the resolvers need.
type UserStore interface {
	GetUserByID(ctx context.Context, id string) (*models.StoredUser, error)
	GetUserByUsername(ctx context.Context, username string) (*models.StoredUser, error)
	CreateUser(ctx context.Context, u models.NewUser) (string, error)
}

// PostStore defines the post persistence operations the resolvers need.
type PostStore interface {
	GetPostByID(ctx context.Context, id string) (*models.StoredPost, error)
	ListPosts(ctx context.Context) ([]models.StoredPost, error)
	ListPostsByAuthor(ctx context.Context, authorID string) ([]models.StoredPost, error)
	CreatePost(ctx context.Context, p models.StoredPost) (string, error)
	UpdatePost(ctx context.Context, id string, upd models.PostUpdate) error
}

// Store is implemented by every backend in the store package.
type Store interface {
	UserStore
	PostStore
}

// Tokens issues and verifies bearer tokens.
type Tokens interface {
	Issue(subject string) (string, error)
	Verify(token string) (string, error)
}

type RegisterInput struct {
	Username    string `validate:"required"`
	Password    string `validate:"required"`
	DisplayName string
}

type LoginInput struct {
	Username string
	Password string
}

type CreatePostInput struct {
	Title   string `validate:"required"`
	Content string
	Token   string
}

type UpdatePostInput struct {
	ID      string
	Title   string `validate:"required"`
	Content string
	Token   string
}

// Service executes blog operations. It holds no per-request state.
type Service struct {
	store    Store
	tokens   Tokens
	log      *zap.Logger
	validate *validator.Validate
}

func NewService(s Store, tokens Tokens, log *zap.Logger) *Service {
	return &Service{
		store:    s,
		tokens:   tokens,
		log:      log,
		validate: validator.New(),
	}
}

func (s *Service) Hello() string { return HelloMessage }

// ListPosts returns every post with its author resolved. Store failures on
// the post listing propagate; a failed author lookup yields a nil author.
func (s *Service) ListPosts(ctx context.Context) ([]*models.Post, error) {
	stored, err := s.store.ListPosts(ctx)
	if err != nil {
		return nil, err
	}
	posts := make([]*models.Post, 0, len(stored))
	for i := range stored {
		posts = append(posts, models.ToPost(&stored[i], s.author(ctx, stored[i].AuthorID)))
	}
	return posts, nil
}

// GetPost returns the post or nil. Malformed ids and lookup errors are
// logged and reported as not found.
func (s *Service) GetPost(ctx context.Context, id string) *models.Post {
	p, err := s.store.GetPostByID(ctx, id)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.log.Debug("post lookup failed", zap.String("post_id", id), zap.Error(err))
		}
		return nil
	}
	return models.ToPost(p, s.author(ctx, p.AuthorID))
}

// Me returns the token's user and their posts, or nil for any failure.
func (s *Service) Me(ctx context.Context, token string) *models.UserWithPosts {
	userID, ok := s.subject(token)
	if !ok {
		return nil
	}
	u, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		s.log.Debug("me: user lookup failed", zap.String("user_id", userID), zap.Error(err))
		return nil
	}
	posts, err := s.store.ListPostsByAuthor(ctx, userID)
	if err != nil {
		s.log.Warn("me: post lookup failed", zap.String("user_id", userID), zap.Error(err))
		return nil
	}
	return models.ToUserWithPosts(u, posts)
}

func (s *Service) Register(ctx context.Context, in RegisterInput) *models.AuthPayload {
	if err := s.validate.Struct(in); err != nil {
		return &models.AuthPayload{Message: MsgMissingFields}
	}

	_, err := s.store.GetUserByUsername(ctx, in.Username)
	switch {
	case err == nil:
		return &models.AuthPayload{Message: MsgUserExists}
	case !errors.Is(err, store.ErrNotFound):
		return s.authFailure("register: username lookup", err)
	}

	hashed, err := auth.HashPassword(in.Password)
	if err != nil {
		return s.authFailure("register: hash password", err)
	}

	displayName := in.DisplayName
	if displayName == "" {
		displayName = in.Username
	}
	id, err := s.store.CreateUser(ctx, models.NewUser{
		Username:    in.Username,
		Password:    hashed,
		DisplayName: displayName,
	})
	if errors.Is(err, store.ErrDuplicate) {
		return &models.AuthPayload{Message: MsgUserExists}
	}
	if err != nil {
		return s.authFailure("register: create user", err)
	}

	token, err := s.tokens.Issue(id)
	if err != nil {
		return s.authFailure("register: issue token", err)
	}

	s.log.Info("user registered", zap.String("user_id", id))
	return &models.AuthPayload{
		OK:      true,
		User:    &models.User{ID: id, Username: in.Username, DisplayName: displayName},
		Token:   token,
		Message: MsgRegistered,
	}
}

// Login never reveals whether the username or the password was wrong.
func (s *Service) Login(ctx context.Context, in LoginInput) *models.AuthPayload {
	u, err := s.store.GetUserByUsername(ctx, in.Username)
	if errors.Is(err, store.ErrNotFound) {
		// Unknown usernames still pay for one bcrypt comparison.
		auth.CheckPassword(dummyHash(), in.Password)
		return &models.AuthPayload{Message: MsgInvalidCreds}
	}
	if err != nil {
		return s.authFailure("login: user lookup", err)
	}
	if !auth.CheckPassword(u.Password, in.Password) {
		return &models.AuthPayload{Message: MsgInvalidCreds}
	}

	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return s.authFailure("login: issue token", err)
	}
	return &models.AuthPayload{
		OK:      true,
		User:    models.ToUser(u),
		Token:   token,
		Message: MsgLoggedIn,
	}
}

func (s *Service) CreatePost(ctx context.Context, in CreatePostInput) *models.PostPayload {
	userID, ok := s.subject(in.Token)
	if !ok {
		return &models.PostPayload{Message: MsgInvalidToken}
	}
	if err := s.validate.Struct(in); err != nil {
		return &models.PostPayload{Message: MsgTitleRequired}
	}

	stored := models.StoredPost{Title: in.Title, Content: in.Content, AuthorID: userID}
	id, err := s.store.CreatePost(ctx, stored)
	if err != nil {
		return s.postFailure("createPost: insert", err)
	}
	stored.ID = id

	return &models.PostPayload{
		OK:      true,
		Post:    models.ToPost(&stored, s.author(ctx, userID)),
		Message: MsgPostCreated,
	}
}

// UpdatePost checks, in order, token validity, post existence and ownership.
// Concurrent updates to the same post are not serialised; the last write wins.
func (s *Service) UpdatePost(ctx context.Context, in UpdatePostInput) *models.PostPayload {
	userID, ok := s.subject(in.Token)
	if !ok {
		return &models.PostPayload{Message: MsgInvalidToken}
	}

	existing, err := s.store.GetPostByID(ctx, in.ID)
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrInvalidID) {
		return &models.PostPayload{Message: MsgPostNotFound}
	}
	if err != nil {
		return s.postFailure("updatePost: lookup", err)
	}
	if existing.AuthorID != userID {
		return &models.PostPayload{Message: MsgNotAuthorized}
	}
	if err := s.validate.Struct(in); err != nil {
		return &models.PostPayload{Message: MsgTitleRequired}
	}

	upd := models.PostUpdate{Title: in.Title, Content: in.Content}
	err = s.store.UpdatePost(ctx, in.ID, upd)
	if errors.Is(err, store.ErrNotFound) {
		return &models.PostPayload{Message: MsgPostNotFound}
	}
	if err != nil {
		return s.postFailure("updatePost: update", err)
	}

	updated := models.StoredPost{ID: existing.ID, Title: upd.Title, Content: upd.Content, AuthorID: existing.AuthorID}
	return &models.PostPayload{
		OK:      true,
		Post:    models.ToPost(&updated, s.author(ctx, existing.AuthorID)),
		Message: MsgPostUpdated,
	}
}

// subject verifies token. The raw token is only ever logged redacted.
func (s *Service) subject(token string) (string, bool) {
	userID, err := s.tokens.Verify(token)
	if err != nil {
		s.log.Debug("token rejected", zap.String("token", auth.Redact(token)))
		return "", false
	}
	return userID, true
}

// author resolves a post's author at read time. A missing or unreadable
// author is a normal outcome and yields nil.
func (s *Service) author(ctx context.Context, authorID string) *models.StoredUser {
	u, err := s.store.GetUserByID(ctx, authorID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.log.Debug("author lookup failed", zap.String("author_id", authorID), zap.Error(err))
		}
		return nil
	}
	return u
}

func (s *Service) authFailure(op string, err error) *models.AuthPayload {
	s.log.Error(op, zap.Error(err))
	return &models.AuthPayload{Message: MsgInternal}
}

func (s *Service) postFailure(op string, err error) *models.PostPayload {
	s.log.Error(op, zap.Error(err))
	return &models.PostPayload{Message: MsgInternal}
}

var dummyHash = sync.OnceValue(func() string {
	h, _ := auth.HashPassword("myblog-timing-equaliser")
	return h
})
