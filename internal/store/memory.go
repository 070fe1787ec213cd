package store

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ayush/myblog/backend/internal/models"
)

// MemoryStore is an in-process store with Mongo-shaped ids. It backs tests
// and STORE_BACKEND=memory local runs.
type MemoryStore struct {
	mu        sync.RWMutex
	users     map[string]models.StoredUser
	usernames map[string]string
	posts     map[string]models.StoredPost
	order     []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:     make(map[string]models.StoredUser),
		usernames: make(map[string]string),
		posts:     make(map[string]models.StoredPost),
	}
}

func (s *MemoryStore) GetUserByID(_ context.Context, id string) (*models.StoredUser, error) {
	if _, err := objectID(id); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (s *MemoryStore) GetUserByUsername(_ context.Context, username string) (*models.StoredUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usernames[username]
	if !ok {
		return nil, ErrNotFound
	}
	u := s.users[id]
	return &u, nil
}

func (s *MemoryStore) CreateUser(_ context.Context, nu models.NewUser) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.usernames[nu.Username]; taken {
		return "", ErrDuplicate
	}
	id := primitive.NewObjectID().Hex()
	s.users[id] = models.StoredUser{
		ID:          id,
		Username:    nu.Username,
		Password:    nu.Password,
		DisplayName: nu.DisplayName,
	}
	s.usernames[nu.Username] = id
	return id, nil
}

func (s *MemoryStore) GetPostByID(_ context.Context, id string) (*models.StoredPost, error) {
	if _, err := objectID(id); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (s *MemoryStore) ListPosts(_ context.Context) ([]models.StoredPost, error) {
	return s.filterPosts(func(models.StoredPost) bool { return true }), nil
}

func (s *MemoryStore) ListPostsByAuthor(_ context.Context, authorID string) ([]models.StoredPost, error) {
	return s.filterPosts(func(p models.StoredPost) bool { return p.AuthorID == authorID }), nil
}

func (s *MemoryStore) filterPosts(keep func(models.StoredPost) bool) []models.StoredPost {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.StoredPost, 0, len(s.order))
	for _, id := range s.order {
		if p := s.posts[id]; keep(p) {
			out = append(out, p)
		}
	}
	return out
}

func (s *MemoryStore) CreatePost(_ context.Context, p models.StoredPost) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = primitive.NewObjectID().Hex()
	s.posts[p.ID] = p
	s.order = append(s.order, p.ID)
	return p.ID, nil
}

func (s *MemoryStore) UpdatePost(_ context.Context, id string, upd models.PostUpdate) error {
	if _, err := objectID(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[id]
	if !ok {
		return ErrNotFound
	}
	p.Title = upd.Title
	p.Content = upd.Content
	s.posts[id] = p
	return nil
}
