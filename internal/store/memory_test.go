package store

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayush/myblog/backend/internal/models"
)

func TestMemoryStore_Users(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	id, err := s.CreateUser(ctx, models.NewUser{Username: "alice", Password: "hash", DisplayName: "Alice"})
	require.NoError(t, err)
	assert.Len(t, id, 24)

	byID, err := s.GetUserByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)
	assert.Equal(t, "Alice", byID.DisplayName)

	byName, err := s.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, id, byName.ID)

	_, err = s.CreateUser(ctx, models.NewUser{Username: "alice", Password: "other"})
	assert.ErrorIs(t, err, ErrDuplicate)

	_, err = s.GetUserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_InvalidIDs(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.GetUserByID(ctx, "not-an-id")
	assert.ErrorIs(t, err, ErrInvalidID)

	_, err = s.GetPostByID(ctx, "xyz")
	assert.ErrorIs(t, err, ErrInvalidID)

	err = s.UpdatePost(ctx, "", models.PostUpdate{Title: "t"})
	assert.ErrorIs(t, err, ErrInvalidID)

	_, err = s.GetPostByID(ctx, "0123456789abcdef01234567")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_Posts(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	first, err := s.CreatePost(ctx, models.StoredPost{Title: "one", Content: "a", AuthorID: "u1"})
	require.NoError(t, err)
	_, err = s.CreatePost(ctx, models.StoredPost{Title: "two", Content: "b", AuthorID: "u2"})
	require.NoError(t, err)
	_, err = s.CreatePost(ctx, models.StoredPost{Title: "three", Content: "c", AuthorID: "u1"})
	require.NoError(t, err)

	all, err := s.ListPosts(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"one", "two", "three"}, []string{all[0].Title, all[1].Title, all[2].Title})

	mine, err := s.ListPostsByAuthor(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	require.NoError(t, s.UpdatePost(ctx, first, models.PostUpdate{Title: "uno", Content: "z"}))
	got, err := s.GetPostByID(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, "uno", got.Title)
	assert.Equal(t, "z", got.Content)
	assert.Equal(t, "u1", got.AuthorID)

	err = s.UpdatePost(ctx, "0123456789abcdef01234567", models.PostUpdate{Title: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_ConcurrentCreate(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.CreatePost(ctx, models.StoredPost{Title: "t", AuthorID: "u"})
		}()
	}
	wg.Wait()

	all, err := s.ListPosts(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 50)
}
