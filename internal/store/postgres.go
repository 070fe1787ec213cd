package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ayush/myblog/backend/internal/models"
)

const pgUniqueViolation = "23505"

// PostgresStore keeps users and posts in PostgreSQL with UUID ids.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the users and posts tables if they don't exist.
// posts.author_id is a plain text reference, not a foreign key.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id           UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			username     VARCHAR(255) UNIQUE NOT NULL,
			password     VARCHAR(255) NOT NULL,
			display_name VARCHAR(255) NOT NULL DEFAULT '',
			created_at   TIMESTAMPTZ  DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS posts (
			id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			title      TEXT NOT NULL,
			content    TEXT NOT NULL DEFAULT '',
			author_id  TEXT NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS posts_author_id_idx ON posts (author_id);
	`)
	return err
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (*models.StoredUser, error) {
	if err := checkUUID(id); err != nil {
		return nil, err
	}
	return s.scanUser(s.pool.QueryRow(ctx,
		`SELECT id, username, password, display_name FROM users WHERE id = $1`, id,
	))
}

func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (*models.StoredUser, error) {
	return s.scanUser(s.pool.QueryRow(ctx,
		`SELECT id, username, password, display_name FROM users WHERE username = $1`, username,
	))
}

func (s *PostgresStore) scanUser(row pgx.Row) (*models.StoredUser, error) {
	var u models.StoredUser
	if err := row.Scan(&u.ID, &u.Username, &u.Password, &u.DisplayName); err != nil {
		return nil, mapPgErr("select user", err)
	}
	return &u, nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, u models.NewUser) (string, error) {
	var id string
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (username, password, display_name)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		u.Username, u.Password, u.DisplayName,
	).Scan(&id)
	if err != nil {
		return "", mapPgErr("create user", err)
	}
	return id, nil
}

func (s *PostgresStore) GetPostByID(ctx context.Context, id string) (*models.StoredPost, error) {
	if err := checkUUID(id); err != nil {
		return nil, err
	}
	var p models.StoredPost
	err := s.pool.QueryRow(ctx,
		`SELECT id, title, content, author_id FROM posts WHERE id = $1`, id,
	).Scan(&p.ID, &p.Title, &p.Content, &p.AuthorID)
	if err != nil {
		return nil, mapPgErr("select post", err)
	}
	return &p, nil
}

func (s *PostgresStore) ListPosts(ctx context.Context) ([]models.StoredPost, error) {
	return s.queryPosts(ctx,
		`SELECT id, title, content, author_id FROM posts ORDER BY created_at, id`)
}

func (s *PostgresStore) ListPostsByAuthor(ctx context.Context, authorID string) ([]models.StoredPost, error) {
	return s.queryPosts(ctx,
		`SELECT id, title, content, author_id FROM posts WHERE author_id = $1 ORDER BY created_at, id`, authorID)
}

func (s *PostgresStore) queryPosts(ctx context.Context, sql string, args ...any) ([]models.StoredPost, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("select posts: %w", err)
	}
	posts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.StoredPost, error) {
		var p models.StoredPost
		err := row.Scan(&p.ID, &p.Title, &p.Content, &p.AuthorID)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan posts: %w", err)
	}
	return posts, nil
}

func (s *PostgresStore) CreatePost(ctx context.Context, p models.StoredPost) (string, error) {
	var id string
	err := s.pool.QueryRow(ctx,
		`INSERT INTO posts (title, content, author_id)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		p.Title, p.Content, p.AuthorID,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("create post: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) UpdatePost(ctx context.Context, id string, upd models.PostUpdate) error {
	if err := checkUUID(id); err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE posts SET title = $2, content = $3 WHERE id = $1`,
		id, upd.Title, upd.Content,
	)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func checkUUID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

func mapPgErr(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return ErrDuplicate
	}
	return fmt.Errorf("%s: %w", op, err)
}
