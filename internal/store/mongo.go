package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ayush/myblog/backend/internal/models"
)

type userDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Username    string             `bson:"username"`
	Password    string             `bson:"password"`
	DisplayName string             `bson:"display_name,omitempty"`
}

type postDoc struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	Title    string             `bson:"title"`
	Content  string             `bson:"content"`
	AuthorID string             `bson:"author_id"`
}

func (d *userDoc) stored() *models.StoredUser {
	return &models.StoredUser{
		ID:          d.ID.Hex(),
		Username:    d.Username,
		Password:    d.Password,
		DisplayName: d.DisplayName,
	}
}

func (d *postDoc) stored() models.StoredPost {
	return models.StoredPost{
		ID:       d.ID.Hex(),
		Title:    d.Title,
		Content:  d.Content,
		AuthorID: d.AuthorID,
	}
}

// MongoStore handles user and post documents in MongoDB.
type MongoStore struct {
	users   *mongo.Collection
	posts   *mongo.Collection
	timeout time.Duration
}

// NewMongoStore binds the users and posts collections of db. Calls whose
// context has no deadline are bounded by timeout.
func NewMongoStore(db *mongo.Database, timeout time.Duration) *MongoStore {
	return &MongoStore{
		users:   db.Collection("users"),
		posts:   db.Collection("posts"),
		timeout: timeout,
	}
}

// EnsureIndexes creates the unique username index and the author lookup index.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("mongo users index: %w", err)
	}
	_, err = s.posts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "author_id", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("mongo posts index: %w", err)
	}
	return nil
}

func (s *MongoStore) GetUserByID(ctx context.Context, id string) (*models.StoredUser, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return s.findUser(ctx, bson.M{"_id": oid})
}

func (s *MongoStore) GetUserByUsername(ctx context.Context, username string) (*models.StoredUser, error) {
	return s.findUser(ctx, bson.M{"username": username})
}

func (s *MongoStore) findUser(ctx context.Context, filter bson.M) (*models.StoredUser, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	var doc userDoc
	if err := s.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, mapMongoErr("mongo find user", err)
	}
	return doc.stored(), nil
}

func (s *MongoStore) CreateUser(ctx context.Context, u models.NewUser) (string, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	res, err := s.users.InsertOne(ctx, userDoc{
		Username:    u.Username,
		Password:    u.Password,
		DisplayName: u.DisplayName,
	})
	if err != nil {
		return "", mapMongoErr("mongo insert user", err)
	}
	return res.InsertedID.(primitive.ObjectID).Hex(), nil
}

func (s *MongoStore) GetPostByID(ctx context.Context, id string) (*models.StoredPost, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()

	var doc postDoc
	if err := s.posts.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, mapMongoErr("mongo find post", err)
	}
	p := doc.stored()
	return &p, nil
}

func (s *MongoStore) ListPosts(ctx context.Context) ([]models.StoredPost, error) {
	return s.findPosts(ctx, bson.M{})
}

func (s *MongoStore) ListPostsByAuthor(ctx context.Context, authorID string) ([]models.StoredPost, error) {
	return s.findPosts(ctx, bson.M{"author_id": authorID})
}

func (s *MongoStore) findPosts(ctx context.Context, filter bson.M) ([]models.StoredPost, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.posts.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo find posts: %w", err)
	}
	defer cur.Close(ctx)

	var docs []postDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo decode posts: %w", err)
	}
	out := make([]models.StoredPost, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].stored())
	}
	return out, nil
}

func (s *MongoStore) CreatePost(ctx context.Context, p models.StoredPost) (string, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	res, err := s.posts.InsertOne(ctx, postDoc{
		Title:    p.Title,
		Content:  p.Content,
		AuthorID: p.AuthorID,
	})
	if err != nil {
		return "", fmt.Errorf("mongo insert post: %w", err)
	}
	return res.InsertedID.(primitive.ObjectID).Hex(), nil
}

func (s *MongoStore) UpdatePost(ctx context.Context, id string, upd models.PostUpdate) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()

	res, err := s.posts.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"title": upd.Title, "content": upd.Content}},
	)
	if err != nil {
		return fmt.Errorf("mongo update post: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok || s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return oid, nil
}

func mapMongoErr(op string, err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrDuplicate
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
