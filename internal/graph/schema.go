// Package graph is the GraphQL contract of the blog API: a static table of
// operations, the schema built from it, and the single execute entry point.
package graph

import (
	"context"
	"time"

	"github.com/graphql-go/graphql"

	"github.com/ayush/myblog/backend/internal/blog"
	"github.com/ayush/myblog/backend/internal/models"
	"github.com/ayush/myblog/backend/internal/observability"
)

// Kind selects the root type an operation is attached to.
type Kind int

const (
	Query Kind = iota
	Mutation
)

// Resolver executes one operation against the blog service.
type Resolver func(ctx context.Context, svc *blog.Service, args Args) (interface{}, error)

// Operation is one root field of the schema. Operations with AuthRequired
// receive a required token argument.
type Operation struct {
	Name         string
	Kind         Kind
	Description  string
	Args         graphql.FieldConfigArgument
	Type         graphql.Output
	AuthRequired bool
	Resolve      Resolver
}

var userType = graphql.NewObject(graphql.ObjectConfig{
	Name: "User",
	Fields: graphql.Fields{
		"id":          &graphql.Field{Type: graphql.ID},
		"username":    &graphql.Field{Type: graphql.String},
		"displayName": &graphql.Field{Type: graphql.String},
	},
})

var postType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Post",
	Fields: graphql.Fields{
		"id":      &graphql.Field{Type: graphql.ID},
		"title":   &graphql.Field{Type: graphql.String},
		"content": &graphql.Field{Type: graphql.String},
		"author": &graphql.Field{
			Type: userType,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				if post, ok := p.Source.(*models.Post); ok && post.Author != nil {
					return post.Author, nil
				}
				return nil, nil
			},
		},
	},
})

var userWithPostsType = graphql.NewObject(graphql.ObjectConfig{
	Name: "UserWithPosts",
	Fields: graphql.Fields{
		"id":          &graphql.Field{Type: graphql.ID},
		"username":    &graphql.Field{Type: graphql.String},
		"displayName": &graphql.Field{Type: graphql.String},
		"posts":       &graphql.Field{Type: graphql.NewList(postType)},
	},
})

func authPayloadType(name string) *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: name,
		Fields: graphql.Fields{
			"ok": &graphql.Field{Type: graphql.Boolean},
			"user": &graphql.Field{
				Type: userType,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if res, ok := p.Source.(*models.AuthPayload); ok && res.User != nil {
						return res.User, nil
					}
					return nil, nil
				},
			},
			"token": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if res, ok := p.Source.(*models.AuthPayload); ok && res.Token != "" {
						return res.Token, nil
					}
					return nil, nil
				},
			},
			"message": &graphql.Field{Type: graphql.String},
		},
	})
}

func postPayloadType(name string) *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: name,
		Fields: graphql.Fields{
			"ok": &graphql.Field{Type: graphql.Boolean},
			"post": &graphql.Field{
				Type: postType,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if res, ok := p.Source.(*models.PostPayload); ok && res.Post != nil {
						return res.Post, nil
					}
					return nil, nil
				},
			},
			"message": &graphql.Field{Type: graphql.String},
		},
	})
}

func required(t graphql.Input) *graphql.ArgumentConfig {
	return &graphql.ArgumentConfig{Type: graphql.NewNonNull(t)}
}

// Operations is the complete contract. Adding an operation means adding an
// entry here and the matching blog.Service method.
var Operations = []Operation{
	{
		Name:        "hello",
		Kind:        Query,
		Description: "Liveness greeting.",
		Type:        graphql.String,
		Resolve: func(_ context.Context, svc *blog.Service, _ Args) (interface{}, error) {
			return svc.Hello(), nil
		},
	},
	{
		Name:        "posts",
		Kind:        Query,
		Description: "All posts with their authors.",
		Type:        graphql.NewList(postType),
		Resolve: func(ctx context.Context, svc *blog.Service, _ Args) (interface{}, error) {
			return svc.ListPosts(ctx)
		},
	},
	{
		Name:        "post",
		Kind:        Query,
		Description: "A single post, or null when it does not exist.",
		Args:        graphql.FieldConfigArgument{"id": required(graphql.ID)},
		Type:        postType,
		Resolve: func(ctx context.Context, svc *blog.Service, args Args) (interface{}, error) {
			if p := svc.GetPost(ctx, args.String("id")); p != nil {
				return p, nil
			}
			return nil, nil
		},
	},
	{
		Name:         "me",
		Kind:         Query,
		Description:  "The token's user and their posts, or null for an invalid token.",
		Type:         userWithPostsType,
		AuthRequired: true,
		Resolve: func(ctx context.Context, svc *blog.Service, args Args) (interface{}, error) {
			if me := svc.Me(ctx, args.String("token")); me != nil {
				return me, nil
			}
			return nil, nil
		},
	},
	{
		Name: "register",
		Kind: Mutation,
		Args: graphql.FieldConfigArgument{
			"username":    required(graphql.String),
			"password":    required(graphql.String),
			"displayName": &graphql.ArgumentConfig{Type: graphql.String},
		},
		Type: authPayloadType("Register"),
		Resolve: func(ctx context.Context, svc *blog.Service, args Args) (interface{}, error) {
			return svc.Register(ctx, blog.RegisterInput{
				Username:    args.String("username"),
				Password:    args.String("password"),
				DisplayName: args.String("displayName"),
			}), nil
		},
	},
	{
		Name: "login",
		Kind: Mutation,
		Args: graphql.FieldConfigArgument{
			"username": required(graphql.String),
			"password": required(graphql.String),
		},
		Type: authPayloadType("Login"),
		Resolve: func(ctx context.Context, svc *blog.Service, args Args) (interface{}, error) {
			return svc.Login(ctx, blog.LoginInput{
				Username: args.String("username"),
				Password: args.String("password"),
			}), nil
		},
	},
	{
		Name: "createPost",
		Kind: Mutation,
		Args: graphql.FieldConfigArgument{
			"title":   required(graphql.String),
			"content": required(graphql.String),
		},
		Type:         postPayloadType("CreatePost"),
		AuthRequired: true,
		Resolve: func(ctx context.Context, svc *blog.Service, args Args) (interface{}, error) {
			return svc.CreatePost(ctx, blog.CreatePostInput{
				Title:   args.String("title"),
				Content: args.String("content"),
				Token:   args.String("token"),
			}), nil
		},
	},
	{
		Name: "updatePost",
		Kind: Mutation,
		Args: graphql.FieldConfigArgument{
			"id":      required(graphql.ID),
			"title":   required(graphql.String),
			"content": required(graphql.String),
		},
		Type:         postPayloadType("UpdatePost"),
		AuthRequired: true,
		Resolve: func(ctx context.Context, svc *blog.Service, args Args) (interface{}, error) {
			return svc.UpdatePost(ctx, blog.UpdatePostInput{
				ID:      args.String("id"),
				Title:   args.String("title"),
				Content: args.String("content"),
				Token:   args.String("token"),
			}), nil
		},
	},
}

// Args is the coerced argument map of a resolved field.
type Args map[string]interface{}

// String returns the named argument, or "" when it is absent or null.
func (a Args) String(name string) string {
	s, _ := a[name].(string)
	return s
}

// NewSchema builds the executable schema from Operations. metrics may be nil.
func NewSchema(svc *blog.Service, metrics *observability.Metrics) (graphql.Schema, error) {
	query := graphql.Fields{}
	mutation := graphql.Fields{}

	for _, op := range Operations {
		field := &graphql.Field{
			Name:        op.Name,
			Type:        op.Type,
			Description: op.Description,
			Args:        fieldArgs(op),
			Resolve:     bind(op, svc, metrics),
		}
		if op.Kind == Mutation {
			mutation[op.Name] = field
		} else {
			query[op.Name] = field
		}
	}

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    graphql.NewObject(graphql.ObjectConfig{Name: "Query", Fields: query}),
		Mutation: graphql.NewObject(graphql.ObjectConfig{Name: "Mutation", Fields: mutation}),
	})
}

func fieldArgs(op Operation) graphql.FieldConfigArgument {
	args := graphql.FieldConfigArgument{}
	for name, arg := range op.Args {
		args[name] = arg
	}
	if op.AuthRequired {
		args["token"] = required(graphql.String)
	}
	return args
}

func bind(op Operation, svc *blog.Service, metrics *observability.Metrics) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		start := time.Now()
		v, err := op.Resolve(p.Context, svc, Args(p.Args))
		if metrics != nil {
			metrics.OperationsTotal.WithLabelValues(op.Name, resultStatus(v, err)).Inc()
			metrics.OperationDuration.WithLabelValues(op.Name).Observe(time.Since(start).Seconds())
		}
		return v, err
	}
}

// resultStatus labels a resolved field: "error" for resolver errors,
// "failed" for mutation payloads with ok=false, else "ok".
func resultStatus(v interface{}, err error) string {
	if err != nil {
		return "error"
	}
	switch p := v.(type) {
	case *models.AuthPayload:
		if p != nil && !p.OK {
			return "failed"
		}
	case *models.PostPayload:
		if p != nil && !p.OK {
			return "failed"
		}
	}
	return "ok"
}
