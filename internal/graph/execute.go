package graph

import (
	"context"

	"github.com/graphql-go/graphql"

	"github.com/ayush/myblog/backend/internal/blog"
	"github.com/ayush/myblog/backend/internal/observability"
)

// Request is the body a client posts to the GraphQL endpoint.
type Request struct {
	Query         string                 `json:"query"`
	Variables     map[string]interface{} `json:"variables"`
	OperationName string                 `json:"operationName"`
}

// Response carries the result data and an ordered list of error messages.
type Response struct {
	Data   interface{} `json:"data,omitempty"`
	Errors []string    `json:"errors,omitempty"`
}

// Executor runs requests against the blog schema.
type Executor struct {
	schema graphql.Schema
}

func NewExecutor(svc *blog.Service, metrics *observability.Metrics) (*Executor, error) {
	schema, err := NewSchema(svc, metrics)
	if err != nil {
		return nil, err
	}
	return &Executor{schema: schema}, nil
}

// Execute is the single entry point of the API.
func (e *Executor) Execute(ctx context.Context, req Request) Response {
	res := graphql.Do(graphql.Params{
		Schema:         e.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        ctx,
	})

	var out Response
	if res.Data != nil {
		out.Data = res.Data
	}
	for _, err := range res.Errors {
		out.Errors = append(out.Errors, err.Message)
	}
	return out
}
