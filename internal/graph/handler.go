package graph

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Handler serves the GraphQL endpoint over HTTP.
type Handler struct {
	exec       *Executor
	log        *zap.Logger
	playground bool
}

func NewHandler(exec *Executor, log *zap.Logger, playground bool) *Handler {
	return &Handler{exec: exec, log: log, playground: playground}
}

// Routes mounts POST /graphql and, when enabled, the GraphiQL page on GET.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/graphql", h.Serve)
	if h.playground {
		r.Get("/graphql", h.Playground)
	}
}

// Serve decodes a Request and always answers 200 once the body parses;
// resolution failures travel in the errors list.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Errors: []string{"invalid request body"}})
		return
	}
	if req.Query == "" {
		writeJSON(w, http.StatusBadRequest, Response{Errors: []string{"query is required"}})
		return
	}

	resp := h.exec.Execute(r.Context(), req)
	if len(resp.Errors) > 0 {
		h.log.Debug("graphql errors",
			zap.String("operation", req.OperationName),
			zap.Strings("errors", resp.Errors),
		)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Playground serves the GraphiQL explorer.
func (h *Handler) Playground(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(playgroundHTML))
}

const playgroundHTML = `<!DOCTYPE html>
<html>
<head>
  <title>GraphiQL</title>
  <link href="https://unpkg.com/graphiql/graphiql.min.css" rel="stylesheet" />
</head>
<body style="margin: 0;">
  <div id="graphiql" style="height: 100vh;"></div>
  <script crossorigin src="https://unpkg.com/react/umd/react.production.min.js"></script>
  <script crossorigin src="https://unpkg.com/react-dom/umd/react-dom.production.min.js"></script>
  <script src="https://unpkg.com/graphiql/graphiql.min.js"></script>
  <script>
    const fetcher = params =>
      fetch('/graphql', {
        method: 'POST',
        headers: { 'Content-Type': 'application/json' },
        body: JSON.stringify(params),
        credentials: 'same-origin',
      }).then(r => r.json());
    ReactDOM.render(
      React.createElement(GraphiQL, { fetcher }),
      document.getElementById('graphiql'),
    );
  </script>
</body>
</html>
`
