package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/ayush/myblog/backend/internal/auth"
	"github.com/ayush/myblog/backend/internal/blog"
	"github.com/ayush/myblog/backend/internal/config"
	"github.com/ayush/myblog/backend/internal/graph"
	"github.com/ayush/myblog/backend/internal/logging"
	"github.com/ayush/myblog/backend/internal/middleware"
	"github.com/ayush/myblog/backend/internal/observability"
	"github.com/ayush/myblog/backend/internal/store"
)

// backend is an opened store plus its schema setup and shutdown hooks.
type backend struct {
	store   blog.Store
	migrate func(context.Context) error
	close   func(context.Context)
}

func setup() (*config.Config, *zap.Logger, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	switch cfg.StoreBackend {
	case store.BackendMongo:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI).SetTimeout(cfg.StoreTimeout))
		if err != nil {
			return nil, fmt.Errorf("mongo connect: %w", err)
		}
		if err := client.Ping(ctx, nil); err != nil {
			client.Disconnect(ctx)
			return nil, fmt.Errorf("mongo ping: %w", err)
		}
		ms := store.NewMongoStore(client.Database(cfg.MongoDB), cfg.StoreTimeout)
		return &backend{
			store:   ms,
			migrate: ms.EnsureIndexes,
			close:   func(ctx context.Context) { client.Disconnect(ctx) },
		}, nil

	case store.BackendPostgres:
		pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("postgres connect: %w", err)
		}
		ps := store.NewPostgresStore(pool)
		return &backend{
			store:   ps,
			migrate: ps.Migrate,
			close:   func(context.Context) { pool.Close() },
		}, nil

	case store.BackendMemory:
		return &backend{
			store:   store.NewMemoryStore(),
			migrate: func(context.Context) error { return nil },
			close:   func(context.Context) {},
		}, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}

func migrate(ctx context.Context) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	b, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.close(ctx)

	if err := b.migrate(ctx); err != nil {
		return fmt.Errorf("%s migrate: %w", cfg.StoreBackend, err)
	}
	log.Info("migration complete", zap.String("backend", cfg.StoreBackend))
	return nil
}

func serve(ctx context.Context) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	b, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.close(context.Background())
	if err := b.migrate(ctx); err != nil {
		return fmt.Errorf("%s migrate: %w", cfg.StoreBackend, err)
	}

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	svc := blog.NewService(b.store, auth.NewTokenService(cfg.JWTSecret), log)
	exec, err := graph.NewExecutor(svc, metrics)
	if err != nil {
		return fmt.Errorf("graphql schema: %w", err)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      newRouter(cfg, exec, metrics, prometheus.DefaultGatherer, log),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("backend listening", zap.String("addr", srv.Addr), zap.String("store", cfg.StoreBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
	}

	log.Info("shutting down")
	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

func newRouter(cfg *config.Config, exec *graph.Executor, metrics *observability.Metrics, gatherer prometheus.Gatherer, log *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Metrics(metrics))
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", middleware.RequestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	graph.NewHandler(exec, log, cfg.PlaygroundOn).Routes(r)
	return r
}
