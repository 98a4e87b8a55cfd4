package http_init

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
)

const apiPrefix = "/api/v1"

type Controller interface {
	RegisterRoutes(router *gin.RouterGroup)
}

type ControllerPool struct {
	pool   []Controller
	rg     *gin.RouterGroup
	engine *gin.Engine
	logger *slog.Logger
}

type Option func(*ControllerPool)

func WithLogger(logger *slog.Logger) Option {
	return func(p *ControllerPool) {
		p.logger = logger
	}
}

// WithMiddleware installs handlers in front of every /api/v1 route.
func WithMiddleware(mw ...gin.HandlerFunc) Option {
	return func(p *ControllerPool) {
		p.rg.Use(mw...)
	}
}

func NewControllerPool(opts ...Option) *ControllerPool {
	engine := gin.New()
	pool := &ControllerPool{
		pool:   make([]Controller, 0, 10),
		engine: engine,
		logger: slog.Default(),
	}
	engine.Use(gin.Recovery(), pool.accessLog())
	pool.rg = engine.Group(apiPrefix)

	for _, opt := range opts {
		opt(pool)
	}
	return pool
}

func (pool *ControllerPool) Register() {
	for _, c := range pool.pool {
		c.RegisterRoutes(pool.rg)
	}
}

func (pool *ControllerPool) Add(c Controller) {
	pool.pool = append(pool.pool, c)
}

// Handler is the gin engine wrapped with CORS for browser clients.
func (pool *ControllerPool) Handler() http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: false,
	}).Handler(pool.engine)
}

// RunAll serves until ctx is done, then shuts down gracefully.
func (pool *ControllerPool) RunAll(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           pool.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		pool.logger.Info("http server listening", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	pool.logger.Info("http server shutting down")
	return srv.Shutdown(shutdownCtx)
}

func (pool *ControllerPool) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		pool.logger.Debug("request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("took", time.Since(start)))
	}
}
