// Package api serves the bug collection over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/zulandar/bugyard/internal/apperr"
	"github.com/zulandar/bugyard/internal/config"
	"github.com/zulandar/bugyard/internal/logger"
	"github.com/zulandar/bugyard/internal/notify"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// StartOpts holds configuration for the API server.
type StartOpts struct {
	DB       *gorm.DB
	Server   config.ServerConfig
	Notifier notify.Notifier // nil means no notifications
	Out      io.Writer
}

// Start launches the API server. It blocks until ctx is cancelled, then
// shuts down gracefully within Server.ShutdownTimeout.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.DB == nil {
		return fmt.Errorf("api: db is required")
	}
	if opts.Server.Port <= 0 {
		opts.Server.Port = 5000
	}
	if opts.Server.ShutdownTimeout <= 0 {
		opts.Server.ShutdownTimeout = 10 * time.Second
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Server.Port),
		Handler:           NewRouter(opts.DB, opts.Server, opts.Notifier),
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownErr := make(chan error, 1)
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), opts.Server.ShutdownTimeout)
		defer cancel()
		shutdownErr <- srv.Shutdown(sctx)
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Bugyard API running at http://localhost:%d%s\n", opts.Server.Port, opts.Server.BasePath)
	}
	logger.Info("api server starting",
		zap.Int("port", opts.Server.Port),
		zap.String("base_path", opts.Server.BasePath),
	)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api: %w", err)
	}
	if err := <-shutdownErr; err != nil {
		return fmt.Errorf("api: shutdown: %w", err)
	}
	logger.Info("api server stopped")
	return nil
}

// NewRouter builds the gin engine with middleware and every route mounted.
func NewRouter(db *gorm.DB, cfg config.ServerConfig, n notify.Notifier) *gin.Engine {
	if n == nil {
		n = notify.Nop{}
	}
	if cfg.BasePath == "" {
		cfg.BasePath = "/api/bugs"
	}

	router := gin.New()
	router.Use(
		recovery(),
		RequestID(),
		RequestLogger(),
		cors.New(corsConfig(cfg.CORSOrigins)),
		ErrorHandler(),
	)

	router.GET("/health", handleHealth())
	registerRoutes(router.Group(cfg.BasePath), db, n)

	router.NoRoute(func(c *gin.Context) {
		c.Error(apperr.NotFound(apperr.MsgRouteNotFound))
	})
	return router
}

// corsConfig allows every origin when the list is empty or contains "*".
func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	cfg.AllowHeaders = append(cfg.AllowHeaders, RequestIDHeader)
	cfg.ExposeHeaders = []string{RequestIDHeader}
	allowAll := len(origins) == 0
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
	}
	if allowAll {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
