package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/agenthands/platformid/internal/config"
	"github.com/agenthands/platformid/internal/core"
	"github.com/agenthands/platformid/internal/fingerprint"
	"github.com/agenthands/platformid/internal/logging"
	"github.com/agenthands/platformid/internal/metrics"
	"github.com/agenthands/platformid/internal/store"
)

type Server struct {
	Config  *config.Config
	Service *core.Service
	Logger  *slog.Logger

	store store.Store
}

func NewServer(cfg *config.Config, svc *core.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	registerJSONFieldNames()
	return &Server{Config: cfg, Service: svc, Logger: logger, store: svc.Store}
}

// Build opens the configured store and wires the resolver with the logging
// and metrics observers.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	matching, err := cfg.BuildMatching()
	if err != nil {
		return nil, fmt.Errorf("matching config: %w", err)
	}
	s, err := store.Open(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	resolver := fingerprint.NewResolver(matching, fingerprint.Observers{
		logging.NewMatchObserver(logger),
		metrics.Observer{},
	})
	logger.Info("resolver configured",
		slog.String("profile", cfg.Matching.Profile),
		slog.Int("max_score", matching.Weights.MaxScore()),
		slog.Float64("minimum_score", matching.MinimumScore()),
		slog.String("store", cfg.Store.Backend),
	)
	return NewServer(cfg, core.NewService(s, resolver), logger), nil
}

func (s *Server) Close(ctx context.Context) error {
	return s.store.Close(ctx)
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.Default()
	r.Use(s.recordRequest(), s.requestTimeout())

	r.GET("/healthz", s.Health)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api/secure")
	api.POST("/platform-users/resolve", s.Resolve)
	api.POST("/platform-users", s.CreateUser)
	api.PUT("/platform-users/update", s.UpdateUser)
	api.POST("/linked-records", s.CreateLinked)

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    ":" + s.Config.Server.Port,
		Handler: s.SetupRouter(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.Logger.Info("starting server", slog.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.Logger.Info("shutting down server")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) requestTimeout() gin.HandlerFunc {
	timeout := time.Duration(s.Config.Server.RequestTimeoutSeconds) * time.Second
	return func(c *gin.Context) {
		if timeout <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (s *Server) recordRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordRequest(route, strconv.Itoa(c.Writer.Status()))
	}
}

// fail maps a service error onto a response.
func (s *Server) fail(c *gin.Context, op string, err error) {
	switch core.ErrorKind(err) {
	case "validation":
		var fields []string
		var verr *core.ValidationError
		if errors.As(err, &verr) {
			fields = verr.Fields
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing fields", "fields": fields})
	case "not_found":
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case "unauthorized":
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		s.Logger.ErrorContext(c.Request.Context(), "request failed",
			slog.String("op", op),
			slog.String("error_kind", core.ErrorKind(err)),
			slog.Any("error", err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + op})
	}
}

// registerJSONFieldNames makes validator report fields by their JSON name.
func registerJSONFieldNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
}
