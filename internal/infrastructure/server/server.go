package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/MarkerTrack/backend/internal/api/middleware"
	"github.com/GriffinCanCode/MarkerTrack/backend/internal/domain/display"
	"github.com/GriffinCanCode/MarkerTrack/backend/internal/domain/registry"
	"github.com/GriffinCanCode/MarkerTrack/backend/internal/domain/session"
	handlers "github.com/GriffinCanCode/MarkerTrack/backend/internal/http"
	"github.com/GriffinCanCode/MarkerTrack/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/MarkerTrack/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/MarkerTrack/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/MarkerTrack/backend/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/MarkerTrack/backend/internal/sensor/dirwatch"
	"github.com/GriffinCanCode/MarkerTrack/backend/internal/ws"
)

const shutdownTimeout = 5 * time.Second

// Server wraps the HTTP server and the tracking pipeline
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	controller *session.Controller
	registry   *registry.Manager
	popup      *display.Popup
	hub        *ws.Hub
	tracer     *tracing.Tracer
	logger     *logging.Logger
	config     *config.Config
	metrics    *monitoring.Metrics

	closeOnce sync.Once
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	logger, err := logging.New(logging.Config{
		Service:     "markertrack",
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		OutputPaths: cfg.Logging.Outputs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	logger.Info("Initializing MarkerTrack server",
		zap.String("port", cfg.Server.Port),
		zap.String("sensor_dir", cfg.Sensor.Dir),
	)

	metrics := monitoring.NewMetrics()
	tracer := tracing.New("markertrack", logger.Component("tracing"))

	// A missing directory would read as denied access; create it so a
	// fresh install starts tracking.
	if err := os.MkdirAll(cfg.Sensor.Dir, 0o755); err != nil {
		logger.Warn("Failed to create sensor directory", zap.String("dir", cfg.Sensor.Dir), zap.Error(err))
	}

	reg := registry.NewManager().WithMetrics(metrics)
	hub := ws.NewHub(cfg.Display.ClientBuffer, logger.Component("stream")).WithMetrics(metrics)
	popup := display.NewPopup(hub, logger.Component("display"))
	watcher := dirwatch.New(cfg.Sensor.Dir,
		dirwatch.WithPattern(cfg.Sensor.Pattern),
		dirwatch.WithConsume(cfg.Sensor.Consume),
		dirwatch.WithLogger(logger.Component("sensor")),
	)
	controller := session.NewController(watcher, reg, popup, logger.Component("session")).WithMetrics(metrics)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Global {
		logger.Info("Global rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.GlobalRPS),
			zap.Int("burst", cfg.RateLimit.GlobalBurst),
		)
		router.Use(middleware.GlobalRateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.GlobalRPS,
			Burst:             cfg.RateLimit.GlobalBurst,
		}))
	}
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	h := handlers.NewHandlers(reg, controller, popup, hub, metrics)

	router.GET("/", h.Root)
	router.GET("/health", h.Health)

	// Tracked markers
	router.GET("/markers", h.ListMarkers)
	router.GET("/markers/:id", h.GetMarker)

	// Display and session
	router.GET("/popup", h.GetPopup)
	router.GET("/session", h.GetSession)

	// Metrics
	router.GET("/metrics", monitoring.Handler(metrics))

	// WebSocket
	router.GET("/stream", hub.HandleConnection)

	logger.Info("Server initialized successfully")

	return &Server{
		router: router,
		httpServer: &http.Server{
			Addr:              cfg.Server.Host + ":" + cfg.Server.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		controller: controller,
		registry:   reg,
		popup:      popup,
		hub:        hub,
		tracer:     tracer,
		logger:     logger,
		config:     cfg,
		metrics:    metrics,
	}, nil
}

// Router returns the HTTP handler
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Controller returns the tracking session controller
func (s *Server) Controller() *session.Controller {
	return s.controller
}

// StartTracking starts the session controller. The result is logged and
// forwarded on the returned channel; a failed start leaves the HTTP API up
// with the session reported as failed.
func (s *Server) StartTracking(ctx context.Context) <-chan error {
	span, ctx := s.tracer.StartSpan(ctx, "session.start")
	span.SetTag("sensor.dir", s.config.Sensor.Dir)

	out := make(chan error, 1)
	result := s.controller.Start(ctx)
	go func() {
		defer close(out)

		err := <-result
		if err != nil {
			span.SetError(err)
			s.logger.Error("Marker tracking unavailable", zap.Error(err))
		} else {
			s.logger.Info("Marker tracking running", zap.String("session_id", s.controller.ID().String()))
		}
		span.Finish()
		s.tracer.Submit(span)

		out <- err
	}()
	return out
}

// Run starts tracking and serves HTTP until Close is called
func (s *Server) Run() error {
	s.StartTracking(context.Background())

	s.logger.Info("Starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Close gracefully shuts down the server. Tracking is torn down first so
// no popup is published to a closing stream.
func (s *Server) Close() error {
	var errs []error
	s.closeOnce.Do(func() {
		s.logger.Info("Shutting down server...")

		if err := s.controller.Stop(); err != nil {
			s.logger.Error("Failed to stop marker tracking", zap.Error(err))
			errs = append(errs, err)
		}

		s.hub.Close()

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("Failed to shut down HTTP server", zap.Error(err))
			errs = append(errs, fmt.Errorf("failed to shut down http server: %w", err))
		}

		s.tracer.Close()
		s.logger.Info("Server shutdown complete")
		_ = s.logger.Sync()
	})
	return errors.Join(errs...)
}
