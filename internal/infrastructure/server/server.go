package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
	"go.uber.org/zap"

	api "github.com/GriffinCanCode/CampusAPI/backend/internal/api/http"
	"github.com/GriffinCanCode/CampusAPI/backend/internal/api/middleware"
	"github.com/GriffinCanCode/CampusAPI/backend/internal/database"
	"github.com/GriffinCanCode/CampusAPI/backend/internal/domain/course"
	"github.com/GriffinCanCode/CampusAPI/backend/internal/domain/faculty"
	"github.com/GriffinCanCode/CampusAPI/backend/internal/domain/student"
	"github.com/GriffinCanCode/CampusAPI/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/CampusAPI/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/CampusAPI/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/CampusAPI/backend/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/CampusAPI/backend/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/CampusAPI/backend/internal/shared/utils"
	"github.com/GriffinCanCode/CampusAPI/backend/internal/store"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	router  *gin.Engine
	http    *http.Server
	manager *database.Manager
	tracer  *tracing.Tracer
	logger  *logging.Logger
	config  *config.Config
	metrics *monitoring.Metrics
}

// Option customises server construction
type Option func(*options)

type options struct {
	logger    *logging.Logger
	dialer    database.Dialer
	scheduler resilience.Scheduler
}

// WithLogger replaces the logger built from the logging config
func WithLogger(logger *logging.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithDialer replaces the MongoDB dialer
func WithDialer(dialer database.Dialer) Option {
	return func(o *options) { o.dialer = dialer }
}

// WithScheduler replaces the timer scheduler used for connection retries
func WithScheduler(scheduler resilience.Scheduler) Option {
	return func(o *options) { o.scheduler = scheduler }
}

// NewServer creates a new server instance. No connection attempt is made
// until Run.
func NewServer(cfg *config.Config, opts ...Option) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("server: nil config")
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = logging.NewFromSettings(cfg.Logging.Level, cfg.Logging.Development)
	}

	logger.Info("Initializing Student Management API",
		zap.String("addr", cfg.Server.Addr()),
		zap.String("database", cfg.Database.DatabaseName()),
	)

	metrics := monitoring.NewMetrics()
	tracer := tracing.New("campus-api", logger.Logger)

	dialer := o.dialer
	if dialer == nil {
		dialer = database.NewMongoDialer(cfg.Database.DatabaseName(), cfg.Database.ServerSelectionTimeout)
	}
	scheduler := o.scheduler
	if scheduler == nil {
		scheduler = resilience.NewTimerScheduler()
	}

	manager := database.NewManager(database.Settings{
		URI:            cfg.Database.URI,
		MaxRetries:     cfg.Database.MaxRetries,
		RetryDelay:     cfg.Database.RetryDelay,
		ReconnectDelay: cfg.Database.ReconnectDelay,
	}, dialer, scheduler, logger).WithMetrics(metrics)

	repos := api.Repositories{
		Faculties: store.NewCollection[faculty.Faculty](manager, faculty.Collection).WithMetrics(metrics),
		Students:  store.NewCollection[student.Student](manager, student.Collection).WithMetrics(metrics),
		Courses:   store.NewCollection[course.Course](manager, course.Collection).WithMetrics(metrics),
	}

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(middleware.Recovery(logger))
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.CORS(middleware.CORSConfigForOrigins(cfg.CORS.Origins)))
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
	if cfg.RateLimit.GlobalEnabled() {
		burst := cfg.RateLimit.GlobalBurst
		if burst == 0 {
			burst = cfg.RateLimit.GlobalRequestsPerSecond
		}
		logger.Info("Global rate limit enabled",
			zap.Int("rps", cfg.RateLimit.GlobalRequestsPerSecond),
			zap.Int("burst", burst),
		)
		router.Use(middleware.GlobalRateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.GlobalRequestsPerSecond,
			Burst:             burst,
		}))
	}
	router.Use(middleware.BodyLimit(utils.MaxJSONSize))

	router.GET("/metrics", metrics.Handler())
	api.RegisterRoutes(router, api.NewHandlers(manager), repos)

	logger.Info("Server initialized successfully")

	return &Server{
		router: router,
		http: &http.Server{
			Addr:    cfg.Server.Addr(),
			Handler: gzhttp.GzipHandler(router),
		},
		manager: manager,
		tracer:  tracer,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
	}, nil
}

// Handler returns the root handler, compression included
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Manager returns the database connection manager
func (s *Server) Manager() *database.Manager {
	return s.manager
}

// Run starts the first connection attempt in the background and serves HTTP
// until Shutdown. The listener comes up whether or not the database does.
func (s *Server) Run() error {
	go s.manager.Connect(context.Background())

	s.logger.Info("Starting HTTP server", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen on %s: %w", s.http.Addr, err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server, then the database manager
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	var errs []error
	if err := s.http.Shutdown(ctx); err != nil {
		s.logger.Error("Failed to stop HTTP server", zap.Error(err))
		errs = append(errs, fmt.Errorf("stop http server: %w", err))
	}
	if err := s.manager.Close(ctx); err != nil {
		s.logger.Error("Failed to close database connection", zap.Error(err))
		errs = append(errs, fmt.Errorf("close database: %w", err))
	}
	s.tracer.Close()

	// Sync logger before exit
	_ = s.logger.Sync()

	return errors.Join(errs...)
}
