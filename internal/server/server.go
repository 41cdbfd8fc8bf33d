// Package server exposes the diet planner over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"diet-planner/internal/config"
	"diet-planner/internal/dietplan"
	"diet-planner/internal/metrics"
	"diet-planner/internal/planner"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
)

const notifyTimeout = 30 * time.Second

// Generator produces diet plans for request options.
type Generator interface {
	Generate(ctx context.Context, opts planner.Options) (planner.Plan, error)
	Days(ctx context.Context, opts planner.Options) ([]dietplan.DaySection, error)
	Day(ctx context.Context, opts planner.Options, day int) (planner.DayPlan, error)
	Policy() dietplan.Policy
}

// Notifier delivers generated days to the user out of band.
type Notifier interface {
	NotifyDays(ctx context.Context, user string, days []dietplan.DaySection) error
}

// UsageReporter exposes completion usage for the health endpoint.
type UsageReporter interface {
	GetDailyUsage() []metrics.DailyUsage
}

// Server defines the configuration and dependencies for the HTTP service.
type Server struct {
	cfg      *config.Config
	gen      Generator
	notifier Notifier
	usage    UsageReporter
	logger   zerolog.Logger
	validate *validator.Validate

	// background tracks notification deliveries still in flight.
	background sync.WaitGroup
}

// NewServer creates a Server that serves plans from gen.
func NewServer(cfg *config.Config, gen Generator, logger zerolog.Logger) *Server {
	return &Server{
		cfg:      cfg,
		gen:      gen,
		logger:   logger,
		validate: newValidator(),
	}
}

// WithNotifier enables day notifications after a successful POST /generate-diet.
func (s *Server) WithNotifier(n Notifier) *Server {
	s.notifier = n
	return s
}

// WithUsage adds completion usage to the health report.
func (s *Server) WithUsage(u UsageReporter) *Server {
	s.usage = u
	return s
}

// Handler builds the echo router with all routes registered.
func (s *Server) Handler() http.Handler {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(s.loggerMiddleware)
	e.Use(s.requestLogger())

	e.GET("/", s.readyHandler)
	e.GET("/health", s.healthHandler)
	e.POST("/generate-diet", s.generateDietHandler)
	e.GET("/getOverview", s.overviewHandler)
	e.GET("/getDay/:dayNumber", s.dayHandler)
	e.GET("/api-docs", s.docsHandler)
	e.GET("/api-docs/", s.docsHandler)
	e.GET("/api-docs/openapi.json", s.openAPIHandler)

	return e
}

// HTTPServer returns a *http.Server listening on the configured port.
// The write timeout leaves room for a full completion call.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.Handler(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: s.cfg.CompletionTimeout + 30*time.Second,
	}
}

// Wait blocks until background notifications finish or ctx is done.
func (s *Server) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.background.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
