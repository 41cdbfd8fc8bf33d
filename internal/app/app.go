package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"diet-planner/internal/config"
	"diet-planner/internal/dietplan"
	"diet-planner/internal/foodimage"
	"diet-planner/internal/llm"
	"diet-planner/internal/metrics"
	"diet-planner/internal/planner"
	"diet-planner/internal/server"
	"diet-planner/internal/telegram"

	"github.com/rs/zerolog"
)

const usageRetentionDays = 7

// App holds the application's dependencies.
type App struct {
	cfg         *config.Config
	logger      zerolog.Logger
	textGen     llm.TextGenerator
	dietPlanner *planner.Planner
	usage       *metrics.Store
	server      *server.Server
}

// New builds the completion client selected by cfg and wires every component.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	textGen, err := llm.NewTextGenerator(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize completion client: %w", err)
	}

	a, err := newApp(cfg, logger, textGen)
	if err != nil {
		if c, ok := textGen.(llm.Closer); ok {
			_ = c.Close()
		}
		return nil, err
	}
	return a, nil
}

func newApp(cfg *config.Config, logger zerolog.Logger, textGen llm.TextGenerator) (*App, error) {
	policy, err := dietplan.ParsePolicy(cfg.SegmentPolicy)
	if err != nil {
		return nil, err
	}

	usage := metrics.NewStore(usageRetentionDays)
	dietPlanner := planner.NewPlanner(textGen, policy, cfg.CompletionTimeout).WithMetrics(usage)
	if cfg.ImagesEnabled() {
		dietPlanner.WithImages(foodimage.NewUnsplashClient(cfg))
	}

	srv := server.NewServer(cfg, dietPlanner, logger).WithUsage(usage)
	if cfg.TelegramEnabled() {
		notifier, err := telegram.NewNotifier(cfg)
		if err != nil {
			return nil, err
		}
		srv.WithNotifier(notifier)
	}

	logger.Info().
		Str("provider", cfg.CompletionProvider).
		Str("segment_policy", policy.String()).
		Dur("completion_timeout", cfg.CompletionTimeout).
		Bool("telegram", cfg.TelegramEnabled()).
		Bool("images", cfg.ImagesEnabled()).
		Msg("Application initialized")

	return &App{
		cfg:         cfg,
		logger:      logger,
		textGen:     textGen,
		dietPlanner: dietPlanner,
		usage:       usage,
		server:      srv,
	}, nil
}

// Server returns the HTTP server component.
func (a *App) Server() *server.Server {
	return a.server
}

// PrintDietPlan generates a plan for opts and writes it day by day to w.
func (a *App) PrintDietPlan(ctx context.Context, opts planner.Options, w io.Writer) error {
	ctx = a.logger.WithContext(ctx)

	days, err := a.dietPlanner.Days(ctx, opts)
	if err != nil {
		return err
	}

	if len(days) == 0 {
		fmt.Fprintln(w, "No days found in the generated plan.")
		return nil
	}

	for _, day := range days {
		fmt.Fprintf(w, "\n=== DAY %s ===\n", day.Day)
		meals := dietplan.ParseMeals(day.Body())
		if len(meals) == 0 {
			fmt.Fprintln(w, day.Body())
			continue
		}
		for _, meal := range meals {
			fmt.Fprintf(w, "%s:\n", meal.Time)
			for _, food := range meal.Food {
				fmt.Fprintf(w, "  - %s\n", food)
			}
		}
	}

	return nil
}

// Close releases the completion client.
func (a *App) Close() error {
	if c, ok := a.textGen.(llm.Closer); ok {
		return c.Close()
	}
	return nil
}

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func NewLogger(cfg *config.Config, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if strings.EqualFold(cfg.LogFormat, "console") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}

	return zerolog.New(w).Level(level).With().Timestamp().Str("service", "diet-planner").Logger()
}
