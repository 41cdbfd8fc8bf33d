package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"diet-planner/internal/app"
	"diet-planner/internal/config"
	"diet-planner/internal/planner"

	"github.com/rs/zerolog"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.NewFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := app.NewLogger(cfg, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, os.Args[1], os.Args[2:]); err != nil {
		logger.Error().Err(err).Str("command", os.Args[1]).Msg("Command failed")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger, command string, args []string) error {
	switch command {
	case "serve", "generate":
	default:
		printUsage()
		return fmt.Errorf("unknown command: %s", command)
	}

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer application.Close()

	if command == "serve" {
		return serve(ctx, application, logger)
	}
	return generate(ctx, application, args)
}

func serve(ctx context.Context, application *app.App, logger zerolog.Logger) error {
	srv := application.Server()
	httpServer := srv.HTTPServer()

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", httpServer.Addr).Msg("Server is running")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down gracefully, press Ctrl+C again to force")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	if err := srv.Wait(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("Pending notifications abandoned")
	}

	logger.Info().Msg("Server exiting")
	return nil
}

func generate(ctx context.Context, application *app.App, args []string) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	user := fs.String("user", "cli", "Name of the person the plan is for")
	preference := fs.String("preference", "", "Dietary preference, e.g. vegetarian")
	goal := fs.String("goal", "", "Health goal, e.g. weight loss")
	days := fs.Int("days", 7, "Number of days")
	allergies := fs.String("allergies", "", "Comma-separated allergens to avoid")
	budget := fs.Float64("budget", 0, "Budget constraint (0 for none)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *preference == "" || *goal == "" || *days < 1 {
		fs.Usage()
		return errors.New("-preference, -goal and a positive -days are required")
	}

	opts := planner.Options{
		User:              *user,
		DietaryPreference: *preference,
		HealthGoal:        *goal,
		NumDays:           *days,
		Allergies:         splitList(*allergies),
	}
	if *budget != 0 {
		opts.BudgetConstraint = budget
	}

	fmt.Printf("Generating a %d-day %s plan for %q...\n", opts.NumDays, opts.DietaryPreference, opts.HealthGoal)
	return application.PrintDietPlan(ctx, opts, os.Stdout)
}

func splitList(s string) []string {
	items := []string{}
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func printUsage() {
	fmt.Println("Usage: diet-planner <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  serve       Start the HTTP API")
	fmt.Println("  generate    Generate a plan and print it (-preference, -goal, -days, -allergies, -budget, -user)")
}
