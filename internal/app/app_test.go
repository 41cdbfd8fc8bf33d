package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"diet-planner/internal/config"
	"diet-planner/internal/llm"
	"diet-planner/internal/planner"

	"github.com/rs/zerolog"
)

type mockTextGen struct {
	res string
	err error
}

func (m *mockTextGen) GenerateContent(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	if m.err != nil {
		return llm.ContentResponse{}, m.err
	}
	return llm.ContentResponse{Content: m.res}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Port:               3000,
		CompletionProvider: config.ProviderOpenAI,
		CompletionTimeout:  time.Second,
		SegmentPolicy:      "corrected",
		LogLevel:           "info",
		LogFormat:          "json",
	}
}

var testOptions = planner.Options{
	User:              "sam",
	DietaryPreference: "vegetarian",
	HealthGoal:        "energy",
	NumDays:           2,
	Allergies:         []string{},
}

func TestPrintDietPlan(t *testing.T) {
	ctx := context.Background()

	t.Run("PrintsMeals", func(t *testing.T) {
		a, err := newApp(testConfig(), zerolog.Nop(), &mockTextGen{res: "Day 1:\nBreakfast:\n- eggs\nDay 2:\nRest day, eat freely."})
		if err != nil {
			t.Fatalf("newApp failed: %v", err)
		}

		var out bytes.Buffer
		if err := a.PrintDietPlan(ctx, testOptions, &out); err != nil {
			t.Fatalf("PrintDietPlan failed: %v", err)
		}

		got := out.String()
		for _, want := range []string{"=== DAY 1 ===", "Breakfast:\n  - eggs", "=== DAY 2 ===", "Rest day, eat freely."} {
			if !strings.Contains(got, want) {
				t.Errorf("Expected output to contain %q, got:\n%s", want, got)
			}
		}
	})

	t.Run("NoDays", func(t *testing.T) {
		a, err := newApp(testConfig(), zerolog.Nop(), &mockTextGen{res: "Eat well."})
		if err != nil {
			t.Fatalf("newApp failed: %v", err)
		}

		var out bytes.Buffer
		if err := a.PrintDietPlan(ctx, testOptions, &out); err != nil {
			t.Fatalf("PrintDietPlan failed: %v", err)
		}
		if !strings.Contains(out.String(), "No days found") {
			t.Errorf("Unexpected output: %s", out.String())
		}
	})

	t.Run("CompletionFailure", func(t *testing.T) {
		a, err := newApp(testConfig(), zerolog.Nop(), &mockTextGen{err: llm.ErrNoContent})
		if err != nil {
			t.Fatalf("newApp failed: %v", err)
		}

		err = a.PrintDietPlan(ctx, testOptions, &bytes.Buffer{})
		if !errors.Is(err, llm.ErrNoContent) {
			t.Fatalf("Expected ErrNoContent, got %v", err)
		}
	})
}

func TestNewAppInvalidPolicy(t *testing.T) {
	cfg := testConfig()
	cfg.SegmentPolicy = "random"

	if _, err := newApp(cfg, zerolog.Nop(), &mockTextGen{}); err == nil {
		t.Fatal("Expected an error for an unknown segment policy")
	}
}

func TestNewLogger(t *testing.T) {
	t.Run("JSON", func(t *testing.T) {
		cfg := testConfig()
		cfg.LogLevel = "warn"

		var buf bytes.Buffer
		logger := NewLogger(cfg, &buf)
		logger.Info().Msg("hidden")
		logger.Warn().Msg("shown")

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) != 1 {
			t.Fatalf("Expected 1 log line, got %d: %q", len(lines), buf.String())
		}

		var entry map[string]any
		if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
			t.Fatalf("Expected JSON log line: %v", err)
		}
		if entry["message"] != "shown" || entry["service"] != "diet-planner" {
			t.Errorf("Unexpected entry: %v", entry)
		}
	})

	t.Run("InvalidLevelFallsBackToInfo", func(t *testing.T) {
		cfg := testConfig()
		cfg.LogLevel = "loud"

		var buf bytes.Buffer
		logger := NewLogger(cfg, &buf)
		logger.Debug().Msg("hidden")
		if buf.Len() != 0 {
			t.Errorf("Expected debug to be filtered, got %q", buf.String())
		}
	})

	t.Run("Console", func(t *testing.T) {
		cfg := testConfig()
		cfg.LogFormat = "console"

		var buf bytes.Buffer
		logger := NewLogger(cfg, &buf)
		logger.Info().Msg("hello")
		if strings.HasPrefix(buf.String(), "{") || !strings.Contains(buf.String(), "hello") {
			t.Errorf("Expected console output, got %q", buf.String())
		}
	})
}
