package planner

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"diet-planner/internal/dietplan"
	"diet-planner/internal/foodimage"
	"diet-planner/internal/llm"
	"diet-planner/internal/metrics"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ErrDayNotFound is returned by Day when the plan has no section for the requested day.
var ErrDayNotFound = errors.New("day not found in diet plan")

const imageLookupLimit = 4

// Plan is the normalized completion text for one request.
type Plan struct {
	Text  string
	Usage llm.TokenUsage
}

// DayPlan is a single day broken down into meals.
type DayPlan struct {
	Day    string               `json:"day"`
	Diet   []dietplan.MealEntry `json:"diet"`
	Images map[string]string    `json:"images,omitempty"`
}

// UsageRecorder receives one metric per completion call.
type UsageRecorder interface {
	Record(m metrics.ExecutionMetric)
}

// Planner handles the generation of diet plans.
type Planner struct {
	textGen llm.TextGenerator
	policy  dietplan.Policy
	timeout time.Duration
	images  foodimage.Finder
	usage   UsageRecorder
}

// NewPlanner creates a new Planner instance. A zero timeout leaves the
// completion call bounded only by the caller's context.
func NewPlanner(textGen llm.TextGenerator, policy dietplan.Policy, timeout time.Duration) *Planner {
	return &Planner{
		textGen: textGen,
		policy:  policy,
		timeout: timeout,
	}
}

// WithImages enables food image lookups for Day.
func (p *Planner) WithImages(finder foodimage.Finder) *Planner {
	p.images = finder
	return p
}

// WithMetrics records completion usage into rec.
func (p *Planner) WithMetrics(rec UsageRecorder) *Planner {
	p.usage = rec
	return p
}

// Policy reports the segmentation policy in use.
func (p *Planner) Policy() dietplan.Policy {
	return p.policy
}

// Generate asks the completion service for a plan. It makes exactly one call.
func (p *Planner) Generate(ctx context.Context, opts Options) (Plan, error) {
	log := zerolog.Ctx(ctx)

	prompt, err := BuildPrompt(opts)
	if err != nil {
		return Plan{}, fmt.Errorf("failed to build prompt: %w", err)
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := p.textGen.GenerateContent(ctx, prompt)
	latency := time.Since(start)
	if p.usage != nil {
		p.usage.Record(metrics.MapUsage("generate", resp.Usage, latency, err))
	}
	if err != nil {
		log.Error().Err(err).Dur("latency", latency).Msg("Completion request failed")
		return Plan{}, fmt.Errorf("failed to generate diet plan: %w", err)
	}

	log.Info().
		Str("model", resp.Usage.Model).
		Dur("latency", latency).
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Int("total_tokens", resp.Usage.TotalTokens).
		Msg("Completion received")

	text := dietplan.Normalize(resp.Content)
	if text == "" {
		return Plan{}, fmt.Errorf("failed to generate diet plan: %w", llm.ErrNoContent)
	}

	return Plan{Text: text, Usage: resp.Usage}, nil
}

// Days generates a plan and splits it into day sections.
func (p *Planner) Days(ctx context.Context, opts Options) ([]dietplan.DaySection, error) {
	plan, err := p.Generate(ctx, opts)
	if err != nil {
		return nil, err
	}

	days := dietplan.Segment(plan.Text, p.policy)
	zerolog.Ctx(ctx).Debug().Int("days", len(days)).Str("policy", p.policy.String()).Msg("Plan segmented")

	return days, nil
}

// Day generates a plan and returns the meals of the requested day.
func (p *Planner) Day(ctx context.Context, opts Options, day int) (DayPlan, error) {
	days, err := p.Days(ctx, opts)
	if err != nil {
		return DayPlan{}, err
	}

	section, ok := findDay(days, day)
	if !ok {
		return DayPlan{}, fmt.Errorf("%w: day %d", ErrDayNotFound, day)
	}

	result := DayPlan{
		Day:  section.Day,
		Diet: dietplan.ParseMeals(section.Body()),
	}

	if p.images != nil {
		result.Images = p.lookupImages(ctx, result.Diet)
	}

	return result, nil
}

// findDay returns the first section whose label is numerically equal to day.
func findDay(days []dietplan.DaySection, day int) (dietplan.DaySection, bool) {
	for _, d := range days {
		n, err := strconv.Atoi(d.Day)
		if err == nil && n == day {
			return d, true
		}
	}
	return dietplan.DaySection{}, false
}

// lookupImages finds one picture per distinct food item. Failed lookups are skipped.
func (p *Planner) lookupImages(ctx context.Context, meals []dietplan.MealEntry) map[string]string {
	log := zerolog.Ctx(ctx)

	var items []string
	seen := make(map[string]bool)
	for _, meal := range meals {
		for _, food := range meal.Food {
			key := strings.TrimSpace(food)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			items = append(items, key)
		}
	}

	urls := make([]string, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(imageLookupLimit)
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			url, err := p.images.FindImage(gctx, item)
			if err != nil {
				if !errors.Is(err, foodimage.ErrNoImage) {
					log.Warn().Err(err).Str("food", item).Msg("Image lookup failed")
				}
				return nil
			}
			urls[i] = url
			return nil
		})
	}
	_ = g.Wait()

	images := make(map[string]string)
	for i, item := range items {
		if urls[i] != "" {
			images[item] = urls[i]
		}
	}
	return images
}
