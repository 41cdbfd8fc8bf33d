package metrics

import (
	"sort"
	"sync"
	"time"

	"diet-planner/internal/llm"
)

// ExecutionMetric records metadata for a single completion call.
type ExecutionMetric struct {
	Operation        string
	Model            string
	PromptTokens     int
	CompletionTokens int
	LatencyMS        int64
	Failed           bool
	Timestamp        time.Time
}

// DailyUsage represents token totals for a single day.
type DailyUsage struct {
	Date            string `json:"date"`
	TotalPrompt     int    `json:"total_prompt_tokens"`
	TotalCompletion int    `json:"total_completion_tokens"`
	TotalExecution  int    `json:"total_executions"`
	TotalFailed     int    `json:"total_failed"`
	AvgLatencyMS    int64  `json:"avg_latency_ms"`
}

// Store keeps completion usage in memory for the lifetime of the process.
type Store struct {
	mu        sync.Mutex
	days      map[string]*dailyBucket
	retention int
}

type dailyBucket struct {
	usage     DailyUsage
	latencyMS int64
}

// NewStore creates a Store that keeps the last retentionDays days of usage.
func NewStore(retentionDays int) *Store {
	if retentionDays < 1 {
		retentionDays = 1
	}
	return &Store{
		days:      make(map[string]*dailyBucket),
		retention: retentionDays,
	}
}

// Record adds m to its day's totals.
func (s *Store) Record(m ExecutionMetric) {
	ts := m.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	day := ts.UTC().Format("2006-01-02")

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.days[day]
	if !ok {
		b = &dailyBucket{usage: DailyUsage{Date: day}}
		s.days[day] = b
	}
	b.usage.TotalExecution++
	b.usage.TotalPrompt += m.PromptTokens
	b.usage.TotalCompletion += m.CompletionTokens
	if m.Failed {
		b.usage.TotalFailed++
	}
	b.latencyMS += m.LatencyMS

	s.cleanup(ts)
}

// GetDailyUsage returns the retained days, oldest first.
func (s *Store) GetDailyUsage() []DailyUsage {
	s.mu.Lock()
	defer s.mu.Unlock()

	results := make([]DailyUsage, 0, len(s.days))
	for _, b := range s.days {
		u := b.usage
		if u.TotalExecution > 0 {
			u.AvgLatencyMS = b.latencyMS / int64(u.TotalExecution)
		}
		results = append(results, u)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Date < results[j].Date })
	return results
}

// cleanup drops days older than the retention window. Callers hold s.mu.
func (s *Store) cleanup(now time.Time) {
	threshold := now.UTC().AddDate(0, 0, -s.retention).Format("2006-01-02")
	for day := range s.days {
		if day <= threshold {
			delete(s.days, day)
		}
	}
}

// MapUsage helper to convert llm.TokenUsage to ExecutionMetric.
func MapUsage(operation string, usage llm.TokenUsage, latency time.Duration, err error) ExecutionMetric {
	return ExecutionMetric{
		Operation:        operation,
		Model:            usage.Model,
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		LatencyMS:        latency.Milliseconds(),
		Failed:           err != nil,
		Timestamp:        time.Now().UTC(),
	}
}
