package acceptance_tests

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"diet-planner/internal/app"
	"diet-planner/internal/config"

	"github.com/rs/zerolog"
)

const completionText = `Sure! Here is your plan.

Day 1:
Breakfast:
- Greek yogurt
- berries
Lunch:
- chickpea salad

Day 2:
Breakfast:
- oatmeal

Day 3:
Dinner:
- grilled tofu`

// fakeCompletionAPI mimics the chat completions endpoint.
type fakeCompletionAPI struct {
	calls   atomic.Int32
	status  int
	content string
}

func (f *fakeCompletionAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.calls.Add(1)

	if r.Header.Get("Authorization") != "Bearer test-key" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if f.status != 0 {
		w.WriteHeader(f.status)
		fmt.Fprint(w, `{"error":{"message":"boom"}}`)
		return
	}

	var req struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Messages) != 1 || req.Messages[0].Role != "user" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	resp := map[string]any{
		"model":   req.Model,
		"choices": []any{map[string]any{"message": map[string]any{"role": "assistant", "content": f.content}}},
		"usage":   map[string]any{"prompt_tokens": 42, "completion_tokens": 128, "total_tokens": 170},
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func startService(t *testing.T, completion *fakeCompletionAPI, tweak func(*config.Config)) *httptest.Server {
	t.Helper()

	upstream := httptest.NewServer(completion)
	t.Cleanup(upstream.Close)

	cfg := &config.Config{
		Port:               3000,
		CompletionProvider: config.ProviderOpenAI,
		OpenAIAPIKey:       "test-key",
		OpenAIURL:          upstream.URL + "/v1/chat/completions",
		OpenAIModel:        "gpt-3.5-turbo",
		CompletionTimeout:  2 * time.Second,
		SegmentPolicy:      "corrected",
	}
	if tweak != nil {
		tweak(cfg)
	}

	application, err := app.New(context.Background(), cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("Failed to build application: %v", err)
	}
	t.Cleanup(func() { _ = application.Close() })

	srv := httptest.NewServer(application.Server().Handler())
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url, body string) (int, []byte) {
	t.Helper()

	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read body: %v", err)
	}
	return resp.StatusCode, data
}

const validOptions = `{"user":"alex","dietaryPreference":"vegetarian","healthGoal":"weight loss","numDays":3,"allergies":["peanuts"],"budgetConstraint":60}`

func TestGenerateDietEndToEnd(t *testing.T) {
	completion := &fakeCompletionAPI{content: completionText}
	srv := startService(t, completion, nil)

	status, body := postJSON(t, srv.URL+"/generate-diet", validOptions)
	if status != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", status, body)
	}

	var resp struct {
		Days []struct {
			Day  string `json:"day"`
			Diet string `json:"diet"`
		} `json:"days"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}

	if len(resp.Days) != 3 {
		t.Fatalf("Expected 3 days, got %d", len(resp.Days))
	}
	for i, d := range resp.Days {
		want := fmt.Sprintf("%d", i+1)
		if d.Day != want || !strings.HasPrefix(d.Diet, "Day "+want+":") {
			t.Errorf("Unexpected day %d: %+v", i, d)
		}
	}
	if strings.Contains(resp.Days[0].Diet, "Day 2:") {
		t.Error("Expected day 1 to stop at the day 2 marker")
	}
	if completion.calls.Load() != 1 {
		t.Errorf("Expected exactly one completion call, got %d", completion.calls.Load())
	}
}

func TestGenerateDietFaithfulPolicy(t *testing.T) {
	completion := &fakeCompletionAPI{content: completionText}
	srv := startService(t, completion, func(cfg *config.Config) { cfg.SegmentPolicy = "faithful" })

	status, body := postJSON(t, srv.URL+"/generate-diet", validOptions)
	if status != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", status, body)
	}

	var resp struct {
		Days []struct {
			Day  string `json:"day"`
			Diet string `json:"diet"`
		} `json:"days"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if len(resp.Days) != 2 || resp.Days[0].Day != "1" || resp.Days[1].Day != "3" {
		t.Fatalf("Unexpected sections: %+v", resp.Days)
	}
	if !strings.Contains(resp.Days[0].Diet, "Day 2:") {
		t.Error("Expected day 1 to absorb the day 2 text")
	}
}

func TestGenerateDietUpstreamFailure(t *testing.T) {
	completion := &fakeCompletionAPI{status: http.StatusServiceUnavailable}
	srv := startService(t, completion, nil)

	status, body := postJSON(t, srv.URL+"/generate-diet", validOptions)
	if status != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", status)
	}
	if strings.TrimSpace(string(body)) != `{"error":"Error generating diet plan"}` {
		t.Errorf("Unexpected body: %s", body)
	}
	if strings.Contains(string(body), "boom") {
		t.Error("Upstream detail leaked to the caller")
	}
}

func TestGenerateDietValidation(t *testing.T) {
	completion := &fakeCompletionAPI{content: completionText}
	srv := startService(t, completion, nil)

	status, body := postJSON(t, srv.URL+"/generate-diet", `{"user":"alex","dietaryPreference":"vegetarian","healthGoal":"weight loss","allergies":[]}`)
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("Expected 422, got %d", status)
	}
	if !strings.Contains(string(body), `"field":"numDays"`) {
		t.Errorf("Expected numDays to be listed, got %s", body)
	}
	if completion.calls.Load() != 0 {
		t.Error("Expected no completion call for invalid input")
	}
}

func TestGetDayWithImages(t *testing.T) {
	images := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("query")
		fmt.Fprintf(w, `{"results":[{"urls":{"regular":"https://images.test/%s.jpg"}}]}`, strings.ReplaceAll(q, " ", "_"))
	}))
	defer images.Close()

	completion := &fakeCompletionAPI{content: completionText}
	srv := startService(t, completion, func(cfg *config.Config) {
		cfg.UnsplashAccessKey = "unsplash-key"
		cfg.UnsplashURL = images.URL
	})

	resp, err := http.Get(srv.URL + "/getDay/1?user=alex&dietaryPreference=vegetarian&healthGoal=energy&numDays=3&allergies=")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var day struct {
		Day  string `json:"day"`
		Diet []struct {
			Time string   `json:"time"`
			Food []string `json:"food"`
		} `json:"diet"`
		Images map[string]string `json:"images"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&day); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}

	if len(day.Diet) != 2 || day.Diet[0].Time != "Breakfast" || len(day.Diet[0].Food) != 2 {
		t.Fatalf("Unexpected meals: %+v", day.Diet)
	}
	if day.Images["Greek yogurt"] != "https://images.test/Greek_yogurt.jpg" {
		t.Errorf("Unexpected images: %v", day.Images)
	}
}
