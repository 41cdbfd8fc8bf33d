package llm

import (
	"context"
	"errors"
	"fmt"

	"diet-planner/internal/config"
)

var (
	// ErrNoContent means the completion service answered but returned no text.
	ErrNoContent = errors.New("no content generated")
	// ErrTransport covers network failures, timeouts and cancellation.
	ErrTransport = errors.New("completion transport failure")
	// ErrMalformedResponse means the response body could not be decoded.
	ErrMalformedResponse = errors.New("malformed completion response")
)

// UpstreamError is returned when the completion service answers with a non-2xx status.
type UpstreamError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s api error: status=%d body=%s", e.Provider, e.StatusCode, e.Body)
}

// TokenUsage tracks the tokens consumed by a request.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Model            string
}

// ContentResponse contains the generated text and metadata like token usage.
type ContentResponse struct {
	Content string
	Usage   TokenUsage
}

// TextGenerator is an interface for generating text from a prompt.
//
// A nil error always comes with non-empty Content; every failure is reported as
// an error wrapping ErrNoContent, ErrTransport, ErrMalformedResponse or an
// *UpstreamError.
type TextGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (ContentResponse, error)
}

// Closer is an interface for closing resources.
type Closer interface {
	Close() error
}

// NewTextGenerator builds the completion client selected by cfg.CompletionProvider.
func NewTextGenerator(ctx context.Context, cfg *config.Config) (TextGenerator, error) {
	switch cfg.CompletionProvider {
	case config.ProviderOpenAI:
		return NewOpenAIClient(cfg), nil
	case config.ProviderGemini:
		client, err := NewGeminiClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown completion provider %q", cfg.CompletionProvider)
	}
}

// transportError tags err as a transport failure, keeping context errors reachable.
func transportError(err error) error {
	return fmt.Errorf("%w: %w", ErrTransport, err)
}
