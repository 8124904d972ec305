package anthropic

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// AskerConfig fixes the model parameters for classification calls.
type AskerConfig struct {
	Model          string
	MaxTokens      int64
	Temperature    float64
	RequestTimeout time.Duration
}

// Asker adapts Client to the single-prompt capability the classification
// orchestrator consumes, applying the per-request timeout and tallying
// token usage across calls.
type Asker struct {
	client Client
	cfg    AskerConfig

	mu    sync.Mutex
	usage TokenUsage
}

// NewAsker wraps client with fixed classification parameters.
func NewAsker(client Client, cfg AskerConfig) *Asker {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}
	return &Asker{client: client, cfg: cfg}
}

// Ask sends one prompt and returns the model's text. A timed-out request
// surfaces as context.DeadlineExceeded, which the retry layer treats as
// transient.
func (a *Asker) Ask(ctx context.Context, prompt string) (string, error) {
	if a.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.RequestTimeout)
		defer cancel()
	}

	temp := a.cfg.Temperature
	resp, err := a.client.CreateMessage(ctx, MessageRequest{
		Model:       a.cfg.Model,
		MaxTokens:   a.cfg.MaxTokens,
		Temperature: &temp,
		Messages: []Message{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}

	a.mu.Lock()
	a.usage.Add(resp.Usage)
	a.mu.Unlock()

	return resp.Text, nil
}

// Usage returns the tokens consumed so far across all calls.
func (a *Asker) Usage() TokenUsage {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.usage
}

// LogUsage logs accumulated token consumption.
func (a *Asker) LogUsage(model string) {
	u := a.Usage()
	zap.L().Info("classifier token usage",
		zap.String("model", model),
		zap.Int64("input_tokens", u.InputTokens),
		zap.Int64("output_tokens", u.OutputTokens),
	)
}
