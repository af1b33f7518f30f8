package agent

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
)

// ErrRateLimited marks a completion request rejected by the provider's rate
// limiter after every backoff attempt was exhausted.
var ErrRateLimited = errors.New("chat completion rate limited")

// DefaultMaxBackoffDelay caps a single backoff wait regardless of how far the
// exponential schedule has grown.
const DefaultMaxBackoffDelay = 30 * time.Second

// BackoffHook is notified before each rate-limit backoff wait, with the
// attempt about to be retried and the delay about to be slept.
type BackoffHook func(attempt int, delay time.Duration)

type backoffHookKey struct{}

// WithBackoffHook attaches a hook to the context so callers can observe
// rate-limit waits as they happen.
func WithBackoffHook(ctx context.Context, hook BackoffHook) context.Context {
	if hook == nil {
		return ctx
	}
	return context.WithValue(ctx, backoffHookKey{}, hook)
}

func backoffHookFrom(ctx context.Context) BackoffHook {
	if hook, ok := ctx.Value(backoffHookKey{}).(BackoffHook); ok {
		return hook
	}
	return nil
}

// ChatClient is the one seam the orchestration loop has on the model
// provider. Complete sends the full transcript and returns the assistant's
// reply text.
type ChatClient interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// OpenAIClient implements ChatClient against the OpenAI chat completion API.
// Rate-limited requests are retried with exponential backoff; every other
// provider error is returned as-is.
type OpenAIClient struct {
	client      *openai.Client
	model       string
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
}

type OpenAIOption func(*OpenAIClient)

func WithModel(model string) OpenAIOption {
	return func(c *OpenAIClient) { c.model = model }
}

func WithMaxAttempts(n int) OpenAIOption {
	return func(c *OpenAIClient) { c.maxAttempts = n }
}

func WithBaseDelay(d time.Duration) OpenAIOption {
	return func(c *OpenAIClient) { c.baseDelay = d }
}

func WithMaxBackoffDelay(d time.Duration) OpenAIOption {
	return func(c *OpenAIClient) { c.maxDelay = d }
}

func NewOpenAIClient(apiKey string, opts ...OpenAIOption) *OpenAIClient {
	c := &OpenAIClient{
		client:      openai.NewClient(apiKey),
		model:       openai.GPT4TurboPreview,
		maxAttempts: 4,
		baseDelay:   time.Second,
		maxDelay:    DefaultMaxBackoffDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewOpenAIClientFromConfig builds a client against a custom endpoint, for
// OpenAI-compatible local servers.
func NewOpenAIClientFromConfig(apiKey, baseURL string, opts ...OpenAIOption) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	c := &OpenAIClient{
		client:      openai.NewClientWithConfig(cfg),
		model:       openai.GPT4TurboPreview,
		maxAttempts: 4,
		baseDelay:   time.Second,
		maxDelay:    DefaultMaxBackoffDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		role := string(m.Role)
		// Ability results travel as user messages: the completion API has
		// no native role for them outside of tool calling.
		if m.Role == RoleAbility {
			role = openai.ChatMessageRoleUser
		}
		out = append(out, openai.ChatCompletionMessage{
			Role:    role,
			Content: m.Content,
		})
	}
	return out
}

func (c *OpenAIClient) Complete(ctx context.Context, messages []Message) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: toOpenAIMessages(messages),
	}

	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			delay := c.backoffDelay(attempt)
			log.Debug().
				Int("attempt", attempt+1).
				Dur("delay", delay).
				Msg("chat: rate limited, backing off")
			if hook := backoffHookFrom(ctx); hook != nil {
				hook(attempt+1, delay)
			}
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
		}

		resp, err := c.client.CreateChatCompletion(ctx, req)
		if err == nil {
			if len(resp.Choices) == 0 {
				return "", errors.New("chat completion returned no choices")
			}
			return resp.Choices[0].Message.Content, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if !isRateLimited(err) {
			return "", errors.Wrap(err, "chat completion")
		}
		lastErr = err
	}
	return "", errors.Wrap(ErrRateLimited, lastErr.Error())
}

// backoffDelay doubles the base delay per completed attempt, capped at the
// configured maximum.
func (c *OpenAIClient) backoffDelay(attempt int) time.Duration {
	delay := c.baseDelay << uint(attempt-1)
	if c.maxDelay > 0 && delay > c.maxDelay {
		delay = c.maxDelay
	}
	return delay
}

func isRateLimited(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	return false
}
