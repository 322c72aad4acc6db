package diagnostic

import (
	"context"
	"errors"
	"net"
	"regexp"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const systemPrompt = "You are a senior corporate auditor and strategic risk consultant. You produce conservative, structured assessments grounded only in the answers provided, and you return strict JSON only."

// DefaultModel is used when the configuration does not pin one.
const DefaultModel = "claude-sonnet-4-20250514"

var statusCodeRe = regexp.MustCompile(`(?:status(?:\s+code)?[:=\s]+)(\d{3})`)

type failureClass int

const (
	failureTimeout failureClass = iota + 1
	failureRateLimit
	failureServer
	failureClient
)

// LLMCaller abstracts the scoring model so the engine can be tested
// with a fake.
type LLMCaller interface {
	GenerateJSON(ctx context.Context, prompt string) (string, error)
	ModelName() string
}

type AnthropicMessager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// AnthropicCaller is the production LLMCaller.
type AnthropicCaller struct {
	messages AnthropicMessager
	model    string
}

func NewAnthropicCaller(apiKey, model string, timeout time.Duration) (*AnthropicCaller, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("anthropic api key not configured")
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(timeout))
	}
	c := anthropic.NewClient(opts...)
	return &AnthropicCaller{messages: &c.Messages, model: model}, nil
}

func (a *AnthropicCaller) ModelName() string { return a.model }

func (a *AnthropicCaller) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	resp, err := a.messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(a.model),
		MaxTokens:   2048,
		System:      []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt))},
		Temperature: anthropic.Float(0.2),
	})
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, b := range resp.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	return sb.String(), nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		parts := strings.SplitN(s, "\n", 2)
		if len(parts) == 2 {
			s = parts[1]
		}
		s = strings.TrimPrefix(s, "json")
		s = strings.TrimSpace(strings.TrimSuffix(s, "```"))
	}
	return s
}

// classifyTransportError decides whether a failed call is worth
// retrying. Timeouts, rate limits, and 5xx are transient; 4xx means
// the request itself is broken.
func classifyTransportError(err error) failureClass {
	if errors.Is(err, context.DeadlineExceeded) {
		return failureTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return failureTimeout
	}
	msg := strings.ToLower(err.Error())
	if m := statusCodeRe.FindStringSubmatch(msg); len(m) == 2 {
		switch {
		case m[1] == "429":
			return failureRateLimit
		case strings.HasPrefix(m[1], "5"):
			return failureServer
		case strings.HasPrefix(m[1], "4"):
			return failureClient
		}
	}
	switch {
	case strings.Contains(msg, "rate limit"), strings.Contains(msg, "429"):
		return failureRateLimit
	case strings.Contains(msg, "status 4"), strings.Contains(msg, "status=4"):
		return failureClient
	default:
		return failureServer
	}
}

func retryable(class failureClass) bool {
	return class == failureTimeout || class == failureRateLimit || class == failureServer
}

func backoffDelay(attempt int) time.Duration {
	switch attempt {
	case 1:
		return 1 * time.Second
	case 2:
		return 2 * time.Second
	default:
		return 4 * time.Second
	}
}
