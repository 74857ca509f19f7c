// Package openrouter adapts the hosted chat-completion API behind the
// ModelClient port, with rate limiting, retries, and typed failures.
package openrouter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ratatutor/backend/internal/core/domain"
	"github.com/ratatutor/backend/internal/infrastructure/resilience"
)

type Client struct {
	baseURL     string
	apiKey      string
	model       string
	httpClient  *http.Client
	limiter     *rate.Limiter
	executor    *resilience.Executor
	callTimeout time.Duration
}

type Options struct {
	// CallTimeout bounds a single completion attempt end to end.
	CallTimeout time.Duration
	// RequestsPerMinute throttles upstream calls; 0 disables the limiter.
	RequestsPerMinute  int
	ResilienceExecutor *resilience.Executor
}

func New(baseURL, apiKey, model string, options Options) *Client {
	callTimeout := options.CallTimeout
	if callTimeout <= 0 {
		callTimeout = 60 * time.Second
	}

	var limiter *rate.Limiter
	if options.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(options.RequestsPerMinute)), options.RequestsPerMinute)
	}

	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		model:       model,
		httpClient:  &http.Client{Timeout: callTimeout},
		limiter:     limiter,
		executor:    options.ResilienceExecutor,
		callTimeout: callTimeout,
	}
}

type completionRequest struct {
	Model     string               `json:"model"`
	Messages  []completionsMessage `json:"messages"`
	MaxTokens int                  `json:"max_tokens,omitempty"`
}

type completionsMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete sends one chat completion and returns the assistant text.
// Transport failures and retryable statuses go through the resilience
// executor; deadline expiry surfaces as the distinct timeout kind.
func (c *Client) Complete(ctx context.Context, messages []domain.PromptMessage, maxTokens int) (string, error) {
	if len(messages) == 0 {
		return "", domain.WrapError(domain.ErrInvalidInput, "complete", fmt.Errorf("no messages"))
	}

	request := completionRequest{
		Model:     c.model,
		Messages:  make([]completionsMessage, len(messages)),
		MaxTokens: maxTokens,
	}
	for i, msg := range messages {
		request.Messages[i] = completionsMessage{Role: msg.Role, Content: msg.Content}
	}

	var reply string
	call := func(ctx context.Context) error {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
		defer cancel()

		var response completionResponse
		if err := c.postJSON(callCtx, "/chat/completions", request, &response); err != nil {
			return err
		}
		if response.Error != nil && response.Error.Message != "" {
			return fmt.Errorf("upstream error: %s", response.Error.Message)
		}
		if len(response.Choices) == 0 {
			return fmt.Errorf("completion returned no choices")
		}
		reply = strings.TrimSpace(response.Choices[0].Message.Content)
		return nil
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "openrouter.complete", call, classifyCompletionError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", wrapCompletionError(err)
	}
	return reply, nil
}

func wrapCompletionError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.WrapError(domain.ErrAIServiceTimeout, "complete", err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return domain.WrapError(domain.ErrAIService, "complete", err)
}
