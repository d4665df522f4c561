// Package chatprovider is an OpenAI-compatible chat-completions HTTP
// client with retries, grounded on the teacher's internal/providers/
// openai.go and internal/providers/types.go. It drops ChatStream/
// StreamChunk/Images (spec §1 Non-goals: no streaming) and the
// multi-vendor wire-format branching (Gemini/DashScope/OpenRouter quirks)
// the teacher carries, since SpecTrail targets exactly one OpenAI-
// compatible wire contract (spec §4.7).
package chatprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/spectrail/core/internal/telemetry"
	"github.com/spectrail/core/pkg/spectrailapi"
)

// perRequestTimeout bounds one HTTP attempt (spec §5: "per-HTTP-request
// 30s").
const perRequestTimeout = 30 * time.Second

// Client is the Core's sole ChatProvider implementation.
type Client struct {
	providerName string
	apiKey       string
	baseURL      string
	extraHeaders map[string]string
	httpClient   *http.Client
	retryConfig  RetryConfig
	limiter      *rate.Limiter
	log          *telemetry.Logger
}

// New constructs a Client from a ProviderSettings snapshot captured once
// at run start (spec §9: "treat them as a snapshot ... Do not re-read
// mid-run"). envAPIKey is consulted when settings.APIKey is empty (spec
// §6: "Credentials may be supplanted by an environment variable").
func New(settings spectrailapi.ProviderSettings, envAPIKey string, log *telemetry.Logger) (*Client, error) {
	apiKey := settings.APIKey
	if apiKey == "" {
		apiKey = envAPIKey
	}
	if apiKey == "" {
		return nil, spectrailapi.NewCoreError(spectrailapi.ErrInvalidCredentials, "no API key configured", nil)
	}
	baseURL := settings.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return nil, spectrailapi.NewCoreError(spectrailapi.ErrInvalidArgs, "base_url must start with http:// or https://", nil)
	}
	baseURL = strings.TrimRight(baseURL, "/")

	if log == nil {
		log = telemetry.NewLogger(nil)
	}

	return &Client{
		providerName: settings.ProviderName,
		apiKey:       apiKey,
		baseURL:      baseURL,
		extraHeaders: settings.ExtraHeaders,
		httpClient:   &http.Client{Timeout: perRequestTimeout},
		retryConfig:  DefaultRetryConfig(),
		// client-side pacing in front of the retry policy, same idiom as
		// the teacher's AdaptiveRateLimiter: a generous steady rate with a
		// small burst, so well-behaved local runs never hit it and only
		// pathological tool-call loops get throttled before they reach the
		// provider's own rate limiter.
		limiter: rate.NewLimiter(rate.Every(200*time.Millisecond), 4),
		log:     log,
	}, nil
}

// Complete sends one non-streaming chat-completions request, retrying per
// spec §4.7.
func (c *Client) Complete(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, spectrailapi.NewCoreError(spectrailapi.ErrTimeout, "rate limiter wait cancelled: "+err.Error(), err)
	}

	body := c.buildRequestBody(req)

	resp, err := RetryDo(ctx, c.retryConfig, func() (*wireResponse, error) {
		respBody, derr := c.doRequest(ctx, body)
		if derr != nil {
			return nil, derr
		}
		defer respBody.Close()
		var wr wireResponse
		if jerr := json.NewDecoder(respBody).Decode(&wr); jerr != nil {
			return nil, fmt.Errorf("%s: decode response: %w", c.providerName, jerr)
		}
		return &wr, nil
	})
	if err != nil {
		return nil, c.classifyError(err)
	}
	return parseResponse(resp), nil
}

func (c *Client) doRequest(ctx context.Context, body map[string]any) (io.ReadCloser, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%s: marshal request: %w", c.providerName, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", c.providerName, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	// extra_headers are merged first so Authorization always wins — a
	// user-supplied header can never override the bearer credential
	// (spec §4.7: "user cannot override Authorization").
	for k, v := range c.extraHeaders {
		httpReq.Header.Set(k, v)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s: request failed: %w", c.providerName, err)
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &HTTPError{
			Status:     resp.StatusCode,
			Body:       fmt.Sprintf("%s: %s", c.providerName, string(respBody)),
			RetryAfter: ParseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}
	return resp.Body, nil
}

func (c *Client) buildRequestBody(req ChatRequest) map[string]any {
	msgs := make([]wireMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		wm := wireMessage{Role: m.Role, Content: m.Content, ToolCallID: m.ToolCallID}
		for _, tc := range m.ToolCalls {
			argsJSON, _ := json.Marshal(tc.Arguments)
			wm.ToolCalls = append(wm.ToolCalls, wireToolCall{
				ID:   tc.ID,
				Type: "function",
				Function: wireToolCallFn{
					Name:      tc.Name,
					Arguments: string(argsJSON),
				},
			})
		}
		msgs = append(msgs, wm)
	}

	body := map[string]any{
		"model":    req.Model,
		"messages": msgs,
		"stream":   false,
	}
	if req.Temperature > 0 {
		body["temperature"] = req.Temperature
	}
	if req.MaxTokens > 0 {
		body["max_tokens"] = req.MaxTokens
	}
	if len(req.Tools) > 0 {
		tools := make([]wireToolDefinition, 0, len(req.Tools))
		for _, t := range req.Tools {
			tools = append(tools, wireToolDefinition{
				Type: "function",
				Function: wireToolFunctionSchema{
					Name:        t.Name,
					Description: t.Description,
					Parameters:  t.Parameters,
				},
			})
		}
		body["tools"] = tools
	}
	return body
}

func parseResponse(resp *wireResponse) *ChatResponse {
	result := &ChatResponse{FinishReason: "stop"}
	if len(resp.Choices) == 0 {
		return result
	}
	choice := resp.Choices[0]
	result.Content = choice.Message.Content
	result.FinishReason = choice.FinishReason
	for _, tc := range choice.Message.ToolCalls {
		args := make(map[string]any)
		_ = json.Unmarshal([]byte(tc.Function.Arguments), &args)
		result.ToolCalls = append(result.ToolCalls, spectrailapi.ToolCallRequest{
			ID:        tc.ID,
			Name:      strings.TrimSpace(tc.Function.Name),
			Arguments: args,
		})
	}
	if len(result.ToolCalls) > 0 {
		result.FinishReason = "tool_calls"
	}
	return result
}

// classifyError maps a terminal RetryDo failure onto spec §7's taxonomy:
// 401 -> InvalidCredentials, 429 exhausted -> RateLimited, other non-2xx
// -> ProviderError, everything else (network/context) -> NetworkError or
// Timeout.
func (c *Client) classifyError(err error) error {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		switch httpErr.Status {
		case http.StatusUnauthorized:
			return spectrailapi.NewProviderHTTPError(spectrailapi.ErrInvalidCredentials, httpErr.Status, httpErr.Body, err)
		case http.StatusTooManyRequests:
			return spectrailapi.NewProviderHTTPError(spectrailapi.ErrRateLimited, httpErr.Status, httpErr.Body, err)
		default:
			return spectrailapi.NewProviderHTTPError(spectrailapi.ErrProviderError, httpErr.Status, httpErr.Body, err)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "deadline exceeded") {
		return spectrailapi.NewCoreError(spectrailapi.ErrTimeout, err.Error(), err)
	}
	if strings.Contains(err.Error(), "retry budget exhausted") {
		return spectrailapi.NewCoreError(spectrailapi.ErrTimeout, err.Error(), err)
	}
	return spectrailapi.NewCoreError(spectrailapi.ErrNetworkError, err.Error(), err)
}
