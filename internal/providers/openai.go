package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

const (
	OpenAIName         = "openai"
	openAIDefaultModel = "gpt-4o-mini"
)

// OpenAIConfig holds configuration for an OpenAI-compatible chat endpoint.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string // empty uses api.openai.com; any compatible endpoint works
	Model   string

	RateLimit  float64       // requests per second, 0 for unlimited
	MaxRetries int           // attempts for transient failures
	RetryDelay time.Duration // base delay, doubled per attempt
	Timeout    time.Duration // per request

	// Pricing in USD per 1M tokens, used to fill ChatResult.CostUSD.
	InputCostPer1M  float64
	OutputCostPer1M float64

	HTTPClient *http.Client // optional (tests)
	Logger     *slog.Logger
}

// OpenAIClient implements LLMClient using the official OpenAI SDK.
type OpenAIClient struct {
	model      string
	maxRetries int
	retryDelay time.Duration
	timeout    time.Duration
	inCost     float64
	outCost    float64
	limiter    *RateLimiter
	client     openai.Client
	logger     *slog.Logger
}

// NewOpenAIClient creates a new OpenAI-compatible client.
func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	if cfg.Model == "" {
		cfg.Model = openAIDefaultModel
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// retries are handled here so they can be logged and bounded by ctx
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIClient{
		model:      cfg.Model,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		timeout:    cfg.Timeout,
		inCost:     cfg.InputCostPer1M,
		outCost:    cfg.OutputCostPer1M,
		limiter:    NewRateLimiter(cfg.RateLimit),
		client:     openai.NewClient(opts...),
		logger:     logger,
	}
}

// Name returns the client identifier.
func (c *OpenAIClient) Name() string {
	return OpenAIName
}

// Model returns the default model.
func (c *OpenAIClient) Model() string {
	return c.model
}

// RateLimiterStatus reports the client's limiter state.
func (c *OpenAIClient) RateLimiterStatus() RateLimiterStatus {
	return c.limiter.Status()
}

// Chat sends a chat completion request. When a response format is set the
// output is parsed and checked against its schema, with repair requests
// sent back to the model on failure.
func (c *OpenAIClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	start := time.Now()

	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.New().String()
	}
	model := req.Model
	if model == "" {
		model = c.model
	}

	result := &ChatResult{RequestID: requestID, Provider: OpenAIName, ModelUsed: model}

	if err := c.limiter.Wait(ctx); err != nil {
		result.fail("context_cancelled", err, start)
		return result, err
	}
	result.QueueTime = time.Since(start)

	messages := append([]Message(nil), req.Messages...)
	for repair := 0; ; repair++ {
		content, err := c.complete(ctx, model, req, messages, result)
		if err != nil {
			errType := "http_error"
			if errors.Is(err, ErrEmptyResponse) {
				errType = "empty_response"
			}
			result.fail(errType, err, start)
			return result, err
		}
		result.Content = content

		if req.ResponseFormat == nil {
			break
		}
		parsed, sErr := structuredOutput(req.ResponseFormat, content)
		if sErr == nil {
			result.ParsedJSON = parsed
			break
		}
		if repair >= maxStructuredRepairAttempts {
			err := fmt.Errorf("structured output: %w", sErr)
			result.fail("json_parse", err, start)
			return result, err
		}
		c.logger.Debug("structured output invalid, requesting repair",
			"request_id", requestID, "attempt", repair+1, "error", sErr)
		messages = append(messages,
			Message{Role: "assistant", Content: content},
			Message{Role: "user", Content: structuredRepairPrompt(req.ResponseFormat.JSONSchema, content, sErr)},
		)
	}

	result.Success = true
	result.TotalTokens = result.PromptTokens + result.CompletionTokens
	result.CostUSD = (float64(result.PromptTokens)*c.inCost + float64(result.CompletionTokens)*c.outCost) / 1e6
	result.ExecutionTime = time.Since(start) - result.QueueTime
	result.TotalTime = time.Since(start)
	return result, nil
}

// complete performs one logical completion with retries, accumulating
// usage and attempts into result.
func (c *OpenAIClient) complete(ctx context.Context, model string, req *ChatRequest, messages []Message, result *ChatResult) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(model),
		Messages: make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)),
	}
	for _, m := range messages {
		switch m.Role {
		case "system":
			params.Messages = append(params.Messages, openai.SystemMessage(m.Content))
		case "assistant":
			params.Messages = append(params.Messages, openai.AssistantMessage(m.Content))
		default:
			params.Messages = append(params.Messages, openai.UserMessage(m.Content))
		}
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.ResponseFormat != nil {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	timeout := c.timeout
	if req.Timeout > 0 {
		timeout = req.Timeout
	}

	var content string
	err := retry.Do(
		func() error {
			result.Attempts++
			resp, err := c.client.Chat.Completions.New(ctx, params, option.WithRequestTimeout(timeout))
			if err != nil {
				return err
			}
			result.PromptTokens += int(resp.Usage.PromptTokens)
			result.CompletionTokens += int(resp.Usage.CompletionTokens)
			if resp.Model != "" {
				result.ModelUsed = resp.Model
			}
			if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
				return ErrEmptyResponse
			}
			content = resp.Choices[0].Message.Content
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(c.maxRetries)),
		retry.Delay(c.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(shouldRetry),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("LLM request failed, retrying",
				"request_id", result.RequestID, "attempt", n+1, "error", err)
		}),
	)
	return content, err
}

// shouldRetry returns true for errors worth another attempt: rate limits,
// server errors, transport failures and empty answers.
func shouldRetry(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrEmptyResponse) {
		return true
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusRequestTimeout, http.StatusConflict, http.StatusTooManyRequests:
			return true
		default:
			return apiErr.StatusCode >= 500
		}
	}
	return true
}

// Verify interface
var _ LLMClient = (*OpenAIClient)(nil)
