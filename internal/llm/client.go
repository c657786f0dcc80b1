package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client sends a conversation to a model endpoint.
type Client interface {
	Chat(ctx context.Context, messages []Message) (*Response, error)
}

// New builds a client for the config. Anthropic speaks its native messages
// API; every other kind uses the OpenAI-compatible chat completions API.
func New(cfg Config) (Client, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if cfg.APIURL == "" {
		info, _ := KindInfo(cfg.Kind)
		cfg.APIURL = info.DefaultURL
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}

	hc := &http.Client{Timeout: 45 * time.Second}
	if cfg.Kind == KindAnthropic {
		return &anthropicClient{cfg: cfg, hc: hc}, nil
	}
	return &openAIClient{cfg: cfg, hc: hc}, nil
}

// openAIClient speaks the chat completions API shared by OpenAI, Groq,
// Ollama, DeepSeek, Mistral, Together, OpenRouter, Perplexity, Gemini's
// compatibility endpoint, and custom gateways.
type openAIClient struct {
	cfg Config
	hc  *http.Client
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *openAIClient) Chat(ctx context.Context, messages []Message) (*Response, error) {
	payload := chatCompletionRequest{
		Model:       c.cfg.Model,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	}
	for _, m := range messages {
		payload.Messages = append(payload.Messages, wireMessage{Role: m.Role, Content: m.Content})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &Error{Code: CodeBadRequest, Message: fmt.Sprintf("encode request: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Code: CodeBadRequest, Message: fmt.Sprintf("build request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, transportError(ctx, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &Error{Code: CodeConnection, Message: fmt.Sprintf("read response: %v", err)}
	}

	var out chatCompletionResponse
	if err := json.Unmarshal(raw, &out); err != nil && resp.StatusCode == http.StatusOK {
		return nil, &Error{Code: CodeUnknown, Message: fmt.Sprintf("decode response: %v", err), Status: resp.StatusCode}
	}

	if resp.StatusCode != http.StatusOK {
		msg := http.StatusText(resp.StatusCode)
		if out.Error != nil && out.Error.Message != "" {
			msg = out.Error.Message
		}
		return nil, &Error{Code: classifyStatus(resp.StatusCode, msg), Message: msg, Status: resp.StatusCode}
	}

	if len(out.Choices) == 0 {
		return &Response{Content: "(No response)"}, nil
	}
	return &Response{
		Content:          out.Choices[0].Message.Content,
		PromptTokens:     out.Usage.PromptTokens,
		CompletionTokens: out.Usage.CompletionTokens,
	}, nil
}

// transportError classifies a failed round trip.
func transportError(ctx context.Context, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &Error{Code: CodeTimeout, Message: "model call timed out (possible infinite loop)"}
	}
	if errors.Is(err, context.Canceled) {
		return &Error{Code: CodeTimeout, Message: "model call cancelled"}
	}
	return &Error{Code: CodeConnection, Message: fmt.Sprintf("cannot reach endpoint: %v", err)}
}
