package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// anthropicClient speaks the native Anthropic messages API: the system
// prompt travels as a top-level field and the conversation must alternate
// user/assistant roles.
type anthropicClient struct {
	cfg Config
	hc  *http.Client
}

type anthropicRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	System      string        `json:"system,omitempty"`
	Messages    []wireMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *anthropicClient) Chat(ctx context.Context, messages []Message) (*Response, error) {
	payload := anthropicRequest{
		Model:       c.cfg.Model,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	}

	// Fold system entries into the system field; merge consecutive
	// same-role entries so the conversation alternates.
	for _, m := range messages {
		if m.Role == RoleSystem {
			if payload.System != "" {
				payload.System += "\n\n"
			}
			payload.System += m.Content
			continue
		}
		role := RoleUser
		if m.Role == RoleAssistant {
			role = RoleAssistant
		}
		if n := len(payload.Messages); n > 0 && payload.Messages[n-1].Role == role {
			payload.Messages[n-1].Content += "\n\n" + m.Content
			continue
		}
		payload.Messages = append(payload.Messages, wireMessage{Role: role, Content: m.Content})
	}

	// The messages API rejects conversations that open with an
	// assistant turn.
	if len(payload.Messages) > 0 && payload.Messages[0].Role == RoleAssistant {
		payload.Messages = append([]wireMessage{{Role: RoleUser, Content: "(continue)"}}, payload.Messages...)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &Error{Code: CodeBadRequest, Message: fmt.Sprintf("encode request: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Code: CodeBadRequest, Message: fmt.Sprintf("build request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.cfg.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, transportError(ctx, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &Error{Code: CodeConnection, Message: fmt.Sprintf("read response: %v", err)}
	}

	var out anthropicResponse
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

	var text string
	for _, block := range out.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	if text == "" {
		text = "(No response)"
	}
	return &Response{
		Content:          text,
		PromptTokens:     out.Usage.InputTokens,
		CompletionTokens: out.Usage.OutputTokens,
	}, nil
}
