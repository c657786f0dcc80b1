// Package llm provides a uniform "send conversation, get text" capability
// across model providers. Every provider kind except Anthropic speaks the
// OpenAI-compatible chat completions API; errors are classified into a
// small fixed code set so the orchestration layer can react per class.
package llm

import (
	"fmt"
	"net/url"
	"strings"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry of a conversation sent to a model.
type Message struct {
	Role        string
	Content     string
	PersonaName string // display tag; not sent on the wire
}

// Response is the model's reply.
type Response struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
}

// Config describes one model call's endpoint and parameters.
type Config struct {
	Kind        Kind
	APIKey      string // decrypted; lives only for the duration of the call
	APIURL      string // empty = kind default
	Model       string
	Temperature float64
	MaxTokens   int // 0 = 500
}

// DefaultMaxTokens bounds a single response.
const DefaultMaxTokens = 500

// Error codes.
const (
	CodeAuth          = "auth"
	CodeModelNotFound = "model_not_found"
	CodeRateLimited   = "rate_limited"
	CodeBadRequest    = "bad_request"
	CodeConnection    = "connection"
	CodeTimeout       = "timeout"
	CodeInvalidConfig = "invalid_config"
	CodeUnknown       = "unknown"
)

// Error is a classified provider error.
type Error struct {
	Code    string
	Message string
	Status  int // HTTP status when applicable
}

func (e *Error) Error() string {
	return fmt.Sprintf("llm: %s (%s)", e.Message, e.Code)
}

// classifyStatus maps an HTTP status and message to an error code.
func classifyStatus(status int, message string) string {
	switch {
	case status == 401 || status == 403:
		return CodeAuth
	case status == 404:
		return CodeModelNotFound
	case status == 429:
		return CodeRateLimited
	case status == 400:
		if strings.Contains(strings.ToLower(message), "model") {
			return CodeModelNotFound
		}
		return CodeBadRequest
	default:
		return CodeUnknown
	}
}

// ValidateConfig checks key format and endpoint requirements per kind
// before a request is attempted.
func ValidateConfig(cfg Config) error {
	info, ok := KindInfo(cfg.Kind)
	if !ok {
		return &Error{Code: CodeInvalidConfig, Message: fmt.Sprintf("unknown provider kind %q", cfg.Kind)}
	}
	if cfg.Model == "" {
		return &Error{Code: CodeInvalidConfig, Message: "model name is required"}
	}
	if info.RequiresKey && cfg.APIKey == "" {
		return &Error{Code: CodeInvalidConfig, Message: fmt.Sprintf("%s requires an API key", info.Name)}
	}

	switch cfg.Kind {
	case KindOpenAI:
		if !strings.HasPrefix(cfg.APIKey, "sk-") {
			return &Error{Code: CodeInvalidConfig, Message: "OpenAI API keys start with sk-"}
		}
	case KindAnthropic:
		if !strings.HasPrefix(cfg.APIKey, "sk-ant-") {
			return &Error{Code: CodeInvalidConfig, Message: "Anthropic API keys start with sk-ant-"}
		}
	case KindGroq:
		if !strings.HasPrefix(cfg.APIKey, "gsk_") {
			return &Error{Code: CodeInvalidConfig, Message: "Groq API keys start with gsk_"}
		}
	case KindCustom:
		if cfg.APIURL == "" {
			return &Error{Code: CodeInvalidConfig, Message: "API URL is required for custom providers"}
		}
		if _, err := url.ParseRequestURI(cfg.APIURL); err != nil {
			return &Error{Code: CodeInvalidConfig, Message: fmt.Sprintf("invalid API URL %q", cfg.APIURL)}
		}
	default:
		if info.RequiresKey && len(cfg.APIKey) < 10 {
			return &Error{Code: CodeInvalidConfig, Message: fmt.Sprintf("invalid %s API key", info.Name)}
		}
	}
	return nil
}
