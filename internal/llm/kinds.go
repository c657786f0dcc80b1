package llm

// Kind identifies a provider family.
type Kind string

// Supported provider kinds.
const (
	KindOpenAI      Kind = "openai"
	KindAnthropic   Kind = "anthropic"
	KindGoogle      Kind = "google"
	KindGroq        Kind = "groq"
	KindOllama      Kind = "ollama"
	KindDeepSeek    Kind = "deepseek"
	KindMistral     Kind = "mistral"
	KindTogether    Kind = "together"
	KindOpenRouter  Kind = "openrouter"
	KindPerplexity  Kind = "perplexity"
	KindCustom      Kind = "custom"
)

// Info describes a provider kind.
type Info struct {
	Name        string
	DefaultURL  string
	RequiresKey bool
}

var kinds = map[Kind]Info{
	KindOpenAI:     {Name: "OpenAI", DefaultURL: "https://api.openai.com/v1", RequiresKey: true},
	KindAnthropic:  {Name: "Anthropic", DefaultURL: "https://api.anthropic.com", RequiresKey: true},
	KindGoogle:     {Name: "Google Gemini", DefaultURL: "https://generativelanguage.googleapis.com/v1beta/openai", RequiresKey: true},
	KindGroq:       {Name: "Groq", DefaultURL: "https://api.groq.com/openai/v1", RequiresKey: true},
	KindOllama:     {Name: "Ollama (local)", DefaultURL: "http://localhost:11434/v1", RequiresKey: false},
	KindDeepSeek:   {Name: "DeepSeek", DefaultURL: "https://api.deepseek.com", RequiresKey: true},
	KindMistral:    {Name: "Mistral AI", DefaultURL: "https://api.mistral.ai/v1", RequiresKey: true},
	KindTogether:   {Name: "Together AI", DefaultURL: "https://api.together.ai/v1", RequiresKey: true},
	KindOpenRouter: {Name: "OpenRouter", DefaultURL: "https://openrouter.ai/api/v1", RequiresKey: true},
	KindPerplexity: {Name: "Perplexity", DefaultURL: "https://api.perplexity.ai", RequiresKey: true},
	KindCustom:     {Name: "Custom API", DefaultURL: "", RequiresKey: true},
}

// KindInfo returns metadata for a provider kind.
func KindInfo(k Kind) (Info, bool) {
	info, ok := kinds[k]
	return info, ok
}

// Kinds lists all supported kinds.
func Kinds() []Kind {
	return []Kind{
		KindOpenAI, KindAnthropic, KindGoogle, KindGroq, KindOllama,
		KindDeepSeek, KindMistral, KindTogether, KindOpenRouter,
		KindPerplexity, KindCustom,
	}
}
