package protect

import "strings"

// refusalPhrases are policy-refusal and meta phrases that mean the model
// dropped out of character. Any match invalidates the turn.
var refusalPhrases = []string{
	"as an ai",
	"as a language model",
	"language model",
	"i cannot assist",
	"i can't assist",
	"i am an ai",
	"i'm an ai",
	"i am not able to provide",
	"my programming",
	"my guidelines",
	"openai",
	"anthropic",
	"chatgpt",
	"as a helpful assistant",
	"i don't have personal opinions",
	"jailbreak",
}

// DetectRefusal reports whether content contains a known refusal or
// meta phrase.
func DetectRefusal(content string) bool {
	lower := strings.ToLower(content)
	for _, phrase := range refusalPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
