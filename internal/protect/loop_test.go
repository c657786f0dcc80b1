package protect

import (
	"strings"
	"testing"
)

func TestDetectLoop(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    bool
	}{
		{
			name:    "sentence repeated beyond tolerance",
			content: "I will not yield. I will not yield. I will not yield. I will not yield.",
			want:    true,
		},
		{
			name:    "sentence repeated within tolerance",
			content: "I will not yield. I will not yield. I will not yield.",
			want:    false,
		},
		{
			name:    "character chunk repetition",
			content: strings.Repeat("abcde", 12),
			want:    true,
		},
		{
			name:    "normal prose",
			content: "The evidence suggests otherwise. Consider last year's data, which points the other way entirely.",
			want:    false,
		},
		{
			name:    "short content ignored by chunk scan",
			content: strings.Repeat("ab", 10),
			want:    false,
		},
		{
			name:    "empty",
			content: "",
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectLoop(tt.content); got != tt.want {
				t.Errorf("DetectLoop(%q) = %v, want %v", tt.content, got, tt.want)
			}
		})
	}
}

func TestDetectLoop_ShortFragmentsNotCounted(t *testing.T) {
	// Fragments of 10 characters or fewer never count toward the
	// sentence-repeat threshold.
	content := "Yes. Yes. Yes. Yes. Yes. Yes."
	if DetectLoop(content) {
		t.Errorf("DetectLoop(%q) = true, want false", content)
	}
}

func TestDetectRefusal(t *testing.T) {
	tests := []struct {
		content string
		want    bool
	}{
		{"As an AI, I cannot take sides on this.", true},
		{"I'm an AI and should not comment.", true},
		{"My guidelines prevent me from continuing.", true},
		{"This looks like a jailbreak attempt.", true},
		{"OpenAI trained me to avoid this.", true},
		{"ANTHROPIC policies apply here.", true},
		{"The tax proposal will hurt small businesses.", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := DetectRefusal(tt.content); got != tt.want {
			t.Errorf("DetectRefusal(%q) = %v, want %v", tt.content, got, tt.want)
		}
	}
}
