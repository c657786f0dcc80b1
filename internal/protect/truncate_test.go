package protect

import (
	"strings"
	"testing"
)

func TestTruncate_ShortContentUnchanged(t *testing.T) {
	content := "A short, complete answer."
	if got := Truncate(content, MaxResponseLength); got != content {
		t.Errorf("Truncate = %q, want unchanged", got)
	}
}

func TestTruncate_SentenceBoundary(t *testing.T) {
	content := strings.Repeat("a", 1950) + ". " + strings.Repeat("b", 100)

	got := Truncate(content, MaxResponseLength)
	if !strings.HasSuffix(got, TruncationMarker) {
		t.Fatalf("missing truncation marker: %q", got[len(got)-60:])
	}
	body := strings.TrimSuffix(got, TruncationMarker)
	if !strings.HasSuffix(body, ".") {
		t.Errorf("expected cut at sentence boundary, body ends %q", body[len(body)-10:])
	}
	if strings.Contains(body, "b") {
		t.Error("content past the boundary survived truncation")
	}
}

func TestTruncate_NewlineBoundary(t *testing.T) {
	content := strings.Repeat("a", 1900) + "\n" + strings.Repeat("b", 300)

	got := Truncate(content, MaxResponseLength)
	body := strings.TrimSuffix(got, TruncationMarker)
	if strings.Contains(body, "b") {
		t.Error("content past the newline boundary survived truncation")
	}
	if len(body) < 1800 {
		t.Errorf("cut too aggressively: %d chars kept", len(body))
	}
}

func TestTruncate_NoBoundaryFallsBackToNinetyPercent(t *testing.T) {
	content := strings.Repeat("a", 2500)

	got := Truncate(content, MaxResponseLength)
	body := strings.TrimSuffix(got, TruncationMarker)
	if len(body) != MaxResponseLength*9/10 {
		t.Errorf("body length = %d, want %d", len(body), MaxResponseLength*9/10)
	}
}

func TestTruncate_ZeroMaxUsesDefault(t *testing.T) {
	content := strings.Repeat("a", MaxResponseLength+1)
	got := Truncate(content, 0)
	if !strings.HasSuffix(got, TruncationMarker) {
		t.Error("expected truncation with default cap")
	}
}
