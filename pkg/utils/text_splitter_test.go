package utils

import (
	"strings"
	"testing"
)

func TestSplitTokenWindows(t *testing.T) {
	tests := []struct {
		name       string
		tokens     int
		windowSize int
		overlap    int
		wantCount  int
	}{
		{name: "fits one window", tokens: 50, windowSize: 100, overlap: 10, wantCount: 1},
		{name: "exact window size", tokens: 100, windowSize: 100, overlap: 10, wantCount: 1},
		{name: "two windows with overlap", tokens: 150, windowSize: 100, overlap: 50, wantCount: 2},
		{name: "no overlap", tokens: 200, windowSize: 100, overlap: 0, wantCount: 2},
		{name: "invalid overlap falls back to none", tokens: 200, windowSize: 100, overlap: 100, wantCount: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := strings.TrimSpace(strings.Repeat("word ", tt.tokens))
			got := SplitTokenWindows(text, tt.windowSize, tt.overlap)
			if len(got) != tt.wantCount {
				t.Errorf("window count = %d, want %d", len(got), tt.wantCount)
			}
		})
	}
}

func TestSplitTokenWindowsEmptyInput(t *testing.T) {
	if got := SplitTokenWindows("", 100, 10); got != nil {
		t.Errorf("expected nil for empty input, got %v", got)
	}
	if got := SplitTokenWindows("   \n\t ", 100, 10); got != nil {
		t.Errorf("expected nil for whitespace input, got %v", got)
	}
}

func TestSplitTokenWindowsOverlapRepeatsBoundaryTokens(t *testing.T) {
	tokens := make([]string, 120)
	for i := range tokens {
		tokens[i] = string(rune('a'+i%26)) + "tok"
	}
	windows := SplitTokenWindows(strings.Join(tokens, " "), 100, 20)
	if len(windows) != 2 {
		t.Fatalf("window count = %d, want 2", len(windows))
	}

	firstTokens := strings.Fields(windows[0])
	secondTokens := strings.Fields(windows[1])
	if len(firstTokens) != 100 {
		t.Errorf("first window size = %d, want 100", len(firstTokens))
	}
	// The second window starts at token 80, repeating the last 20 of the first.
	if secondTokens[0] != firstTokens[80] {
		t.Errorf("overlap start = %q, want %q", secondTokens[0], firstTokens[80])
	}
}

func TestSplitTokenWindowsCollapsesWhitespace(t *testing.T) {
	got := SplitTokenWindows("one  two\n\nthree\tfour", 100, 0)
	if len(got) != 1 {
		t.Fatalf("window count = %d, want 1", len(got))
	}
	if got[0] != "one two three four" {
		t.Errorf("window = %q", got[0])
	}
}
