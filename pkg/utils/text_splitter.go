package utils

import "strings"

// SplitTokenWindows splits text into fixed-size windows of whitespace
// tokens, with an overlap to preserve context at boundaries. Window size
// defaults to roughly one embedding-model context worth of text (~800
// tokens); callers configure both knobs.
func SplitTokenWindows(text string, windowSize int, overlap int) []string {
	if windowSize <= 0 {
		windowSize = 800
	}
	if overlap < 0 || overlap >= windowSize {
		overlap = 0
	}

	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return nil
	}
	if len(tokens) <= windowSize {
		return []string{strings.Join(tokens, " ")}
	}

	step := windowSize - overlap
	var windows []string
	for i := 0; i < len(tokens); i += step {
		end := i + windowSize
		if end > len(tokens) {
			end = len(tokens)
		}
		windows = append(windows, strings.Join(tokens[i:end], " "))
		if end == len(tokens) {
			break
		}
	}
	return windows
}
