package narrative

import "strings"

// MaxSummaryRunes is the hard length cap of the format contract.
const MaxSummaryRunes = 400

// MaxSentences is the sentence-count cap of the format contract.
const MaxSentences = 3

// sentence-terminating punctuation of the working language
var terminators = map[rune]bool{'。': true, '！': true, '？': true}

// Enforce guarantees that any candidate narrative satisfies the
// global format contract: at most 3 sentences and 400 runes. It keeps
// the first 3 non-empty sentences with their terminators; if the
// rejoined text still exceeds 400 runes it is cut at 397 runes, at the
// last complete sentence terminator when one exists, otherwise with an
// ellipsis appended. Enforce is idempotent.
func Enforce(text string) string {
	sentences := SplitSentences(text)
	if len(sentences) > MaxSentences {
		sentences = sentences[:MaxSentences]
	}

	joined := strings.Join(sentences, "")
	runes := []rune(joined)
	if len(runes) <= MaxSummaryRunes {
		return joined
	}

	truncated := runes[:MaxSummaryRunes-3]
	for i := len(truncated) - 1; i >= 0; i-- {
		if terminators[truncated[i]] {
			return string(truncated[:i+1])
		}
	}

	return string(truncated) + "…"
}

// SplitSentences splits text on sentence terminators, keeping each
// terminator with its sentence. A trailing unterminated fragment
// counts as a sentence; whitespace-only fragments are discarded.
func SplitSentences(text string) []string {
	var sentences []string
	var current []rune

	for _, r := range text {
		current = append(current, r)
		if terminators[r] {
			if s := strings.TrimSpace(string(current)); s != "" && !allTerminators(s) {
				sentences = append(sentences, strings.TrimSpace(string(current)))
			}
			current = current[:0]
		}
	}

	if s := strings.TrimSpace(string(current)); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}

// allTerminators reports whether s consists solely of terminator runes.
func allTerminators(s string) bool {
	for _, r := range s {
		if !terminators[r] {
			return false
		}
	}
	return true
}

// CountSentences counts non-empty fragments split by terminators.
func CountSentences(text string) int {
	count := 0
	var current []rune
	for _, r := range text {
		if terminators[r] {
			if strings.TrimSpace(string(current)) != "" {
				count++
			}
			current = current[:0]
			continue
		}
		current = append(current, r)
	}
	if strings.TrimSpace(string(current)) != "" {
		count++
	}
	return count
}
