package tts

import (
	"strings"
	"unicode/utf8"
)

// DefaultMaxChunkLen keeps a safety margin under the remote service's
// per-request text limit (~3000 characters).
const DefaultMaxChunkLen = 2900

// SplitText splits text into ordered segments no longer than maxLen,
// preferring to cut after the last newline, sentence end or plain space
// inside each window. Concatenating the returned segments reconstructs
// the input exactly.
func SplitText(text string, maxLen int) []string {
	if maxLen <= 0 {
		maxLen = DefaultMaxChunkLen
	}
	if len(text) <= maxLen {
		return []string{text}
	}
	var chunks []string
	start := 0
	for start < len(text) {
		end := start + maxLen
		if end > len(text) {
			end = len(text)
		}
		if end < len(text) {
			// Cut just after the closest natural break, falling back to a
			// hard cut when the window has no break at all. The break
			// characters are ASCII, so only the hard cut can land inside a
			// multi-byte rune; back it up to the previous rune boundary.
			if last := lastBreak(text[start:end]); last > 0 {
				end = start + last + 1
			} else {
				for end > start && !utf8.RuneStart(text[end]) {
					end--
				}
				if end == start {
					_, size := utf8.DecodeRuneInString(text[start:])
					end = start + size
				}
			}
		}
		chunks = append(chunks, text[start:end])
		start = end
	}
	return chunks
}

func lastBreak(s string) int {
	last := strings.LastIndex(s, "\n")
	if i := strings.LastIndex(s, ". "); i > last {
		last = i
	}
	if i := strings.LastIndex(s, " "); i > last {
		last = i
	}
	return last
}
