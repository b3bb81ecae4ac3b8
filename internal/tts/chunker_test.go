package tts

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplitTextShortInput(t *testing.T) {
	for _, text := range []string{"hello", "a", strings.Repeat("x", DefaultMaxChunkLen)} {
		chunks := SplitText(text, DefaultMaxChunkLen)
		if len(chunks) != 1 {
			t.Fatalf("expected 1 chunk for %d chars, got %d", len(text), len(chunks))
		}
		if chunks[0] != text {
			t.Fatalf("short input must pass through unchanged")
		}
	}
}

func TestSplitTextRoundTrip(t *testing.T) {
	inputs := []string{
		strings.Repeat("one two three. ", 500),
		strings.Repeat("line\n", 2000),
		strings.Repeat("z", 10000),
		strings.Repeat("word ", 1200) + "tail",
	}
	for _, text := range inputs {
		chunks := SplitText(text, 100)
		if strings.Join(chunks, "") != text {
			t.Fatalf("concatenated chunks must reconstruct the input exactly")
		}
		if len(chunks) == 0 {
			t.Fatalf("non-empty input must never yield zero chunks")
		}
		for i, c := range chunks {
			if len(c) > 100 {
				t.Fatalf("chunk %d exceeds max length: %d", i, len(c))
			}
			if len(c) == 0 {
				t.Fatalf("chunk %d is empty", i)
			}
		}
	}
}

func TestSplitTextHardCutWithoutBreaks(t *testing.T) {
	text := strings.Repeat("a", 250)
	chunks := SplitText(text, 100)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 hard-cut chunks, got %d", len(chunks))
	}
	if len(chunks[0]) != 100 || len(chunks[1]) != 100 || len(chunks[2]) != 50 {
		t.Fatalf("unexpected chunk lengths: %d %d %d", len(chunks[0]), len(chunks[1]), len(chunks[2]))
	}
}

func TestSplitTextNeverSplitsRunes(t *testing.T) {
	// Long CJK prose carries none of the break characters, so every cut is a
	// hard cut. It must still land on a rune boundary or the chunk is invalid
	// UTF-8 and the remote service rejects it.
	inputs := []string{
		strings.Repeat("こんにちは", 200),
		strings.Repeat("你好世界", 1500),
		strings.Repeat("สวัสดีครับ", 120),
	}
	for _, text := range inputs {
		for _, maxLen := range []int{100, 2900} {
			chunks := SplitText(text, maxLen)
			for i, c := range chunks {
				if !utf8.ValidString(c) {
					t.Fatalf("chunk %d is invalid UTF-8 (len=%d bytes)", i, len(c))
				}
				if len(c) > maxLen {
					t.Fatalf("chunk %d exceeds max length: %d", i, len(c))
				}
			}
			if strings.Join(chunks, "") != text {
				t.Fatalf("concatenated chunks must reconstruct the input exactly")
			}
		}
	}
}

func TestSplitTextPrefersSentenceBoundary(t *testing.T) {
	// 25 sentences of 200 chars each, the only spaces being the ones after
	// the periods. The 5000-char text must split into exactly two chunks,
	// the second starting immediately after a ". " boundary.
	sentence := strings.Repeat("a", 198) + ". "
	text := strings.Repeat(sentence, 25)
	if len(text) != 5000 {
		t.Fatalf("fixture length drifted: %d", len(text))
	}

	chunks := SplitText(text, 2900)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if !strings.HasSuffix(chunks[0], ". ") {
		t.Fatalf("first chunk must end at a sentence boundary, ends %q", chunks[0][len(chunks[0])-4:])
	}
	if chunks[1][0] != 'a' {
		t.Fatalf("second chunk must start right after the boundary, starts %q", chunks[1][0])
	}
	if strings.Join(chunks, "") != text {
		t.Fatalf("round-trip broken")
	}
}

func TestSplitTextPrefersNewline(t *testing.T) {
	text := strings.Repeat("b", 60) + "\n" + strings.Repeat("c", 80)
	chunks := SplitText(text, 100)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if !strings.HasSuffix(chunks[0], "\n") {
		t.Fatalf("first chunk must end at the newline")
	}
}

func TestSplitTextDefaultsMaxLen(t *testing.T) {
	text := strings.Repeat("a", DefaultMaxChunkLen+1)
	chunks := SplitText(text, 0)
	if len(chunks) != 2 {
		t.Fatalf("expected default max length to apply, got %d chunks", len(chunks))
	}
}
