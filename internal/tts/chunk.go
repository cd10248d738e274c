package tts

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Default chunk bounds, tuned so the first chunk of a long reply synthesizes
// quickly without splitting mid-sentence.
const (
	DefaultMinChunkChars = 100
	DefaultMaxChunkChars = 300
)

// ChunkText splits text into utterance chunks along sentence boundaries.
// Chunks aim for [minChars, maxChars] runes; the max is a soft target: a
// single sentence longer than maxChars becomes its own oversized chunk
// rather than being cut mid-sentence. Empty or whitespace-only input yields
// no chunks. Non-empty input always yields at least one chunk.
func ChunkText(text string, minChars, maxChars int) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	if minChars <= 0 {
		minChars = DefaultMinChunkChars
	}
	if maxChars <= 0 {
		maxChars = DefaultMaxChunkChars
	}

	var chunks []string
	var current string

	for _, sentence := range splitSentences(trimmed) {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}

		// Close the running chunk before it would overflow, even if short.
		if current != "" && utf8.RuneCountInString(current)+utf8.RuneCountInString(sentence)+1 > maxChars {
			chunks = append(chunks, current)
			current = sentence
		} else if current == "" {
			current = sentence
		} else {
			current = current + " " + sentence
		}

		if utf8.RuneCountInString(current) >= minChars && endsWithSentenceTerminal(current) {
			chunks = append(chunks, current)
			current = ""
		}
	}

	if current != "" {
		chunks = append(chunks, current)
	}
	if len(chunks) == 0 {
		// Degenerate split; speak the input as a single utterance.
		return []string{trimmed}
	}
	return chunks
}

// splitSentences breaks text after runs of sentence-terminal punctuation
// that are followed by whitespace, keeping the punctuation with the sentence.
func splitSentences(text string) []string {
	var out []string
	rs := []rune(text)
	start := 0
	i := 0
	for i < len(rs) {
		if !isSentenceTerminal(rs[i]) {
			i++
			continue
		}
		j := i + 1
		for j < len(rs) && isSentenceTerminal(rs[j]) {
			j++
		}
		if j < len(rs) && unicode.IsSpace(rs[j]) {
			out = append(out, string(rs[start:j]))
			for j < len(rs) && unicode.IsSpace(rs[j]) {
				j++
			}
			start = j
		}
		i = j
	}
	if start < len(rs) {
		out = append(out, string(rs[start:]))
	}
	return out
}

func isSentenceTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func endsWithSentenceTerminal(s string) bool {
	r, size := utf8.DecodeLastRuneInString(s)
	return size > 0 && isSentenceTerminal(r)
}
