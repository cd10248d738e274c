package tts

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestChunkTextEmptyInput(t *testing.T) {
	if got := ChunkText("", 100, 300); got != nil {
		t.Fatalf("ChunkText(\"\") = %v, want nil", got)
	}
	if got := ChunkText("   \n\t ", 100, 300); got != nil {
		t.Fatalf("ChunkText(whitespace) = %v, want nil", got)
	}
}

func TestChunkTextReconstructsInput(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{
			name: "plain sentences",
			in:   "Hello there. How are you today? I am fine, thank you very much for asking!",
		},
		{
			name: "many short sentences",
			in:   "One. Two. Three. Four. Five. Six. Seven. Eight. Nine. Ten.",
		},
		{
			name: "single sentence no terminal",
			in:   "just a fragment without punctuation",
		},
		{
			name: "exclamations and questions",
			in:   "Wait! Really? Yes! That is wonderful news for everyone involved, truly.",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			chunks := ChunkText(tc.in, 20, 60)
			if len(chunks) == 0 {
				t.Fatalf("ChunkText produced no chunks for non-empty input")
			}
			joined := strings.Join(chunks, " ")
			if joined != strings.TrimSpace(tc.in) {
				t.Fatalf("reassembled text = %q, want %q", joined, tc.in)
			}
			for i, c := range chunks {
				if strings.TrimSpace(c) == "" {
					t.Fatalf("chunk %d is empty or whitespace-only", i)
				}
			}
		})
	}
}

func TestChunkTextBounds(t *testing.T) {
	in := "Hello there. How are you today? I am fine, thank you very much for asking!"
	chunks := ChunkText(in, 20, 60)
	if len(chunks) < 2 {
		t.Fatalf("got %d chunks, want at least 2: %v", len(chunks), chunks)
	}
	for i, c := range chunks {
		if n := utf8.RuneCountInString(c); n > 60 {
			t.Fatalf("chunk %d is %d runes, exceeds max 60: %q", i, n, c)
		}
		if !strings.ContainsAny(c[len(c)-1:], ".!?") {
			t.Fatalf("chunk %d does not end with terminal punctuation: %q", i, c)
		}
	}
}

func TestChunkTextOversizedSentenceIsNeverSplit(t *testing.T) {
	long := "This sentence keeps going and going " + strings.Repeat("with more and more words ", 15) + "until it finally stops."
	chunks := ChunkText(long, 100, 300)
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1 oversized chunk: %v", len(chunks), chunks)
	}
	if chunks[0] != strings.TrimSpace(long) {
		t.Fatalf("oversized sentence was altered")
	}
}

func TestChunkTextClosesBufferBeforeOverflow(t *testing.T) {
	// Two 40-rune sentences cannot share a 60-rune chunk; the second starts
	// its own even though the first is under the 50-rune minimum.
	s1 := "This first sentence has forty characters" + "."
	s2 := "This other sentence has forty characters" + "."
	chunks := ChunkText(s1+" "+s2, 50, 60)
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2: %v", len(chunks), chunks)
	}
	if chunks[0] != s1 || chunks[1] != s2 {
		t.Fatalf("chunks = %v, want sentences kept separate", chunks)
	}
}

func TestChunkTextCommitsAtMinWithTerminal(t *testing.T) {
	in := "Alpha beta gamma delta epsilon zeta. Eta theta iota kappa lambda mu."
	chunks := ChunkText(in, 10, 300)
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2 (commit on terminal once past min): %v", len(chunks), chunks)
	}
}

func TestSplitSentences(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "terminal runs stay together",
			in:   "Really?! I had no idea. Wow...",
			want: []string{"Really?!", "I had no idea.", "Wow..."},
		},
		{
			name: "no terminal",
			in:   "no punctuation here",
			want: []string{"no punctuation here"},
		},
		{
			name: "terminal without following space does not split",
			in:   "v1.2 is out. Enjoy",
			want: []string{"v1.2 is out.", "Enjoy"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := splitSentences(tc.in)
			if len(got) != len(tc.want) {
				t.Fatalf("splitSentences(%q) = %v, want %v", tc.in, got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("sentence %d = %q, want %q", i, got[i], tc.want[i])
				}
			}
		})
	}
}
