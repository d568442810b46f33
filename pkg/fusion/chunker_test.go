package fusion

import (
	"strings"
	"testing"
)

// wordCounter counts whitespace-separated words as tokens, which makes chunk
// boundaries easy to reason about in tests.
type wordCounter struct{}

func (wordCounter) CountTokens(text string) int {
	return len(strings.Fields(text))
}

func TestSplitFragmentsEmpty(t *testing.T) {
	if chunks := SplitFragments(nil, 100, wordCounter{}); chunks != nil {
		t.Fatalf("expected no chunks for empty input, got %d", len(chunks))
	}
}

func TestSplitFragmentsSingleSmallFragment(t *testing.T) {
	chunks := SplitFragments([]string{"a few words here"}, 100, wordCounter{})
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != "a few words here" {
		t.Fatalf("unexpected chunk text: %q", chunks[0].Text)
	}
	if chunks[0].TokenCount != 4 {
		t.Fatalf("expected token count 4, got %d", chunks[0].TokenCount)
	}
}

func TestSplitFragmentsOverlapSeedsNextChunk(t *testing.T) {
	fragments := []string{
		"one two three",
		"four five six",
		"seven eight nine",
	}
	// Threshold is 0.9*6 = 5 tokens; two fragments overflow it.
	chunks := SplitFragments(fragments, 6, wordCounter{})
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].Text != "one two three\nfour five six" {
		t.Fatalf("unexpected first chunk: %q", chunks[0].Text)
	}
	// Second chunk starts with the last fragment of the first.
	if !strings.HasPrefix(chunks[1].Text, "four five six") {
		t.Fatalf("expected overlap seed, got %q", chunks[1].Text)
	}
	if !strings.HasSuffix(chunks[1].Text, "seven eight nine") {
		t.Fatalf("expected trailing fragment, got %q", chunks[1].Text)
	}
}

func TestSplitFragmentsOversizedFragmentEmittedWhole(t *testing.T) {
	huge := strings.Repeat("word ", 50)
	chunks := SplitFragments([]string{strings.TrimSpace(huge)}, 10, wordCounter{})
	if len(chunks) != 1 {
		t.Fatalf("expected oversized fragment as its own chunk, got %d chunks", len(chunks))
	}
	if chunks[0].TokenCount != 50 {
		t.Fatalf("expected 50 tokens, got %d", chunks[0].TokenCount)
	}
}

func TestSplitFragmentsCoverage(t *testing.T) {
	fragments := []string{
		"alpha beta",
		"gamma delta epsilon",
		"zeta",
		"eta theta iota kappa",
		"lambda",
		"mu nu xi",
	}
	chunks := SplitFragments(fragments, 5, wordCounter{})
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	// Every fragment must appear in order; dropping the defined one-fragment
	// overlap must reconstruct the original sequence exactly.
	var reconstructed []string
	var prevLast string
	for _, chunk := range chunks {
		parts := strings.Split(chunk.Text, "\n")
		if prevLast != "" && parts[0] == prevLast {
			parts = parts[1:]
		}
		reconstructed = append(reconstructed, parts...)
		all := strings.Split(chunk.Text, "\n")
		prevLast = all[len(all)-1]
	}

	if strings.Join(reconstructed, "|") != strings.Join(fragments, "|") {
		t.Fatalf("coverage broken:\n got  %v\n want %v", reconstructed, fragments)
	}
}

func TestSplitFragmentsDeterministic(t *testing.T) {
	fragments := []string{"a b c", "d e f", "g h i", "j k l"}
	first := SplitFragments(fragments, 4, wordCounter{})
	second := SplitFragments(fragments, 4, wordCounter{})
	if len(first) != len(second) {
		t.Fatalf("chunk counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("chunk %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}
