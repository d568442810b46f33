package fusion

import (
	"strings"

	"github.com/jonmatthis/og-classbot/pkg/models"
)

// chunkFillRatio leaves headroom in each chunk for the fold prompt's framing
// text around the raw fragments.
const chunkFillRatio = 0.9

// Chunk is a token-bounded slice of a fragment source, sized to fit one
// generation call. Chunks are transient; they are never persisted.
type Chunk struct {
	Text       string
	TokenCount int
}

// SplitFragments accumulates fragments into token-bounded chunks, preserving
// order. When a chunk closes, the next one is seeded with the last fragment
// of the previous chunk so the fold step keeps one fragment of continuity
// across the boundary. A single fragment that on its own exceeds the budget
// is emitted as its own oversized chunk; fragments are never split internally.
func SplitFragments(fragments []string, maxTokensPerChunk int, counter models.TokenCounter) []Chunk {
	if len(fragments) == 0 {
		return nil
	}
	threshold := int(float64(maxTokensPerChunk) * chunkFillRatio)

	var chunks []Chunk
	buf := make([]string, 0, len(fragments))
	fresh := 0 // fragments in buf beyond the carried-over overlap

	for _, frag := range fragments {
		buf = append(buf, frag)
		fresh++

		text := strings.Join(buf, "\n")
		count := counter.CountTokens(text)
		if count <= threshold {
			continue
		}

		chunks = append(chunks, Chunk{Text: text, TokenCount: count})
		if len(buf) == 1 {
			// Oversized lone fragment: already emitted whole, nothing to carry over.
			buf = buf[:0]
		} else {
			buf = append(buf[:0], frag)
		}
		fresh = 0
	}

	if fresh > 0 {
		text := strings.Join(buf, "\n")
		chunks = append(chunks, Chunk{Text: text, TokenCount: counter.CountTokens(text)})
	}
	return chunks
}
