package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"docrag/internal/adapter/analyzer"
	"docrag/internal/domain"
)

// Options control chunk sizing. MaxTokens and OverlapTokens are token
// estimates, not exact model tokens.
type Options struct {
	MaxTokens         int
	OverlapTokens     int
	PreserveSentences bool
}

// DefaultOptions returns the standard chunking parameters.
func DefaultOptions() Options {
	return Options{
		MaxTokens:         500,
		OverlapTokens:     100,
		PreserveSentences: true,
	}
}

// TextChunker splits document text into bounded, overlapping chunks,
// sentence-aligned by default. Pure computation, no I/O.
type TextChunker struct {
	opts Options
}

func NewTextChunker(opts Options) *TextChunker {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 500
	}
	if opts.OverlapTokens < 0 {
		opts.OverlapTokens = 0
	}
	return &TextChunker{opts: opts}
}

// ShouldChunk reports whether text exceeds 150% of the chunk budget.
// Documents under the threshold are searched whole rather than fragmented.
func ShouldChunk(text string, maxTokens int) bool {
	return float64(analyzer.EstimateTokens(text)) > float64(maxTokens)*1.5
}

func (c *TextChunker) ShouldChunk(text string) bool {
	return ShouldChunk(text, c.opts.MaxTokens)
}

// Chunk splits the document's text. Empty or whitespace-only text produces
// zero chunks. Every returned chunk carries a dense 0-based ChunkIndex and
// the final TotalChunks count.
func (c *TextChunker) Chunk(doc domain.Document) []domain.Chunk {
	if strings.TrimSpace(doc.Text) == "" {
		return nil
	}

	var chunks []domain.Chunk
	if c.opts.PreserveSentences {
		chunks = c.chunkBySentence(doc)
	} else {
		chunks = c.chunkByWord(doc)
	}

	// TotalChunks cannot be known mid-pass
	for i := range chunks {
		chunks[i].TotalChunks = len(chunks)
	}
	return chunks
}

type sentence struct {
	text   string
	start  int
	end    int
	tokens int
}

func (c *TextChunker) chunkBySentence(doc domain.Document) []domain.Chunk {
	sentences := splitSentences(doc.Text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []domain.Chunk
	var buf []sentence
	bufTokens := 0

	closeChunk := func() {
		text := joinSentences(buf)
		chunks = append(chunks, c.newChunk(doc.ID, len(chunks), text, buf[0].start, buf[len(buf)-1].end))

		buf = overlapSuffix(buf, c.opts.OverlapTokens)
		bufTokens = 0
		for _, s := range buf {
			bufTokens += s.tokens
		}
	}

	for _, s := range sentences {
		if len(buf) > 0 && bufTokens+s.tokens > c.opts.MaxTokens {
			closeChunk()
		}
		buf = append(buf, s)
		bufTokens += s.tokens
	}
	if len(buf) > 0 {
		closeChunk()
	}

	return chunks
}

// overlapSuffix returns the longest suffix of buf whose cumulative token
// estimate fits the overlap budget, copied so the caller can reuse buf.
func overlapSuffix(buf []sentence, overlapTokens int) []sentence {
	if overlapTokens <= 0 {
		return nil
	}
	total := 0
	i := len(buf)
	for i > 0 && total+buf[i-1].tokens <= overlapTokens {
		total += buf[i-1].tokens
		i--
	}
	if i == len(buf) {
		return nil
	}
	return append([]sentence(nil), buf[i:]...)
}

func joinSentences(buf []sentence) string {
	parts := make([]string, len(buf))
	for i, s := range buf {
		parts[i] = s.text
	}
	return strings.Join(parts, " ")
}

// splitSentences treats '.', '!' and '?' followed by whitespace as sentence
// ends, keeping the terminal punctuation attached. Offsets are byte
// positions in the original text. Empty sentences are dropped.
func splitSentences(text string) []sentence {
	var out []sentence
	start := -1

	for i, r := range text {
		if start < 0 {
			if unicode.IsSpace(r) {
				continue
			}
			start = i
		}
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		end := i + utf8.RuneLen(r)
		if end < len(text) {
			next, _ := utf8.DecodeRuneInString(text[end:])
			if !unicode.IsSpace(next) {
				continue
			}
		}
		out = append(out, newSentence(text, start, end))
		start = -1
	}

	if start >= 0 {
		end := len(text)
		for end > start {
			r, size := utf8.DecodeLastRuneInString(text[start:end])
			if !unicode.IsSpace(r) {
				break
			}
			end -= size
		}
		if end > start {
			out = append(out, newSentence(text, start, end))
		}
	}

	return out
}

func newSentence(text string, start, end int) sentence {
	s := text[start:end]
	return sentence{text: s, start: start, end: end, tokens: analyzer.EstimateTokens(s)}
}

// chunkByWord applies the same buffer/overlap logic at word granularity.
// The word budget per chunk is the largest n with ceil(n*1.3) <= MaxTokens
// and the overlap is floor(OverlapTokens/1.3) words. Offsets are recomputed
// from joined-word lengths and can drift from true source offsets under
// irregular whitespace; they are display locators only.
func (c *TextChunker) chunkByWord(doc domain.Document) []domain.Chunk {
	words := strings.Fields(doc.Text)
	if len(words) == 0 {
		return nil
	}

	maxWords := int(math.Floor(float64(c.opts.MaxTokens) / 1.3))
	if maxWords < 1 {
		maxWords = 1
	}
	overlapWords := int(math.Floor(float64(c.opts.OverlapTokens) / 1.3))
	if overlapWords >= maxWords {
		overlapWords = maxWords - 1
	}
	stride := maxWords - overlapWords

	starts := make([]int, len(words))
	pos := 0
	for i, w := range words {
		starts[i] = pos
		pos += len(w) + 1
	}

	var chunks []domain.Chunk
	for i := 0; i < len(words); i += stride {
		end := i + maxWords
		if end > len(words) {
			end = len(words)
		}
		text := strings.Join(words[i:end], " ")
		chunks = append(chunks, c.newChunk(doc.ID, len(chunks), text, starts[i], starts[i]+len(text)))
		if end == len(words) {
			break
		}
	}
	return chunks
}

func (c *TextChunker) newChunk(docID string, index int, text string, start, end int) domain.Chunk {
	return domain.Chunk{
		ID:          chunkID(docID, index, text),
		DocumentID:  docID,
		Text:        text,
		StartOffset: start,
		EndOffset:   end,
		ChunkIndex:  index,
	}
}

// chunkID derives a stable id from the owning document, the chunk's ordinal
// and a text prefix: good enough for de-duplication and debugging, not a
// cryptographic identifier.
func chunkID(docID string, index int, text string) string {
	prefix := text
	if len(prefix) > 100 {
		prefix = prefix[:100]
	}
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%d:%s", docID, index, prefix)))
	return hex.EncodeToString(sum[:8])
}
