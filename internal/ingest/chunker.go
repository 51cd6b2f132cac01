package ingest

import (
	"regexp"
	"strings"
)

// Chunker splits text into sentence-aligned chunks of at most chunkSize
// characters of new content, each seeded with the trailing overlap characters
// of the previous chunk. Sentences are never split; a single sentence longer
// than chunkSize is emitted verbatim as its own oversized chunk.
type Chunker struct {
	chunkSize int
	overlap   int
	splitter  *regexp.Regexp
}

func NewChunker(chunkSize, overlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = 800
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = 0
	}
	return &Chunker{
		chunkSize: chunkSize,
		overlap:   overlap,
		splitter:  regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`),
	}
}

// Chunk returns the chunk texts for one lesson (or lesson-less course) body.
func (c *Chunker) Chunk(text string) []string {
	sentences := c.sentences(text)
	if len(sentences) == 0 {
		return nil
	}
	var chunks []string
	carry := ""
	i := 0
	for i < len(sentences) {
		// indivisible oversized sentence: its own chunk, untouched
		if runeLen(sentences[i]) > c.chunkSize {
			chunks = append(chunks, sentences[i])
			carry = tail(sentences[i], c.overlap)
			i++
			continue
		}
		newPart := sentences[i]
		if carry != "" {
			newPart = " " + sentences[i]
		}
		i++
		for i < len(sentences) && runeLen(sentences[i]) <= c.chunkSize {
			cand := newPart + " " + sentences[i]
			if runeLen(cand) > c.chunkSize {
				break
			}
			newPart = cand
			i++
		}
		chunks = append(chunks, carry+newPart)
		carry = tail(chunks[len(chunks)-1], c.overlap)
	}
	return chunks
}

// sentences splits on terminal punctuation, keeping any trailing fragment
// that lacks a terminator.
func (c *Chunker) sentences(text string) []string {
	locs := c.splitter.FindAllStringIndex(text, -1)
	var out []string
	last := 0
	for _, loc := range locs {
		s := strings.TrimSpace(text[loc[0]:loc[1]])
		if s != "" {
			out = append(out, s)
		}
		last = loc[1]
	}
	if rest := strings.TrimSpace(text[last:]); rest != "" {
		out = append(out, rest)
	}
	return out
}

func runeLen(s string) int { return len([]rune(s)) }

// tail returns the trailing n characters of s, whole runes only.
func tail(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}
