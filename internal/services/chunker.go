package services

import (
	"strings"
	"unicode/utf8"
)

const defaultChunkSize = 1000

// TextChunker splits long guidance documents into passages for embedding.
type TextChunker interface {
	ChunkText(text string, maxChunkSize int, overlap int) []string
}

type textChunker struct{}

func NewTextChunker() TextChunker {
	return &textChunker{}
}

// ChunkText implements TextChunker. Paragraphs are packed together until
// maxChunkSize runes; longer paragraphs are split on sentence boundaries.
// Each chunk after the first starts with the last overlap runes of its predecessor.
func (tc *textChunker) ChunkText(text string, maxChunkSize int, overlap int) []string {
	if maxChunkSize <= 0 {
		maxChunkSize = defaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= maxChunkSize {
		overlap = maxChunkSize / 4
	}

	p := &chunkPacker{maxSize: maxChunkSize, overlap: overlap}

	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if utf8.RuneCountInString(para) <= maxChunkSize {
			p.add(para, "\n\n")
			continue
		}

		for _, sentence := range splitIntoSentences(para) {
			p.add(sentence, " ")
		}
	}

	return p.finish()
}

type chunkPacker struct {
	maxSize int
	overlap int
	chunks  []string
	current strings.Builder
}

func (p *chunkPacker) add(piece, sep string) {
	if p.current.Len() > 0 && utf8.RuneCountInString(p.current.String())+utf8.RuneCountInString(piece)+len(sep) > p.maxSize {
		p.flush()
	}

	if p.current.Len() > 0 {
		p.current.WriteString(sep)
	}
	p.current.WriteString(piece)
}

// flush closes the current chunk and seeds the next one with its overlap tail.
func (p *chunkPacker) flush() {
	prev := p.current.String()
	p.chunks = append(p.chunks, prev)
	p.current.Reset()
	p.current.WriteString(lastRunes(prev, p.overlap))
}

func (p *chunkPacker) finish() []string {
	if p.current.Len() > 0 {
		p.chunks = append(p.chunks, p.current.String())
	}
	return p.chunks
}

func splitIntoSentences(text string) []string {
	sentences := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})

	result := make([]string, 0, len(sentences))
	for _, s := range sentences {
		if s = strings.TrimSpace(s); s != "" {
			result = append(result, s)
		}
	}
	return result
}

func lastRunes(text string, n int) string {
	if n <= 0 {
		return ""
	}

	runes := []rune(text)
	if len(runes) <= n {
		return text
	}

	return string(runes[len(runes)-n:])
}
