package vector

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// ChunkSize is the maximum byte count per chunk.
	ChunkSize = 500
	// ChunkOverlap is the byte count carried over from the previous chunk.
	ChunkOverlap = 50
)

var unsafeIDChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// ChunkFile splits a reference file into indexable documents. IDs derive from
// the file name and chunk position, so re-ingesting a file replaces its chunks.
func ChunkFile(path, content string) []Document {
	source := filepath.Base(path)
	base := unsafeIDChars.ReplaceAllString(strings.TrimSuffix(source, filepath.Ext(source)), "_")

	chunks := ChunkDocument(content)
	docs := make([]Document, 0, len(chunks))
	for i, chunk := range chunks {
		docs = append(docs, Document{
			ID:      fmt.Sprintf("%s-%04d", base, i),
			Source:  source,
			Content: chunk,
		})
	}
	return docs
}

// ChunkDocument splits a long document into overlapping chunks for embedding.
// Paragraph boundaries are preserved when possible.
func ChunkDocument(content string) []string {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}
	if len(content) <= ChunkSize {
		return []string{content}
	}

	var chunks []string
	var current strings.Builder

	for _, para := range splitParagraphs(content) {
		if current.Len()+len(para) > ChunkSize && current.Len() > 0 {
			chunks = append(chunks, current.String())

			current.Reset()
			if overlap := overlapText(chunks[len(chunks)-1], ChunkOverlap); overlap != "" {
				current.WriteString(overlap)
			}
		}

		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)

		// Force-split paragraphs longer than a chunk.
		for current.Len() > ChunkSize {
			text := current.String()
			cut := findBreakPoint(text, ChunkSize)
			chunks = append(chunks, strings.TrimSpace(text[:cut]))

			current.Reset()
			current.WriteString(strings.TrimLeftFunc(text[cut:], unicode.IsSpace))
		}
	}

	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}

// splitParagraphs splits on blank lines and joins wrapped lines with a space.
func splitParagraphs(content string) []string {
	var result []string
	var current strings.Builder

	for _, line := range strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			if current.Len() > 0 {
				result = append(result, current.String())
				current.Reset()
			}
			continue
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		result = append(result, current.String())
	}
	return result
}

// overlapText returns roughly the last n bytes of chunk, starting on a word.
func overlapText(chunk string, n int) string {
	if len(chunk) <= n {
		return chunk
	}
	start := len(chunk) - n
	for start < len(chunk) && !utf8.RuneStart(chunk[start]) {
		start++
	}
	tail := chunk[start:]
	if idx := strings.IndexAny(tail, " \t"); idx >= 0 && idx+1 < len(tail) {
		return tail[idx+1:]
	}
	return tail
}

// findBreakPoint finds a sentence or word boundary within text[:limit] to
// split at. The result never falls inside a multi-byte rune.
func findBreakPoint(text string, limit int) int {
	if limit >= len(text) {
		return len(text)
	}

	for i := limit - 1; i >= 0; i-- {
		if text[i] == '.' || text[i] == '!' || text[i] == '?' {
			if text[i+1] == ' ' || text[i+1] == '\n' {
				return i + 1
			}
		}
	}

	for i := limit - 1; i >= limit/2; i-- {
		if text[i] == ' ' || text[i] == '\n' || text[i] == '\t' {
			return i
		}
	}

	cut := limit
	for cut > 1 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return cut
}
