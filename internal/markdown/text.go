package markdown

import "strings"

// MaxTextChunkChars bounds plain-text chunk size. Paragraphs are grouped
// until adding another would cross the bound; a single oversized paragraph
// becomes its own chunk rather than being split mid-sentence.
const MaxTextChunkChars = 2000

// SplitPlainText chunks a non-markdown course file (transcripts, plain
// notes) by grouping paragraphs. Paragraphs are separated by blank lines.
// Chunk indexes are dense from zero, like ChunkDocument's.
func SplitPlainText(source string) []Chunk {
	paragraphs := splitParagraphs(source)
	if len(paragraphs) == 0 {
		return nil
	}

	var chunks []Chunk
	var current strings.Builder

	flush := func() {
		content := strings.TrimSpace(current.String())
		current.Reset()
		if content == "" {
			return
		}
		chunks = append(chunks, Chunk{
			Index:      len(chunks),
			Content:    content,
			RawContent: content,
		})
	}

	for _, p := range paragraphs {
		if current.Len() > 0 && current.Len()+len(p) > MaxTextChunkChars {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(p)
	}
	flush()

	return chunks
}

func splitParagraphs(source string) []string {
	normalized := strings.ReplaceAll(source, "\r\n", "\n")

	var paragraphs []string
	for _, block := range strings.Split(normalized, "\n\n") {
		block = strings.TrimSpace(block)
		if block != "" {
			paragraphs = append(paragraphs, block)
		}
	}
	return paragraphs
}
