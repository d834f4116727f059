package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/openai/openai-go"
)

// DefaultMaxTokens is the maximum content length before truncation (in tokens).
const DefaultMaxTokens = 16000

// DocumentMetadata contains LLM-generated metadata for a course document.
// It is stored on every chunk of the document as passthrough metadata so
// downstream generation can cite what a chunk belongs to.
type DocumentMetadata struct {
	Summary string   `json:"summary"`
	Topics  []string `json:"topics"`
}

// Generator produces document metadata using chat completions.
type Generator struct {
	client    *openai.Client
	maxTokens int
}

// NewGenerator creates a metadata generator with the given OpenAI client.
// Optional maxTokens parameter sets truncation limit (defaults to DefaultMaxTokens).
func NewGenerator(client *openai.Client, maxTokens ...int) *Generator {
	max := DefaultMaxTokens
	if len(maxTokens) > 0 && maxTokens[0] > 0 {
		max = maxTokens[0]
	}
	return &Generator{
		client:    client,
		maxTokens: max,
	}
}

// GenerateMetadata analyzes a course document and produces a summary plus
// the list of topics it covers.
func (g *Generator) GenerateMetadata(ctx context.Context, fileName, content string) (*DocumentMetadata, error) {
	truncated := g.truncateContent(content)

	prompt := fmt.Sprintf(`Analyze this course material and provide:
1. A concise summary (1-2 sentences) capturing what the document teaches or announces
2. A list of the key topics, concepts, or terms it covers

File name: %s

Document content:
%s

Respond in JSON format:
{"summary": "Brief description of what this document covers", "topics": ["Topic1", "Topic2"]}

Focus on material a student would search for:
- Concepts and definitions introduced
- Exam, assignment, or deadline information
- Chapter or lecture references`, fileName, truncated)

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model: openai.ChatModelGPT4o,
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{
				Type: "json_object",
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}

	var metadata DocumentMetadata
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &metadata); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &metadata, nil
}

// truncateContent truncates content to fit within token limits.
// Uses rough estimate of 4 characters per token.
func (g *Generator) truncateContent(content string) string {
	maxChars := g.maxTokens * 4

	if len(content) <= maxChars {
		return content
	}

	log.Printf("Warning: Truncating content from %d to %d characters (estimated %d tokens)",
		len(content), maxChars, g.maxTokens)

	return content[:maxChars]
}
