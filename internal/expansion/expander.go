// Package expansion rewrites a retrieval query into alternate phrasings so
// the orchestrator can fan out one search per phrasing and fuse the results.
package expansion

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
)

// VariantCount is how many phrasings the expander asks for. The medium
// retrieval strategy consumes the first two, the full strategy all of them.
const VariantCount = 3

// ChatModel is the OpenAI model used for query rewriting.
const ChatModel = openai.ChatModelGPT4oMini

// expansionResponse matches the JSON-mode response shape.
type expansionResponse struct {
	Variations []string `json:"variations"`
}

// Expander generates query phrasings using chat completions in JSON mode.
type Expander struct {
	client *openai.Client
}

// NewExpander creates an expander with the given OpenAI client.
func NewExpander(client *openai.Client) *Expander {
	return &Expander{client: client}
}

// Expand returns up to VariantCount phrasings of the query. The result is
// never empty: if the model response cannot be parsed or contains no usable
// variations, the original query is returned as the single variant. The
// first variation is prompted to stay closest to the original intent.
func (e *Expander) Expand(ctx context.Context, query string) ([]string, error) {
	prompt := fmt.Sprintf(`Rewrite this student study query into %d alternative search phrasings for retrieving relevant passages from course materials (lecture notes, slides, syllabi, textbooks).

Query: %s

Guidelines:
- The first phrasing should stay closest to the original intent
- Vary vocabulary: use synonyms and course-domain terms (exam, lecture, assignment, chapter)
- Keep each phrasing short and self-contained
- Do not answer the query, only rephrase it

Respond in JSON format:
{"variations": ["phrasing 1", "phrasing 2", "phrasing 3"]}`, VariantCount, query)

	resp, err := e.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model: ChatModel,
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{
				Type: "json_object",
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}

	return parseVariations(resp.Choices[0].Message.Content, query), nil
}

// parseVariations extracts phrasings from the model response, falling back
// to the raw query when the response is unusable.
func parseVariations(content, query string) []string {
	var parsed expansionResponse
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return []string{query}
	}

	variations := make([]string, 0, VariantCount)
	for _, v := range parsed.Variations {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		variations = append(variations, v)
		if len(variations) == VariantCount {
			break
		}
	}

	if len(variations) == 0 {
		return []string{query}
	}
	return variations
}
