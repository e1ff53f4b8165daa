package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestGeminiSchema(t *testing.T) {
	s := geminiSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type":     "array",
				"minItems": 1,
				"maxItems": 10,
				"items": map[string]any{
					"type":       "object",
					"properties": map[string]any{"question": map[string]any{"type": "string", "description": "As asked"}},
					"required":   []any{"question"},
				},
			},
			"score": map[string]any{"type": "integer", "minimum": 0, "maximum": 100.0},
			"level": map[string]any{"type": "string", "enum": []string{"easy", "hard"}},
		},
		"required":             []any{"questions"},
		"additionalProperties": false,
	})

	assert.Equal(t, genai.TypeObject, s.Type)
	assert.Equal(t, []string{"questions"}, s.Required)

	q := s.Properties["questions"]
	require.NotNil(t, q)
	assert.Equal(t, genai.TypeArray, q.Type)
	assert.Equal(t, int64(1), *q.MinItems)
	assert.Equal(t, int64(10), *q.MaxItems)
	assert.Equal(t, "As asked", q.Items.Properties["question"].Description)

	score := s.Properties["score"]
	assert.Equal(t, genai.TypeInteger, score.Type)
	assert.Equal(t, 0.0, *score.Minimum)
	assert.Equal(t, 100.0, *score.Maximum)

	assert.Equal(t, []string{"easy", "hard"}, s.Properties["level"].Enum)
}
