package coach

import "github.com/mockt/mockt/internal/llm"

// QuestionSetSchema is the response shape for question generation.
var QuestionSetSchema = &llm.Schema{
	Name:        "interview-questions",
	Description: "An ordered set of interview questions for one mock interview",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type":     "array",
				"minItems": 1,
				"maxItems": 10,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"question": map[string]any{
							"type":        "string",
							"description": "The question exactly as the interviewer would ask it",
						},
					},
					"required":             []any{"question"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"questions"},
		"additionalProperties": false,
	},
}

// EvaluationSchema is the response shape for answer scoring.
var EvaluationSchema = &llm.Schema{
	Name:        "answer-evaluation",
	Description: "A score and short feedback for one interview answer",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"score": map[string]any{
				"type":        "integer",
				"minimum":     0,
				"maximum":     100,
				"description": "Overall answer quality from 0 (no answer) to 100 (excellent)",
			},
			"feedback": map[string]any{
				"type":        "string",
				"description": "Two to four sentences of actionable feedback addressed to the candidate",
			},
		},
		"required":             []any{"score", "feedback"},
		"additionalProperties": false,
	},
}
