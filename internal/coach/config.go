package coach

// Config controls the behavior of the Coach.
type Config struct {
	// QuestionTokens is the token budget for a question set response.
	QuestionTokens int

	// FeedbackTokens is the token budget for an answer evaluation.
	FeedbackTokens int

	// Temperature controls question variety (0.0-1.0). Scoring always
	// runs at temperature 0.
	Temperature float64

	// MaxDescriptionChars truncates long job descriptions in the prompt.
	MaxDescriptionChars int
}

// DefaultConfig returns the recommended settings.
func DefaultConfig() Config {
	return Config{
		QuestionTokens:      1024,
		FeedbackTokens:      512,
		Temperature:         0.7,
		MaxDescriptionChars: 4000,
	}
}
