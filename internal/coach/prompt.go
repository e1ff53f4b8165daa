package coach

import (
	"fmt"
	"strings"

	"github.com/mockt/mockt/internal/backend"
)

const questionSystemPrompt = `You are an experienced hiring manager preparing a spoken mock interview.

Rules:
- Write exactly the requested number of questions, in the order they should be asked.
- Tailor every question to the job title and, when given, the job description.
- Match the requested difficulty. "managerial" means leadership, people and stakeholder questions.
- Each question must stand alone and be answerable in two to three minutes of speech.
- Do not number the questions and do not add commentary.
- Never repeat a question.`

const evaluationSystemPrompt = `You are an interview coach scoring a candidate's answer.

Rules:
- Score from 0 to 100. An empty, off-topic or evasive answer scores below 20.
- Judge relevance to the question, structure, concrete evidence and fit for the role.
- The text "[voice recorded]" means the candidate also recorded a spoken answer you cannot hear; score only the written part.
- Feedback is addressed to the candidate in the second person, two to four sentences, and names one concrete improvement.`

func buildQuestionMessage(in backend.CreateSessionInput, cfg Config) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Job title: %s\n", strings.TrimSpace(in.JobRole))
	fmt.Fprintf(&b, "Difficulty: %s\n", in.Difficulty)
	fmt.Fprintf(&b, "Number of questions: %d\n", in.QuestionCount)

	desc := strings.TrimSpace(in.JobDescription)
	if desc == "" {
		desc = "None"
	}
	if cfg.MaxDescriptionChars > 0 && len(desc) > cfg.MaxDescriptionChars {
		desc = desc[:cfg.MaxDescriptionChars] + "..."
	}
	b.WriteString("\nJob description:\n")
	b.WriteString(desc)
	return b.String()
}

func buildEvaluationMessage(in backend.EvaluateInput) string {
	var b strings.Builder
	role := strings.TrimSpace(in.JobRole)
	if role == "" {
		role = "Unspecified"
	}
	fmt.Fprintf(&b, "Role: %s\n", role)
	fmt.Fprintf(&b, "Question: %s\n", in.QuestionText)
	b.WriteString("\nCandidate answer:\n")
	b.WriteString(in.AnswerText)
	return b.String()
}
