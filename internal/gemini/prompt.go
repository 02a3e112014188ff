package gemini

import "fmt"

// Task selects which prompt template a generation uses.
type Task string

const (
	TaskStudyGuide Task = "guide"
	TaskQuiz       Task = "quiz"
)

// MaxInputChars caps how much extracted document text is embedded in a prompt.
const MaxInputChars = 30000

// StudyGuidePrompt asks for a Markdown study guide of the document text.
const StudyGuidePrompt = `You are an expert tutor. Create a comprehensive study guide based on the following text.
Format the output in clean Markdown.
Include:
1. A summary of key concepts.
2. Detailed explanations of important terms.
3. Key formulas or dates (if applicable).

Text:
%s`

// QuizPrompt asks for a five question multiple-choice quiz as a bare JSON array.
const QuizPrompt = `Create a 5-question multiple choice quiz based on the following text.
Return the result ONLY as a raw JSON array (no markdown code blocks) with this structure:
[
  {
    "question": "Question text here",
    "options": ["Option A", "Option B", "Option C", "Option D"],
    "answer": "The correct option text exactly as it appears in options"
  }
]

Text:
%s`

// BuildPrompt fills the task's template with text, truncated to MaxInputChars.
func BuildPrompt(task Task, text string) (string, error) {
	text = Truncate(text, MaxInputChars)
	switch task {
	case TaskStudyGuide:
		return fmt.Sprintf(StudyGuidePrompt, text), nil
	case TaskQuiz:
		return fmt.Sprintf(QuizPrompt, text), nil
	default:
		return "", fmt.Errorf("unknown generation task %q", task)
	}
}

// Truncate keeps the first n characters of s, counted in runes.
func Truncate(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
