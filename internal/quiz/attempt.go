package quiz

import (
	"errors"
	"math"
)

var (
	ErrQuestionOutOfRange = errors.New("question index out of range")
	ErrUnknownOption      = errors.New("option is not one of the question's options")
	ErrAlreadyGraded      = errors.New("quiz already submitted; retry to answer again")
)

// Attempt is one pass at a quiz: the items, the user's current selections
// and whether the selections have been submitted for grading.
type Attempt struct {
	Items   []Item         `json:"items"`
	Answers map[int]string `json:"answers"`
	Graded  bool           `json:"graded"`
}

// NewAttempt starts a fresh attempt with no selections.
func NewAttempt(items []Item) Attempt {
	if items == nil {
		items = []Item{}
	}
	return Attempt{Items: items, Answers: map[int]string{}}
}

// Select records option as the answer to question index. The latest call
// for a question wins.
func (a *Attempt) Select(index int, option string) error {
	if a.Graded {
		return ErrAlreadyGraded
	}
	if index < 0 || index >= len(a.Items) {
		return ErrQuestionOutOfRange
	}
	if !a.Items[index].HasOption(option) {
		return ErrUnknownOption
	}
	if a.Answers == nil {
		a.Answers = map[int]string{}
	}
	a.Answers[index] = option
	return nil
}

// Outcome is the graded state of one question.
type Outcome struct {
	Index    int    `json:"index"`
	Selected string `json:"selected,omitempty"`
	Answer   string `json:"answer"`
	Answered bool   `json:"answered"`
	Correct  bool   `json:"correct"`
}

// Result is the score of a submitted attempt.
type Result struct {
	Correct    int       `json:"correct"`
	Total      int       `json:"total"`
	Percentage int       `json:"percentage"`
	Outcomes   []Outcome `json:"outcomes"`
}

// Grade scores the current selections and locks the attempt until Retry.
// Unanswered questions count as wrong. An empty quiz scores 0.
func (a *Attempt) Grade() Result {
	res := Result{Total: len(a.Items), Outcomes: make([]Outcome, 0, len(a.Items))}
	for i, it := range a.Items {
		sel, answered := a.Answers[i]
		o := Outcome{Index: i, Selected: sel, Answer: it.Answer, Answered: answered}
		o.Correct = answered && sel == it.Answer
		if o.Correct {
			res.Correct++
		}
		res.Outcomes = append(res.Outcomes, o)
	}
	res.Percentage = Percentage(res.Correct, res.Total)
	a.Graded = true
	return res
}

// Retry clears every selection and unlocks the attempt.
func (a *Attempt) Retry() {
	a.Answers = map[int]string{}
	a.Graded = false
}

// Percentage returns correct/total as a whole percent, rounding halves up.
func Percentage(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Floor(float64(correct)/float64(total)*100 + 0.5))
}
