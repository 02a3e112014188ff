// Package quiz decodes model-generated multiple-choice quizzes and grades
// attempts against them.
package quiz

import (
	"fmt"
	"slices"
)

// OptionsPerItem is the option count the quiz prompt asks for.
const OptionsPerItem = 4

// Item is one multiple-choice question as returned by the model.
type Item struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
}

// HasOption reports whether option is one of the item's options.
func (it Item) HasOption(option string) bool {
	return slices.Contains(it.Options, option)
}

// Validate lists structural problems in a decoded quiz. It never rejects
// anything; callers use it for logging only.
func Validate(items []Item) []string {
	var problems []string
	for i, it := range items {
		if it.Question == "" {
			problems = append(problems, fmt.Sprintf("question %d: empty question text", i+1))
		}
		if len(it.Options) != OptionsPerItem {
			problems = append(problems, fmt.Sprintf("question %d: %d options, want %d", i+1, len(it.Options), OptionsPerItem))
		}
		if !it.HasOption(it.Answer) {
			problems = append(problems, fmt.Sprintf("question %d: answer %q is not among the options", i+1, it.Answer))
		}
	}
	return problems
}
