package quiz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threeQuestions() []Item {
	return []Item{
		{Question: "a", Options: []string{"1", "2", "3", "4"}, Answer: "1"},
		{Question: "b", Options: []string{"1", "2", "3", "4"}, Answer: "2"},
		{Question: "c", Options: []string{"1", "2", "3", "4"}, Answer: "3"},
	}
}

func TestGradeRoundsPercentage(t *testing.T) {
	a := NewAttempt(threeQuestions())
	require.NoError(t, a.Select(0, "1"))
	require.NoError(t, a.Select(1, "2"))
	require.NoError(t, a.Select(2, "4"))

	res := a.Grade()
	assert.Equal(t, 2, res.Correct)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 67, res.Percentage)
	assert.True(t, res.Outcomes[0].Correct)
	assert.False(t, res.Outcomes[2].Correct)
	assert.Equal(t, "3", res.Outcomes[2].Answer)
}

func TestSelectLastWriteWins(t *testing.T) {
	a := NewAttempt(threeQuestions())
	require.NoError(t, a.Select(0, "2"))
	require.NoError(t, a.Select(0, "1"))
	require.NoError(t, a.Select(0, "1"))

	res := a.Grade()
	assert.Equal(t, 1, res.Correct)
	assert.Equal(t, 33, res.Percentage)
}

func TestUnansweredCountsAsWrong(t *testing.T) {
	a := NewAttempt(threeQuestions())
	res := a.Grade()
	assert.Equal(t, 0, res.Correct)
	assert.Equal(t, 0, res.Percentage)
	assert.False(t, res.Outcomes[1].Answered)
}

func TestEmptyQuizGradesZero(t *testing.T) {
	a := NewAttempt(nil)
	res := a.Grade()
	assert.Equal(t, 0, res.Total)
	assert.Equal(t, 0, res.Percentage)
	assert.Empty(t, res.Outcomes)
}

func TestSelectErrors(t *testing.T) {
	a := NewAttempt(threeQuestions())
	assert.ErrorIs(t, a.Select(-1, "1"), ErrQuestionOutOfRange)
	assert.ErrorIs(t, a.Select(3, "1"), ErrQuestionOutOfRange)
	assert.ErrorIs(t, a.Select(0, "five"), ErrUnknownOption)

	a.Grade()
	assert.ErrorIs(t, a.Select(0, "1"), ErrAlreadyGraded)
}

func TestRetryClearsAndUnlocks(t *testing.T) {
	a := NewAttempt(threeQuestions())
	require.NoError(t, a.Select(0, "1"))
	a.Grade()

	a.Retry()
	a.Retry()
	assert.False(t, a.Graded)
	assert.Empty(t, a.Answers)
	require.NoError(t, a.Select(1, "2"))
	assert.Len(t, a.Items, 3)
}

func TestPercentage(t *testing.T) {
	cases := []struct{ correct, total, want int }{
		{0, 0, 0},
		{1, 2, 50},
		{1, 8, 13},
		{5, 5, 100},
		{2, 3, 67},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Percentage(c.correct, c.total), "%d/%d", c.correct, c.total)
	}
}
