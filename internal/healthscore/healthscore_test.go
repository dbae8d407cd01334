package healthscore

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthcompass/assistant/internal/session"
)

func TestNormalizeAnswer(t *testing.T) {
	cases := []struct {
		in   string
		want int
		ok   bool
	}{
		{"1", 1, true},
		{"one", 1, true},
		{"ek", 1, true},
		{"एक", 1, true},
		{"١", 1, true},
		{"2.", 2, true},
		{"option 3", 3, true},
		{"Option 3", 3, true},
		{"THREE", 3, true},
		{"chaar", 4, true},
		{"٤", 4, true},
		{"d", 4, true},
		{"5", 0, false},
		{"maybe two-ish", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, ok := NormalizeAnswer(tc.in)
		assert.Equal(t, tc.ok, ok, "input %q", tc.in)
		if tc.ok {
			assert.Equal(t, tc.want, got, "input %q", tc.in)
		}
	}
}

func TestBeginAsksFirstQuestion(t *testing.T) {
	sess := session.New(session.PhaseIdle)
	res := Begin(sess)

	assert.Equal(t, session.PhaseHealthScore, sess.Phase)
	assert.Contains(t, res.Reply, "Question 1 of 10")
	assert.Contains(t, res.Reply, Questions[0].Text)
	assert.False(t, res.Done)
}

func TestFullAssessmentAllBestAnswers(t *testing.T) {
	sess := session.New(session.PhaseIdle)
	Begin(sess)

	var last Result
	for i := 0; i < 10; i++ {
		last = Step(sess, "4")
		if i < 9 {
			require.Contains(t, last.Reply, fmt.Sprintf("Question %d of 10", i+2))
		}
	}

	assert.True(t, last.Done)
	assert.Contains(t, last.Reply, "10.0 out of 10")
	assert.Contains(t, last.Reply, "excellent")
	assert.Equal(t, "10.0", sess.PreviousScore)
}

func TestMixedAnswersAverage(t *testing.T) {
	sess := session.New(session.PhaseIdle)
	Begin(sess)

	// five worst and five best answers average to 6.25
	var last Result
	for i := 0; i < 5; i++ {
		last = Step(sess, "1")
	}
	for i := 0; i < 5; i++ {
		last = Step(sess, "4")
	}

	assert.True(t, last.Done)
	assert.Contains(t, last.Reply, "6.2 out of 10")
	assert.Contains(t, last.Reply, "fair")
}

func TestUnreadableAnswerReasksSameQuestion(t *testing.T) {
	sess := session.New(session.PhaseIdle)
	Begin(sess)
	Step(sess, "3")

	res := Step(sess, "hmm not sure")

	assert.False(t, res.Done)
	assert.Contains(t, res.Reply, "Please answer with 1, 2, 3, or 4")
	assert.Contains(t, res.Reply, "Question 2 of 10")
	assert.Len(t, sess.HealthAnswers, 1)
}

func TestMultilingualAnswersAccepted(t *testing.T) {
	sess := session.New(session.PhaseIdle)
	Begin(sess)

	res := Step(sess, "ek")
	assert.Contains(t, res.Reply, "Question 2 of 10")
	res = Step(sess, "२")
	assert.Contains(t, res.Reply, "Question 3 of 10")
	res = Step(sess, "tres")
	assert.Contains(t, res.Reply, "Question 4 of 10")

	assert.Equal(t, "1", sess.HealthAnswers[0])
	assert.Equal(t, "2", sess.HealthAnswers[1])
	assert.Equal(t, "3", sess.HealthAnswers[2])
}

func TestCancelMidAssessment(t *testing.T) {
	sess := session.New(session.PhaseIdle)
	Begin(sess)
	Step(sess, "2")

	res := Step(sess, "cancel")

	assert.True(t, res.Cancelled)
	assert.Contains(t, res.Reply, "another time")
}

func TestPreviousScoreReported(t *testing.T) {
	sess := session.New(session.PhaseIdle)
	sess.PreviousScore = "5.5"
	Begin(sess)

	// Begin resets answers but keeps the prior score for comparison
	var last Result
	for i := 0; i < 10; i++ {
		last = Step(sess, "3")
	}

	require.True(t, last.Done)
	assert.Contains(t, last.Reply, "7.5 out of 10")
	assert.Contains(t, last.Reply, "Last time your score was 5.5")
	assert.Equal(t, "7.5", sess.PreviousScore)
}

func TestQuestionFormatting(t *testing.T) {
	q := formatQuestion(0)
	lines := strings.Split(q, "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[1], "1. "))
	assert.True(t, strings.HasPrefix(lines[4], "4. "))
}
