// Package healthscore runs the ten-question lifestyle assessment. Answers are
// multiple choice; each option carries a fixed point value and the final score
// is the average across all questions, reported out of ten.
package healthscore

import (
	"fmt"
	"strings"

	"github.com/healthcompass/assistant/internal/session"
)

// Question is one assessment item. Options are ordered worst to best so the
// option index maps directly onto the point scale.
type Question struct {
	Text    string
	Options [4]string
}

// Questions is the fixed assessment, asked in order.
var Questions = [10]Question{
	{
		Text: "How many hours do you sleep on a typical night?",
		Options: [4]string{
			"Less than 4 hours", "4-5 hours", "6-7 hours", "7-9 hours",
		},
	},
	{
		Text: "How often do you exercise or do physical activity?",
		Options: [4]string{
			"Rarely or never", "Once or twice a month", "1-2 times a week", "3 or more times a week",
		},
	},
	{
		Text: "How would you describe your daily diet?",
		Options: [4]string{
			"Mostly fast food or processed meals", "Irregular, I often skip meals",
			"Balanced on most days", "Balanced with plenty of fruits and vegetables",
		},
	},
	{
		Text: "How much water do you drink in a day?",
		Options: [4]string{
			"1-2 glasses", "3-4 glasses", "5-7 glasses", "8 or more glasses",
		},
	},
	{
		Text: "How often do you feel stressed or anxious?",
		Options: [4]string{
			"Almost all the time", "Most days", "Occasionally", "Rarely",
		},
	},
	{
		Text: "Do you smoke or use tobacco products?",
		Options: [4]string{
			"Daily", "A few times a week", "Occasionally", "Never",
		},
	},
	{
		Text: "How often do you consume alcohol?",
		Options: [4]string{
			"Daily", "A few times a week", "Occasionally", "Never or rarely",
		},
	},
	{
		Text: "When did you last have a routine health checkup?",
		Options: [4]string{
			"Never or can't remember", "More than two years ago", "Within the last two years", "Within the last year",
		},
	},
	{
		Text: "How are your energy levels through the day?",
		Options: [4]string{
			"Exhausted most of the time", "Often tired", "Mostly fine with occasional dips", "Consistently energetic",
		},
	},
	{
		Text: "How often do you experience headaches, body aches, or other recurring symptoms?",
		Options: [4]string{
			"Daily", "A few times a week", "A few times a month", "Rarely or never",
		},
	},
}

// optionPoints maps the chosen option (1-4) to its score contribution.
var optionPoints = [4]float64{2.5, 5, 7.5, 10}

// answerForms maps spoken and written digit forms, across the languages the
// assistant supports, onto the canonical option number.
var answerForms = map[string]int{
	"1": 1, "one": 1, "first": 1, "a": 1, "ek": 1, "एक": 1, "१": 1, "١": 1, "uno": 1, "un": 1,
	"2": 2, "two": 2, "second": 2, "b": 2, "do": 2, "दो": 2, "२": 2, "٢": 2, "dos": 2,
	"3": 3, "three": 3, "third": 3, "c": 3, "teen": 3, "तीन": 3, "३": 3, "٣": 3, "tres": 3,
	"4": 4, "four": 4, "fourth": 4, "d": 4, "char": 4, "chaar": 4, "चार": 4, "४": 4, "٤": 4, "cuatro": 4,
}

// NormalizeAnswer reduces a free-text reply to an option number. It accepts
// bare digits, digit words in several languages, option letters, and replies
// like "option 3" or "3.".
func NormalizeAnswer(raw string) (int, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.TrimSuffix(s, ".")
	s = strings.TrimSuffix(s, ")")
	for _, prefix := range []string{"option ", "answer ", "number ", "no. ", "no "} {
		s = strings.TrimPrefix(s, prefix)
	}
	s = strings.TrimSpace(s)
	if n, ok := answerForms[s]; ok {
		return n, true
	}
	return 0, false
}

var cancelWords = map[string]bool{
	"cancel": true, "stop": true, "quit": true, "exit": true, "nevermind": true, "never mind": true,
}

// Result is one turn's outcome of the assessment flow.
type Result struct {
	Reply     string
	Done      bool
	Cancelled bool
}

// Begin initializes the session for the assessment and returns the opening
// message with the first question.
func Begin(sess *session.State) Result {
	sess.Phase = session.PhaseHealthScore
	sess.HealthAnswers = make(map[int]string, len(Questions))
	return Result{Reply: "Let's check in on your health! I'll ask 10 quick questions — answer each with 1, 2, 3, or 4.\n\n" + formatQuestion(0)}
}

// Step records one answer and asks the next question, or computes the final
// score after the last one.
func Step(sess *session.State, message string) Result {
	if cancelWords[strings.ToLower(strings.TrimSpace(message))] {
		return Result{
			Reply:     "No problem, we can do the health check another time. How else can I assist you today?",
			Cancelled: true,
		}
	}

	idx := len(sess.HealthAnswers)
	if idx >= len(Questions) {
		return finish(sess)
	}

	n, ok := NormalizeAnswer(message)
	if !ok {
		return Result{Reply: "Please answer with 1, 2, 3, or 4.\n\n" + formatQuestion(idx)}
	}

	if sess.HealthAnswers == nil {
		sess.HealthAnswers = make(map[int]string, len(Questions))
	}
	sess.HealthAnswers[idx] = fmt.Sprintf("%d", n)

	if idx+1 < len(Questions) {
		return Result{Reply: formatQuestion(idx + 1)}
	}
	return finish(sess)
}

// Compute averages the option points over the answered questions.
func Compute(answers map[int]string) float64 {
	if len(answers) == 0 {
		return 0
	}
	var total float64
	for _, v := range answers {
		n, _ := NormalizeAnswer(v)
		if n >= 1 && n <= 4 {
			total += optionPoints[n-1]
		}
	}
	return total / float64(len(answers))
}

func finish(sess *session.State) Result {
	score := Compute(sess.HealthAnswers)
	reply := fmt.Sprintf("🎉 That's all 10! Your health score is %.1f out of 10 — %s", score, category(score))
	if prev := strings.TrimSpace(sess.PreviousScore); prev != "" {
		reply += fmt.Sprintf("\n\nLast time your score was %s.", prev)
	}
	reply += "\n\nIs there anything else I can help you with?"
	sess.PreviousScore = fmt.Sprintf("%.1f", score)
	return Result{Reply: reply, Done: true}
}

func category(score float64) string {
	switch {
	case score >= 8.5:
		return "excellent! Keep up the great habits."
	case score >= 6.5:
		return "good. A few small changes could make it even better."
	case score >= 4.5:
		return "fair. Consider working on sleep, diet, and activity."
	default:
		return "an area to focus on. Please consider discussing your lifestyle with a doctor."
	}
}

func formatQuestion(idx int) string {
	q := Questions[idx]
	var b strings.Builder
	fmt.Fprintf(&b, "Question %d of %d: %s\n", idx+1, len(Questions), q.Text)
	for i, opt := range q.Options {
		fmt.Fprintf(&b, "%d. %s\n", i+1, opt)
	}
	return strings.TrimRight(b.String(), "\n")
}
