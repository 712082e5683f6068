package survey

import "solace/internal/remote"

// QuestionSetVersion identifies the fixed question set below. Bump when the
// questions change so submissions stay comparable.
const QuestionSetVersion = "wellbeing-v1"

// Question is one item of the periodic wellbeing screening.
type Question struct {
	ID      int
	Text    string
	Options []string
}

// Questions is the fixed, ordered wellbeing question set.
var Questions = []Question{
	{ID: 1, Text: "Over the past week, have you felt sad or down?",
		Options: []string{"Not at all", "Occasionally", "Often", "Almost always"}},
	{ID: 2, Text: "Are you able to find enjoyment in your daily activities?",
		Options: []string{"Yes", "Sometimes", "Rarely", "Not at all"}},
	{ID: 3, Text: "Do you feel that life has lost purpose or meaning?",
		Options: []string{"Not at all", "Somewhat", "Considerably", "Strongly agree"}},
	{ID: 4, Text: "Do you feel hopeful about the future?",
		Options: []string{"Very hopeful", "Somewhat hopeful", "Not very hopeful", "No hope at all"}},
	{ID: 5, Text: "Have you had trouble sleeping, or been sleeping too much?",
		Options: []string{"No", "Sometimes", "Often", "Severely"}},
}

// Response is one answered (or unanswered) question. AnswerIndex and
// AnswerText are nil until the user picks an option.
type Response struct {
	QuestionID   int
	QuestionText string
	AnswerIndex  *int
	AnswerText   *string
}

// Answer builds a response for the question with the chosen option index.
// An out-of-range index yields an unanswered response.
func Answer(q Question, optionIndex int) Response {
	resp := Response{QuestionID: q.ID, QuestionText: q.Text}
	if optionIndex < 0 || optionIndex >= len(q.Options) {
		return resp
	}
	idx := optionIndex
	text := q.Options[optionIndex]
	resp.AnswerIndex = &idx
	resp.AnswerText = &text
	return resp
}

// Complete reports whether every question in the set has a non-nil answer.
// Submission is only attempted when this holds.
func Complete(responses []Response) bool {
	if len(responses) != len(Questions) {
		return false
	}
	for _, r := range responses {
		if r.AnswerIndex == nil || r.AnswerText == nil {
			return false
		}
	}
	return true
}

func toWire(responses []Response) []remote.SurveyAnswer {
	answers := make([]remote.SurveyAnswer, 0, len(responses))
	for _, r := range responses {
		answers = append(answers, remote.SurveyAnswer{
			QuestionID:   r.QuestionID,
			QuestionText: r.QuestionText,
			AnswerIndex:  r.AnswerIndex,
			AnswerText:   r.AnswerText,
		})
	}
	return answers
}
