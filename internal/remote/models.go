package remote

import (
	"encoding/json"
	"time"
)

// Auth is the identity material returned by a successful login or register.
type Auth struct {
	UserID   string
	UserName string
	Token    string
}

// authResponse is the wire shape shared by /login and /register.
type authResponse struct {
	Success  bool   `json:"success"`
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	Token    string `json:"token"`
	Error    string `json:"error"`
}

type authRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ConsentStatus is the authoritative consent record for a user. Consent is
// nil when the backend has no decision on file.
type ConsentStatus struct {
	Consent *bool  `json:"consent"`
	Date    string `json:"date"`
}

type consentPush struct {
	UserID  string `json:"userId"`
	Consent bool   `json:"consent"`
	Date    string `json:"date"`
}

// SurveyAnswer is one answered question in a submission.
type SurveyAnswer struct {
	QuestionID   int     `json:"question_id"`
	QuestionText string  `json:"question_text"`
	AnswerIndex  *int    `json:"answer_index"`
	AnswerText   *string `json:"answer_text"`
}

// SurveySubmission is the body posted to /survey.
type SurveySubmission struct {
	UserID    string         `json:"userId"`
	Timestamp time.Time      `json:"timestamp"`
	Responses []SurveyAnswer `json:"responses"`
}

type chatRequest struct {
	Message  string `json:"message"`
	UserID   string `json:"userId"`
	UserType string `json:"userType"`
}

// ChatReply is the companion's answer to one message.
type ChatReply struct {
	Response  string      `json:"response"`
	AlertFlag string      `json:"alertFlag"`
	MoodIndex json.Number `json:"moodIndex"`
	StageInfo string      `json:"stageInfo"`
}

// AlertCrisis marks replies that must be presented with crisis styling.
const AlertCrisis = "crisis"

// MoodValue returns the mood index as a float, with ok=false when the
// backend sent none or an unparsable value.
func (r *ChatReply) MoodValue() (float64, bool) {
	if r.MoodIndex == "" {
		return 0, false
	}
	v, err := r.MoodIndex.Float64()
	if err != nil {
		return 0, false
	}
	return v, true
}

// Statistics summarizes a user's interaction history.
type Statistics struct {
	TotalInteractions int     `json:"totalInteractions"`
	AverageEmotion    float64 `json:"averageEmotion"`
}

// MoodPoint is one entry of the emotion history series.
type MoodPoint struct {
	Timestamp string  `json:"timestamp"`
	Emotion   float64 `json:"emotion"`
}

type historyResponse struct {
	History []MoodPoint `json:"history"`
}

// ProbeState classifies a connectivity probe result.
type ProbeState string

const (
	ProbeReachable   ProbeState = "reachable"
	ProbeDegraded    ProbeState = "degraded"
	ProbeUnreachable ProbeState = "unreachable"
)

// ProbeResult reports what a connection test found.
type ProbeResult struct {
	State  ProbeState
	Status int
}
