package app

import "quiz-portal-client/internal/domain"

// Intent is a user action, or a synthetic one, understood by the Controller.
// The set is closed: only the types in this file implement it.
type Intent interface {
	intentName() string
}

// Start begins a session with already fetched questions.
type Start struct {
	Info      domain.QuizInfo
	Questions []domain.Question
}

// Select chooses an option for the displayed question.
type Select struct {
	QuestionID string
	Option     string
}

type (
	Next          struct{}
	Prev          struct{}
	RequestSubmit struct{}
	ConfirmSubmit struct{}
	CancelSubmit  struct{}
	// Abandon discards the live session without submitting.
	Abandon struct{}
)

func (Start) intentName() string         { return "start" }
func (Select) intentName() string        { return "select" }
func (Next) intentName() string          { return "next" }
func (Prev) intentName() string          { return "prev" }
func (RequestSubmit) intentName() string { return "request_submit" }
func (ConfirmSubmit) intentName() string { return "confirm_submit" }
func (CancelSubmit) intentName() string  { return "cancel_submit" }
func (Abandon) intentName() string       { return "abandon" }

// IntentName returns the wire name of an intent.
func IntentName(in Intent) string {
	return in.intentName()
}
