package domain

import (
	"strings"
	"time"
)

// The types below are the portal's server-side records. They carry the answer
// key and never leave the portal.

// Quiz is the full content of a quiz as stored by the portal.
type Quiz struct {
	Info            QuizInfo             `json:"info"`
	Status          string               `json:"status"`
	AssignedClasses string               `json:"assignedClasses"`
	Questions       []Question           `json:"questions"`
	Key             map[string]AnswerKey `json:"key"`
}

// AnswerKey is the correct answer of one question.
type AnswerKey struct {
	Correct     string `json:"correct"`
	Explanation string `json:"explanation,omitempty"`
}

// OpenTo reports whether the quiz is active and assigned to className.
// AssignedClasses is AllClasses or a comma separated list of class names.
func (q Quiz) OpenTo(className string) bool {
	if q.Status != QuizStatusActive {
		return false
	}
	if q.AssignedClasses == "" || q.AssignedClasses == AllClasses {
		return true
	}
	for _, c := range strings.Split(q.AssignedClasses, ",") {
		if strings.EqualFold(strings.TrimSpace(c), className) {
			return true
		}
	}
	return false
}

// Summary returns the dashboard entry of the quiz.
func (q Quiz) Summary() QuizInfo {
	info := q.Info
	info.TotalQuestions = len(q.Questions)
	return info
}

const (
	QuizStatusActive  = "Active"
	QuizStatusPending = "Pending"

	AllClasses = "All"
)

// Participant is a student account.
type Participant struct {
	ID          int    `json:"id"`
	ClassName   string `json:"className"`
	Roll        string `json:"roll"`
	Name        string `json:"name"`
	PIN         string `json:"-"`
	TotalPoints int    `json:"totalPoints"`
}

// StoredResult is a graded submission.
type StoredResult struct {
	ResultID      string            `json:"resultId"`
	QuizID        string            `json:"quizId"`
	ParticipantID int               `json:"participantId"`
	Score         int               `json:"score"`
	Total         int               `json:"total"`
	Timestamp     time.Time         `json:"timestamp"`
	Answers       map[string]string `json:"answers"`
}
