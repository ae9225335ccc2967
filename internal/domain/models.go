package domain

import "time"

// Club owns a quiz.
type Club struct {
	Name    string `json:"name"`
	LogoURL string `json:"logoUrl,omitempty"`
}

// QuizInfo describes a quiz as listed on the student dashboard. It is
// immutable once a session starts.
type QuizInfo struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	TimeLimitMinutes int    `json:"timeLimitMinutes"`
	TotalQuestions   int    `json:"totalQuestions"`
	Club             Club   `json:"club"`
	Completed        bool   `json:"completed"`
}

// Question is a multiple choice question. Options are identified by value;
// the order they are shown in carries no meaning.
type Question struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

// HasOption reports whether option is one of the question's options.
func (q Question) HasOption(option string) bool {
	for _, o := range q.Options {
		if o == option {
			return true
		}
	}
	return false
}

func (q Question) clone() Question {
	opts := make([]string, len(q.Options))
	copy(opts, q.Options)
	q.Options = opts
	return q
}

// Submission is the payload of the single submit call of a session.
// Unanswered questions are absent from Answers.
type Submission struct {
	QuizID  string            `json:"quizId"`
	Answers map[string]string `json:"answers"`
}

// Result is the server's verdict on a submission.
type Result struct {
	Score    int    `json:"score"`
	Total    int    `json:"total"`
	ResultID string `json:"resultId"`
}

// Identity is the subject carried by a portal access token.
type Identity struct {
	ID    int    `json:"id"`
	Class string `json:"class"`
	Type  string `json:"type"`
	Name  string `json:"name,omitempty"`
}

// HistoryEntry is one past result on the student dashboard.
type HistoryEntry struct {
	ResultID       string    `json:"resultId"`
	QuizTitle      string    `json:"quizTitle"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"totalQuestions"`
	Timestamp      time.Time `json:"timestamp"`
}

// Badge is an award shown on the student dashboard.
type Badge struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IconURL     string `json:"iconUrl,omitempty"`
	AwardedOn   string `json:"awardedOn"`
}

// Dashboard aggregates what a student sees after logging in.
type Dashboard struct {
	ActiveQuizzes []QuizInfo
	History       []HistoryEntry
	Badges        []Badge
}

// ReviewItem compares a submitted answer with the correct one.
type ReviewItem struct {
	QuestionText    string `json:"questionText"`
	SubmittedAnswer string `json:"submittedAnswer"`
	CorrectAnswer   string `json:"correctAnswer"`
	Explanation     string `json:"explanation,omitempty"`
	Correct         bool   `json:"correct"`
}

// LeaderboardEntry is a ranked participant.
type LeaderboardEntry struct {
	Rank   int    `json:"rank"`
	Name   string `json:"name"`
	Class  string `json:"class"`
	Points int    `json:"points"`
}
