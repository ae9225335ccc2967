// Package portalapi holds the JSON shapes of the student portal REST API,
// shared by the client and the development server.
package portalapi

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"quiz-portal-client/internal/domain"
)

// Paths are relative to the API root, e.g. http://host/api.
const (
	PathLogin       = "/auth/student/login"
	PathDashboard   = "/student/dashboard-data"
	PathQuizDetails = "/student/quiz-details/"
	PathSubmitQuiz  = "/student/submit-quiz"
	PathReview      = "/student/review-details/"
	PathLeaderboard = "/student/leaderboard"
)

// TimestampLayout is how the portal renders result timestamps (UTC, no zone).
const TimestampLayout = "2006-01-02T15:04:05.999999"

type LoginRequest struct {
	ClassName string `json:"className"`
	Roll      string `json:"roll"`
	PIN       string `json:"pin"`
}

type LoginResponse struct {
	AccessToken string   `json:"access_token"`
	User        Identity `json:"user"`
}

// Identity is the token subject. The portal encodes it as a JSON object in
// the sub claim.
type Identity struct {
	Type  string `json:"type"`
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Roll  string `json:"roll,omitempty"`
	Class string `json:"class"`
}

func (i Identity) Domain() domain.Identity {
	return domain.Identity{ID: i.ID, Class: i.Class, Type: i.Type, Name: i.Name}
}

// Claims are the claims of a portal access token.
type Claims struct {
	Identity Identity `json:"sub"`
	jwt.RegisteredClaims
}

type Question struct {
	QuestionID   string `json:"QuestionID"`
	QuestionText string `json:"QuestionText"`
	OptionA      string `json:"OptionA"`
	OptionB      string `json:"OptionB"`
	OptionC      string `json:"OptionC"`
	OptionD      string `json:"OptionD"`
}

// Domain converts q, dropping empty option slots.
func (q Question) Domain() domain.Question {
	out := domain.Question{ID: q.QuestionID, Text: q.QuestionText}
	for _, o := range []string{q.OptionA, q.OptionB, q.OptionC, q.OptionD} {
		if strings.TrimSpace(o) != "" {
			out.Options = append(out.Options, o)
		}
	}
	return out
}

func FromQuestion(q domain.Question) Question {
	out := Question{QuestionID: q.ID, QuestionText: q.Text}
	slots := []*string{&out.OptionA, &out.OptionB, &out.OptionC, &out.OptionD}
	for i, o := range q.Options {
		if i == len(slots) {
			break
		}
		*slots[i] = o
	}
	return out
}

type ActiveQuiz struct {
	QuizID           string `json:"quizid"`
	QuizTitle        string `json:"quiztitle"`
	ClubName         string `json:"clubname"`
	ClubLogoURL      string `json:"clublogourl"`
	TotalQuestions   int    `json:"totalquestions"`
	TimeLimitMinutes int    `json:"timelimitminutes"`
	IsCompleted      bool   `json:"isCompleted"`
}

func (q ActiveQuiz) Domain() domain.QuizInfo {
	return domain.QuizInfo{
		ID:               q.QuizID,
		Title:            q.QuizTitle,
		TimeLimitMinutes: q.TimeLimitMinutes,
		TotalQuestions:   q.TotalQuestions,
		Club:             domain.Club{Name: q.ClubName, LogoURL: q.ClubLogoURL},
		Completed:        q.IsCompleted,
	}
}

func FromQuizInfo(info domain.QuizInfo) ActiveQuiz {
	return ActiveQuiz{
		QuizID:           info.ID,
		QuizTitle:        info.Title,
		ClubName:         info.Club.Name,
		ClubLogoURL:      info.Club.LogoURL,
		TotalQuestions:   info.TotalQuestions,
		TimeLimitMinutes: info.TimeLimitMinutes,
		IsCompleted:      info.Completed,
	}
}

type HistoryEntry struct {
	ResultID       string `json:"resultId"`
	QuizTitle      string `json:"quizTitle"`
	Score          int    `json:"score"`
	TotalQuestions int    `json:"totalQuestions"`
	Timestamp      string `json:"timestamp"`
}

func (h HistoryEntry) Domain() domain.HistoryEntry {
	return domain.HistoryEntry{
		ResultID:       h.ResultID,
		QuizTitle:      h.QuizTitle,
		Score:          h.Score,
		TotalQuestions: h.TotalQuestions,
		Timestamp:      ParseTimestamp(h.Timestamp),
	}
}

func FromHistoryEntry(h domain.HistoryEntry) HistoryEntry {
	return HistoryEntry{
		ResultID:       h.ResultID,
		QuizTitle:      h.QuizTitle,
		Score:          h.Score,
		TotalQuestions: h.TotalQuestions,
		Timestamp:      h.Timestamp.UTC().Format(TimestampLayout),
	}
}

// ParseTimestamp accepts the portal layout and RFC 3339. Unparseable values
// yield the zero time.
func ParseTimestamp(s string) time.Time {
	for _, layout := range []string{TimestampLayout, time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

type Badge struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IconURL     string `json:"icon_url"`
	AwardedOn   string `json:"awarded_on"`
}

type DashboardResponse struct {
	ActiveQuizzes []ActiveQuiz   `json:"activeQuizzes"`
	History       []HistoryEntry `json:"history"`
	Badges        []Badge        `json:"badges"`
}

func (d DashboardResponse) Domain() domain.Dashboard {
	out := domain.Dashboard{
		ActiveQuizzes: make([]domain.QuizInfo, 0, len(d.ActiveQuizzes)),
		History:       make([]domain.HistoryEntry, 0, len(d.History)),
		Badges:        make([]domain.Badge, 0, len(d.Badges)),
	}
	for _, q := range d.ActiveQuizzes {
		out.ActiveQuizzes = append(out.ActiveQuizzes, q.Domain())
	}
	for _, h := range d.History {
		out.History = append(out.History, h.Domain())
	}
	for _, b := range d.Badges {
		out.Badges = append(out.Badges, domain.Badge{
			Name:        b.Name,
			Description: b.Description,
			IconURL:     b.IconURL,
			AwardedOn:   b.AwardedOn,
		})
	}
	return out
}

type ReviewItem struct {
	QuestionText    string `json:"questiontext"`
	SubmittedAnswer string `json:"submittedanswer"`
	CorrectAnswer   string `json:"correctanswer"`
	Explanation     string `json:"explanation"`
	IsCorrect       bool   `json:"iscorrect"`
}

func (r ReviewItem) Domain() domain.ReviewItem {
	return domain.ReviewItem{
		QuestionText:    r.QuestionText,
		SubmittedAnswer: r.SubmittedAnswer,
		CorrectAnswer:   r.CorrectAnswer,
		Explanation:     r.Explanation,
		Correct:         r.IsCorrect,
	}
}

func FromReviewItem(r domain.ReviewItem) ReviewItem {
	return ReviewItem{
		QuestionText:    r.QuestionText,
		SubmittedAnswer: r.SubmittedAnswer,
		CorrectAnswer:   r.CorrectAnswer,
		Explanation:     r.Explanation,
		IsCorrect:       r.Correct,
	}
}

// ErrorResponse is the body of a failed request. The portal uses message for
// its own errors and msg for token errors.
type ErrorResponse struct {
	Message string `json:"message,omitempty"`
	Msg     string `json:"msg,omitempty"`
}

func (e ErrorResponse) Text() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Msg
}
