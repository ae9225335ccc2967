package app

import (
	"context"
	stderrors "errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"quiz-portal-client/internal/domain"
	"quiz-portal-client/internal/errors"
	"quiz-portal-client/internal/portalapi"
	"quiz-portal-client/internal/telemetry"
)

const (
	defaultTokenTTL    = 24 * time.Hour
	leaderboardSize    = 10
	notAnswered        = "Not Answered"
	firstQuizBadgeName = "First Quiz"
)

// Labels of telemetry.PortalSubmissions.
const (
	submissionAccepted  = "accepted"
	submissionDuplicate = "duplicate"
	submissionRejected  = "rejected"
)

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// QuizCatalog lists the quizzes a class can see on its dashboard.
type QuizCatalog interface {
	ActiveQuizzes(ctx context.Context, className string) ([]domain.QuizInfo, error)
}

type ParticipantStore interface {
	Authenticate(ctx context.Context, className, roll, pin string) (domain.Participant, error)
	AddPoints(ctx context.Context, participantID, points int) (domain.Participant, error)
}

type ResultStore interface {
	SaveResult(ctx context.Context, r domain.StoredResult) error
	GetResult(ctx context.Context, resultID string) (domain.StoredResult, error)
	ListResults(ctx context.Context, participantID int) ([]domain.StoredResult, error)
}

// SubmissionGuard lets one submission per participant and quiz through.
// Acquire fails with domain.ErrAlreadySubmitted when the slot is taken.
type SubmissionGuard interface {
	Acquire(ctx context.Context, participantID int, quizID string) error
	Release(ctx context.Context, participantID int, quizID string) error
}

type Leaderboard interface {
	Record(ctx context.Context, p domain.Participant) error
	Top(ctx context.Context, n int) ([]domain.LeaderboardEntry, error)
}

type PortalConfig struct {
	Quizzes      QuizRepository
	Catalog      QuizCatalog
	Participants ParticipantStore
	Results      ResultStore
	Guard        SubmissionGuard
	Leaderboard  Leaderboard

	// Secret signs access tokens (HS256).
	Secret   []byte
	TokenTTL time.Duration

	Now   func() time.Time
	NewID func() string
}

// PortalService implements the student side of the portal: login, dashboard,
// quiz delivery, grading, review and leaderboard. It backs the development
// server the client is exercised against.
type PortalService struct {
	quizzes      QuizRepository
	catalog      QuizCatalog
	participants ParticipantStore
	results      ResultStore
	guard        SubmissionGuard
	leaderboard  Leaderboard

	secret   []byte
	tokenTTL time.Duration
	now      func() time.Time
	newID    func() string
}

func NewPortalService(c PortalConfig) *PortalService {
	s := &PortalService{
		quizzes:      c.Quizzes,
		catalog:      c.Catalog,
		participants: c.Participants,
		results:      c.Results,
		guard:        c.Guard,
		leaderboard:  c.Leaderboard,
		secret:       c.Secret,
		tokenTTL:     c.TokenTTL,
		now:          c.Now,
		newID:        c.NewID,
	}
	if s.tokenTTL <= 0 {
		s.tokenTTL = defaultTokenTTL
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = newResultID
	}
	return s
}

func newResultID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Login checks student credentials and issues an access token.
func (s *PortalService) Login(ctx context.Context, className, roll, pin string) (string, portalapi.Identity, error) {
	p, err := s.participants.Authenticate(ctx, className, roll, pin)
	if err != nil {
		if stderrors.Is(err, domain.ErrParticipantNotFound) {
			return "", portalapi.Identity{}, errors.New(errors.CodeUnauthenticated, errors.WithMessagef("Invalid credentials"))
		}
		return "", portalapi.Identity{}, err
	}

	id := portalapi.Identity{Type: "student", ID: p.ID, Name: p.Name, Roll: p.Roll, Class: p.ClassName}
	now := s.now()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, portalapi.Claims{
		Identity: id,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}).SignedString(s.secret)
	if err != nil {
		return "", portalapi.Identity{}, errors.Internal(err)
	}

	slog.InfoContext(ctx, "portal: student logged in", "participant_id", p.ID, "class", p.ClassName)
	return token, id, nil
}

// VerifyToken validates an access token and returns its subject.
func (s *PortalService) VerifyToken(token string) (domain.Identity, error) {
	var claims portalapi.Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))

	switch {
	case err == nil:
		return claims.Identity.Domain(), nil
	case stderrors.Is(err, jwt.ErrTokenExpired):
		return domain.Identity{}, errors.New(errors.CodeUnauthenticated, errors.WithMessagef("Token has expired"))
	case stderrors.Is(err, jwt.ErrTokenMalformed):
		return domain.Identity{}, errors.New(errors.CodeUnauthenticated, errors.WithMessagef("malformed token"), errors.WithCause(err))
	default:
		return domain.Identity{}, errors.New(errors.CodeUnauthenticated, errors.WithMessagef("invalid token"), errors.WithCause(err))
	}
}

// Dashboard lists the quizzes open to the student's class, marking the ones
// already taken, with the student's history (newest first) and badges.
func (s *PortalService) Dashboard(ctx context.Context, who domain.Identity) (domain.Dashboard, error) {
	quizzes, err := s.catalog.ActiveQuizzes(ctx, who.Class)
	if err != nil {
		return domain.Dashboard{}, err
	}
	results, err := s.results.ListResults(ctx, who.ID)
	if err != nil {
		return domain.Dashboard{}, err
	}

	completed := make(map[string]bool, len(results))
	for _, r := range results {
		completed[r.QuizID] = true
	}
	for i := range quizzes {
		quizzes[i].Completed = completed[quizzes[i].ID]
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Timestamp.After(results[j].Timestamp)
	})
	history := make([]domain.HistoryEntry, 0, len(results))
	for _, r := range results {
		title := "N/A"
		if q, err := s.quizzes.GetQuiz(ctx, r.QuizID); err == nil {
			title = q.Info.Title
		}
		history = append(history, domain.HistoryEntry{
			ResultID:       r.ResultID,
			QuizTitle:      title,
			Score:          r.Score,
			TotalQuestions: r.Total,
			Timestamp:      r.Timestamp,
		})
	}

	return domain.Dashboard{
		ActiveQuizzes: quizzes,
		History:       history,
		Badges:        badges(results),
	}, nil
}

// badges derives the awards earned by a result history.
func badges(results []domain.StoredResult) []domain.Badge {
	if len(results) == 0 {
		return []domain.Badge{}
	}
	first := results[0].Timestamp
	for _, r := range results[1:] {
		if r.Timestamp.Before(first) {
			first = r.Timestamp
		}
	}
	return []domain.Badge{{
		Name:        firstQuizBadgeName,
		Description: "Completed a first quiz.",
		AwardedOn:   first.Format("02 Jan 2006"),
	}}
}

// QuizQuestions returns the questions of a quiz without its answer key.
func (s *PortalService) QuizQuestions(ctx context.Context, quizID string) ([]domain.Question, error) {
	q, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	return q.Questions, nil
}

// Submit grades a submission, stores the result and credits the student's
// points. A second submission of the same quiz is rejected with
// domain.ErrAlreadySubmitted.
func (s *PortalService) Submit(ctx context.Context, who domain.Identity, sub domain.Submission) (domain.Result, error) {
	if sub.QuizID == "" {
		telemetry.PortalSubmissions.WithLabelValues(submissionRejected).Inc()
		return domain.Result{}, errors.New(errors.CodeInvalidArgument, errors.WithMessagef("quizId is required"))
	}

	if err := s.guard.Acquire(ctx, who.ID, sub.QuizID); err != nil {
		if stderrors.Is(err, domain.ErrAlreadySubmitted) {
			telemetry.PortalSubmissions.WithLabelValues(submissionDuplicate).Inc()
			slog.WarnContext(ctx, "portal: duplicate submission", "participant_id", who.ID, "quiz_id", sub.QuizID)
		}
		return domain.Result{}, err
	}

	res, stored, err := s.grade(ctx, who, sub)
	if err != nil {
		telemetry.PortalSubmissions.WithLabelValues(submissionRejected).Inc()
		if stored {
			// the result exists, so the quiz counts as submitted
			slog.ErrorContext(ctx, "portal: result stored without points",
				"participant_id", who.ID, "quiz_id", sub.QuizID, "error", err)
			return domain.Result{}, err
		}
		if rerr := s.guard.Release(ctx, who.ID, sub.QuizID); rerr != nil {
			slog.ErrorContext(ctx, "portal: release submission guard", "error", rerr)
		}
		return domain.Result{}, err
	}

	telemetry.PortalSubmissions.WithLabelValues(submissionAccepted).Inc()
	slog.InfoContext(ctx, "portal: quiz graded",
		"participant_id", who.ID,
		"quiz_id", sub.QuizID,
		"result_id", res.ResultID,
		"score", res.Score,
		"total", res.Total,
	)
	return res, nil
}

// grade scores sub and persists it. stored reports whether the result was
// saved, which holds even when a later step failed.
func (s *PortalService) grade(ctx context.Context, who domain.Identity, sub domain.Submission) (domain.Result, bool, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, sub.QuizID)
	if err != nil {
		return domain.Result{}, false, err
	}

	score := 0
	for _, q := range quiz.Questions {
		if answerMatches(sub.Answers[q.ID], quiz.Key[q.ID].Correct) {
			score++
		}
	}

	rec := domain.StoredResult{
		ResultID:      s.newID(),
		QuizID:        sub.QuizID,
		ParticipantID: who.ID,
		Score:         score,
		Total:         len(quiz.Questions),
		Timestamp:     s.now().UTC(),
		Answers:       sub.Answers,
	}
	if err := s.results.SaveResult(ctx, rec); err != nil {
		return domain.Result{}, false, err
	}

	p, err := s.participants.AddPoints(ctx, who.ID, score)
	if err != nil {
		return domain.Result{}, true, err
	}
	if err := s.leaderboard.Record(ctx, p); err != nil {
		// the result is stored; the leaderboard catches up on the next submission
		slog.ErrorContext(ctx, "portal: record leaderboard", "participant_id", p.ID, "error", err)
	}

	return domain.Result{Score: score, Total: rec.Total, ResultID: rec.ResultID}, true, nil
}

// answerMatches compares answers case-insensitively. An unanswered question
// never matches.
func answerMatches(submitted, correct string) bool {
	return submitted != "" && strings.EqualFold(submitted, correct)
}

// Review compares a stored result with the answer key. Results of other
// students are reported as not found.
func (s *PortalService) Review(ctx context.Context, who domain.Identity, resultID string) ([]domain.ReviewItem, error) {
	r, err := s.results.GetResult(ctx, resultID)
	if err != nil {
		return nil, err
	}
	if r.ParticipantID != who.ID {
		return nil, domain.ErrResultNotFound
	}

	quiz, err := s.quizzes.GetQuiz(ctx, r.QuizID)
	if err != nil {
		return nil, err
	}

	items := make([]domain.ReviewItem, 0, len(quiz.Questions))
	for _, q := range quiz.Questions {
		key := quiz.Key[q.ID]
		submitted, ok := r.Answers[q.ID]
		if !ok {
			submitted = notAnswered
		}
		items = append(items, domain.ReviewItem{
			QuestionText:    q.Text,
			SubmittedAnswer: submitted,
			CorrectAnswer:   key.Correct,
			Explanation:     key.Explanation,
			Correct:         ok && answerMatches(submitted, key.Correct),
		})
	}
	return items, nil
}

// Leaderboard returns the top students by total points.
func (s *PortalService) Leaderboard(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	return s.leaderboard.Top(ctx, leaderboardSize)
}
