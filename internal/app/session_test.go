package app_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-portal-client/internal/app"
	"quiz-portal-client/internal/clock"
	"quiz-portal-client/internal/domain"
)

func TestNewSession_Validation(t *testing.T) {
	valid := []domain.Question{
		{ID: "q1", Text: "2 + 2?", Options: []string{"3", "4"}},
	}

	tests := map[string]struct {
		info      domain.QuizInfo
		questions []domain.Question
		wantErr   bool
	}{
		"valid quiz": {
			info:      quizInfo(1),
			questions: valid,
		},
		"no questions": {
			info:    quizInfo(1),
			wantErr: true,
		},
		"zero time limit": {
			info:      quizInfo(0),
			questions: valid,
			wantErr:   true,
		},
		"single option": {
			info:      quizInfo(1),
			questions: []domain.Question{{ID: "q1", Options: []string{"only"}}},
			wantErr:   true,
		},
		"five options": {
			info:      quizInfo(1),
			questions: []domain.Question{{ID: "q1", Options: []string{"a", "b", "c", "d", "e"}}},
			wantErr:   true,
		},
		"duplicate options": {
			info:      quizInfo(1),
			questions: []domain.Question{{ID: "q1", Options: []string{"a", "a"}}},
			wantErr:   true,
		},
		"empty option": {
			info:      quizInfo(1),
			questions: []domain.Question{{ID: "q1", Options: []string{"a", ""}}},
			wantErr:   true,
		},
		"duplicate question ids": {
			info: quizInfo(1),
			questions: []domain.Question{
				{ID: "q1", Options: []string{"a", "b"}},
				{ID: "q1", Options: []string{"c", "d"}},
			},
			wantErr: true,
		},
		"missing question id": {
			info:      quizInfo(1),
			questions: []domain.Question{{Options: []string{"a", "b"}}},
			wantErr:   true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			s, err := app.NewSession(tt.info, tt.questions)
			if tt.wantErr {
				require.ErrorIs(t, err, domain.ErrInvalidQuizData)
				assert.Nil(t, s)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, domain.StateInProgress, s.State())
			assert.Equal(t, 0, s.Index())
			assert.Equal(t, 60, s.DurationSeconds())
		})
	}
}

func TestSession_NavigationSaturates(t *testing.T) {
	tests := map[string]struct {
		moves []string
		want  int
	}{
		"prev at start stays":      {moves: []string{"p", "p"}, want: 0},
		"next past end stays":      {moves: []string{"n", "n", "n", "n", "n"}, want: 2},
		"back and forth":           {moves: []string{"n", "n", "p", "n", "n", "p"}, want: 1},
		"to the end and back home": {moves: []string{"n", "n", "n", "p", "p", "p", "p"}, want: 0},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			s := newSession(t, 3)
			for _, m := range tt.moves {
				if m == "n" {
					require.NoError(t, s.Next())
				} else {
					require.NoError(t, s.Prev())
				}
				require.GreaterOrEqual(t, s.Index(), 0)
				require.Less(t, s.Index(), 3)
			}
			assert.Equal(t, tt.want, s.Index())
			assert.Empty(t, s.Answers(), "navigation never changes answers")
			assert.Equal(t, domain.StateInProgress, s.State())
		})
	}
}

func TestSession_SelectOnlyCurrentQuestion(t *testing.T) {
	s := newSession(t, 2)

	require.NoError(t, s.Select("q1", "q1-b"))
	require.NoError(t, s.Next())

	err := s.Select("q1", "q1-a")
	require.ErrorIs(t, err, domain.ErrIllegalTransition, "stale selection must be rejected")

	err = s.Select("q2", "nope")
	require.ErrorIs(t, err, domain.ErrIllegalTransition)

	snap := s.Snapshot(clock.Tick{})
	assert.Nil(t, snap.Selected, "question 2 has no answer yet")
	assert.Equal(t, map[string]string{"q1": "q1-b"}, s.Answers())

	require.NoError(t, s.Select("q2", "q2-a"))
	require.NoError(t, s.Select("q2", "q2-b"))
	assert.Equal(t, map[string]string{"q1": "q1-b", "q2": "q2-b"}, s.Answers())
}

func TestSession_SubmissionGate(t *testing.T) {
	s := newSession(t, 1)
	require.NoError(t, s.Select("q1", "q1-a"))

	n, sub, err := s.RequestSubmit()
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, 0, n)
	assert.Equal(t, domain.StateSubmitting, s.State())

	_, sub, err = s.RequestSubmit()
	assert.ErrorIs(t, err, domain.ErrIllegalTransition)
	assert.Nil(t, sub)

	sub, err = s.Expire()
	assert.ErrorIs(t, err, domain.ErrIllegalTransition)
	assert.Nil(t, sub)

	sub, err = s.ConfirmSubmit()
	assert.ErrorIs(t, err, domain.ErrIllegalTransition)
	assert.Nil(t, sub)

	require.NoError(t, s.Complete(domain.Result{Score: 1, Total: 1, ResultID: "r1"}))
	assert.Equal(t, domain.StateSubmitted, s.State())
	assert.ErrorIs(t, s.Fail(assert.AnError), domain.ErrIllegalTransition, "submitted is terminal")
	assert.ErrorIs(t, s.Next(), domain.ErrIllegalTransition)
}

func TestSession_ConfirmationFlow(t *testing.T) {
	s := newSession(t, 3)
	require.NoError(t, s.Select("q1", "q1-a"))

	n, sub, err := s.RequestSubmit()
	require.NoError(t, err)
	assert.Nil(t, sub)
	assert.Equal(t, 2, n)
	assert.Equal(t, domain.StateAwaitingConfirmation, s.State())

	assert.ErrorIs(t, s.Next(), domain.ErrIllegalTransition)
	assert.ErrorIs(t, s.Select("q1", "q1-b"), domain.ErrIllegalTransition)

	require.NoError(t, s.CancelSubmit())
	assert.Equal(t, domain.StateInProgress, s.State())
	assert.ErrorIs(t, s.CancelSubmit(), domain.ErrIllegalTransition)

	_, _, err = s.RequestSubmit()
	require.NoError(t, err)
	sub, err = s.ConfirmSubmit()
	require.NoError(t, err)
	assert.Equal(t, domain.Submission{QuizID: "quiz-1", Answers: map[string]string{"q1": "q1-a"}}, *sub)
}

func TestSession_ExpireBypassesConfirmation(t *testing.T) {
	s := newSession(t, 2)

	_, _, err := s.RequestSubmit()
	require.NoError(t, err)
	require.Equal(t, domain.StateAwaitingConfirmation, s.State())

	sub, err := s.Expire()
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Empty(t, sub.Answers)
	assert.Equal(t, domain.StateSubmitting, s.State())
	assert.True(t, s.Snapshot(clock.Tick{}).Forced)
}

func TestSession_FailedKeepsLedgerForRetry(t *testing.T) {
	s := newSession(t, 2)
	require.NoError(t, s.Select("q1", "q1-a"))
	require.NoError(t, s.Next())
	require.NoError(t, s.Select("q2", "q2-b"))
	before := s.Answers()

	_, _, err := s.RequestSubmit()
	require.NoError(t, err)
	require.NoError(t, s.Fail(assert.AnError))

	snap := s.Snapshot(clock.Tick{})
	assert.Equal(t, domain.StateFailed, snap.State)
	assert.Equal(t, assert.AnError.Error(), snap.Err)
	assert.Equal(t, before, s.Answers())

	require.NoError(t, s.Prev(), "a failed session can still be browsed")
	assert.ErrorIs(t, s.Select("q1", "q1-b"), domain.ErrIllegalTransition)

	_, sub, err := s.RequestSubmit()
	require.NoError(t, err)
	require.NotNil(t, sub, "retry goes straight to submitting")
	assert.Equal(t, before, sub.Answers)
	assert.Equal(t, domain.StateSubmitting, s.State())
	assert.Empty(t, s.Snapshot(clock.Tick{}).Err, "a retry clears the previous error")
}

func TestSession_SnapshotIsIsolated(t *testing.T) {
	s := newSession(t, 1)
	require.NoError(t, s.Select("q1", "q1-a"))

	snap := s.Snapshot(clock.Tick{Remaining: 30, Total: 60, Fraction: 0.5})
	require.NotNil(t, snap.Selected)
	assert.Equal(t, "q1-a", *snap.Selected)
	assert.Equal(t, 30, snap.Remaining)
	assert.Equal(t, 0.5, snap.Fraction)
	assert.Equal(t, 1, snap.Answered)

	snap.Question.Options[0] = "tampered"
	assert.Equal(t, "q1-a", s.Current().Options[0])
}

func quizInfo(minutes int) domain.QuizInfo {
	return domain.QuizInfo{
		ID:               "quiz-1",
		Title:            "Arithmetic",
		TimeLimitMinutes: minutes,
		Club:             domain.Club{Name: "Math Club"},
	}
}

// questions builds n questions q1..qn, each with options qi-a and qi-b.
func questions(n int) []domain.Question {
	qs := make([]domain.Question, 0, n)
	for i := 1; i <= n; i++ {
		id := "q" + string(rune('0'+i))
		qs = append(qs, domain.Question{
			ID:      id,
			Text:    "Question " + id,
			Options: []string{id + "-a", id + "-b"},
		})
	}
	return qs
}

func newSession(t *testing.T, n int) *app.Session {
	t.Helper()
	s, err := app.NewSession(quizInfo(1), questions(n))
	require.NoError(t, err)
	return s
}
