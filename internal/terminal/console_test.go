package terminal

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-portal-client/internal/app"
	"quiz-portal-client/internal/domain"
	"quiz-portal-client/internal/errors"
)

func TestConsole_Parse(t *testing.T) {
	c := NewConsole(Options{Out: io.Discard})
	q := domain.Question{ID: "q1", Text: "?", Options: []string{"red", "green", "blue"}}
	inProgress := domain.Snapshot{State: domain.StateInProgress, Question: q}
	confirming := domain.Snapshot{State: domain.StateAwaitingConfirmation, Question: q}

	tests := map[string]struct {
		line    string
		snap    domain.Snapshot
		want    app.Intent
		wantErr bool
	}{
		"next":                {line: "n", snap: inProgress, want: app.Next{}},
		"prev long form":      {line: " Prev ", snap: inProgress, want: app.Prev{}},
		"select by number":    {line: "2", snap: inProgress, want: app.Select{QuestionID: "q1", Option: "green"}},
		"submit":              {line: "s", snap: inProgress, want: app.RequestSubmit{}},
		"retry":               {line: "r", snap: domain.Snapshot{State: domain.StateFailed, Question: q}, want: app.RequestSubmit{}},
		"quit":                {line: "q", snap: inProgress, want: app.Abandon{}},
		"confirm":             {line: "y", snap: confirming, want: app.ConfirmSubmit{}},
		"n cancels a confirm": {line: "n", snap: confirming, want: app.CancelSubmit{}},
		"option out of range": {line: "4", snap: inProgress, wantErr: true},
		"zero":                {line: "0", snap: inProgress, wantErr: true},
		"unknown":             {line: "jump", snap: inProgress, wantErr: true},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := c.Parse(tc.line, tc.snap)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := c.Parse("h", inProgress)
	assert.Equal(t, ErrHelp, err)
}

func TestConsole_ShuffledOptionsAreStablePerQuestion(t *testing.T) {
	c := NewConsole(Options{Out: io.Discard, Shuffle: true, Seed: 42})
	q := domain.Question{ID: "q1", Options: []string{"a", "b", "c", "d"}}

	first := c.Options(q)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, c.Options(q))
	}

	sorted := append([]string(nil), first...)
	sort.Strings(sorted)
	assert.Equal(t, []string{"a", "b", "c", "d"}, sorted)
	assert.Equal(t, []string{"a", "b", "c", "d"}, q.Options, "the question itself is not reordered")

	// a numbered pick resolves through the display order
	intent, err := c.Parse("1", domain.Snapshot{State: domain.StateInProgress, Question: q})
	require.NoError(t, err)
	assert.Equal(t, app.Select{QuestionID: "q1", Option: first[0]}, intent)
}

func TestConsole_Render(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(Options{Out: &out})
	sel := "green"
	snap := domain.Snapshot{
		Title:        "Colours",
		Question:     domain.Question{ID: "q1", Text: "Grass is?", Options: []string{"red", "green"}},
		Index:        0,
		Total:        3,
		Remaining:    75,
		Fraction:     0.5,
		Selected:     &sel,
		HasSelection: true,
		Answered:     1,
		Unanswered:   2,
		State:        domain.StateInProgress,
	}

	c.Render(snap)
	frame := out.String()
	assert.Contains(t, frame, "Colours | question 1/3 | 01:15 left")
	assert.Contains(t, frame, "[##########----------] answered 1/3")
	assert.Contains(t, frame, " * 2) green")
	assert.Contains(t, frame, "   1) red")

	out.Reset()
	snap.Remaining = 74
	c.Render(snap)
	assert.Empty(t, out.String(), "a plain tick does not redraw")

	snap.Remaining = 60
	c.Render(snap)
	assert.Equal(t, "  01:00 left\n", out.String())

	out.Reset()
	snap.State = domain.StateAwaitingConfirmation
	c.Render(snap)
	assert.Contains(t, out.String(), "2 question(s) unanswered. Submit anyway? [y/n]")
}

func TestConsole_Take(t *testing.T) {
	transport := &stubTransport{
		questions: []domain.Question{
			{ID: "q1", Text: "one", Options: []string{"a", "b"}},
			{ID: "q2", Text: "two", Options: []string{"c", "d"}},
		},
		result: domain.Result{Score: 2, Total: 2, ResultID: "r-9"},
	}
	ctrl := app.NewController(app.Config{Transport: transport, TickInterval: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = ctrl.Run(ctx) }()

	_, err := ctrl.Launch(ctx, domain.QuizInfo{ID: "quiz-1", Title: "Letters", TimeLimitMinutes: 2})
	require.NoError(t, err)

	in, w := io.Pipe()
	t.Cleanup(func() { w.Close() })
	go func() {
		_, _ = io.WriteString(w, "2\nbogus\nn\n1\ns\n")
	}()

	var out bytes.Buffer
	console := NewConsole(Options{Out: &out})
	res, err := console.Take(ctx, ctrl, in)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, transport.result, *res)
	assert.Equal(t, []domain.Submission{{QuizID: "quiz-1", Answers: map[string]string{"q1": "b", "q2": "c"}}}, transport.submitted())
	assert.Contains(t, out.String(), `unknown command "bogus"`)
	assert.True(t, strings.HasSuffix(out.String(), "Submitted. Score 2/2 (result r-9)\n"))
}

func TestConsole_TakeAbandon(t *testing.T) {
	transport := &stubTransport{questions: []domain.Question{{ID: "q1", Text: "one", Options: []string{"a", "b"}}}}
	ctrl := app.NewController(app.Config{Transport: transport, TickInterval: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = ctrl.Run(ctx) }()

	_, err := ctrl.Launch(ctx, domain.QuizInfo{ID: "quiz-1", TimeLimitMinutes: 1})
	require.NoError(t, err)

	var out bytes.Buffer
	res, err := NewConsole(Options{Out: &out}).Take(ctx, ctrl, strings.NewReader("1\nq\n"))
	require.NoError(t, err)
	assert.Nil(t, res)
	assert.Empty(t, transport.submitted(), "abandoning never submits")
	assert.Equal(t, domain.StateNotStarted, ctrl.Snapshot().State)
}

func TestConsole_TakeWaitsForSubmissionWhenInputEnds(t *testing.T) {
	tests := map[string]struct {
		submitErr error
		assert    func(t *testing.T, res *domain.Result, err error)
	}{
		"submitted": {
			assert: func(t *testing.T, res *domain.Result, err error) {
				require.NoError(t, err)
				require.NotNil(t, res)
				assert.Equal(t, "r-1", res.ResultID)
			},
		},
		"failed": {
			submitErr: errors.New(errors.CodeUnavailable, errors.WithMessagef("portal down")),
			assert: func(t *testing.T, res *domain.Result, err error) {
				assert.Nil(t, res)
				require.Error(t, err)
				assert.Contains(t, err.Error(), "portal down")
			},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			transport := &stubTransport{
				questions: []domain.Question{{ID: "q1", Text: "one", Options: []string{"a", "b"}}},
				result:    domain.Result{Score: 1, Total: 1, ResultID: "r-1"},
				err:       tc.submitErr,
				delay:     100 * time.Millisecond,
			}
			ctrl := app.NewController(app.Config{Transport: transport, TickInterval: time.Hour})
			ctx, cancel := context.WithCancel(context.Background())
			t.Cleanup(cancel)
			go func() { _ = ctrl.Run(ctx) }()

			_, err := ctrl.Launch(ctx, domain.QuizInfo{ID: "quiz-1", TimeLimitMinutes: 1})
			require.NoError(t, err)

			var out bytes.Buffer
			res, err := NewConsole(Options{Out: &out}).Take(ctx, ctrl, strings.NewReader("1\ns\n"))
			tc.assert(t, res, err)
			assert.Len(t, transport.submitted(), 1)
			assert.Contains(t, out.String(), "waiting for the submission")
		})
	}
}

type stubTransport struct {
	questions []domain.Question
	result    domain.Result
	err       error
	// delay holds every submission back before it is answered
	delay time.Duration

	mu   sync.Mutex
	subs []domain.Submission
}

func (s *stubTransport) FetchQuizQuestions(context.Context, string) ([]domain.Question, error) {
	return s.questions, nil
}

func (s *stubTransport) SubmitQuiz(_ context.Context, sub domain.Submission) (domain.Result, error) {
	s.mu.Lock()
	s.subs = append(s.subs, sub)
	s.mu.Unlock()

	time.Sleep(s.delay)
	if s.err != nil {
		return domain.Result{}, s.err
	}
	return s.result, nil
}

func (s *stubTransport) submitted() []domain.Submission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Submission(nil), s.subs...)
}
