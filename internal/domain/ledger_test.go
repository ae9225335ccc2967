package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-portal-client/internal/domain"
)

func TestLedger_SetOverwrites(t *testing.T) {
	var l domain.Ledger

	l.Set("q1", "A")
	l.Set("q2", "B")
	l.Set("q1", "C")

	require.Equal(t, 2, l.Count())
	got, ok := l.Get("q1")
	require.True(t, ok)
	assert.Equal(t, "C", got)

	_, ok = l.Get("q3")
	assert.False(t, ok)
}

func TestLedger_MapIsCopy(t *testing.T) {
	l := domain.NewLedger()
	l.Set("q1", "A")

	m := l.Map()
	m["q1"] = "changed"
	m["q2"] = "added"

	got, _ := l.Get("q1")
	assert.Equal(t, "A", got)
	assert.Equal(t, 1, l.Count())
}

func TestSnapshot_Clone(t *testing.T) {
	sel := "A"
	s := domain.Snapshot{
		Question: domain.Question{ID: "q1", Options: []string{"A", "B"}},
		Selected: &sel,
		Result:   &domain.Result{Score: 1, Total: 2, ResultID: "r1"},
	}

	c := s.Clone()
	c.Question.Options[0] = "Z"
	*c.Selected = "B"
	c.Result.Score = 2

	assert.Equal(t, "A", s.Question.Options[0])
	assert.Equal(t, "A", *s.Selected)
	assert.Equal(t, 1, s.Result.Score)
}

func TestState_String(t *testing.T) {
	tests := map[string]struct {
		state domain.State
		want  string
		live  bool
	}{
		"not started":  {state: domain.StateNotStarted, want: "not_started", live: false},
		"in progress":  {state: domain.StateInProgress, want: "in_progress", live: true},
		"awaiting":     {state: domain.StateAwaitingConfirmation, want: "awaiting_confirmation", live: true},
		"submitting":   {state: domain.StateSubmitting, want: "submitting", live: true},
		"submitted":    {state: domain.StateSubmitted, want: "submitted", live: false},
		"failed":       {state: domain.StateFailed, want: "failed", live: true},
		"out of range": {state: domain.State(42), want: "state(42)", live: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.state.String())
			assert.Equal(t, tt.live, tt.state.Live())
		})
	}
}
