package memory

import (
	"context"
	"strconv"
	"sync"

	"quiz-portal-client/internal/domain"
)

// SubmissionGuard is an in-memory implementation of app.SubmissionGuard.
type SubmissionGuard struct {
	mu    sync.Mutex
	taken map[string]struct{}
}

func NewSubmissionGuard() *SubmissionGuard {
	return &SubmissionGuard{taken: make(map[string]struct{})}
}

func (g *SubmissionGuard) Acquire(_ context.Context, participantID int, quizID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	k := guardKey(participantID, quizID)
	if _, ok := g.taken[k]; ok {
		return domain.ErrAlreadySubmitted
	}
	g.taken[k] = struct{}{}
	return nil
}

func (g *SubmissionGuard) Release(_ context.Context, participantID int, quizID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.taken, guardKey(participantID, quizID))
	return nil
}

func guardKey(participantID int, quizID string) string {
	return strconv.Itoa(participantID) + "/" + quizID
}
