package memory

import (
	"context"
	"sync"

	"quiz-portal-client/internal/domain"
)

// ResultStore is an in-memory implementation of app.ResultStore.
type ResultStore struct {
	mu      sync.RWMutex
	results map[string]domain.StoredResult
	byUser  map[int][]string
}

func NewResultStore() *ResultStore {
	return &ResultStore{
		results: make(map[string]domain.StoredResult),
		byUser:  make(map[int][]string),
	}
}

func (s *ResultStore) SaveResult(_ context.Context, r domain.StoredResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.results[r.ResultID]; !ok {
		s.byUser[r.ParticipantID] = append(s.byUser[r.ParticipantID], r.ResultID)
	}
	s.results[r.ResultID] = copyResult(r)
	return nil
}

func (s *ResultStore) GetResult(_ context.Context, resultID string) (domain.StoredResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.results[resultID]
	if !ok {
		return domain.StoredResult{}, domain.ErrResultNotFound
	}
	return copyResult(r), nil
}

// ListResults returns a participant's results in insertion order.
func (s *ResultStore) ListResults(_ context.Context, participantID int) ([]domain.StoredResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byUser[participantID]
	out := make([]domain.StoredResult, 0, len(ids))
	for _, id := range ids {
		out = append(out, copyResult(s.results[id]))
	}
	return out, nil
}

func copyResult(r domain.StoredResult) domain.StoredResult {
	answers := make(map[string]string, len(r.Answers))
	for k, v := range r.Answers {
		answers[k] = v
	}
	r.Answers = answers
	return r
}
