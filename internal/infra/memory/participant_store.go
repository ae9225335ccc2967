package memory

import (
	"context"
	"strings"
	"sync"

	"quiz-portal-client/internal/domain"
)

// ParticipantStore is an in-memory implementation of app.ParticipantStore.
type ParticipantStore struct {
	mu           sync.RWMutex
	participants map[int]domain.Participant
}

func NewParticipantStore(participants ...domain.Participant) *ParticipantStore {
	s := &ParticipantStore{participants: make(map[int]domain.Participant, len(participants))}
	for _, p := range participants {
		s.participants[p.ID] = p
	}
	return s
}

// Authenticate matches class (case-insensitively), roll and PIN.
func (s *ParticipantStore) Authenticate(_ context.Context, className, roll, pin string) (domain.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.participants {
		if strings.EqualFold(p.ClassName, className) && p.Roll == roll && p.PIN == pin {
			return p, nil
		}
	}
	return domain.Participant{}, domain.ErrParticipantNotFound
}

func (s *ParticipantStore) AddPoints(_ context.Context, participantID, points int) (domain.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.participants[participantID]
	if !ok {
		return domain.Participant{}, domain.ErrParticipantNotFound
	}
	p.TotalPoints += points
	s.participants[participantID] = p
	return p, nil
}
