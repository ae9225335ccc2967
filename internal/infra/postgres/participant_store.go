package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-portal-client/internal/domain"
)

type ParticipantStore struct {
	pool *pgxpool.Pool
}

func NewParticipantStore(pool *pgxpool.Pool) *ParticipantStore {
	return &ParticipantStore{pool: pool}
}

func (s *ParticipantStore) Authenticate(ctx context.Context, className, roll, pin string) (domain.Participant, error) {
	var p domain.Participant
	err := s.pool.QueryRow(ctx, `
		SELECT id, class_name, roll, name, total_points FROM participants
		WHERE lower(class_name) = lower($1) AND roll = $2 AND pin = $3`,
		className, roll, pin,
	).Scan(&p.ID, &p.ClassName, &p.Roll, &p.Name, &p.TotalPoints)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Participant{}, domain.ErrParticipantNotFound
	}
	if err != nil {
		return domain.Participant{}, fmt.Errorf("authenticate: %w", err)
	}
	return p, nil
}

func (s *ParticipantStore) AddPoints(ctx context.Context, participantID, points int) (domain.Participant, error) {
	var p domain.Participant
	err := s.pool.QueryRow(ctx, `
		UPDATE participants SET total_points = total_points + $2 WHERE id = $1
		RETURNING id, class_name, roll, name, total_points`,
		participantID, points,
	).Scan(&p.ID, &p.ClassName, &p.Roll, &p.Name, &p.TotalPoints)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Participant{}, domain.ErrParticipantNotFound
	}
	if err != nil {
		return domain.Participant{}, fmt.Errorf("add points: %w", err)
	}
	return p, nil
}

// CreateParticipant registers a student, or updates name and PIN of an
// existing one with the same class and roll. It returns the stored row.
func (s *ParticipantStore) CreateParticipant(ctx context.Context, p domain.Participant) (domain.Participant, error) {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO participants (class_name, roll, name, pin) VALUES ($1, $2, $3, $4)
		ON CONFLICT (class_name, roll) DO UPDATE SET name = EXCLUDED.name, pin = EXCLUDED.pin
		RETURNING id, total_points`,
		p.ClassName, p.Roll, p.Name, p.PIN,
	).Scan(&p.ID, &p.TotalPoints)
	if err != nil {
		return domain.Participant{}, fmt.Errorf("create participant: %w", err)
	}
	return p, nil
}
