package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-portal-client/internal/domain"
)

type ResultStore struct {
	pool *pgxpool.Pool
}

func NewResultStore(pool *pgxpool.Pool) *ResultStore {
	return &ResultStore{pool: pool}
}

func (s *ResultStore) SaveResult(ctx context.Context, r domain.StoredResult) error {
	answers, err := json.Marshal(r.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO results (result_id, quiz_id, participant_id, score, total_questions, submitted_answers, created_at)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7)`,
		r.ResultID, r.QuizID, r.ParticipantID, r.Score, r.Total, string(answers), r.Timestamp)
	if err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	return nil
}

const resultColumns = `result_id, quiz_id, participant_id, score, total_questions, submitted_answers, created_at`

func (s *ResultStore) GetResult(ctx context.Context, resultID string) (domain.StoredResult, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+resultColumns+` FROM results WHERE result_id = $1`, resultID)
	r, err := scanResult(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.StoredResult{}, domain.ErrResultNotFound
	}
	if err != nil {
		return domain.StoredResult{}, fmt.Errorf("get result: %w", err)
	}
	return r, nil
}

func (s *ResultStore) ListResults(ctx context.Context, participantID int) ([]domain.StoredResult, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+resultColumns+` FROM results WHERE participant_id = $1 ORDER BY created_at`, participantID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var out []domain.StoredResult
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanResult(row pgx.Row) (domain.StoredResult, error) {
	var (
		r   domain.StoredResult
		raw []byte
	)
	if err := row.Scan(&r.ResultID, &r.QuizID, &r.ParticipantID, &r.Score, &r.Total, &raw, &r.Timestamp); err != nil {
		return domain.StoredResult{}, err
	}
	if err := json.Unmarshal(raw, &r.Answers); err != nil {
		return domain.StoredResult{}, err
	}
	r.Timestamp = r.Timestamp.UTC()
	return r, nil
}
