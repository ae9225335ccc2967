package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"quiz-portal-client/internal/domain"
)

// SubmissionGuard marks a participant's quiz as submitted with SETNX so that
// concurrent or repeated submissions across server instances are rejected.
type SubmissionGuard struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewSubmissionGuard keeps markers for ttl; zero keeps them forever.
func NewSubmissionGuard(client redis.UniversalClient, prefix string, ttl time.Duration) *SubmissionGuard {
	return &SubmissionGuard{redis: client, prefix: prefix, ttl: ttl}
}

func (g *SubmissionGuard) Acquire(ctx context.Context, participantID int, quizID string) error {
	ok, err := g.redis.SetNX(ctx, g.key(participantID, quizID), time.Now().UnixMilli(), g.ttl).Result()
	if err != nil {
		return fmt.Errorf("setnx: %w", err)
	}
	if !ok {
		return domain.ErrAlreadySubmitted
	}
	return nil
}

func (g *SubmissionGuard) Release(ctx context.Context, participantID int, quizID string) error {
	return g.redis.Del(ctx, g.key(participantID, quizID)).Err()
}

func (g *SubmissionGuard) key(participantID int, quizID string) string {
	return fmt.Sprintf("%s:submitted:%d:%s", g.prefix, participantID, quizID)
}
