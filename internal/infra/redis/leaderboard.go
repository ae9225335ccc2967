package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"quiz-portal-client/internal/domain"
)

// Leaderboard keeps total points in a sorted set keyed by participant ID and
// the display names in a hash next to it. Ties are ordered by member.
type Leaderboard struct {
	redis  redis.UniversalClient
	prefix string
}

type profile struct {
	Name  string `json:"name"`
	Class string `json:"class"`
}

func NewLeaderboard(client redis.UniversalClient, prefix string) *Leaderboard {
	return &Leaderboard{redis: client, prefix: prefix}
}

func (l *Leaderboard) Record(ctx context.Context, p domain.Participant) error {
	b, err := json.Marshal(profile{Name: p.Name, Class: p.ClassName})
	if err != nil {
		return err
	}

	member := strconv.Itoa(p.ID)
	_, err = l.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, l.scoresKey(), redis.Z{Score: float64(p.TotalPoints), Member: member})
		pipe.HSet(ctx, l.profilesKey(), member, b)
		return nil
	})
	if err != nil {
		return fmt.Errorf("update leaderboard: %w", err)
	}
	return nil
}

func (l *Leaderboard) Top(ctx context.Context, n int) ([]domain.LeaderboardEntry, error) {
	stop := int64(-1)
	if n > 0 {
		stop = int64(n - 1)
	}
	res, err := l.redis.ZRevRangeWithScores(ctx, l.scoresKey(), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("get leaderboard: %w", err)
	}
	if len(res) == 0 {
		return []domain.LeaderboardEntry{}, nil
	}

	members := make([]string, 0, len(res))
	for _, z := range res {
		members = append(members, z.Member.(string))
	}
	profiles, err := l.redis.HMGet(ctx, l.profilesKey(), members...).Result()
	if err != nil {
		return nil, fmt.Errorf("get leaderboard profiles: %w", err)
	}

	entries := make([]domain.LeaderboardEntry, 0, len(res))
	for i, z := range res {
		var pr profile
		if s, ok := profiles[i].(string); ok {
			_ = json.Unmarshal([]byte(s), &pr)
		}
		entries = append(entries, domain.LeaderboardEntry{
			Rank:   i + 1,
			Name:   pr.Name,
			Class:  pr.Class,
			Points: int(z.Score),
		})
	}
	return entries, nil
}

func (l *Leaderboard) scoresKey() string {
	return l.prefix + ":leaderboard"
}

func (l *Leaderboard) profilesKey() string {
	return l.prefix + ":leaderboard:profiles"
}
