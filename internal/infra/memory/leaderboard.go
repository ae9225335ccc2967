package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"quiz-portal-client/internal/domain"
)

// Leaderboard is an in-memory implementation of app.Leaderboard.
type Leaderboard struct {
	now func() time.Time

	mu      sync.RWMutex
	entries map[int]*standing
}

type standing struct {
	name        string
	class       string
	points      int
	lastUpdated time.Time
}

func NewLeaderboard() *Leaderboard {
	return NewLeaderboardWithClock(time.Now)
}

// NewLeaderboardWithClock allows deterministic tie-breaks in tests.
func NewLeaderboardWithClock(now func() time.Time) *Leaderboard {
	return &Leaderboard{now: now, entries: make(map[int]*standing)}
}

// Record sets the standing of p to its total points.
func (l *Leaderboard) Record(_ context.Context, p domain.Participant) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.entries[p.ID]
	if !ok {
		s = &standing{}
		l.entries[p.ID] = s
	}
	if !ok || s.points != p.TotalPoints {
		s.lastUpdated = l.now()
	}
	s.name, s.class, s.points = p.Name, p.ClassName, p.TotalPoints
	return nil
}

// Top ranks by points, then by who reached their points first, then by name.
func (l *Leaderboard) Top(_ context.Context, n int) ([]domain.LeaderboardEntry, error) {
	l.mu.RLock()
	list := make([]standing, 0, len(l.entries))
	for _, s := range l.entries {
		list = append(list, *s)
	}
	l.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		if list[i].points != list[j].points {
			return list[i].points > list[j].points
		}
		if !list[i].lastUpdated.Equal(list[j].lastUpdated) {
			return list[i].lastUpdated.Before(list[j].lastUpdated)
		}
		return list[i].name < list[j].name
	})

	if n > 0 && len(list) > n {
		list = list[:n]
	}
	out := make([]domain.LeaderboardEntry, 0, len(list))
	for i, s := range list {
		out = append(out, domain.LeaderboardEntry{Rank: i + 1, Name: s.name, Class: s.class, Points: s.points})
	}
	return out, nil
}
