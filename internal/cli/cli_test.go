package cli

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-portal-client/internal/app"
	"quiz-portal-client/internal/config"
	"quiz-portal-client/internal/domain"
	"quiz-portal-client/internal/errors"
	"quiz-portal-client/internal/infra/portal"
	redisstore "quiz-portal-client/internal/infra/redis"
)

func TestSampleQuizzesCanBeTaken(t *testing.T) {
	for _, q := range sampleQuizzes() {
		t.Run(q.Info.ID, func(t *testing.T) {
			_, err := app.NewSession(q.Summary(), q.Questions)
			require.NoError(t, err)
			for _, question := range q.Questions {
				key, ok := q.Key[question.ID]
				require.True(t, ok, "question %s has no answer key", question.ID)
				assert.True(t, question.HasOption(key.Correct), "answer of %s is not an option", question.ID)
			}
		})
	}
}

func TestRootCommand(t *testing.T) {
	cmd := newRootCmd()
	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{
		"login", "dashboard", "take", "review", "leaderboard", "bridge", "serve", "migrate",
	}, names)
}

func TestDevPortal_TakeQuizEndToEnd(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	b, err := newPortalBackends(ctx, config.Config{}, false)
	require.NoError(t, err)
	t.Cleanup(b.close)
	service := app.NewPortalService(app.PortalConfig{
		Quizzes:      b.quizzes,
		Catalog:      b.catalog,
		Participants: b.participants,
		Results:      b.results,
		Guard:        b.guard,
		Leaderboard:  b.leaderboard,
		Secret:       []byte("test"),
	})
	server := httptest.NewServer(newPortalEngine(service))
	t.Cleanup(server.Close)

	resp, err := http.Get(server.URL + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "ok", string(body))

	client := portal.NewClient(portal.Config{BaseURL: server.URL + "/api"})
	token, _, err := client.Login(ctx, "Eight", "1", "1111")
	require.NoError(t, err)
	client = client.WithToken(token)

	info, err := client.Quiz(ctx, "quiz-1")
	require.NoError(t, err)

	ctrl := app.NewController(app.Config{Transport: client, TickInterval: time.Hour})
	runCtx, cancel := context.WithCancel(ctx)
	t.Cleanup(cancel)
	go func() { _ = ctrl.Run(runCtx) }()

	_, err = ctrl.Launch(ctx, info)
	require.NoError(t, err)
	for _, answer := range []struct{ id, option string }{{"q1", "4"}, {"q2", "42"}, {"q3", "8"}} {
		_, err = ctrl.Select(ctx, answer.id, answer.option)
		require.NoError(t, err)
		_, _ = ctrl.Next(ctx)
	}
	reply, err := ctrl.RequestSubmit(ctx)
	require.NoError(t, err)
	require.Zero(t, reply.Unanswered)

	var snap domain.Snapshot
	require.Eventually(t, func() bool {
		snap = ctrl.Snapshot()
		return snap.State == domain.StateSubmitted || snap.State == domain.StateFailed
	}, 5*time.Second, 10*time.Millisecond)
	require.Equal(t, domain.StateSubmitted, snap.State, snap.Err)
	assert.Equal(t, 2, snap.Result.Score)
	assert.Equal(t, 3, snap.Result.Total)

	info, err = client.Quiz(ctx, "quiz-1")
	require.NoError(t, err)
	assert.True(t, info.Completed)
	_, err = ctrl.Launch(ctx, info)
	assert.True(t, errors.HasCode(err, errors.CodeAlreadyExists), "got %v", err)

	board, err := client.Leaderboard(ctx)
	require.NoError(t, err)
	require.Len(t, board, 1)
	assert.Equal(t, "Alice", board[0].Name)
	assert.Equal(t, 2, board[0].Points)
}

func TestDropCachedQuizzesServesReseededContent(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	quiz := sampleQuizzes()[0]
	loader := &editableLoader{quiz: quiz}
	repo := redisstore.NewQuizRepository(client, loader, time.Hour)
	ctx := context.Background()

	_, err := repo.GetQuiz(ctx, quiz.Info.ID)
	require.NoError(t, err)

	loader.setTitle("Reseeded")
	got, err := repo.GetQuiz(ctx, quiz.Info.ID)
	require.NoError(t, err)
	assert.Equal(t, quiz.Info.Title, got.Info.Title, "served from cache before eviction")

	require.NoError(t, dropCachedQuizzes(ctx, repo, []domain.Quiz{quiz}))
	got, err = repo.GetQuiz(ctx, quiz.Info.ID)
	require.NoError(t, err)
	assert.Equal(t, "Reseeded", got.Info.Title)
}

type editableLoader struct {
	mu   sync.Mutex
	quiz domain.Quiz
}

func (l *editableLoader) LoadQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if quizID != l.quiz.Info.ID {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return l.quiz, nil
}

func (l *editableLoader) setTitle(title string) {
	l.mu.Lock()
	l.quiz.Info.Title = title
	l.mu.Unlock()
}
