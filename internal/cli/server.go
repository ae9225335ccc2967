package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"quiz-portal-client/internal/app"
	"quiz-portal-client/internal/config"
	"quiz-portal-client/internal/domain"
	"quiz-portal-client/internal/infra/memory"
	pgstore "quiz-portal-client/internal/infra/postgres"
	redisstore "quiz-portal-client/internal/infra/redis"
	transport "quiz-portal-client/internal/transport/http"
)

const (
	redisPrefix  = "quizportal"
	devJWTSecret = "dev-secret"
)

func newServeCmd(o *options) *cobra.Command {
	var seed bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a development student portal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), o, seed)
		},
	}
	cmd.Flags().BoolVar(&seed, "seed", false, "load sample quizzes and students into postgres")
	return cmd
}

// portalBackends are the stores behind the development portal.
type portalBackends struct {
	quizzes      app.QuizRepository
	catalog      app.QuizCatalog
	participants app.ParticipantStore
	results      app.ResultStore
	guard        app.SubmissionGuard
	leaderboard  app.Leaderboard
	close        func()
}

func runServer(ctx context.Context, o *options, seed bool) error {
	cfg := o.cfg

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	b, err := newPortalBackends(ctx, cfg, seed)
	if err != nil {
		return err
	}
	defer b.close()

	secret := cfg.Server.JWTSecret
	if secret == "" {
		secret = os.Getenv("JWT_SECRET_KEY")
	}
	if secret == "" {
		slog.WarnContext(ctx, "serve: no jwt secret configured, using the development secret")
		secret = devJWTSecret
	}

	service := app.NewPortalService(app.PortalConfig{
		Quizzes:      b.quizzes,
		Catalog:      b.catalog,
		Participants: b.participants,
		Results:      b.results,
		Guard:        b.guard,
		Leaderboard:  b.leaderboard,
		Secret:       []byte(secret),
		TokenTTL:     config.TTLDuration(cfg.Server.TokenTTL, 24*time.Hour),
	})

	server := &http.Server{
		Addr:              ":" + o.listenPort(cfg.Server.Port, "5000"),
		Handler:           newPortalEngine(service),
		ReadHeaderTimeout: 15 * time.Second,
	}
	return serve(ctx, "serve", server)
}

func newPortalEngine(service *app.PortalService) *gin.Engine {
	e := gin.New()
	e.GET("/metrics", gin.WrapH(promhttp.Handler()))
	pprof.Register(e, "/debug/pprof")
	e.Use(gin.Recovery())

	e.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	transport.NewPortalHandler(service).Register(e.Group("/api"))
	return e
}

func newPortalBackends(ctx context.Context, cfg config.Config, seed bool) (*portalBackends, error) {
	b := &portalBackends{close: func() {}}
	var closers []func()
	b.close = func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var loader interface {
		memory.QuizLoader
		app.QuizCatalog
	}
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
		closers = append(closers, pool.Close)

		quizzes := pgstore.NewQuizLoader(pool)
		participants := pgstore.NewParticipantStore(pool)
		if seed {
			if err := seedPostgres(ctx, quizzes, participants); err != nil {
				b.close()
				return nil, err
			}
		}
		loader = quizzes
		b.participants = participants
		b.results = pgstore.NewResultStore(pool)
	} else {
		slog.InfoContext(ctx, "serve: no postgres configured, serving the sample data from memory")
		loader = memory.NewStaticQuizLoader(sampleQuizzes()...)
		b.participants = memory.NewParticipantStore(sampleParticipants()...)
		b.results = memory.NewResultStore()
	}
	b.catalog = loader

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		closers = append(closers, func() { _ = client.Close() })

		guardTTL := config.TTLDuration(cfg.Redis.TTL, 30*24*time.Hour)
		repo := redisstore.NewQuizRepository(client, loader, quizTTL)
		if seed && cfg.Postgres.URL != "" {
			if err := dropCachedQuizzes(ctx, repo, sampleQuizzes()); err != nil {
				b.close()
				return nil, err
			}
		}
		b.quizzes = repo
		b.guard = redisstore.NewSubmissionGuard(client, redisPrefix, guardTTL)
		b.leaderboard = redisstore.NewLeaderboard(client, redisPrefix)
	} else {
		b.quizzes = memory.NewQuizRepository(loader, quizTTL)
		b.guard = memory.NewSubmissionGuard()
		b.leaderboard = memory.NewLeaderboard()
	}
	return b, nil
}

type quizCache interface {
	Invalidate(ctx context.Context, quizID string) error
}

// dropCachedQuizzes evicts quizzes whose stored content was just rewritten.
func dropCachedQuizzes(ctx context.Context, cache quizCache, quizzes []domain.Quiz) error {
	for _, q := range quizzes {
		if err := cache.Invalidate(ctx, q.Info.ID); err != nil {
			return err
		}
	}
	return nil
}

func seedPostgres(ctx context.Context, quizzes *pgstore.QuizLoader, participants *pgstore.ParticipantStore) error {
	for _, q := range sampleQuizzes() {
		if err := quizzes.SaveQuiz(ctx, q); err != nil {
			return err
		}
	}
	for _, p := range sampleParticipants() {
		if _, err := participants.CreateParticipant(ctx, p); err != nil {
			return err
		}
	}
	slog.InfoContext(ctx, "serve: sample data loaded")
	return nil
}
