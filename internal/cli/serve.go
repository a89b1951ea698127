package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/devsplug/scoring-engine/internal/config"
	"github.com/devsplug/scoring-engine/internal/delivery/rest"
	"github.com/devsplug/scoring-engine/internal/infra/memory"
	"github.com/devsplug/scoring-engine/internal/infra/postgres"
	"github.com/devsplug/scoring-engine/internal/infra/postgres/repository"
	redisinfra "github.com/devsplug/scoring-engine/internal/infra/redis"
	"github.com/devsplug/scoring-engine/internal/logger"
	"github.com/devsplug/scoring-engine/internal/notify"
	"github.com/devsplug/scoring-engine/internal/service"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
}

// storage bundles the repository set behind the service layer, either
// postgres-backed or in-memory.
type storage struct {
	tx          service.Transactor
	users       service.UserRepository
	assessments service.AssessmentRepository
	progress    service.ProgressRepository
	answers     service.AnswerRepository
	submissions service.SubmissionRepository
	reactions   service.ReactionRepository
	leaderboard service.LeaderboardRepository

	transient func(error) bool
	close     func()
}

func runServer(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	store, err := buildStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.close()

	var cache service.LeaderboardCache
	if cfg.Redis.Addr != "" {
		client, err := redisinfra.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer client.Close()
		cache = redisinfra.NewLeaderboardCache(client, cfg.Redis.CacheTTL)
		log.Info("leaderboard cache enabled", zap.String("addr", cfg.Redis.Addr))
	}

	titles, err := service.NewTitleTable(titleBands(cfg.Scoring.Titles))
	if err != nil {
		return err
	}

	ledgerOpts := []service.LedgerOption{
		service.WithTransientClassifier(store.transient),
	}
	if cache != nil {
		ledgerOpts = append(ledgerOpts, service.WithLeaderboardCache(cache))
	}
	if cfg.Telegram.APIToken != "" {
		notifier, err := notify.NewTelegramNotifier(cfg.Telegram.APIToken, cfg.Telegram.ChatID)
		if err != nil {
			return err
		}
		ledgerOpts = append(ledgerOpts, service.WithPromotionNotifier(notifier))
		log.Info("promotion announcements enabled", zap.Int64("chat_id", cfg.Telegram.ChatID))
	}

	ledger := service.NewLedger(store.tx, store.users, titles, log, ledgerOpts...)
	progress := service.NewProgressService(store.tx, store.assessments, store.progress, store.answers, ledger)
	reactions := service.NewReactionService(store.tx, store.submissions, store.reactions, ledger, service.ReactionDeltas{
		Like:    cfg.Scoring.LikeDelta,
		Dislike: cfg.Scoring.DislikeDelta,
	})
	submissions := service.NewSubmissionService(store.tx, store.submissions, ledger, cfg.Scoring.SubmissionBonus)
	leaderboard := service.NewLeaderboardService(store.leaderboard, cache, log, cfg.Leaderboard.DefaultLimit, cfg.Leaderboard.MaxLimit)

	handler := rest.NewHandler(progress, reactions, submissions, leaderboard, log)

	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: handler.Router(),
	}

	scheduler := cron.New()
	if cache != nil {
		_, err := scheduler.AddFunc(cfg.Leaderboard.RefreshSchedule, func() {
			if err := leaderboard.Refresh(ctx); err != nil {
				log.Warn("scheduled leaderboard refresh failed", zap.Error(err))
			}
		})
		if err != nil {
			return err
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting http server", zap.String("addr", cfg.Server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down http server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// buildStorage connects the postgres stack when DATABASE_URL is set and
// falls back to the in-memory store otherwise.
func buildStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) (*storage, error) {
	if cfg.DB.URL == "" {
		log.Warn("DATABASE_URL not set, using in-memory store")

		mem := memory.NewStore()
		return &storage{
			tx:          mem,
			users:       mem,
			assessments: memory.AssessmentRepo{Store: mem},
			progress:    mem,
			answers:     mem,
			submissions: memory.SubmissionRepo{Store: mem},
			reactions:   memory.ReactionRepo{Store: mem},
			leaderboard: mem,
			transient:   func(error) bool { return false },
			close:       func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB.URL, postgres.PoolConfig{
		MaxConns:        int32(cfg.DB.MaxConnections),
		MaxConnLifetime: cfg.DB.MaxConnLifetime,
	})
	if err != nil {
		return nil, err
	}

	if err := postgres.RunMigrations(ctx, pool, cfg.DB.MigrationsDir); err != nil {
		pool.Close()
		return nil, err
	}

	return &storage{
		tx:          postgres.NewTransactor(pool),
		users:       repository.NewUserRepository(pool),
		assessments: repository.NewAssessmentRepository(pool),
		progress:    repository.NewProgressRepository(pool),
		answers:     repository.NewAnswerRepository(pool),
		submissions: repository.NewSubmissionRepository(pool),
		reactions:   repository.NewReactionRepository(pool),
		leaderboard: repository.NewLeaderboardRepository(pool),
		transient:   postgres.IsTransient,
		close:       pool.Close,
	}, nil
}

func titleBands(bands []config.TitleBand) []service.TitleBand {
	out := make([]service.TitleBand, len(bands))
	for i, b := range bands {
		out[i] = service.TitleBand{MinScore: b.MinScore, Label: b.Label}
	}
	return out
}
