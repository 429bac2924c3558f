package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pathway-quiz-service/internal/app"
	"pathway-quiz-service/internal/config"
	"pathway-quiz-service/internal/domain"
	"pathway-quiz-service/internal/infra/memory"
	pgstore "pathway-quiz-service/internal/infra/postgres"
	redisstore "pathway-quiz-service/internal/infra/redis"
	"pathway-quiz-service/internal/logger"
	"pathway-quiz-service/internal/metrics"
	"pathway-quiz-service/internal/notify"
	"pathway-quiz-service/internal/seed"
	transport "pathway-quiz-service/internal/transport/http"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// contentSource loads full quizzes for the cache and lists them per pathway.
type contentSource interface {
	memory.QuizLoader
	app.QuizCatalog
}

type attemptLedger interface {
	app.AttemptRepository
	app.LedgerRepository
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return err
	}
	log := logger.New(cfg)
	defer log.Sync()
	metrics.Register(prometheus.DefaultRegisterer)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var (
		db   *bun.DB
		pool *pgxpool.Pool
	)
	if cfg.Postgres.URL != "" {
		if db, err = openBun(cfg); err != nil {
			return err
		}
		defer db.Close()
		if err := runMigrations(ctx, db, log); err != nil {
			return err
		}
		if pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL); err != nil {
			return err
		}
		defer pool.Close()
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)
	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)

	var content contentSource
	if pool != nil {
		content = pgstore.NewQuizLoader(pool)
	} else {
		content, err = memoryContent(cfg.Quiz.SeedDir, log)
		if err != nil {
			return err
		}
	}

	var quizRepo app.QuizRepository
	if redisClient != nil {
		quizRepo = redisstore.NewQuizRepository(redisClient, content, quizTTL)
	} else {
		quizRepo = memory.NewQuizRepository(content, quizTTL)
	}

	var tracker app.SessionTracker
	if redisClient != nil {
		tracker = redisstore.NewSessionTracker(redisClient, redisTTL)
	} else {
		tracker = memory.NewSessionTracker()
	}

	var (
		attempts attemptLedger
		shop     app.ShopRepository
	)
	if db != nil {
		attempts = pgstore.NewAttemptStore(db)
		shop = pgstore.NewShopStore(db)
	} else {
		log.Warn("postgres not configured, attempts and points are kept in memory")
		attempts = memory.NewAttemptStore()
		shop = memory.NewShopStore(domain.DefaultCatalog())
	}

	hub := notify.NewHub(log.Named("notify"))
	var notifier app.Notifier = hub
	if redisClient != nil {
		bus := redisstore.NewNotificationBus(redisClient, hub, log.Named("notify"))
		notifier = bus
		go func() {
			if err := bus.Run(ctx, nil); err != nil {
				log.Error("notification relay stopped", zap.Error(err))
			}
		}()
	}

	resolver := app.NewSectionResolver(cfg.Quiz.MediaURL)
	service := app.NewQuizService(quizRepo, attempts, tracker, notifier, resolver, log.Named("quiz"))
	shopService := app.NewShopService(attempts, shop)

	perSecond, burst := cfg.MessageRate()
	quizWS := transport.NewWSHandler(service, log.Named("ws"), perSecond, burst)
	notifyWS := transport.NewNotifyHandler(hub, log.Named("notify"))
	api := transport.NewAPIHandler(service, content, shopService, notifier, log.Named("api"))

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/ws/quiz", quizWS.ServeWS)
	mux.HandleFunc("/ws/quiz-stream", quizWS.ServeWS)
	mux.HandleFunc("/ws/notify", notifyWS.ServeWS)
	api.Register(mux)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info("starting quiz service", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("failed to start server", zap.Error(err))
			cancel()
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	return server.Shutdown(shutdownCtx)
}

// memoryContent serves quizzes parsed from seed files when no database is configured.
func memoryContent(dir string, log *zap.Logger) (*memory.StaticQuizLoader, error) {
	if dir == "" {
		log.Warn("no postgres url or quiz.seed_dir configured, serving no quizzes")
		return memory.NewStaticQuizLoader(), nil
	}
	quizzes, err := seed.LoadDir(dir)
	if err != nil {
		return nil, err
	}
	log.Info("loaded quizzes from seed files", zap.String("dir", dir), zap.Int("count", len(quizzes)))
	return memory.NewStaticQuizLoader(seed.AssignIDs(quizzes)...), nil
}
