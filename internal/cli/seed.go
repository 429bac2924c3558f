package cli

import (
	"fmt"

	"pathway-quiz-service/internal/config"
	"pathway-quiz-service/internal/domain"
	pgstore "pathway-quiz-service/internal/infra/postgres"
	redisstore "pathway-quiz-service/internal/infra/redis"
	"pathway-quiz-service/internal/logger"
	"pathway-quiz-service/internal/seed"

	"github.com/fatih/color"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewSeedCmd loads quiz JSON files and the default shop catalog into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	var (
		dir   string
		reset bool
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load quiz content and shop items into the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			log := logger.New(cfg)
			defer log.Sync()

			if dir == "" {
				dir = cfg.Quiz.SeedDir
			}
			if dir == "" {
				return fmt.Errorf("no seed directory: pass --dir or set quiz.seed_dir")
			}
			quizzes, err := seed.LoadDir(dir)
			if err != nil {
				return err
			}

			db, err := openBun(cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := runMigrations(ctx, db, log); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			seeder := pgstore.NewSeeder(db)
			var changed []int64
			if reset {
				deleted, err := seeder.Reset(ctx)
				if err != nil {
					return err
				}
				changed = append(changed, deleted...)
				fmt.Fprintln(out, color.YellowString("Existing quizzes deleted (%d)", len(deleted)))
			}
			for _, quiz := range quizzes {
				stored, err := seeder.SeedQuiz(ctx, quiz)
				if err != nil {
					fmt.Fprintln(out, color.RedString("Failed to load %s quiz: %v", quiz.Name, err))
					return err
				}
				fmt.Fprintf(out, "%s (id %d, %d sections)\n",
					color.GreenString("Data for %s Quiz loaded successfully!", stored.Name),
					stored.ID, len(stored.Sections))
				changed = append(changed, stored.ID)
			}

			if cfg.Redis.Addr != "" {
				client := redis.NewClient(&redis.Options{
					Addr:     cfg.Redis.Addr,
					Password: cfg.Redis.Password,
					DB:       cfg.Redis.DB,
				})
				defer client.Close()
				if err := redisstore.NewQuizRepository(client, nil, 0).Invalidate(ctx, changed...); err != nil {
					log.Warn("cached quiz content not cleared", zap.Error(err))
				} else {
					log.Info("cached quiz content cleared", zap.Int("quizzes", len(changed)))
				}
			}

			added, err := pgstore.NewShopStore(db).SeedCatalog(ctx, domain.DefaultCatalog())
			if err != nil {
				return err
			}
			fmt.Fprintln(out, color.GreenString("Shop catalog ready, %d new items", added))
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "directory of quiz JSON files (defaults to quiz.seed_dir)")
	cmd.Flags().BoolVar(&reset, "reset", false, "delete existing quizzes before loading")
	return cmd
}
