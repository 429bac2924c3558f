package integration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"pathway-quiz-service/internal/app"
	"pathway-quiz-service/internal/domain"
	pgstore "pathway-quiz-service/internal/infra/postgres"
	pgmigrations "pathway-quiz-service/internal/infra/postgres/migrations"
	infraredis "pathway-quiz-service/internal/infra/redis"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

type stack struct {
	db       *bun.DB
	seeded   domain.Quiz
	attempts *pgstore.AttemptStore
	shop     *app.ShopService
	service  *app.QuizService
	loader   *pgstore.QuizLoader
	quizRepo *infraredis.QuizRepository
}

func setup(t *testing.T, ctx context.Context) stack {
	t.Helper()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	t.Cleanup(pgCleanup)
	redisURL, redisCleanup := startRedis(t, ctx)
	t.Cleanup(redisCleanup)

	db := openDB(t, ctx, pgURL)
	seeded, err := pgstore.NewSeeder(db).SeedQuiz(ctx, sampleQuiz())
	if err != nil {
		t.Fatalf("seed quiz: %v", err)
	}
	shopStore := pgstore.NewShopStore(db)
	if _, err := shopStore.SeedCatalog(ctx, domain.DefaultCatalog()); err != nil {
		t.Fatalf("seed catalog: %v", err)
	}

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	t.Cleanup(pool.Close)

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	t.Cleanup(func() { _ = redisClient.Close() })

	loader := pgstore.NewQuizLoader(pool)
	quizRepo := infraredis.NewQuizRepository(redisClient, loader, 5*time.Minute)
	tracker := infraredis.NewSessionTracker(redisClient, 5*time.Minute)
	attempts := pgstore.NewAttemptStore(db)

	return stack{
		db:       db,
		seeded:   seeded,
		attempts: attempts,
		shop:     app.NewShopService(attempts, shopStore),
		service:  app.NewQuizService(quizRepo, attempts, tracker, nil, app.NewSectionResolver(""), nil),
		loader:   loader,
		quizRepo: quizRepo,
	}
}

func TestQuizSessionEndToEnd(t *testing.T) {
	ctx := context.Background()
	s := setup(t, ctx)

	loaded, err := s.loader.LoadQuiz(ctx, s.seeded.ID)
	if err != nil {
		t.Fatalf("load quiz: %v", err)
	}
	if len(loaded.Sections) != 3 || loaded.Sections[0].Kind != domain.KindMultipleChoice {
		t.Fatalf("unexpected sections %+v", loaded.Sections)
	}
	mcq := loaded.Sections[0]
	var correctOption int64
	for _, o := range mcq.Options {
		if o.Correct {
			correctOption = o.ID
		}
	}
	sentence := loaded.Sections[2].Sentences[0]

	session := s.service.NewSession(11)
	view, err := session.Start(ctx, s.seeded.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if view.Type != domain.SectionMultipleChoice {
		t.Fatalf("expected mcq, got %s", view.Type)
	}
	_, open, err := s.service.Summary(ctx, s.seeded.ID)
	if err != nil || open != 1 {
		t.Fatalf("expected 1 open session, got %d (%v)", open, err)
	}

	answer, err := session.AnswerMultipleChoice(ctx, mcq.ID, correctOption)
	if err != nil {
		t.Fatalf("answer mcq: %v", err)
	}
	if !answer.Correct || answer.Awarded != 30 {
		t.Fatalf("unexpected mcq result %+v", answer)
	}

	if view, err = session.Next(ctx, s.seeded.ID, 1); err != nil || view.Type != domain.SectionInformation {
		t.Fatalf("expected info at 2, got %v (%v)", view.Type, err)
	}
	if view, err = session.Next(ctx, s.seeded.ID, 2); err != nil || view.Type != domain.SectionFillInBlank {
		t.Fatalf("expected fib at 3, got %v (%v)", view.Type, err)
	}

	if _, err := session.AnswerFillInBlank(ctx, []domain.BlankSubmission{
		{SentenceID: sentence.ID, Blank: "x"},
		{SentenceID: sentence.ID + 1000, Blank: "x"},
	}); !errors.Is(err, domain.ErrSentenceNotFound) {
		t.Fatalf("expected ErrSentenceNotFound, got %v", err)
	}

	fib, err := session.AnswerFillInBlank(ctx, []domain.BlankSubmission{{SentenceID: sentence.ID, Blank: "hmrc"}})
	if err != nil {
		t.Fatalf("answer fib: %v", err)
	}
	if fib.Total() != 5 {
		t.Fatalf("expected 5 points, got %d", fib.Total())
	}

	if view, err = session.Next(ctx, s.seeded.ID, 3); err != nil || !view.IsEnd() {
		t.Fatalf("expected end, got %v (%v)", view.Type, err)
	}
	attempt, err := s.attempts.Attempt(ctx, session.Attempt().ID)
	if err != nil {
		t.Fatalf("attempt: %v", err)
	}
	if !attempt.Completed || attempt.QuizOpen {
		t.Fatalf("expected completed attempt, got %+v", attempt)
	}

	earned, err := s.attempts.EarnedPoints(ctx, 11)
	if err != nil || earned != 35 {
		t.Fatalf("expected 35 earned points, got %d (%v)", earned, err)
	}
	var ledgerRows int
	if err := s.db.NewSelect().TableExpr("points_awarded").ColumnExpr("count(*)").Scan(ctx, &ledgerRows); err != nil {
		t.Fatalf("count ledger: %v", err)
	}
	if ledgerRows != 2 {
		t.Fatalf("failed fib answer must not leave ledger rows, got %d", ledgerRows)
	}

	balance, err := s.shop.Purchase(ctx, 11, 1)
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if balance.Available != 10 {
		t.Fatalf("expected 10 available, got %+v", balance)
	}
	if _, err := s.shop.Purchase(ctx, 11, 2); !errors.Is(err, domain.ErrInsufficientPoints) {
		t.Fatalf("expected ErrInsufficientPoints, got %v", err)
	}
	profile, err := s.shop.Equip(ctx, 11, 1)
	if err != nil {
		t.Fatalf("equip: %v", err)
	}
	if profile.AvatarID == nil || *profile.AvatarID != 1 {
		t.Fatalf("expected avatar 1, got %+v", profile)
	}
}

func TestDisconnectAbandonsAttempt(t *testing.T) {
	ctx := context.Background()
	s := setup(t, ctx)

	session := s.service.NewSession(12)
	if _, err := session.Start(ctx, s.seeded.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := session.Disconnect(ctx); err != nil {
		t.Fatalf("disconnect: %v", err)
	}
	attempt, err := s.attempts.Attempt(ctx, session.Attempt().ID)
	if err != nil {
		t.Fatalf("attempt: %v", err)
	}
	if attempt.Completed || attempt.QuizOpen {
		t.Fatalf("expected abandoned attempt, got %+v", attempt)
	}
}

func TestDuplicatePositionRejectedByStorage(t *testing.T) {
	ctx := context.Background()
	s := setup(t, ctx)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO quiz_sections (quiz_id, kind, title, position) VALUES (?, 'inf', 'clash', 1)`, s.seeded.ID)
	if err == nil || !strings.Contains(err.Error(), "quiz_sections_quiz_position_key") {
		t.Fatalf("expected unique violation, got %v", err)
	}
}

func openDB(t *testing.T, ctx context.Context, dsn string) *bun.DB {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	t.Cleanup(func() { _ = db.Close() })

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func strPtr(s string) *string { return &s }

// sampleQuiz has mcq(1, 30 points), inf(2) and fib(3, 5 points).
func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		Name:        "Payslip Reading",
		Description: "Reading the lines of a payslip",
		Pathway:     domain.PathwayTax,
		Sections: []domain.Section{
			{Kind: domain.KindMultipleChoice, Title: "What is gross pay?", Position: 1, Points: 30, Options: []domain.Option{
				{Text: "Pay before deductions", Correct: true},
				{Text: "Pay after deductions"},
			}},
			{Kind: domain.KindInformation, Title: "Deductions", Position: 2, Content: "Tax and National Insurance."},
			{Kind: domain.KindFillInBlank, Title: "Fill in", Position: 3, Sentences: []domain.Sentence{
				{Before: strPtr("Income tax is collected by"), Blank: strPtr("HMRC"), Points: 5},
			}},
		},
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}

func TestResetClearsCachedContent(t *testing.T) {
	ctx := context.Background()
	s := setup(t, ctx)

	if _, err := s.quizRepo.GetQuiz(ctx, s.seeded.ID); err != nil {
		t.Fatalf("warm cache: %v", err)
	}

	deleted, err := pgstore.NewSeeder(s.db).Reset(ctx)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if len(deleted) != 1 || deleted[0] != s.seeded.ID {
		t.Fatalf("expected reset to report quiz %d, got %v", s.seeded.ID, deleted)
	}
	if _, err := s.quizRepo.GetQuiz(ctx, s.seeded.ID); err != nil {
		t.Fatalf("cached content should survive until invalidated: %v", err)
	}

	if err := s.quizRepo.Invalidate(ctx, deleted...); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, err := s.quizRepo.GetQuiz(ctx, s.seeded.ID); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound after reset, got %v", err)
	}
}

func TestLongBlankRejectedBeforeStorage(t *testing.T) {
	ctx := context.Background()
	s := setup(t, ctx)

	quiz := sampleQuiz()
	long := strings.Repeat("x", domain.MaxTextLength+1)
	quiz.Sections[len(quiz.Sections)-1].Sentences[0].Blank = &long
	if _, err := pgstore.NewSeeder(s.db).SeedQuiz(ctx, quiz); !errors.Is(err, domain.ErrTextTooLong) {
		t.Fatalf("expected ErrTextTooLong, got %v", err)
	}
}
