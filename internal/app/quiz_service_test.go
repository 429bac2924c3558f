package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"pathway-quiz-service/internal/app"
	"pathway-quiz-service/internal/domain"
	"pathway-quiz-service/internal/infra/memory"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []domain.Notification
}

func (n *recordingNotifier) Publish(_ context.Context, msg domain.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return nil
}

type testEnv struct {
	service  *app.QuizService
	attempts *memory.AttemptStore
	tracker  *memory.SessionTracker
	notifier *recordingNotifier
}

func newTestEnv() testEnv {
	quizRepo := memory.NewQuizRepository(memory.NewStaticQuizLoader(sampleQuizzes()...), time.Minute)
	env := testEnv{
		attempts: memory.NewAttemptStore(),
		tracker:  memory.NewSessionTracker(),
		notifier: &recordingNotifier{},
	}
	fixed := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	env.service = app.NewQuizService(quizRepo, env.attempts, env.tracker, env.notifier, app.NewSectionResolver("https://media.example.com/"), nil).
		WithClock(func() time.Time { return fixed })
	return env
}

func ptr(s string) *string { return &s }

// Quiz 1 is mcq(1) + inf(2), quiz 2 is fib(1), quiz 3 has no sections.
func sampleQuizzes() []domain.Quiz {
	return []domain.Quiz{
		{
			ID:      1,
			Name:    "Calculating Taxes",
			Pathway: domain.PathwayTax,
			Sections: []domain.Section{
				{ID: 10, QuizID: 1, Kind: domain.KindMultipleChoice, Title: "Personal allowance?", Position: 1, Points: 10, Options: []domain.Option{
					{ID: 100, Text: "£12,570", Correct: true},
					{ID: 101, Text: "£10,000"},
				}},
				{ID: 11, QuizID: 1, Kind: domain.KindInformation, Title: "Tax bands", Position: 2, Content: "Income is taxed in bands."},
			},
		},
		{
			ID:      2,
			Name:    "Saving Money",
			Pathway: domain.PathwayBudget,
			Sections: []domain.Section{
				{ID: 20, QuizID: 2, Kind: domain.KindFillInBlank, Title: "Complete", Position: 1, Sentences: []domain.Sentence{
					{ID: 200, Before: ptr("An ISA is a"), Blank: ptr("Savings"), After: ptr("account"), Points: 5},
					{ID: 201, Before: ptr("No blank here")},
				}},
			},
		},
		{ID: 3, Name: "Empty", Pathway: domain.PathwayBank},
	}
}

func TestSummaryCountsOpenAttempts(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	a := env.service.NewSession(1)
	if _, err := a.Start(ctx, 1); err != nil {
		t.Fatalf("start: %v", err)
	}
	b := env.service.NewSession(2)
	if _, err := b.Start(ctx, 1); err != nil {
		t.Fatalf("start: %v", err)
	}

	summary, open, err := env.service.Summary(ctx, 1)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.Name != "Calculating Taxes" || open != 2 {
		t.Fatalf("unexpected summary %+v open=%d", summary, open)
	}

	if err := a.Disconnect(ctx); err != nil {
		t.Fatalf("disconnect: %v", err)
	}
	if _, open, _ = env.service.Summary(ctx, 1); open != 1 {
		t.Fatalf("expected 1 open attempt after disconnect, got %d", open)
	}

	if _, _, err := env.service.Summary(ctx, 404); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}

func TestResolveSectionHidesAnswers(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	view, err := env.service.ResolveSection(ctx, 1, 1)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if view.Type != domain.SectionMultipleChoice {
		t.Fatalf("expected mcq, got %s", view.Type)
	}
	data, _ := json.Marshal(view.Payload)
	if strings.Contains(string(data), "correct") {
		t.Fatalf("mcq payload leaks correctness: %s", data)
	}

	view, err = env.service.ResolveSection(ctx, 2, 1)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	data, _ = json.Marshal(view.Payload)
	if strings.Contains(string(data), "Savings") {
		t.Fatalf("fib payload leaks the blank: %s", data)
	}
	fib := view.Payload.(domain.FillInBlankView)
	if !fib.Sentences[0].Blank || fib.Sentences[1].Blank {
		t.Fatalf("unexpected blank flags: %+v", fib.Sentences)
	}
}
