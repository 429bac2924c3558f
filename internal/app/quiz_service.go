package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pathway-quiz-service/internal/domain"
	"pathway-quiz-service/internal/metrics"

	"go.uber.org/zap"
)

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID int64) (domain.Quiz, error)
}

// QuizCatalog lists the quizzes of a pathway.
type QuizCatalog interface {
	ListQuizzes(ctx context.Context, pathway domain.Pathway) ([]domain.QuizSummary, error)
}

// AttemptRepository persists attempts and their answers. Each Record call must
// be all-or-nothing.
type AttemptRepository interface {
	CreateAttempt(ctx context.Context, userID, quizID int64, startedAt time.Time) (domain.Attempt, error)
	CloseAttempt(ctx context.Context, attemptID int64, completed bool) (domain.Attempt, error)
	RecordMultipleChoice(ctx context.Context, answer domain.MultipleChoiceAnswer) error
	RecordFillInBlank(ctx context.Context, answer domain.FillInBlankAnswer) error
}

// SessionTracker keeps a liveness view of open attempts (in-memory, Redis, etc).
type SessionTracker interface {
	Opened(ctx context.Context, attempt domain.Attempt) error
	Closed(ctx context.Context, attempt domain.Attempt) error
	OpenCount(ctx context.Context, quizID int64) (int, error)
}

// Notifier fans a notification out to connected clients.
type Notifier interface {
	Publish(ctx context.Context, n domain.Notification) error
}

// QuizService contains the core quiz use cases.
type QuizService struct {
	quizzes  QuizRepository
	attempts AttemptRepository
	tracker  SessionTracker
	notifier Notifier
	resolver *SectionResolver
	log      *zap.Logger
	now      func() time.Time
}

func NewQuizService(quizzes QuizRepository, attempts AttemptRepository, tracker SessionTracker, notifier Notifier, resolver *SectionResolver, log *zap.Logger) *QuizService {
	if resolver == nil {
		resolver = NewSectionResolver("")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &QuizService{
		quizzes:  quizzes,
		attempts: attempts,
		tracker:  tracker,
		notifier: notifier,
		resolver: resolver,
		log:      log,
		now:      time.Now,
	}
}

// WithClock is test-only for deterministic timestamps.
func (s *QuizService) WithClock(now func() time.Time) *QuizService {
	s.now = now
	return s
}

// ResolveSection loads the quiz and resolves the section at position.
func (s *QuizService) ResolveSection(ctx context.Context, quizID int64, position int) (domain.SectionView, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.SectionView{}, err
	}
	return s.resolver.Resolve(quiz, position), nil
}

// Summary returns the listing view of a quiz and how many attempts are open on it.
func (s *QuizService) Summary(ctx context.Context, quizID int64) (domain.QuizSummary, int, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.QuizSummary{}, 0, err
	}
	open := 0
	if s.tracker != nil {
		if open, err = s.tracker.OpenCount(ctx, quizID); err != nil {
			return domain.QuizSummary{}, 0, err
		}
	}
	return quiz.Summary(), open, nil
}

func (s *QuizService) trackOpened(ctx context.Context, attempt domain.Attempt) {
	metrics.Attempts.WithLabelValues("started").Inc()
	if s.tracker == nil {
		return
	}
	if err := s.tracker.Opened(ctx, attempt); err != nil {
		s.log.Warn("track opened attempt", zap.Int64("attempt", attempt.ID), zap.Error(err))
	}
}

func (s *QuizService) trackClosed(ctx context.Context, attempt domain.Attempt) {
	outcome := "abandoned"
	if attempt.Completed {
		outcome = "completed"
	}
	metrics.Attempts.WithLabelValues(outcome).Inc()
	if s.tracker == nil {
		return
	}
	if err := s.tracker.Closed(ctx, attempt); err != nil {
		s.log.Warn("track closed attempt", zap.Int64("attempt", attempt.ID), zap.Error(err))
	}
}

func (s *QuizService) notifyCompleted(ctx context.Context, attempt domain.Attempt, quiz domain.Quiz) {
	if s.notifier == nil {
		return
	}
	n := domain.Notification{
		Message: fmt.Sprintf("User %d has completed the %s quiz!", attempt.UserID, quiz.Name),
		ID:      attempt.ID,
		Target:  attempt.UserID,
	}
	if err := s.notifier.Publish(ctx, n); err != nil {
		s.log.Warn("publish completion", zap.Int64("attempt", attempt.ID), zap.Error(err))
	}
}

// scoreMultipleChoice validates the answer against quiz content and returns (correct, points).
func scoreMultipleChoice(quiz domain.Quiz, questionID, optionID int64) (bool, int, error) {
	question, ok := quiz.MultipleChoice(questionID)
	if !ok {
		return false, 0, fmt.Errorf("%w: question %d", domain.ErrSectionNotFound, questionID)
	}

	var selected *domain.Option
	for i := range question.Options {
		if question.Options[i].ID == optionID {
			selected = &question.Options[i]
			break
		}
	}
	if selected == nil {
		return false, 0, fmt.Errorf("%w: option %d", domain.ErrOptionNotFound, optionID)
	}

	if selected.Correct {
		return true, question.Points, nil
	}
	return false, 0, nil
}

// scoreFillInBlank compares each submitted blank with the stored one, ignoring case.
// Sentences without a stored blank never score.
func scoreFillInBlank(quiz domain.Quiz, submissions []domain.BlankSubmission) ([]domain.ScoredBlank, error) {
	scored := make([]domain.ScoredBlank, 0, len(submissions))
	for _, sub := range submissions {
		sentence, _, ok := quiz.Sentence(sub.SentenceID)
		if !ok {
			return nil, fmt.Errorf("%w: sentence %d", domain.ErrSentenceNotFound, sub.SentenceID)
		}
		result := domain.ScoredBlank{SentenceID: sub.SentenceID, Blank: sub.Blank}
		if sentence.HasBlank() && strings.ToLower(sub.Blank) == strings.ToLower(*sentence.Blank) {
			result.Correct = true
			result.Awarded = sentence.Points
		}
		scored = append(scored, result)
	}
	return scored, nil
}
