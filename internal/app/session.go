package app

import (
	"context"

	"pathway-quiz-service/internal/domain"
	"pathway-quiz-service/internal/metrics"

	"go.uber.org/zap"
)

// SessionState is the lifecycle position of a quiz session.
type SessionState int

const (
	StateIdle SessionState = iota
	StateInProgress
	StateCompleted
	StateAbandoned
)

func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInProgress:
		return "in_progress"
	case StateCompleted:
		return "completed"
	case StateAbandoned:
		return "abandoned"
	}
	return "unknown"
}

// Session drives one connection through one quiz attempt. It is owned by the
// connection's read loop and is not safe for concurrent use.
type Session struct {
	svc     *QuizService
	userID  int64
	state   SessionState
	attempt domain.Attempt
}

// NewSession starts an idle session for userID (0 for anonymous users).
func (s *QuizService) NewSession(userID int64) *Session {
	return &Session{svc: s, userID: userID, state: StateIdle}
}

func (s *Session) State() SessionState {
	return s.state
}

// Attempt returns the attempt bound to the session; zero while idle.
func (s *Session) Attempt() domain.Attempt {
	return s.attempt
}

func (s *Session) requireInProgress() error {
	switch s.state {
	case StateIdle:
		return domain.ErrSessionNotStarted
	case StateInProgress:
		return nil
	}
	return domain.ErrSessionClosed
}

// Start creates the attempt and resolves the first section. An empty quiz
// yields the end sentinel and the session still moves to in-progress.
func (s *Session) Start(ctx context.Context, quizID int64) (domain.SectionView, error) {
	switch s.state {
	case StateIdle:
	case StateInProgress:
		return domain.SectionView{}, domain.ErrSessionActive
	default:
		return domain.SectionView{}, domain.ErrSessionClosed
	}

	view, err := s.svc.ResolveSection(ctx, quizID, 1)
	if err != nil {
		return domain.SectionView{}, err
	}

	attempt, err := s.svc.attempts.CreateAttempt(ctx, s.userID, quizID, s.svc.now())
	if err != nil {
		return domain.SectionView{}, err
	}
	s.attempt = attempt
	s.state = StateInProgress
	s.svc.trackOpened(ctx, attempt)
	s.svc.log.Debug("attempt started",
		zap.Int64("attempt", attempt.ID),
		zap.Int64("user", s.userID),
		zap.Int64("quiz", quizID))
	return view, nil
}

// Next resolves the section after position. When none exists the attempt is
// marked completed and the end sentinel is returned.
func (s *Session) Next(ctx context.Context, quizID int64, position int) (domain.SectionView, error) {
	if err := s.requireInProgress(); err != nil {
		return domain.SectionView{}, err
	}
	if quizID != s.attempt.QuizID {
		return domain.SectionView{}, domain.ErrQuizMismatch
	}

	quiz, err := s.svc.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.SectionView{}, err
	}
	view := s.svc.resolver.Resolve(quiz, position+1)
	if !view.IsEnd() {
		return view, nil
	}

	attempt, err := s.svc.attempts.CloseAttempt(ctx, s.attempt.ID, true)
	if err != nil {
		return domain.SectionView{}, err
	}
	s.attempt = attempt
	s.state = StateCompleted
	s.svc.trackClosed(ctx, attempt)
	s.svc.notifyCompleted(ctx, attempt, quiz)
	return view, nil
}

// AnswerMultipleChoice scores the selected option and records it with its ledger entry.
func (s *Session) AnswerMultipleChoice(ctx context.Context, questionID, optionID int64) (domain.MultipleChoiceAnswer, error) {
	if err := s.requireInProgress(); err != nil {
		return domain.MultipleChoiceAnswer{}, err
	}
	quiz, err := s.svc.quizzes.GetQuiz(ctx, s.attempt.QuizID)
	if err != nil {
		return domain.MultipleChoiceAnswer{}, err
	}

	correct, awarded, err := scoreMultipleChoice(quiz, questionID, optionID)
	if err != nil {
		return domain.MultipleChoiceAnswer{}, err
	}
	answer := domain.MultipleChoiceAnswer{
		AttemptID:  s.attempt.ID,
		UserID:     s.userID,
		QuestionID: questionID,
		OptionID:   optionID,
		Correct:    correct,
		Awarded:    awarded,
		AnsweredAt: s.svc.now(),
	}
	if err := s.svc.attempts.RecordMultipleChoice(ctx, answer); err != nil {
		return domain.MultipleChoiceAnswer{}, err
	}
	metrics.PointsAwarded.WithLabelValues(string(domain.SectionMultipleChoice)).Add(float64(awarded))
	return answer, nil
}

// AnswerFillInBlank scores every submitted sentence and records them together.
func (s *Session) AnswerFillInBlank(ctx context.Context, submissions []domain.BlankSubmission) (domain.FillInBlankAnswer, error) {
	if err := s.requireInProgress(); err != nil {
		return domain.FillInBlankAnswer{}, err
	}
	quiz, err := s.svc.quizzes.GetQuiz(ctx, s.attempt.QuizID)
	if err != nil {
		return domain.FillInBlankAnswer{}, err
	}

	scored, err := scoreFillInBlank(quiz, submissions)
	if err != nil {
		return domain.FillInBlankAnswer{}, err
	}
	answer := domain.FillInBlankAnswer{
		AttemptID:  s.attempt.ID,
		UserID:     s.userID,
		Sentences:  scored,
		AnsweredAt: s.svc.now(),
	}
	if err := s.svc.attempts.RecordFillInBlank(ctx, answer); err != nil {
		return domain.FillInBlankAnswer{}, err
	}
	metrics.PointsAwarded.WithLabelValues(string(domain.SectionFillInBlank)).Add(float64(answer.Total()))
	return answer, nil
}

// Disconnect abandons an in-progress attempt: quiz_open goes false, completed
// stays false. It is a no-op in every other state.
func (s *Session) Disconnect(ctx context.Context) error {
	if s.state != StateInProgress {
		return nil
	}
	attempt, err := s.svc.attempts.CloseAttempt(ctx, s.attempt.ID, false)
	if err != nil {
		return err
	}
	s.attempt = attempt
	s.state = StateAbandoned
	s.svc.trackClosed(ctx, attempt)
	return nil
}
