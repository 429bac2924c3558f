package memory

import (
	"context"
	"sync"
	"time"

	"pathway-quiz-service/internal/domain"
)

// MultipleChoiceResponse links an attempt to the chosen option and its ledger entry.
type MultipleChoiceResponse struct {
	ID         int64
	AttemptID  int64
	OptionID   int64
	PointsID   int64
	QuestionID int64
}

// FillInBlankAnswer links one sentence answer to its response and ledger entry.
type FillInBlankAnswer struct {
	ID         int64
	ResponseID int64
	SentenceID int64
	Blank      string
	PointsID   int64
}

// AttemptStore is an in-memory implementation of app.AttemptRepository and
// app.LedgerRepository. Each record call is applied under one lock so answers
// land all-or-nothing.
type AttemptStore struct {
	mu sync.RWMutex

	nextID      int64
	attempts    map[int64]domain.Attempt
	ledger      []domain.PointsAwarded
	mcq         []MultipleChoiceResponse
	fibResponse map[int64]int64 // response id -> attempt id
	fibAnswers  []FillInBlankAnswer
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{
		attempts:    make(map[int64]domain.Attempt),
		fibResponse: make(map[int64]int64),
	}
}

func (s *AttemptStore) idLocked() int64 {
	s.nextID++
	return s.nextID
}

func (s *AttemptStore) CreateAttempt(_ context.Context, userID, quizID int64, startedAt time.Time) (domain.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	attempt := domain.Attempt{
		ID:        s.idLocked(),
		UserID:    userID,
		QuizID:    quizID,
		Completed: false,
		QuizOpen:  true,
		StartedAt: startedAt,
	}
	s.attempts[attempt.ID] = attempt
	return attempt, nil
}

func (s *AttemptStore) CloseAttempt(_ context.Context, attemptID int64, completed bool) (domain.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	attempt, ok := s.attempts[attemptID]
	if !ok {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	attempt.QuizOpen = false
	if completed {
		attempt.Completed = true
	}
	s.attempts[attemptID] = attempt
	return attempt, nil
}

func (s *AttemptStore) RecordMultipleChoice(_ context.Context, answer domain.MultipleChoiceAnswer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.attempts[answer.AttemptID]; !ok {
		return domain.ErrAttemptNotFound
	}
	points := domain.PointsAwarded{
		ID:     s.idLocked(),
		UserID: answer.UserID,
		Points: answer.Awarded,
		Time:   answer.AnsweredAt,
	}
	s.ledger = append(s.ledger, points)
	s.mcq = append(s.mcq, MultipleChoiceResponse{
		ID:         s.idLocked(),
		AttemptID:  answer.AttemptID,
		OptionID:   answer.OptionID,
		PointsID:   points.ID,
		QuestionID: answer.QuestionID,
	})
	return nil
}

func (s *AttemptStore) RecordFillInBlank(_ context.Context, answer domain.FillInBlankAnswer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.attempts[answer.AttemptID]; !ok {
		return domain.ErrAttemptNotFound
	}
	responseID := s.idLocked()
	s.fibResponse[responseID] = answer.AttemptID
	for _, sentence := range answer.Sentences {
		points := domain.PointsAwarded{
			ID:     s.idLocked(),
			UserID: answer.UserID,
			Points: sentence.Awarded,
			Time:   answer.AnsweredAt,
		}
		s.ledger = append(s.ledger, points)
		s.fibAnswers = append(s.fibAnswers, FillInBlankAnswer{
			ID:         s.idLocked(),
			ResponseID: responseID,
			SentenceID: sentence.SentenceID,
			Blank:      sentence.Blank,
			PointsID:   points.ID,
		})
	}
	return nil
}

func (s *AttemptStore) EarnedPoints(_ context.Context, userID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, p := range s.ledger {
		if p.UserID == userID {
			total += p.Points
		}
	}
	return total, nil
}

// Attempt returns a stored attempt by id.
func (s *AttemptStore) Attempt(attemptID int64) (domain.Attempt, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.attempts[attemptID]
	return a, ok
}

// Attempts returns every attempt of a user.
func (s *AttemptStore) Attempts(userID int64) []domain.Attempt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Attempt
	for _, a := range s.attempts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out
}

// Ledger returns a copy of the points ledger.
func (s *AttemptStore) Ledger() []domain.PointsAwarded {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.PointsAwarded(nil), s.ledger...)
}

// MultipleChoiceResponses returns the responses recorded for an attempt.
func (s *AttemptStore) MultipleChoiceResponses(attemptID int64) []MultipleChoiceResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []MultipleChoiceResponse
	for _, r := range s.mcq {
		if r.AttemptID == attemptID {
			out = append(out, r)
		}
	}
	return out
}

// FillInBlankAnswers returns the sentence answers recorded for an attempt.
func (s *AttemptStore) FillInBlankAnswers(attemptID int64) []FillInBlankAnswer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []FillInBlankAnswer
	for _, a := range s.fibAnswers {
		if s.fibResponse[a.ResponseID] == attemptID {
			out = append(out, a)
		}
	}
	return out
}
