package memory

import (
	"context"
	"sync"

	"pathway-quiz-service/internal/domain"
)

// SessionTracker is an in-memory implementation of app.SessionTracker.
type SessionTracker struct {
	mu   sync.RWMutex
	open map[int64]map[int64]struct{} // quiz id -> open attempt ids
}

func NewSessionTracker() *SessionTracker {
	return &SessionTracker{open: make(map[int64]map[int64]struct{})}
}

func (t *SessionTracker) Opened(_ context.Context, attempt domain.Attempt) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	set, ok := t.open[attempt.QuizID]
	if !ok {
		set = make(map[int64]struct{})
		t.open[attempt.QuizID] = set
	}
	set[attempt.ID] = struct{}{}
	return nil
}

func (t *SessionTracker) Closed(_ context.Context, attempt domain.Attempt) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	set, ok := t.open[attempt.QuizID]
	if !ok {
		return nil
	}
	delete(set, attempt.ID)
	if len(set) == 0 {
		delete(t.open, attempt.QuizID)
	}
	return nil
}

func (t *SessionTracker) OpenCount(_ context.Context, quizID int64) (int, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.open[quizID]), nil
}
