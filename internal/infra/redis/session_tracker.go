package redis

import (
	"context"
	"strconv"
	"time"

	"pathway-quiz-service/internal/domain"

	"github.com/redis/go-redis/v9"
)

// SessionTracker is a Redis implementation of app.SessionTracker.
// Notes:
//   - Open attempts are members of the set quiz:{quizID}:open, so every instance
//     sees the same count.
//   - The set TTL is refreshed on each open; if an instance dies without
//     closing its attempts the set expires instead of growing forever.
type SessionTracker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionTracker(client *redis.Client, ttl time.Duration) *SessionTracker {
	return &SessionTracker{client: client, ttl: ttl}
}

func (t *SessionTracker) Opened(ctx context.Context, attempt domain.Attempt) error {
	key := t.key(attempt.QuizID)
	pipe := t.client.TxPipeline()
	pipe.SAdd(ctx, key, attempt.ID)
	if t.ttl > 0 {
		pipe.Expire(ctx, key, t.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (t *SessionTracker) Closed(ctx context.Context, attempt domain.Attempt) error {
	return t.client.SRem(ctx, t.key(attempt.QuizID), attempt.ID).Err()
}

func (t *SessionTracker) OpenCount(ctx context.Context, quizID int64) (int, error) {
	n, err := t.client.SCard(ctx, t.key(quizID)).Result()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (t *SessionTracker) key(quizID int64) string {
	return "quiz:" + strconv.FormatInt(quizID, 10) + ":open"
}
