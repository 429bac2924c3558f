package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pathway-quiz-service/internal/domain"

	"github.com/uptrace/bun"
)

// AttemptStore persists attempts, answers and the points ledger with bun.
type AttemptStore struct {
	db *bun.DB
}

func NewAttemptStore(db *bun.DB) *AttemptStore {
	return &AttemptStore{db: db}
}

func (s *AttemptStore) CreateAttempt(ctx context.Context, userID, quizID int64, startedAt time.Time) (domain.Attempt, error) {
	m := &attemptModel{
		UserID:    userID,
		QuizID:    quizID,
		Completed: false,
		QuizOpen:  true,
		StartedAt: startedAt,
	}
	if _, err := s.db.NewInsert().Model(m).Returning("id").Exec(ctx); err != nil {
		return domain.Attempt{}, fmt.Errorf("create attempt: %w", err)
	}
	return m.toDomain(), nil
}

// CloseAttempt sets quiz_open to false. completed only ever moves from false to true.
func (s *AttemptStore) CloseAttempt(ctx context.Context, attemptID int64, completed bool) (domain.Attempt, error) {
	m := new(attemptModel)
	err := s.db.NewUpdate().
		Model(m).
		Set("quiz_open = FALSE").
		Set("completed = completed OR ?", completed).
		Where("id = ?", attemptID).
		Returning("*").
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("close attempt %d: %w", attemptID, err)
	}
	return m.toDomain(), nil
}

func (s *AttemptStore) RecordMultipleChoice(ctx context.Context, answer domain.MultipleChoiceAnswer) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		points := &pointsModel{UserID: answer.UserID, Points: answer.Awarded, AwardedAt: answer.AnsweredAt}
		if _, err := tx.NewInsert().Model(points).Returning("id").Exec(ctx); err != nil {
			return fmt.Errorf("insert points: %w", err)
		}
		response := &mcqResponseModel{
			AttemptID:       answer.AttemptID,
			OptionID:        answer.OptionID,
			PointsAwardedID: points.ID,
		}
		if _, err := tx.NewInsert().Model(response).Returning("id").Exec(ctx); err != nil {
			return fmt.Errorf("insert mcq response: %w", err)
		}
		return nil
	})
}

func (s *AttemptStore) RecordFillInBlank(ctx context.Context, answer domain.FillInBlankAnswer) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		response := &fibResponseModel{AttemptID: answer.AttemptID}
		if _, err := tx.NewInsert().Model(response).Returning("id").Exec(ctx); err != nil {
			return fmt.Errorf("insert fib response: %w", err)
		}
		for _, sentence := range answer.Sentences {
			points := &pointsModel{UserID: answer.UserID, Points: sentence.Awarded, AwardedAt: answer.AnsweredAt}
			if _, err := tx.NewInsert().Model(points).Returning("id").Exec(ctx); err != nil {
				return fmt.Errorf("insert points: %w", err)
			}
			row := &fibAnswerModel{
				ResponseID:      response.ID,
				SentenceID:      sentence.SentenceID,
				Blank:           sentence.Blank,
				PointsAwardedID: points.ID,
			}
			if _, err := tx.NewInsert().Model(row).Returning("id").Exec(ctx); err != nil {
				return fmt.Errorf("insert fib answer %d: %w", sentence.SentenceID, err)
			}
		}
		return nil
	})
}

// EarnedPoints sums the ledger for userID.
func (s *AttemptStore) EarnedPoints(ctx context.Context, userID int64) (int, error) {
	var total int
	err := s.db.NewSelect().
		Model((*pointsModel)(nil)).
		ColumnExpr("COALESCE(SUM(points), 0)").
		Where("user_id = ?", userID).
		Scan(ctx, &total)
	if err != nil {
		return 0, fmt.Errorf("sum points: %w", err)
	}
	return total, nil
}

// Attempt fetches a stored attempt.
func (s *AttemptStore) Attempt(ctx context.Context, attemptID int64) (domain.Attempt, error) {
	m := new(attemptModel)
	err := s.db.NewSelect().Model(m).Where("id = ?", attemptID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	if err != nil {
		return domain.Attempt{}, err
	}
	return m.toDomain(), nil
}

func (m *attemptModel) toDomain() domain.Attempt {
	return domain.Attempt{
		ID:        m.ID,
		UserID:    m.UserID,
		QuizID:    m.QuizID,
		Completed: m.Completed,
		QuizOpen:  m.QuizOpen,
		StartedAt: m.StartedAt,
	}
}
