package postgres

import (
	"context"
	"errors"
	"fmt"

	"pathway-quiz-service/internal/domain"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// QuizLoader reads quiz content from Postgres.
type QuizLoader struct {
	pool *pgxpool.Pool
}

func NewQuizLoader(pool *pgxpool.Pool) *QuizLoader {
	return &QuizLoader{pool: pool}
}

// LoadQuiz assembles a quiz with all sections, options and sentences, sorted by position.
func (l *QuizLoader) LoadQuiz(ctx context.Context, quizID int64) (domain.Quiz, error) {
	var (
		quiz    domain.Quiz
		pathway string
	)
	err := l.pool.QueryRow(ctx,
		`SELECT id, name, description, pathway FROM quizzes WHERE id=$1`, quizID,
	).Scan(&quiz.ID, &quiz.Name, &quiz.Description, &pathway)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	quiz.Pathway = domain.Pathway(pathway)

	index, err := l.loadSections(ctx, &quiz)
	if err != nil {
		return domain.Quiz{}, err
	}
	if err := l.loadOptions(ctx, &quiz, index); err != nil {
		return domain.Quiz{}, err
	}
	if err := l.loadSentences(ctx, &quiz, index); err != nil {
		return domain.Quiz{}, err
	}
	return quiz, nil
}

func (l *QuizLoader) loadSections(ctx context.Context, quiz *domain.Quiz) (map[int64]int, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT id, kind, title, position, points, content, image
		FROM quiz_sections WHERE quiz_id=$1 ORDER BY position`, quiz.ID)
	if err != nil {
		return nil, fmt.Errorf("load sections: %w", err)
	}
	defer rows.Close()

	index := make(map[int64]int)
	for rows.Next() {
		s := domain.Section{QuizID: quiz.ID}
		var kind string
		if err := rows.Scan(&s.ID, &kind, &s.Title, &s.Position, &s.Points, &s.Content, &s.Image); err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}
		s.Kind = domain.SectionKind(kind)
		index[s.ID] = len(quiz.Sections)
		quiz.Sections = append(quiz.Sections, s)
	}
	return index, rows.Err()
}

func (l *QuizLoader) loadOptions(ctx context.Context, quiz *domain.Quiz, index map[int64]int) error {
	rows, err := l.pool.Query(ctx, `
		SELECT o.id, o.section_id, o.text, o.correct
		FROM mcq_options o JOIN quiz_sections s ON s.id = o.section_id
		WHERE s.quiz_id=$1 ORDER BY o.id`, quiz.ID)
	if err != nil {
		return fmt.Errorf("load options: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			o         domain.Option
			sectionID int64
		)
		if err := rows.Scan(&o.ID, &sectionID, &o.Text, &o.Correct); err != nil {
			return fmt.Errorf("scan option: %w", err)
		}
		if i, ok := index[sectionID]; ok {
			quiz.Sections[i].Options = append(quiz.Sections[i].Options, o)
		}
	}
	return rows.Err()
}

func (l *QuizLoader) loadSentences(ctx context.Context, quiz *domain.Quiz, index map[int64]int) error {
	rows, err := l.pool.Query(ctx, `
		SELECT f.id, f.section_id, f.before_text, f.blank, f.after_text, f.points
		FROM fib_sentences f JOIN quiz_sections s ON s.id = f.section_id
		WHERE s.quiz_id=$1 ORDER BY f.id`, quiz.ID)
	if err != nil {
		return fmt.Errorf("load sentences: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			s         domain.Sentence
			sectionID int64
		)
		if err := rows.Scan(&s.ID, &sectionID, &s.Before, &s.Blank, &s.After, &s.Points); err != nil {
			return fmt.Errorf("scan sentence: %w", err)
		}
		if i, ok := index[sectionID]; ok {
			quiz.Sections[i].Sentences = append(quiz.Sections[i].Sentences, s)
		}
	}
	return rows.Err()
}

// ListQuizzes returns the quizzes of a pathway ordered by id.
func (l *QuizLoader) ListQuizzes(ctx context.Context, pathway domain.Pathway) ([]domain.QuizSummary, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT id, name, description, pathway FROM quizzes WHERE pathway=$1 ORDER BY id`, string(pathway))
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	defer rows.Close()

	out := make([]domain.QuizSummary, 0)
	for rows.Next() {
		var (
			q  domain.QuizSummary
			pw string
		)
		if err := rows.Scan(&q.ID, &q.Name, &q.Description, &pw); err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		q.Pathway = domain.Pathway(pw)
		out = append(out, q)
	}
	return out, rows.Err()
}
