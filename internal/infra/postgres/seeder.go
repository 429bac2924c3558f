package postgres

import (
	"context"
	"fmt"

	"pathway-quiz-service/internal/domain"

	"github.com/uptrace/bun"
)

// Seeder writes quiz content trees. IDs on the input are ignored and the
// generated ones are returned on the copy.
type Seeder struct {
	db *bun.DB
}

func NewSeeder(db *bun.DB) *Seeder {
	return &Seeder{db: db}
}

// Reset deletes every quiz along with its content and attempts and returns
// the deleted quiz ids.
func (s *Seeder) Reset(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := s.db.NewDelete().
		Model((*quizModel)(nil)).
		Where("TRUE").
		Returning("id").
		Scan(ctx, &ids)
	if err != nil {
		return nil, fmt.Errorf("reset quizzes: %w", err)
	}
	return ids, nil
}

// SeedQuiz validates and inserts one quiz in a single transaction.
func (s *Seeder) SeedQuiz(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	if err := quiz.Validate(); err != nil {
		return domain.Quiz{}, fmt.Errorf("quiz %q: %w", quiz.Name, err)
	}

	out := quiz
	out.Sections = make([]domain.Section, 0, len(quiz.Sections))
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		qm := &quizModel{Name: quiz.Name, Description: quiz.Description, Pathway: string(quiz.Pathway)}
		if _, err := tx.NewInsert().Model(qm).Returning("id").Exec(ctx); err != nil {
			return fmt.Errorf("insert quiz: %w", err)
		}
		out.ID = qm.ID

		for _, section := range quiz.Sections {
			sm := &sectionModel{
				QuizID:   qm.ID,
				Kind:     string(section.Kind),
				Title:    section.Title,
				Position: section.Position,
				Points:   section.Points,
				Content:  section.Content,
				Image:    section.Image,
			}
			if _, err := tx.NewInsert().Model(sm).Returning("id").Exec(ctx); err != nil {
				return fmt.Errorf("insert section at %d: %w", section.Position, err)
			}
			section.ID = sm.ID
			section.QuizID = qm.ID

			section.Options = append([]domain.Option(nil), section.Options...)
			for i, o := range section.Options {
				om := &optionModel{SectionID: sm.ID, Text: o.Text, Correct: o.Correct}
				if _, err := tx.NewInsert().Model(om).Returning("id").Exec(ctx); err != nil {
					return fmt.Errorf("insert option: %w", err)
				}
				section.Options[i].ID = om.ID
			}

			section.Sentences = append([]domain.Sentence(nil), section.Sentences...)
			for i, f := range section.Sentences {
				fm := &sentenceModel{SectionID: sm.ID, BeforeText: f.Before, Blank: f.Blank, AfterText: f.After, Points: f.Points}
				if _, err := tx.NewInsert().Model(fm).Returning("id").Exec(ctx); err != nil {
					return fmt.Errorf("insert sentence: %w", err)
				}
				section.Sentences[i].ID = fm.ID
			}
			out.Sections = append(out.Sections, section)
		}
		return nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	out.SortSections()
	return out, nil
}
