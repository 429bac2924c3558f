// Package seed reads quiz content files.
//
// A file holds one quiz:
//
//	{"name": ..., "description": ..., "pathway": "TAX",
//	 "sections": [{"questions": [...]}, {"info": [...]}]}
//
// Questions are tagged by "type": "Multiple Choice" or "Fill in the Blank".
package seed

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"pathway-quiz-service/internal/domain"
)

const (
	typeMultipleChoice = "Multiple Choice"
	typeFillInBlank    = "Fill in the Blank"
)

type quizFile struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Pathway     string        `json:"pathway"`
	Sections    []sectionFile `json:"sections"`
}

type sectionFile struct {
	Questions []questionFile `json:"questions"`
	Info      []infoFile     `json:"info"`
}

type questionFile struct {
	Type          string   `json:"type"`
	Question      string   `json:"question"`
	Position      int      `json:"position"`
	Points        int      `json:"points"`
	Options       []string `json:"options"`
	CorrectOption string   `json:"correct_option"`
	Before        *string  `json:"before"`
	Blank         *string  `json:"blank"`
	After         *string  `json:"after"`
}

type infoFile struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Position int    `json:"position"`
	Image    string `json:"image"`
}

// Parse decodes and validates one quiz. IDs are left zero.
func Parse(r io.Reader) (domain.Quiz, error) {
	var f quizFile
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return domain.Quiz{}, fmt.Errorf("decode quiz: %w", err)
	}

	quiz := domain.Quiz{
		Name:        f.Name,
		Description: f.Description,
		Pathway:     domain.Pathway(f.Pathway),
	}
	for _, s := range f.Sections {
		for _, q := range s.Questions {
			section, err := q.toSection()
			if err != nil {
				return domain.Quiz{}, fmt.Errorf("quiz %q: %w", f.Name, err)
			}
			quiz.Sections = append(quiz.Sections, section)
		}
		for _, info := range s.Info {
			quiz.Sections = append(quiz.Sections, domain.Section{
				Kind:     domain.KindInformation,
				Title:    info.Title,
				Position: info.Position,
				Content:  info.Content,
				Image:    info.Image,
			})
		}
	}
	if err := quiz.Validate(); err != nil {
		return domain.Quiz{}, fmt.Errorf("quiz %q: %w", f.Name, err)
	}
	quiz.SortSections()
	return quiz, nil
}

func (q questionFile) toSection() (domain.Section, error) {
	switch q.Type {
	case typeMultipleChoice:
		section := domain.Section{
			Kind:     domain.KindMultipleChoice,
			Title:    q.Question,
			Position: q.Position,
			Points:   q.Points,
		}
		for _, text := range q.Options {
			section.Options = append(section.Options, domain.Option{Text: text, Correct: text == q.CorrectOption})
		}
		return section, nil
	case typeFillInBlank:
		return domain.Section{
			Kind:     domain.KindFillInBlank,
			Title:    q.Question,
			Position: q.Position,
			Sentences: []domain.Sentence{{
				Before: q.Before,
				Blank:  q.Blank,
				After:  q.After,
				Points: q.Points,
			}},
		}, nil
	}
	return domain.Section{}, fmt.Errorf("unknown question type %q at position %d", q.Type, q.Position)
}

// ParseFile opens path and parses it.
func ParseFile(path string) (domain.Quiz, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Quiz{}, err
	}
	defer f.Close()
	quiz, err := Parse(f)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return quiz, nil
}

// LoadDir parses every *.json file under dir, in lexical path order.
func LoadDir(dir string) ([]domain.Quiz, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == ".json" {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	quizzes := make([]domain.Quiz, 0, len(paths))
	for _, path := range paths {
		quiz, err := ParseFile(path)
		if err != nil {
			return nil, err
		}
		quizzes = append(quizzes, quiz)
	}
	return quizzes, nil
}

// AssignIDs numbers quizzes, sections, options and sentences from 1, the way a
// fresh database would. Used when content is served from memory.
func AssignIDs(quizzes []domain.Quiz) []domain.Quiz {
	var sectionID, optionID, sentenceID int64
	out := make([]domain.Quiz, len(quizzes))
	for i, quiz := range quizzes {
		quiz.ID = int64(i + 1)
		sections := make([]domain.Section, len(quiz.Sections))
		for j, s := range quiz.Sections {
			sectionID++
			s.ID = sectionID
			s.QuizID = quiz.ID
			s.Options = append([]domain.Option(nil), s.Options...)
			for k := range s.Options {
				optionID++
				s.Options[k].ID = optionID
			}
			s.Sentences = append([]domain.Sentence(nil), s.Sentences...)
			for k := range s.Sentences {
				sentenceID++
				s.Sentences[k].ID = sentenceID
			}
			sections[j] = s
		}
		quiz.Sections = sections
		out[i] = quiz
	}
	return out
}
