package domain

import (
	"fmt"
	"unicode/utf8"
)

// SectionType is the wire discriminator of a resolved section.
type SectionType string

const (
	SectionMultipleChoice SectionType = "mcq"
	SectionFillInBlank    SectionType = "fib"
	SectionInformation    SectionType = "inf"
	SectionEnd            SectionType = "end"
)

// NoImage is sent in place of an image url for information sections without one.
const NoImage = "NO_IMAGE"

// OptionView hides the correct flag of an option.
type OptionView struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
}

type MultipleChoiceView struct {
	SID      int64        `json:"sid"`
	Title    string       `json:"title"`
	Position int          `json:"position"`
	Options  []OptionView `json:"options"`
}

// SentenceView reports whether a blank exists without revealing it.
type SentenceView struct {
	ID     int64   `json:"id"`
	Before *string `json:"before"`
	Blank  bool    `json:"blank"`
	After  *string `json:"after"`
}

type FillInBlankView struct {
	SID       int64          `json:"sid"`
	Title     string         `json:"title"`
	Position  int            `json:"position"`
	Sentences []SentenceView `json:"sentences"`
}

type InformationView struct {
	SID      int64  `json:"sid"`
	Title    string `json:"title"`
	Position int    `json:"position"`
	Content  string `json:"content"`
	Image    string `json:"image"`
}

// EndView is the empty payload of the end sentinel.
type EndView struct{}

// SectionView is a resolved section ready for transport. Payload holds one of
// the *View types above, matching Type.
type SectionView struct {
	Type    SectionType
	Payload any
}

// IsEnd reports whether the view is the end-of-quiz sentinel.
func (v SectionView) IsEnd() bool {
	return v.Type == SectionEnd
}

// EndOfQuiz is the resolver's signal that no section exists at a position.
func EndOfQuiz() SectionView {
	return SectionView{Type: SectionEnd, Payload: EndView{}}
}

// MaxTextLength bounds quiz names, section titles, option texts, sentence
// parts and submitted blanks, in characters.
const MaxTextLength = 100

// TooLong reports whether s exceeds MaxTextLength characters.
func TooLong(s string) bool {
	return utf8.RuneCountInString(s) > MaxTextLength
}

// Validate checks the content invariants of a quiz before it is stored.
func (q Quiz) Validate() error {
	if !q.Pathway.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPathway, q.Pathway)
	}
	if TooLong(q.Name) {
		return fmt.Errorf("%w: quiz name", ErrTextTooLong)
	}
	seen := make(map[int]string, len(q.Sections))
	for _, s := range q.Sections {
		if s.Position < 1 {
			return fmt.Errorf("%w: %q at %d", ErrInvalidPosition, s.Title, s.Position)
		}
		if other, ok := seen[s.Position]; ok {
			return fmt.Errorf("%w %d: %q and %q", ErrDuplicatePosition, s.Position, other, s.Title)
		}
		seen[s.Position] = s.Title
		if TooLong(s.Title) {
			return fmt.Errorf("%w: title at position %d", ErrTextTooLong, s.Position)
		}

		switch s.Kind {
		case KindMultipleChoice:
			correct := 0
			for _, o := range s.Options {
				if TooLong(o.Text) {
					return fmt.Errorf("%w: option of %q", ErrTextTooLong, s.Title)
				}
				if o.Correct {
					correct++
				}
			}
			if correct > 1 {
				return fmt.Errorf("%w: %q", ErrTooManyCorrect, s.Title)
			}
		case KindFillInBlank:
			for _, sentence := range s.Sentences {
				if empty(sentence.Before) && empty(sentence.Blank) && empty(sentence.After) {
					return fmt.Errorf("%w: %q", ErrSentenceEmpty, s.Title)
				}
				if tooLongPtr(sentence.Before) || tooLongPtr(sentence.Blank) || tooLongPtr(sentence.After) {
					return fmt.Errorf("%w: sentence of %q", ErrTextTooLong, s.Title)
				}
			}
		case KindInformation:
		default:
			return fmt.Errorf("unknown section kind %q", s.Kind)
		}
	}
	return nil
}

func tooLongPtr(s *string) bool {
	return s != nil && TooLong(*s)
}

func empty(s *string) bool {
	return s == nil || *s == ""
}
