package domain

import (
	"sort"
	"time"
)

// Pathway is the thematic grouping a quiz belongs to.
type Pathway string

const (
	PathwayLoans   Pathway = "LOANS"
	PathwayBudget  Pathway = "BUDGET"
	PathwayBank    Pathway = "BANK"
	PathwayTax     Pathway = "TAX"
	PathwayPension Pathway = "PENSION"
)

// Valid reports whether p is one of the known pathways.
func (p Pathway) Valid() bool {
	switch p {
	case PathwayLoans, PathwayBudget, PathwayBank, PathwayTax, PathwayPension:
		return true
	}
	return false
}

// SectionKind tags the stored variant of a section.
type SectionKind string

const (
	KindMultipleChoice SectionKind = "mcq"
	KindFillInBlank    SectionKind = "fib"
	KindInformation    SectionKind = "inf"
)

// Option represents a possible answer for a multiple-choice section.
type Option struct {
	ID      int64  `json:"id"`
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// Sentence is one line of a fill-in-blank section. Any fragment may be absent,
// and the blank may sit anywhere in the sentence.
type Sentence struct {
	ID     int64   `json:"id"`
	Before *string `json:"before"`
	Blank  *string `json:"blank"`
	After  *string `json:"after"`
	Points int     `json:"points"`
}

// HasBlank reports whether the sentence carries a blank to fill in.
func (s Sentence) HasBlank() bool {
	return s.Blank != nil && *s.Blank != ""
}

// Section is one page of a quiz. Kind selects which of the variant fields apply:
// Points/Options for mcq, Sentences for fib, Content/Image for inf.
type Section struct {
	ID       int64       `json:"id"`
	QuizID   int64       `json:"quizId"`
	Kind     SectionKind `json:"kind"`
	Title    string      `json:"title"`
	Position int         `json:"position"`

	Points  int      `json:"points,omitempty"`
	Options []Option `json:"options,omitempty"`

	Sentences []Sentence `json:"sentences,omitempty"`

	Content string `json:"content,omitempty"`
	Image   string `json:"image,omitempty"`
}

// Quiz is a named set of sections kept sorted by position.
type Quiz struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Pathway     Pathway   `json:"pathway"`
	Sections    []Section `json:"sections"`
}

// SortSections orders sections by position. Loaders call it once after assembly.
func (q *Quiz) SortSections() {
	sort.SliceStable(q.Sections, func(i, j int) bool {
		return q.Sections[i].Position < q.Sections[j].Position
	})
}

// SectionAt finds the section occupying position. Sections must be sorted.
func (q Quiz) SectionAt(position int) (Section, bool) {
	i := sort.Search(len(q.Sections), func(i int) bool {
		return q.Sections[i].Position >= position
	})
	if i < len(q.Sections) && q.Sections[i].Position == position {
		return q.Sections[i], true
	}
	return Section{}, false
}

// MultipleChoice returns the multiple-choice section with the given id.
func (q Quiz) MultipleChoice(sectionID int64) (Section, bool) {
	for _, s := range q.Sections {
		if s.ID == sectionID && s.Kind == KindMultipleChoice {
			return s, true
		}
	}
	return Section{}, false
}

// Sentence returns a fill-in-blank sentence by id along with its section.
func (q Quiz) Sentence(sentenceID int64) (Sentence, Section, bool) {
	for _, s := range q.Sections {
		if s.Kind != KindFillInBlank {
			continue
		}
		for _, sentence := range s.Sentences {
			if sentence.ID == sentenceID {
				return sentence, s, true
			}
		}
	}
	return Sentence{}, Section{}, false
}

// QuizSummary is the listing view of a quiz.
type QuizSummary struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Pathway     Pathway `json:"pathway"`
}

// Summary drops the section content.
func (q Quiz) Summary() QuizSummary {
	return QuizSummary{ID: q.ID, Name: q.Name, Description: q.Description, Pathway: q.Pathway}
}

// Attempt is one user's run through one quiz.
type Attempt struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	QuizID    int64     `json:"quizId"`
	Completed bool      `json:"completed"`
	QuizOpen  bool      `json:"quizOpen"`
	StartedAt time.Time `json:"startedAt"`
}

// PointsAwarded is an immutable ledger entry.
type PointsAwarded struct {
	ID     int64     `json:"id"`
	UserID int64     `json:"userId"`
	Points int       `json:"points"`
	Time   time.Time `json:"time"`
}

// MultipleChoiceAnswer is the scored outcome of a multiple-choice submission,
// ready to be persisted as one ledger entry and one response.
type MultipleChoiceAnswer struct {
	AttemptID  int64
	UserID     int64
	QuestionID int64
	OptionID   int64
	Correct    bool
	Awarded    int
	AnsweredAt time.Time
}

// BlankSubmission is the client's answer for a single sentence.
type BlankSubmission struct {
	SentenceID int64
	Blank      string
}

// ScoredBlank is a BlankSubmission after comparison with the stored blank.
type ScoredBlank struct {
	SentenceID int64
	Blank      string
	Correct    bool
	Awarded    int
}

// FillInBlankAnswer is the scored outcome of a fill-in-blank submission. All of
// its sentences are persisted together.
type FillInBlankAnswer struct {
	AttemptID  int64
	UserID     int64
	Sentences  []ScoredBlank
	AnsweredAt time.Time
}

// Total sums the points awarded across sentences.
func (a FillInBlankAnswer) Total() int {
	total := 0
	for _, s := range a.Sentences {
		total += s.Awarded
	}
	return total
}

// CorrectIDs lists the sentences answered correctly, never nil.
func (a FillInBlankAnswer) CorrectIDs() []int64 {
	ids := make([]int64, 0, len(a.Sentences))
	for _, s := range a.Sentences {
		if s.Correct {
			ids = append(ids, s.SentenceID)
		}
	}
	return ids
}

// Notification is relayed to every client of the notification group.
type Notification struct {
	Message string `json:"message"`
	ID      int64  `json:"id"`
	Target  int64  `json:"target"`
}
