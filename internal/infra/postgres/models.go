package postgres

import (
	"time"

	"github.com/uptrace/bun"
)

type quizModel struct {
	bun.BaseModel `bun:"table:quizzes"`

	ID          int64 `bun:",pk,autoincrement"`
	Name        string
	Description string
	Pathway     string
}

type sectionModel struct {
	bun.BaseModel `bun:"table:quiz_sections"`

	ID       int64 `bun:",pk,autoincrement"`
	QuizID   int64
	Kind     string
	Title    string
	Position int
	Points   int
	Content  string
	Image    string
}

type optionModel struct {
	bun.BaseModel `bun:"table:mcq_options"`

	ID        int64 `bun:",pk,autoincrement"`
	SectionID int64
	Text      string
	Correct   bool
}

type sentenceModel struct {
	bun.BaseModel `bun:"table:fib_sentences"`

	ID         int64 `bun:",pk,autoincrement"`
	SectionID  int64
	BeforeText *string
	Blank      *string
	AfterText  *string
	Points     int
}

type attemptModel struct {
	bun.BaseModel `bun:"table:attempts"`

	ID        int64 `bun:",pk,autoincrement"`
	UserID    int64
	QuizID    int64
	Completed bool
	QuizOpen  bool
	StartedAt time.Time
}

type pointsModel struct {
	bun.BaseModel `bun:"table:points_awarded"`

	ID        int64 `bun:",pk,autoincrement"`
	UserID    int64
	Points    int
	AwardedAt time.Time
}

type mcqResponseModel struct {
	bun.BaseModel `bun:"table:mcq_responses"`

	ID              int64 `bun:",pk,autoincrement"`
	AttemptID       int64
	OptionID        int64
	PointsAwardedID int64
}

type fibResponseModel struct {
	bun.BaseModel `bun:"table:fib_responses"`

	ID        int64 `bun:",pk,autoincrement"`
	AttemptID int64
}

type fibAnswerModel struct {
	bun.BaseModel `bun:"table:fib_answers"`

	ID              int64 `bun:",pk,autoincrement"`
	ResponseID      int64
	SentenceID      int64
	Blank           string
	PointsAwardedID int64
}

type itemModel struct {
	bun.BaseModel `bun:"table:shop_items"`

	ID    int64 `bun:",pk,autoincrement"`
	Kind  string
	Name  string
	Image string
	Cost  int
}

type profileModel struct {
	bun.BaseModel `bun:"table:user_profiles"`

	UserID       int64 `bun:",pk"`
	SpentPoints  int
	AvatarID     *int64
	DecorationID *int64
}

type userItemModel struct {
	bun.BaseModel `bun:"table:user_items"`

	UserID int64 `bun:",pk"`
	ItemID int64 `bun:",pk"`
}
