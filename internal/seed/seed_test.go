package seed

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pathway-quiz-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const taxQuiz = `{
  "name": "Calculating Taxes",
  "description": "How income tax is worked out",
  "pathway": "TAX",
  "sections": [
    {"info": [{"title": "Tax bands", "content": "Bands apply to income.", "position": 1}]},
    {"questions": [
      {"type": "Multiple Choice", "question": "What is the personal allowance?", "position": 2,
       "points": 10, "options": ["£12,570", "£10,000"], "correct_option": "£12,570"},
      {"type": "Fill in the Blank", "question": "Complete the sentence", "position": 3,
       "before": "Income tax is paid to", "blank": "HMRC", "after": null, "points": 5}
    ]}
  ]
}`

func TestParseBuildsSortedQuiz(t *testing.T) {
	quiz, err := Parse(strings.NewReader(taxQuiz))
	require.NoError(t, err)

	assert.Equal(t, "Calculating Taxes", quiz.Name)
	assert.Equal(t, domain.PathwayTax, quiz.Pathway)
	require.Len(t, quiz.Sections, 3)

	assert.Equal(t, domain.KindInformation, quiz.Sections[0].Kind)
	assert.Equal(t, "Tax bands", quiz.Sections[0].Title)

	mcq := quiz.Sections[1]
	assert.Equal(t, domain.KindMultipleChoice, mcq.Kind)
	assert.Equal(t, 10, mcq.Points)
	require.Len(t, mcq.Options, 2)
	assert.True(t, mcq.Options[0].Correct)
	assert.False(t, mcq.Options[1].Correct)

	fib := quiz.Sections[2]
	require.Len(t, fib.Sentences, 1)
	assert.Equal(t, "HMRC", *fib.Sentences[0].Blank)
	assert.Nil(t, fib.Sentences[0].After)
	assert.Equal(t, 5, fib.Sentences[0].Points)
}

func TestParseRejectsInvalidContent(t *testing.T) {
	cases := map[string]struct {
		body string
		want error
	}{
		"pathway": {
			body: `{"name":"x","pathway":"CRYPTO","sections":[]}`,
			want: domain.ErrInvalidPathway,
		},
		"duplicate position": {
			body: `{"name":"x","pathway":"BANK","sections":[{"info":[
				{"title":"a","content":"","position":1},{"title":"b","content":"","position":1}]}]}`,
			want: domain.ErrDuplicatePosition,
		},
		"two correct": {
			body: `{"name":"x","pathway":"BANK","sections":[{"questions":[
				{"type":"Multiple Choice","question":"q","position":1,"points":1,
				 "options":["a","a"],"correct_option":"a"}]}]}`,
			want: domain.ErrTooManyCorrect,
		},
		"empty sentence": {
			body: `{"name":"x","pathway":"BANK","sections":[{"questions":[
				{"type":"Fill in the Blank","question":"q","position":1,"points":1}]}]}`,
			want: domain.ErrSentenceEmpty,
		},
		"long title": {
			body: `{"name":"x","pathway":"BANK","sections":[{"info":[
				{"title":"` + strings.Repeat("t", 101) + `","content":"","position":1}]}]}`,
			want: domain.ErrTextTooLong,
		},
		"long option": {
			body: `{"name":"x","pathway":"BANK","sections":[{"questions":[
				{"type":"Multiple Choice","question":"q","position":1,"points":1,
				 "options":["` + strings.Repeat("o", 101) + `"],"correct_option":"a"}]}]}`,
			want: domain.ErrTextTooLong,
		},
		"long blank": {
			body: `{"name":"x","pathway":"BANK","sections":[{"questions":[
				{"type":"Fill in the Blank","question":"q","position":1,"points":1,
				 "blank":"` + strings.Repeat("b", 101) + `"}]}]}`,
			want: domain.ErrTextTooLong,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tc.body))
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestParseCountsCharactersNotBytes(t *testing.T) {
	title := strings.Repeat("é", domain.MaxTextLength)
	quiz, err := Parse(strings.NewReader(`{"name":"x","pathway":"BANK","sections":[{"info":[
		{"title":"` + title + `","content":"","position":1}]}]}`))
	require.NoError(t, err)
	assert.Equal(t, title, quiz.Sections[0].Title)
}

func TestParseRejectsUnknownQuestionType(t *testing.T) {
	_, err := Parse(strings.NewReader(`{"name":"x","pathway":"BANK","sections":[{"questions":[
		{"type":"Essay","question":"q","position":1}]}]}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Essay")
}

func TestLoadDirAndAssignIDs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a_tax.json"), []byte(taxQuiz), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b_bank.json"),
		[]byte(`{"name":"Opening an account","description":"","pathway":"BANK","sections":[{"info":[{"title":"Hi","content":"c","position":1}]}]}`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o600))

	quizzes, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, quizzes, 2)

	quizzes = AssignIDs(quizzes)
	assert.Equal(t, int64(1), quizzes[0].ID)
	assert.Equal(t, int64(2), quizzes[1].ID)

	ids := map[int64]bool{}
	for _, q := range quizzes {
		for _, s := range q.Sections {
			assert.Equal(t, q.ID, s.QuizID)
			assert.False(t, ids[s.ID], "section id %d reused", s.ID)
			ids[s.ID] = true
		}
	}
	assert.Equal(t, int64(1), quizzes[0].Sections[1].Options[0].ID)
	assert.Equal(t, int64(1), quizzes[0].Sections[2].Sentences[0].ID)
}
