package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"pathway-quiz-service/internal/domain"
)

var errBadMessage = errors.New("malformed message")

// clientMessage is implemented only by the inbound variants below.
type clientMessage interface {
	kind() string
	dispatch(ctx context.Context, c *quizConn) error
}

type startMessage struct {
	QID int64 `json:"qid"`
}

type nextMessage struct {
	QID      int64 `json:"qid"`
	Position int   `json:"position"`
}

type mcqAnswerMessage struct {
	QuestionID int64 `json:"question_id"`
	SelectedID int64 `json:"selected_id"`
}

type fibAnswerMessage struct {
	Sentences []struct {
		ID    int64  `json:"id"`
		Blank string `json:"blank"`
	} `json:"sentences"`
}

func (startMessage) kind() string     { return "start" }
func (nextMessage) kind() string      { return "next" }
func (mcqAnswerMessage) kind() string { return "answer_mcq" }
func (fibAnswerMessage) kind() string { return "answer_fib" }

type envelope struct {
	Type        string `json:"type"`
	SectionType string `json:"section_type"`
}

// decodeClientMessage picks the variant from type (and section_type for answers).
func decodeClientMessage(data []byte) (clientMessage, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", errBadMessage, err)
	}

	var msg clientMessage
	switch env.Type {
	case "start":
		msg = &startMessage{}
	case "next":
		msg = &nextMessage{}
	case "answer":
		switch domain.SectionType(env.SectionType) {
		case domain.SectionMultipleChoice:
			msg = &mcqAnswerMessage{}
		case domain.SectionFillInBlank:
			msg = &fibAnswerMessage{}
		default:
			return nil, fmt.Errorf("%w: section_type %q", errBadMessage, env.SectionType)
		}
	default:
		return nil, fmt.Errorf("%w: type %q", errBadMessage, env.Type)
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("%w: %v", errBadMessage, err)
	}
	return msg, nil
}

func (m *startMessage) dispatch(ctx context.Context, c *quizConn) error {
	view, err := c.session.Start(ctx, m.QID)
	if err != nil {
		return err
	}
	c.send(newSectionMessage("first_section", view))
	return nil
}

func (m *nextMessage) dispatch(ctx context.Context, c *quizConn) error {
	view, err := c.session.Next(ctx, m.QID, m.Position)
	if err != nil {
		return err
	}
	if view.IsEnd() {
		c.send(typeMessage{Type: "end_quiz"})
		c.finished = true
		return nil
	}
	c.send(newSectionMessage("next_section", view))
	return nil
}

func (m *mcqAnswerMessage) dispatch(ctx context.Context, c *quizConn) error {
	answer, err := c.session.AnswerMultipleChoice(ctx, m.QuestionID, m.SelectedID)
	if err != nil {
		return err
	}
	c.send(mcqResultMessage{Type: "validated_mcq_answer", Correct: answer.Correct, Awarded: answer.Awarded})
	return nil
}

func (m *fibAnswerMessage) dispatch(ctx context.Context, c *quizConn) error {
	submissions := make([]domain.BlankSubmission, 0, len(m.Sentences))
	for _, s := range m.Sentences {
		if domain.TooLong(s.Blank) {
			return fmt.Errorf("%w: blank for sentence %d exceeds %d characters", errBadMessage, s.ID, domain.MaxTextLength)
		}
		submissions = append(submissions, domain.BlankSubmission{SentenceID: s.ID, Blank: s.Blank})
	}
	answer, err := c.session.AnswerFillInBlank(ctx, submissions)
	if err != nil {
		return err
	}
	c.send(fibResultMessage{Type: "validated_fib_answer", Correct: answer.CorrectIDs(), Awarded: answer.Total()})
	return nil
}

type typeMessage struct {
	Type string `json:"type"`
}

type sectionMessage struct {
	Type        string             `json:"type"`
	SectionType domain.SectionType `json:"section_type"`
	Section     any                `json:"section"`
}

func newSectionMessage(typ string, view domain.SectionView) sectionMessage {
	return sectionMessage{Type: typ, SectionType: view.Type, Section: view.Payload}
}

type mcqResultMessage struct {
	Type    string `json:"type"`
	Correct bool   `json:"correct"`
	Awarded int    `json:"awarded"`
}

type fibResultMessage struct {
	Type    string  `json:"type"`
	Correct []int64 `json:"correct"`
	Awarded int     `json:"awarded"`
}

func (m typeMessage) messageType() string      { return m.Type }
func (m sectionMessage) messageType() string   { return m.Type }
func (m mcqResultMessage) messageType() string { return m.Type }
func (m fibResultMessage) messageType() string { return m.Type }

// serverMessage is any outbound quiz frame.
type serverMessage interface {
	messageType() string
}
