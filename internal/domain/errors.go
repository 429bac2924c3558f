package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrSectionNotFound indicates a submitted question id is not a section of the quiz.
	ErrSectionNotFound = errors.New("section not found")
	// ErrOptionNotFound indicates a submitted option id is invalid for the question.
	ErrOptionNotFound = errors.New("option not found")
	// ErrSentenceNotFound indicates a submitted sentence id is invalid for the quiz.
	ErrSentenceNotFound = errors.New("sentence not found")
	// ErrAttemptNotFound is returned by stores for unknown attempt ids.
	ErrAttemptNotFound = errors.New("attempt not found")

	// ErrSessionNotStarted is returned for next/answer before start.
	ErrSessionNotStarted = errors.New("quiz session not started")
	// ErrSessionActive is returned for a second start on the same connection.
	ErrSessionActive = errors.New("quiz session already started")
	// ErrSessionClosed is returned for messages after the session ended.
	ErrSessionClosed = errors.New("quiz session closed")
	// ErrQuizMismatch is returned when a message names a quiz other than the attempt's.
	ErrQuizMismatch = errors.New("quiz does not match attempt")

	// ErrDuplicatePosition means two sections of a quiz claim the same position.
	ErrDuplicatePosition = errors.New("section already at position")
	// ErrTooManyCorrect means a multiple-choice section marks more than one option correct.
	ErrTooManyCorrect = errors.New("too many correct answers")
	// ErrSentenceEmpty means a sentence has no before, blank or after text.
	ErrSentenceEmpty = errors.New("sentence empty")
	// ErrInvalidPathway means the pathway tag is not one of the known pathways.
	ErrInvalidPathway = errors.New("invalid pathway")
	// ErrInvalidPosition means a section position is below 1.
	ErrInvalidPosition = errors.New("invalid position")
	// ErrTextTooLong means a name, title, option or sentence part exceeds MaxTextLength.
	ErrTextTooLong = errors.New("text too long")

	ErrItemNotFound       = errors.New("item not found")
	ErrItemOwned          = errors.New("item already owned")
	ErrItemNotOwned       = errors.New("item not owned")
	ErrInsufficientPoints = errors.New("not enough points")
)

// IsNotFound groups the lookup failures that surface to clients as "not found".
func IsNotFound(err error) bool {
	return errors.Is(err, ErrQuizNotFound) ||
		errors.Is(err, ErrSectionNotFound) ||
		errors.Is(err, ErrOptionNotFound) ||
		errors.Is(err, ErrSentenceNotFound) ||
		errors.Is(err, ErrAttemptNotFound) ||
		errors.Is(err, ErrItemNotFound)
}

// IsProtocolViolation reports errors caused by messages sent in the wrong state.
func IsProtocolViolation(err error) bool {
	return errors.Is(err, ErrSessionNotStarted) ||
		errors.Is(err, ErrSessionActive) ||
		errors.Is(err, ErrSessionClosed) ||
		errors.Is(err, ErrQuizMismatch)
}
