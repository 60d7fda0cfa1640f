// Package learning is the in-memory domain model built from parsed content:
// questions, quizzes, lessons and module trees. Progress and stars are read
// through the tracking stores passed in at construction.
package learning

import (
	"fmt"

	"github.com/p-n-ai/pai-learn/internal/curriculum"
	"github.com/p-n-ai/pai-learn/internal/tracking"
)

// Proficiency is the difficulty tier of a question.
type Proficiency string

const (
	Basic        Proficiency = "basic"
	Intermediate Proficiency = "intermediate"
	Advanced     Proficiency = "advanced"
)

// Stores are the shared tracking backends handed to every entity.
type Stores struct {
	Progress tracking.ProgressStore
	Stars    tracking.StarStore
}

// Question is implemented by every question variant.
type Question interface {
	ID() string
	LessonID() string
	Type() string
	Proficiency() Proficiency
	Prompt() string
	Answers() []string
	Explanation() string

	// Validate reports whether answer is correct without recording it.
	Validate(answer string) bool
	// SubmitAnswer records the outcome and returns its correctness. A later
	// submission replaces the earlier one.
	SubmitAnswer(answer string) (bool, error)
	AnswerState() tracking.AnswerState
	IsCompleted() bool
	Reset() error
}

type questionFactory func(dto curriculum.QuestionDTO, lessonID string, progress tracking.ProgressStore) (Question, error)

var questionTypes = map[string]questionFactory{
	curriculum.QuestionTypeMultipleChoice: newMultipleChoice,
}

// NewQuestion dispatches on dto.Type to build the matching variant.
func NewQuestion(dto curriculum.QuestionDTO, lessonID string, progress tracking.ProgressStore) (Question, error) {
	build, ok := questionTypes[dto.Type]
	if !ok {
		return nil, fmt.Errorf("question %s: unsupported type %q", dto.ID, dto.Type)
	}
	return build(dto, lessonID, progress)
}

// MultipleChoice is a question with a single correct answer among options.
type MultipleChoice struct {
	id           string
	lessonID     string
	proficiency  Proficiency
	prompt       string
	answers      []string
	correctIndex int
	explanation  string
	progress     tracking.ProgressStore
}

func newMultipleChoice(dto curriculum.QuestionDTO, lessonID string, progress tracking.ProgressStore) (Question, error) {
	if dto.CorrectAnswerIndex < 0 || dto.CorrectAnswerIndex >= len(dto.Answers) {
		return nil, fmt.Errorf("question %s: correct answer index %d out of range", dto.ID, dto.CorrectAnswerIndex)
	}
	switch p := Proficiency(dto.Proficiency); p {
	case Basic, Intermediate, Advanced:
	default:
		return nil, fmt.Errorf("question %s: unknown proficiency %q", dto.ID, dto.Proficiency)
	}
	if progress == nil {
		return nil, fmt.Errorf("question %s: progress store is nil", dto.ID)
	}

	return &MultipleChoice{
		id:           dto.ID,
		lessonID:     lessonID,
		proficiency:  Proficiency(dto.Proficiency),
		prompt:       dto.Question,
		answers:      append([]string(nil), dto.Answers...),
		correctIndex: dto.CorrectAnswerIndex,
		explanation:  dto.Explanation,
		progress:     progress,
	}, nil
}

func (q *MultipleChoice) ID() string               { return q.id }
func (q *MultipleChoice) LessonID() string         { return q.lessonID }
func (q *MultipleChoice) Type() string             { return curriculum.QuestionTypeMultipleChoice }
func (q *MultipleChoice) Proficiency() Proficiency { return q.proficiency }
func (q *MultipleChoice) Prompt() string           { return q.prompt }
func (q *MultipleChoice) Explanation() string      { return q.explanation }

// Answers returns a copy of the options in document order.
func (q *MultipleChoice) Answers() []string {
	return append([]string(nil), q.answers...)
}

// CorrectAnswer returns the text of the correct option.
func (q *MultipleChoice) CorrectAnswer() string {
	return q.answers[q.correctIndex]
}

func (q *MultipleChoice) Validate(answer string) bool {
	return answer == q.answers[q.correctIndex]
}

func (q *MultipleChoice) SubmitAnswer(answer string) (bool, error) {
	correct := q.Validate(answer)
	state := tracking.StateIncorrect
	if correct {
		state = tracking.StateCorrect
	}
	if err := q.progress.UpdateTracking(q.id, tracking.Tracking{AnswerState: state}); err != nil {
		return correct, fmt.Errorf("recording answer for %s: %w", q.id, err)
	}
	return correct, nil
}

func (q *MultipleChoice) AnswerState() tracking.AnswerState {
	return q.progress.FetchTracking(q.id).AnswerState
}

func (q *MultipleChoice) IsCompleted() bool {
	s := q.AnswerState()
	return s == tracking.StateCorrect || s == tracking.StateIncorrect
}

func (q *MultipleChoice) Reset() error {
	return q.progress.ResetTracking(q.id)
}
