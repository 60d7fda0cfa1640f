package learning

import "github.com/p-n-ai/pai-learn/internal/tracking"

// CompletionStatus summarises how far a quiz has been answered.
type CompletionStatus int

const (
	NotStarted CompletionStatus = iota
	InProgress
	Completed
)

func (s CompletionStatus) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case InProgress:
		return "in_progress"
	case Completed:
		return "completed"
	default:
		return "unknown"
	}
}

// MarshalText renders the status as its string form in JSON.
func (s CompletionStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Quiz aggregates answer state over a borrowed list of questions. All
// derived values are read from the progress store on every call.
type Quiz struct {
	id        string
	questions []Question
}

// NewQuiz creates the quiz for the content identified by contentID.
func NewQuiz(contentID string, questions []Question) *Quiz {
	return &Quiz{id: contentID + "_quiz", questions: questions}
}

func (q *Quiz) ID() string { return q.id }

// Questions returns the quiz questions in order.
func (q *Quiz) Questions() []Question {
	return append([]Question(nil), q.questions...)
}

// ByProficiency returns the questions of tier p in order.
func (q *Quiz) ByProficiency(p Proficiency) []Question {
	var out []Question
	for _, question := range q.questions {
		if question.Proficiency() == p {
			out = append(out, question)
		}
	}
	return out
}

// Counts returns the number of correct and incorrect answers.
func (q *Quiz) Counts() (correct, incorrect int) {
	for _, question := range q.questions {
		switch question.AnswerState() {
		case tracking.StateCorrect:
			correct++
		case tracking.StateIncorrect:
			incorrect++
		}
	}
	return correct, incorrect
}

func (q *Quiz) CompletionStatus() CompletionStatus {
	correct, incorrect := q.Counts()
	answered := correct + incorrect
	switch {
	case answered == 0:
		return NotStarted
	case answered == len(q.questions):
		return Completed
	default:
		return InProgress
	}
}

// CompletionPercentage is answered/total*100, or 0 for an empty quiz.
func (q *Quiz) CompletionPercentage() float64 {
	if len(q.questions) == 0 {
		return 0
	}
	correct, incorrect := q.Counts()
	return float64((correct+incorrect)*100) / float64(len(q.questions))
}

// Score is correct/answered*100. ok is false when nothing has been answered.
func (q *Quiz) Score() (score float64, ok bool) {
	correct, incorrect := q.Counts()
	answered := correct + incorrect
	if answered == 0 {
		return 0, false
	}
	return float64(correct*100) / float64(answered), true
}

// Reset clears the recorded state of every question.
func (q *Quiz) Reset(progress tracking.ProgressStore) error {
	ids := make([]string, 0, len(q.questions))
	for _, question := range q.questions {
		ids = append(ids, question.ID())
	}
	return progress.ResetTracking(ids...)
}
