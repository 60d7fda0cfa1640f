package content

import (
	"errors"
	"fmt"
)

// ErrQuestionNotFound is returned by SubmitAnswer for an unknown question.
var ErrQuestionNotFound = errors.New("question not found")

// LoadError wraps a failure of the content source (catalog or fetch).
type LoadError struct {
	Op  string
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("content load: %s: %v", e.Op, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// ItemError is a single lesson or module document that failed to parse or
// build.
type ItemError struct {
	Kind string // "lesson" or "module"
	ID   string
	Err  error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Kind, e.ID, e.Err)
}

func (e *ItemError) Unwrap() error { return e.Err }
