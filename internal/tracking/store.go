// Package tracking stores per-question answer state and starred content IDs.
package tracking

import (
	"slices"
	"sync"
)

// AnswerState is the recorded outcome of a question.
type AnswerState string

const (
	StateNone      AnswerState = "none"
	StateCorrect   AnswerState = "correct"
	StateIncorrect AnswerState = "incorrect"
)

// Valid reports whether s is one of the known states.
func (s AnswerState) Valid() bool {
	switch s {
	case StateNone, StateCorrect, StateIncorrect:
		return true
	}
	return false
}

// Tracking is the progress record kept for one question.
type Tracking struct {
	AnswerState AnswerState `json:"answer_state"`
}

// ProgressStore maps question IDs to tracking state. An absent key reads as
// StateNone.
type ProgressStore interface {
	FetchTracking(questionID string) Tracking
	UpdateTracking(questionID string, t Tracking) error
	ResetTracking(questionIDs ...string) error
}

// StarStore is the set of starred content IDs.
type StarStore interface {
	IsStarred(id string) bool
	Star(id string) error
	Unstar(id string) error
	AllStarred() []string
}

// MemoryProgressStore is an in-memory ProgressStore.
type MemoryProgressStore struct {
	records map[string]Tracking
	mu      sync.RWMutex
}

// NewMemoryProgressStore creates an empty in-memory progress store.
func NewMemoryProgressStore() *MemoryProgressStore {
	return &MemoryProgressStore{
		records: make(map[string]Tracking),
	}
}

func (s *MemoryProgressStore) FetchTracking(questionID string) Tracking {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.records[questionID]
	if !ok {
		return Tracking{AnswerState: StateNone}
	}
	return t
}

func (s *MemoryProgressStore) UpdateTracking(questionID string, t Tracking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.AnswerState == StateNone || t.AnswerState == "" {
		delete(s.records, questionID)
		return nil
	}
	s.records[questionID] = t
	return nil
}

func (s *MemoryProgressStore) ResetTracking(questionIDs ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range questionIDs {
		delete(s.records, id)
	}
	return nil
}

// MemoryStarStore is an in-memory StarStore.
type MemoryStarStore struct {
	starred map[string]struct{}
	mu      sync.RWMutex
}

// NewMemoryStarStore creates an empty in-memory star store.
func NewMemoryStarStore() *MemoryStarStore {
	return &MemoryStarStore{
		starred: make(map[string]struct{}),
	}
}

func (s *MemoryStarStore) IsStarred(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.starred[id]
	return ok
}

func (s *MemoryStarStore) Star(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.starred[id] = struct{}{}
	return nil
}

func (s *MemoryStarStore) Unstar(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.starred, id)
	return nil
}

// AllStarred returns the starred IDs in sorted order.
func (s *MemoryStarStore) AllStarred() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.starred))
	for id := range s.starred {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
