package learning

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/p-n-ai/pai-learn/internal/curriculum"
)

// Node is a child of a module: either a *Module or a *Lesson.
type Node interface {
	ID() string
	Title() string
	Description() string
	Questions() []Question
	Quiz() *Quiz
	EstimatedReadTimeSeconds() float64
	isNode()
}

// LessonLookup resolves a lesson ID against a registry.
type LessonLookup func(id string) (*Lesson, bool)

// Module is a named grouping of lessons and nested modules. The tree is
// immutable once built.
type Module struct {
	id          string
	title       string
	description string
	children    []Node
	stores      Stores

	questionsOnce sync.Once
	questions     []Question

	quizOnce sync.Once
	quiz     *Quiz
}

// NewModule builds a module tree from dto. Lesson references that lookup
// cannot resolve are dropped from the module's children.
func NewModule(dto curriculum.ModuleDTO, lookup LessonLookup, stores Stores) (*Module, error) {
	if stores.Progress == nil || stores.Stars == nil {
		return nil, fmt.Errorf("module %s: tracking stores are required", dto.ID)
	}
	if lookup == nil {
		return nil, fmt.Errorf("module %s: lesson lookup is required", dto.ID)
	}
	return buildModule(dto, lookup, stores), nil
}

func buildModule(dto curriculum.ModuleDTO, lookup LessonLookup, stores Stores) *Module {
	m := &Module{
		id:          dto.ID,
		title:       dto.Title,
		description: dto.Description,
		children:    make([]Node, 0, len(dto.SubModules)+len(dto.Lessons)),
		stores:      stores,
	}
	for _, sub := range dto.SubModules {
		m.children = append(m.children, buildModule(sub, lookup, stores))
	}
	for _, lessonID := range dto.Lessons {
		lesson, ok := lookup(lessonID)
		if !ok {
			slog.Warn("module references unknown lesson, dropping", "module_id", dto.ID, "lesson_id", lessonID)
			continue
		}
		m.children = append(m.children, lesson)
	}
	return m
}

func (m *Module) ID() string          { return m.id }
func (m *Module) Title() string       { return m.title }
func (m *Module) Description() string { return m.description }

// Children returns the direct child nodes: sub-modules first, then lessons.
func (m *Module) Children() []Node { return append([]Node(nil), m.children...) }

// SubModules returns the direct child modules.
func (m *Module) SubModules() []*Module {
	var out []*Module
	for _, c := range m.children {
		if sub, ok := c.(*Module); ok {
			out = append(out, sub)
		}
	}
	return out
}

// Lessons returns every descendant lesson, depth-first, left to right.
func (m *Module) Lessons() []*Lesson {
	var out []*Lesson
	m.walk(func(l *Lesson) { out = append(out, l) })
	return out
}

// Questions returns the questions of every descendant lesson, depth-first.
func (m *Module) Questions() []Question {
	m.questionsOnce.Do(func() {
		m.questions = []Question{}
		m.walk(func(l *Lesson) {
			m.questions = append(m.questions, l.questions...)
		})
	})
	return append([]Question(nil), m.questions...)
}

func (m *Module) walk(visit func(*Lesson)) {
	for _, c := range m.children {
		switch n := c.(type) {
		case *Module:
			n.walk(visit)
		case *Lesson:
			visit(n)
		}
	}
}

// Find returns the descendant module with id, or m itself.
func (m *Module) Find(id string) (*Module, bool) {
	if m.id == id {
		return m, true
	}
	for _, sub := range m.SubModules() {
		if found, ok := sub.Find(id); ok {
			return found, true
		}
	}
	return nil, false
}

// Quiz returns the quiz over all descendant questions.
func (m *Module) Quiz() *Quiz {
	m.quizOnce.Do(func() {
		m.quiz = NewQuiz(m.id, m.Questions())
	})
	return m.quiz
}

func (m *Module) CompletionStatus() CompletionStatus { return m.Quiz().CompletionStatus() }
func (m *Module) CompletionPercentage() float64      { return m.Quiz().CompletionPercentage() }
func (m *Module) Score() (float64, bool)             { return m.Quiz().Score() }

// EstimatedReadTimeSeconds sums the read time of all descendant lessons.
func (m *Module) EstimatedReadTimeSeconds() float64 {
	total := 0.0
	for _, l := range m.Lessons() {
		total += l.EstimatedReadTimeSeconds()
	}
	return total
}

func (m *Module) IsStarred() bool { return m.stores.Stars.IsStarred(m.id) }
func (m *Module) Star() error     { return m.stores.Stars.Star(m.id) }
func (m *Module) Unstar() error   { return m.stores.Stars.Unstar(m.id) }

// Reset clears the recorded answers of every descendant question.
func (m *Module) Reset() error {
	return m.Quiz().Reset(m.stores.Progress)
}

func (m *Module) isNode() {}
