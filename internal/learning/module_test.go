package learning_test

import (
	"math"
	"testing"

	"github.com/p-n-ai/pai-learn/internal/curriculum"
	"github.com/p-n-ai/pai-learn/internal/learning"
)

// registry builds lessons l1..l3, each with one question and four words.
func registry(t *testing.T, stores learning.Stores) map[string]*learning.Lesson {
	t.Helper()
	lessons := map[string]*learning.Lesson{}
	for _, id := range []string{"l1", "l2", "l3"} {
		lessons[id] = mustLesson(t, stores, curriculum.LessonDTO{
			ID:        id,
			Title:     id,
			Sections:  []curriculum.SectionDTO{{Title: "s", Content: "a b c d"}},
			Questions: []curriculum.QuestionDTO{questionDTO(id + "_q")},
		})
	}
	return lessons
}

func lookupIn(lessons map[string]*learning.Lesson) learning.LessonLookup {
	return func(id string) (*learning.Lesson, bool) {
		l, ok := lessons[id]
		return l, ok
	}
}

func sampleTree() curriculum.ModuleDTO {
	return curriculum.ModuleDTO{
		ID:    "root",
		Title: "Root",
		SubModules: []curriculum.ModuleDTO{
			{ID: "child", Title: "Child", Lessons: []string{"l2", "l3"}},
		},
		Lessons: []string{"l1", "missing"},
	}
}

func TestNewModule_FlattensDepthFirst(t *testing.T) {
	stores := newStores()
	m, err := learning.NewModule(sampleTree(), lookupIn(registry(t, stores)), stores)
	if err != nil {
		t.Fatalf("NewModule() error = %v", err)
	}

	qs := m.Questions()
	want := []string{"l2_q", "l3_q", "l1_q"}
	if len(qs) != len(want) {
		t.Fatalf("len(Questions()) = %d, want %d", len(qs), len(want))
	}
	for i, id := range want {
		if qs[i].ID() != id {
			t.Errorf("Questions()[%d] = %s, want %s", i, qs[i].ID(), id)
		}
	}

	if len(m.Children()) != 2 {
		t.Errorf("len(Children()) = %d, want 2 (unknown lesson dropped)", len(m.Children()))
	}
	if len(m.SubModules()) != 1 || m.SubModules()[0].ID() != "child" {
		t.Errorf("SubModules() = %v", m.SubModules())
	}
}

func TestModule_ReadTimeSumsLessons(t *testing.T) {
	stores := newStores()
	m, _ := learning.NewModule(sampleTree(), lookupIn(registry(t, stores)), stores)

	if got := m.EstimatedReadTimeSeconds(); math.Abs(got-4.8) > 1e-9 {
		t.Errorf("EstimatedReadTimeSeconds() = %v, want 4.8", got)
	}
}

func TestModule_QuizAggregatesDescendants(t *testing.T) {
	stores := newStores()
	lessons := registry(t, stores)
	m, _ := learning.NewModule(sampleTree(), lookupIn(lessons), stores)

	if m.CompletionStatus() != learning.NotStarted {
		t.Errorf("CompletionStatus() = %v, want not_started", m.CompletionStatus())
	}

	_, _ = lessons["l2"].Questions()[0].SubmitAnswer("b")
	if m.CompletionStatus() != learning.InProgress {
		t.Errorf("CompletionStatus() = %v, want in_progress", m.CompletionStatus())
	}

	_, _ = lessons["l1"].Questions()[0].SubmitAnswer("a")
	_, _ = lessons["l3"].Questions()[0].SubmitAnswer("b")
	if m.CompletionStatus() != learning.Completed {
		t.Errorf("CompletionStatus() = %v, want completed", m.CompletionStatus())
	}
	score, ok := m.Score()
	if !ok || math.Abs(score-200.0/3) > 1e-9 {
		t.Errorf("Score() = %v, %v, want 66.67, true", score, ok)
	}

	child, ok := m.Find("child")
	if !ok {
		t.Fatal("Find(child) not found")
	}
	if child.CompletionPercentage() != 100 {
		t.Errorf("child CompletionPercentage() = %v, want 100", child.CompletionPercentage())
	}
	if m.Quiz().ID() != "root_quiz" {
		t.Errorf("Quiz().ID() = %q, want root_quiz", m.Quiz().ID())
	}

	if err := m.Reset(); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if m.CompletionStatus() != learning.NotStarted {
		t.Errorf("CompletionStatus() after Reset = %v", m.CompletionStatus())
	}
}

func TestModule_EmptyTree(t *testing.T) {
	stores := newStores()
	m, _ := learning.NewModule(curriculum.ModuleDTO{ID: "empty", Title: "Empty"}, lookupIn(nil), stores)

	if m.CompletionStatus() != learning.NotStarted || m.CompletionPercentage() != 0 {
		t.Error("empty module should be not started at 0%")
	}
	if _, ok := m.Score(); ok {
		t.Error("Score() ok = true for empty module")
	}
	if _, ok := m.Find("nope"); ok {
		t.Error("Find(nope) should not be found")
	}
}

func TestModule_Star(t *testing.T) {
	stores := newStores()
	m, _ := learning.NewModule(curriculum.ModuleDTO{ID: "m", Title: "M"}, lookupIn(nil), stores)

	_ = m.Star()
	if !m.IsStarred() {
		t.Error("IsStarred() = false after Star()")
	}
	_ = m.Unstar()
	if m.IsStarred() {
		t.Error("IsStarred() = true after Unstar()")
	}
}

func TestNewModule_RequiresDependencies(t *testing.T) {
	if _, err := learning.NewModule(curriculum.ModuleDTO{ID: "m"}, nil, newStores()); err == nil {
		t.Error("NewModule() without lookup should error")
	}
	if _, err := learning.NewModule(curriculum.ModuleDTO{ID: "m"}, lookupIn(nil), learning.Stores{}); err == nil {
		t.Error("NewModule() without stores should error")
	}
}
