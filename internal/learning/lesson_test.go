package learning_test

import (
	"math"
	"testing"

	"github.com/p-n-ai/pai-learn/internal/curriculum"
	"github.com/p-n-ai/pai-learn/internal/learning"
	"github.com/p-n-ai/pai-learn/internal/tracking"
)

func TestNewLesson_FromParsedDocument(t *testing.T) {
	doc := `=== Metadata ===
{"id":"x","title":"T","description":"D"}
=== EndMetadata ===
=== Section: S === body === EndSection: S ===
=== Questions ===
[{"id":"q1","type":"multiple_choice","proficiency":"basic","question":"Q?","answers":["a","b"],"correctAnswerIndex":1,"explanation":"E"}]
=== EndQuestions ===`

	dto, err := curriculum.ParseLesson(doc)
	if err != nil {
		t.Fatalf("ParseLesson() error = %v", err)
	}
	stores := newStores()
	lesson, err := learning.NewLesson(dto, stores)
	if err != nil {
		t.Fatalf("NewLesson() error = %v", err)
	}

	q := lesson.Questions()[0]
	if q.LessonID() != "x" {
		t.Errorf("LessonID() = %q, want x", q.LessonID())
	}

	correct, err := q.SubmitAnswer("a")
	if err != nil || correct {
		t.Errorf("SubmitAnswer(a) = %v, %v, want false, nil", correct, err)
	}
	if q.AnswerState() != tracking.StateIncorrect {
		t.Errorf("AnswerState() = %q, want incorrect", q.AnswerState())
	}

	correct, _ = q.SubmitAnswer("b")
	if !correct {
		t.Error("SubmitAnswer(b) = false, want true")
	}
	if q.AnswerState() != tracking.StateCorrect {
		t.Errorf("AnswerState() = %q, want correct", q.AnswerState())
	}
	if lesson.CompletionStatus() != learning.Completed {
		t.Errorf("CompletionStatus() = %v, want completed", lesson.CompletionStatus())
	}
}

func TestLesson_EstimatedReadTime(t *testing.T) {
	lesson := mustLesson(t, newStores(), curriculum.LessonDTO{
		ID:       "l",
		Title:    "L",
		Sections: []curriculum.SectionDTO{{Title: "S", Content: "a b c d"}},
	})

	got := lesson.EstimatedReadTimeSeconds()
	if math.Abs(got-1.6) > 1e-9 {
		t.Errorf("EstimatedReadTimeSeconds() = %v, want 1.6", got)
	}
}

func TestLesson_EstimatedReadTime_AcrossSections(t *testing.T) {
	lesson := mustLesson(t, newStores(), curriculum.LessonDTO{
		ID: "l",
		Sections: []curriculum.SectionDTO{
			{Title: "A", Content: "one two\nthree"},
			{Title: "B", Content: "  four\tfive  "},
		},
	})

	if got := lesson.EstimatedReadTimeSeconds(); math.Abs(got-2.0) > 1e-9 {
		t.Errorf("EstimatedReadTimeSeconds() = %v, want 2", got)
	}
}

func TestLesson_Summary(t *testing.T) {
	tests := []struct {
		name     string
		sections []curriculum.SectionDTO
		want     string
	}{
		{
			name: "strips key takeaways heading",
			sections: []curriculum.SectionDTO{
				{Title: "Intro", Content: "ignored"},
				{Title: "Wrap", Content: "### Key Takeaways\n- one\n- two"},
			},
			want: "## Variables\n\n- one\n- two",
		},
		{
			name:     "case insensitive, level one",
			sections: []curriculum.SectionDTO{{Title: "Wrap", Content: "# KEY TAKEAWAYS\nremember"}},
			want:     "## Variables\n\nremember",
		},
		{
			name:     "no heading keeps content",
			sections: []curriculum.SectionDTO{{Title: "Wrap", Content: "plain"}},
			want:     "## Variables\n\nplain",
		},
		{
			name:     "heading later in text is kept",
			sections: []curriculum.SectionDTO{{Title: "Wrap", Content: "text\n## Key takeaways\nmore"}},
			want:     "## Variables\n\ntext\n## Key takeaways\nmore",
		},
		{
			name: "no sections",
			want: "## Variables",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lesson := mustLesson(t, newStores(), curriculum.LessonDTO{
				ID:       "l",
				Title:    "Variables",
				Sections: tt.sections,
			})
			if got := lesson.Summary(); got != tt.want {
				t.Errorf("Summary() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLesson_QuizCached(t *testing.T) {
	lesson := mustLesson(t, newStores(), curriculum.LessonDTO{
		ID:        "l",
		Questions: []curriculum.QuestionDTO{questionDTO("q1")},
	})

	if lesson.Quiz() != lesson.Quiz() {
		t.Error("Quiz() should return the same instance")
	}
	if lesson.Quiz().ID() != "l_quiz" {
		t.Errorf("Quiz().ID() = %q, want l_quiz", lesson.Quiz().ID())
	}
}

func TestLesson_StarAndReset(t *testing.T) {
	stores := newStores()
	lesson := mustLesson(t, stores, curriculum.LessonDTO{
		ID:        "l",
		Tags:      []string{"Go"},
		Questions: []curriculum.QuestionDTO{questionDTO("q1")},
	})

	if err := lesson.Star(); err != nil {
		t.Fatalf("Star() error = %v", err)
	}
	if !lesson.IsStarred() {
		t.Error("IsStarred() = false after Star()")
	}
	_ = lesson.Unstar()
	if lesson.IsStarred() {
		t.Error("IsStarred() = true after Unstar()")
	}

	_, _ = lesson.Questions()[0].SubmitAnswer("b")
	if err := lesson.Reset(); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if lesson.CompletionStatus() != learning.NotStarted {
		t.Errorf("CompletionStatus() after Reset = %v", lesson.CompletionStatus())
	}

	if !lesson.HasTag("go") {
		t.Error("HasTag(go) = false, want true")
	}
}

func TestNewLesson_Errors(t *testing.T) {
	if _, err := learning.NewLesson(curriculum.LessonDTO{}, newStores()); err == nil {
		t.Error("NewLesson() without id should error")
	}
	if _, err := learning.NewLesson(curriculum.LessonDTO{ID: "l"}, learning.Stores{}); err == nil {
		t.Error("NewLesson() without stores should error")
	}
}

func mustLesson(t *testing.T, stores learning.Stores, dto curriculum.LessonDTO) *learning.Lesson {
	t.Helper()
	l, err := learning.NewLesson(dto, stores)
	if err != nil {
		t.Fatalf("NewLesson() error = %v", err)
	}
	return l
}
