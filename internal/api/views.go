package api

import (
	"github.com/p-n-ai/pai-learn/internal/learning"
	"github.com/p-n-ai/pai-learn/internal/tracking"
)

type progressView struct {
	Status               learning.CompletionStatus `json:"status"`
	CompletionPercentage float64                   `json:"completionPercentage"`
	Score                *float64                  `json:"score"`
}

func progressOf(status learning.CompletionStatus, pct float64, score float64, ok bool) progressView {
	v := progressView{Status: status, CompletionPercentage: pct}
	if ok {
		v.Score = &score
	}
	return v
}

type lessonSummaryView struct {
	Kind            string   `json:"kind"`
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Tags            []string `json:"tags"`
	ReadTimeSeconds float64  `json:"readTimeSeconds"`
	Starred         bool     `json:"starred"`
	progressView
}

func lessonSummary(l *learning.Lesson) lessonSummaryView {
	score, ok := l.Score()
	return lessonSummaryView{
		Kind:            "lesson",
		ID:              l.ID(),
		Title:           l.Title(),
		Description:     l.Description(),
		Tags:            l.Tags(),
		ReadTimeSeconds: l.EstimatedReadTimeSeconds(),
		Starred:         l.IsStarred(),
		progressView:    progressOf(l.CompletionStatus(), l.CompletionPercentage(), score, ok),
	}
}

func lessonSummaries(lessons []*learning.Lesson) []lessonSummaryView {
	out := make([]lessonSummaryView, 0, len(lessons))
	for _, l := range lessons {
		out = append(out, lessonSummary(l))
	}
	return out
}

type questionView struct {
	ID          string               `json:"id"`
	Type        string               `json:"type"`
	Proficiency learning.Proficiency `json:"proficiency"`
	Prompt      string               `json:"prompt"`
	Answers     []string             `json:"answers"`
	State       tracking.AnswerState `json:"state"`
	// Explanation is withheld until the question has been answered.
	Explanation string `json:"explanation,omitempty"`
}

func questionOf(q learning.Question) questionView {
	v := questionView{
		ID:          q.ID(),
		Type:        q.Type(),
		Proficiency: q.Proficiency(),
		Prompt:      q.Prompt(),
		Answers:     q.Answers(),
		State:       q.AnswerState(),
	}
	if q.IsCompleted() {
		v.Explanation = q.Explanation()
	}
	return v
}

type lessonView struct {
	lessonSummaryView
	Sections  []learning.Section `json:"sections"`
	Questions []questionView     `json:"questions"`
}

func lessonOf(l *learning.Lesson) lessonView {
	qs := l.Questions()
	views := make([]questionView, 0, len(qs))
	for _, q := range qs {
		views = append(views, questionOf(q))
	}
	return lessonView{
		lessonSummaryView: lessonSummary(l),
		Sections:          l.Sections(),
		Questions:         views,
	}
}

type moduleView struct {
	Kind            string  `json:"kind"`
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	ReadTimeSeconds float64 `json:"readTimeSeconds"`
	QuestionCount   int     `json:"questionCount"`
	Starred         bool    `json:"starred"`
	progressView
	Children []any `json:"children"`
}

// moduleOf renders the tree under m. Children keep module order: sub-modules
// first, then lessons.
func moduleOf(m *learning.Module) moduleView {
	score, ok := m.Score()
	v := moduleView{
		Kind:            "module",
		ID:              m.ID(),
		Title:           m.Title(),
		Description:     m.Description(),
		ReadTimeSeconds: m.EstimatedReadTimeSeconds(),
		QuestionCount:   len(m.Questions()),
		Starred:         m.IsStarred(),
		progressView:    progressOf(m.CompletionStatus(), m.CompletionPercentage(), score, ok),
		Children:        []any{},
	}
	for _, child := range m.Children() {
		switch n := child.(type) {
		case *learning.Module:
			v.Children = append(v.Children, moduleOf(n))
		case *learning.Lesson:
			v.Children = append(v.Children, lessonSummary(n))
		}
	}
	return v
}

type answerRequest struct {
	Answer string `json:"answer"`
}

type answerResponse struct {
	QuestionID  string               `json:"questionId"`
	Correct     bool                 `json:"correct"`
	State       tracking.AnswerState `json:"state"`
	Explanation string               `json:"explanation"`
}

type attemptView struct {
	Answer    string `json:"answer"`
	Correct   bool   `json:"correct"`
	CreatedAt string `json:"createdAt"`
}

type reloadResponse struct {
	State   string     `json:"state"`
	Lessons int        `json:"lessons"`
	Modules int        `json:"modules"`
	Skipped []skipView `json:"skipped"`
	Error   string     `json:"error,omitempty"`
}

type skipView struct {
	Kind  string `json:"kind"`
	ID    string `json:"id"`
	Error string `json:"error"`
}
