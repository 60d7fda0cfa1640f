package learning

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/p-n-ai/pai-learn/internal/curriculum"
)

// WordsPerMinute is the reading rate behind read-time estimates.
const WordsPerMinute = 150

var keyTakeawaysHeading = regexp.MustCompile(`(?i)^\s*#{1,6}[ \t]*key takeaways[^\n]*\n?`)

// Section is a titled markdown block.
type Section struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Lesson is a leaf content unit. Derived values are computed on first use
// and cached for the lifetime of the instance.
type Lesson struct {
	id          string
	title       string
	description string
	tags        []string
	sections    []Section
	questions   []Question
	stores      Stores

	quizOnce sync.Once
	quiz     *Quiz

	readOnce sync.Once
	readTime float64

	summaryOnce sync.Once
	summary     string
}

// NewLesson builds a lesson and its questions from a parsed document.
func NewLesson(dto curriculum.LessonDTO, stores Stores) (*Lesson, error) {
	if dto.ID == "" {
		return nil, fmt.Errorf("lesson id is required")
	}
	if stores.Progress == nil || stores.Stars == nil {
		return nil, fmt.Errorf("lesson %s: tracking stores are required", dto.ID)
	}

	l := &Lesson{
		id:          dto.ID,
		title:       dto.Title,
		description: dto.Description,
		tags:        append([]string{}, dto.Tags...),
		sections:    make([]Section, 0, len(dto.Sections)),
		questions:   make([]Question, 0, len(dto.Questions)),
		stores:      stores,
	}
	for _, s := range dto.Sections {
		l.sections = append(l.sections, Section{Title: s.Title, Content: s.Content})
	}
	for _, qd := range dto.Questions {
		q, err := NewQuestion(qd, dto.ID, stores.Progress)
		if err != nil {
			return nil, fmt.Errorf("lesson %s: %w", dto.ID, err)
		}
		l.questions = append(l.questions, q)
	}
	return l, nil
}

func (l *Lesson) ID() string          { return l.id }
func (l *Lesson) Title() string       { return l.title }
func (l *Lesson) Description() string { return l.description }

func (l *Lesson) Tags() []string { return append([]string(nil), l.tags...) }

// HasTag reports whether the lesson carries tag, ignoring case.
func (l *Lesson) HasTag(tag string) bool {
	for _, t := range l.tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

func (l *Lesson) Sections() []Section { return append([]Section(nil), l.sections...) }

func (l *Lesson) Questions() []Question { return append([]Question(nil), l.questions...) }

// Quiz returns the quiz over the lesson's own questions.
func (l *Lesson) Quiz() *Quiz {
	l.quizOnce.Do(func() {
		l.quiz = NewQuiz(l.id, l.questions)
	})
	return l.quiz
}

func (l *Lesson) CompletionStatus() CompletionStatus { return l.Quiz().CompletionStatus() }
func (l *Lesson) CompletionPercentage() float64      { return l.Quiz().CompletionPercentage() }
func (l *Lesson) Score() (float64, bool)             { return l.Quiz().Score() }

// EstimatedReadTimeSeconds counts whitespace-separated words across all
// sections at WordsPerMinute.
func (l *Lesson) EstimatedReadTimeSeconds() float64 {
	l.readOnce.Do(func() {
		contents := make([]string, 0, len(l.sections))
		for _, s := range l.sections {
			contents = append(contents, s.Content)
		}
		words := len(strings.Fields(strings.Join(contents, "\n")))
		l.readTime = float64(words) / WordsPerMinute * 60
	})
	return l.readTime
}

// Summary is the last section with a leading "Key takeaways" heading
// removed, under a level-2 heading of the lesson title.
func (l *Lesson) Summary() string {
	l.summaryOnce.Do(func() {
		heading := "## " + l.title
		if len(l.sections) == 0 {
			l.summary = heading
			return
		}
		last := l.sections[len(l.sections)-1].Content
		body := strings.TrimSpace(keyTakeawaysHeading.ReplaceAllString(last, ""))
		if body == "" {
			l.summary = heading
			return
		}
		l.summary = heading + "\n\n" + body
	})
	return l.summary
}

func (l *Lesson) IsStarred() bool { return l.stores.Stars.IsStarred(l.id) }
func (l *Lesson) Star() error     { return l.stores.Stars.Star(l.id) }
func (l *Lesson) Unstar() error   { return l.stores.Stars.Unstar(l.id) }

// Reset clears the recorded answers of every question in the lesson.
func (l *Lesson) Reset() error {
	return l.Quiz().Reset(l.stores.Progress)
}

func (l *Lesson) isNode() {}
