// Package content loads lessons and module trees from a curriculum source and
// serves them as the single source of truth for lookups.
package content

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/p-n-ai/pai-learn/internal/curriculum"
	"github.com/p-n-ai/pai-learn/internal/learning"
	"github.com/p-n-ai/pai-learn/internal/platform/metrics"
	"github.com/p-n-ai/pai-learn/internal/tracking"
)

// State is the lifecycle of a Provider.
type State int

const (
	Uninitialized State = iota
	Loading
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Config holds dependencies for the provider.
type Config struct {
	Source  curriculum.Source
	Stores  learning.Stores
	History tracking.History
	// Strict aborts Initialize on the first document that fails to parse.
	// Otherwise such documents are skipped and listed by Failures.
	Strict bool
}

// Provider owns the lesson registry and the top-level module list.
type Provider struct {
	source  curriculum.Source
	stores  learning.Stores
	history tracking.History
	strict  bool

	mu          sync.RWMutex
	state       State
	lastErr     error
	lessons     map[string]*learning.Lesson
	lessonOrder []string
	questions   map[string]learning.Question
	modules     []*learning.Module
	failures    []*ItemError
}

// NewProvider creates an uninitialized provider.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.Source == nil {
		return nil, fmt.Errorf("content source is nil")
	}
	if cfg.Stores.Progress == nil || cfg.Stores.Stars == nil {
		return nil, fmt.Errorf("tracking stores are required")
	}
	history := cfg.History
	if history == nil {
		history = tracking.NopHistory{}
	}
	return &Provider{
		source:    cfg.Source,
		stores:    cfg.Stores,
		history:   history,
		strict:    cfg.Strict,
		lessons:   make(map[string]*learning.Lesson),
		questions: make(map[string]learning.Question),
		modules:   []*learning.Module{},
	}, nil
}

// Initialize loads all lessons, then all modules. On failure the error is
// returned and state loaded by earlier steps is kept. Callers must not run
// two Initialize calls concurrently.
func (p *Provider) Initialize(ctx context.Context) error {
	start := time.Now()
	p.mu.Lock()
	p.state = Loading
	p.lastErr = nil
	p.failures = nil
	p.mu.Unlock()

	changed, err := p.source.UpdateIfNeeded(ctx)
	if err != nil {
		return p.fail(&LoadError{Op: "update", Err: err})
	}
	if changed {
		p.mu.Lock()
		p.lessons = make(map[string]*learning.Lesson)
		p.lessonOrder = nil
		p.questions = make(map[string]learning.Question)
		p.modules = []*learning.Module{}
		p.mu.Unlock()
		slog.Info("content updated, registry cleared")
	}

	if err := p.loadLessons(ctx); err != nil {
		return p.fail(err)
	}
	if err := p.loadModules(ctx); err != nil {
		return p.fail(err)
	}

	p.mu.Lock()
	p.state = Ready
	lessonCount, moduleCount, skipped := len(p.lessons), len(p.modules), len(p.failures)
	p.mu.Unlock()

	metrics.ContentLoads.WithLabelValues("success").Inc()
	metrics.ContentLoadDuration.Observe(time.Since(start).Seconds())
	slog.Info("content loaded",
		"lessons", lessonCount,
		"modules", moduleCount,
		"skipped", skipped,
		"duration", time.Since(start),
	)
	return nil
}

func (p *Provider) loadLessons(ctx context.Context) error {
	ids, err := p.source.LessonIDs(ctx)
	if err != nil {
		return &LoadError{Op: "lesson catalog", Err: err}
	}
	docs, err := p.source.FetchLessons(ctx, ids)
	if err != nil {
		return &LoadError{Op: "fetch lessons", Err: err}
	}

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}

		lesson, err := p.buildLesson(doc)
		if err != nil {
			if skipErr := p.skip(&ItemError{Kind: "lesson", ID: doc.ID, Err: err}); skipErr != nil {
				return skipErr
			}
			continue
		}
		p.register(lesson)
	}
	return nil
}

func (p *Provider) buildLesson(doc curriculum.Document) (*learning.Lesson, error) {
	dto, err := curriculum.ParseLesson(string(doc.Body))
	if err != nil {
		return nil, err
	}
	slog.Debug("lesson parsed", "id", dto.ID, "sections", len(dto.Sections), "questions", len(dto.Questions))
	return learning.NewLesson(dto, p.stores)
}

// register adds lesson to the registry. A duplicate ID replaces the earlier
// lesson.
func (p *Provider) register(lesson *learning.Lesson) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if old, ok := p.lessons[lesson.ID()]; ok {
		slog.Warn("duplicate lesson id, replacing", "lesson_id", lesson.ID())
		for _, q := range old.Questions() {
			delete(p.questions, q.ID())
		}
	} else {
		p.lessonOrder = append(p.lessonOrder, lesson.ID())
	}
	p.lessons[lesson.ID()] = lesson
	for _, q := range lesson.Questions() {
		p.questions[q.ID()] = q
	}
}

func (p *Provider) loadModules(ctx context.Context) error {
	ids, err := p.source.ModuleIDs(ctx)
	if err != nil {
		return &LoadError{Op: "module catalog", Err: err}
	}
	docs, err := p.source.FetchModules(ctx, ids)
	if err != nil {
		return &LoadError{Op: "fetch modules", Err: err}
	}

	modules := make([]*learning.Module, 0, len(docs))
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}

		dto, err := curriculum.ParseModule(doc.Body)
		if err == nil {
			var m *learning.Module
			m, err = learning.NewModule(dto, p.GetLesson, p.stores)
			if err == nil {
				modules = append(modules, m)
				continue
			}
		}
		if skipErr := p.skip(&ItemError{Kind: "module", ID: doc.ID, Err: err}); skipErr != nil {
			return skipErr
		}
	}

	p.mu.Lock()
	p.modules = modules
	p.mu.Unlock()
	return nil
}

// skip records a failed document. In strict mode it returns the error to
// abort the load instead.
func (p *Provider) skip(itemErr *ItemError) error {
	if p.strict {
		return itemErr
	}
	slog.Warn("skipping invalid content", "kind", itemErr.Kind, "id", itemErr.ID, "error", itemErr.Err)
	metrics.ContentSkipped.WithLabelValues(itemErr.Kind).Inc()

	p.mu.Lock()
	p.failures = append(p.failures, itemErr)
	p.mu.Unlock()
	return nil
}

func (p *Provider) fail(err error) error {
	p.mu.Lock()
	p.state = Failed
	p.lastErr = err
	p.mu.Unlock()

	metrics.ContentLoads.WithLabelValues("failure").Inc()
	slog.Error("content initialization failed", "error", err)
	return err
}

// State returns the current lifecycle state.
func (p *Provider) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// LastError returns the error of the last failed Initialize, if any.
func (p *Provider) LastError() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastErr
}

// Failures lists documents skipped by the last lenient Initialize.
func (p *Provider) Failures() []*ItemError {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.failures)
}

// GetLesson returns a lesson by ID.
func (p *Provider) GetLesson(id string) (*learning.Lesson, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	l, ok := p.lessons[id]
	return l, ok
}

// GetQuestion returns a question of any registered lesson by ID.
func (p *Provider) GetQuestion(id string) (learning.Question, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	q, ok := p.questions[id]
	return q, ok
}

// Lessons returns all registered lessons in catalog order.
func (p *Provider) Lessons() []*learning.Lesson {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*learning.Lesson, 0, len(p.lessonOrder))
	for _, id := range p.lessonOrder {
		out = append(out, p.lessons[id])
	}
	return out
}

// LessonsByTag returns lessons carrying tag, in catalog order.
func (p *Provider) LessonsByTag(tag string) []*learning.Lesson {
	var out []*learning.Lesson
	for _, l := range p.Lessons() {
		if l.HasTag(tag) {
			out = append(out, l)
		}
	}
	return out
}

// StarredLessons returns the starred lessons in catalog order.
func (p *Provider) StarredLessons() []*learning.Lesson {
	var out []*learning.Lesson
	for _, l := range p.Lessons() {
		if l.IsStarred() {
			out = append(out, l)
		}
	}
	return out
}

// TopLevelModules returns the module roots. Empty before the first
// successful Initialize.
func (p *Provider) TopLevelModules() []*learning.Module {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.modules)
}

// ActiveTopModule returns the first top-level module. It panics when there
// is none; check TopLevelModules first.
func (p *Provider) ActiveTopModule() *learning.Module {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if len(p.modules) == 0 {
		panic("content: ActiveTopModule called with no modules loaded")
	}
	return p.modules[0]
}

// FindModule searches every module tree for id.
func (p *Provider) FindModule(id string) (*learning.Module, bool) {
	for _, m := range p.TopLevelModules() {
		if found, ok := m.Find(id); ok {
			return found, true
		}
	}
	return nil, false
}

// SubmitAnswer records answer for the question, appends it to the attempt
// history and returns the question with the answer's correctness.
func (p *Provider) SubmitAnswer(questionID, answer string) (learning.Question, bool, error) {
	q, ok := p.GetQuestion(questionID)
	if !ok {
		return nil, false, fmt.Errorf("%w: %s", ErrQuestionNotFound, questionID)
	}

	correct, err := q.SubmitAnswer(answer)
	if err != nil {
		return q, correct, err
	}

	result := "incorrect"
	if correct {
		result = "correct"
	}
	metrics.AnswersSubmitted.WithLabelValues(result).Inc()

	if err := p.history.Record(tracking.Attempt{
		QuestionID: questionID,
		Answer:     answer,
		Correct:    correct,
	}); err != nil {
		slog.Warn("failed to record attempt", "question_id", questionID, "error", err)
	}
	return q, correct, nil
}

// Attempts returns the recorded attempts for a question.
func (p *Provider) Attempts(questionID string) ([]tracking.Attempt, error) {
	return p.history.Attempts(questionID)
}
