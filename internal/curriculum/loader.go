package curriculum

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

const (
	lessonsDir  = "lessons"
	modulesDir  = "modules"
	lessonExt   = ".lesson"
	defaultJobs = 4
)

// Document is a raw content body keyed by its catalog ID.
type Document struct {
	ID   string
	Body []byte
}

// Source supplies catalogs and raw documents to the content provider.
type Source interface {
	// UpdateIfNeeded reports whether content changed since the last call.
	UpdateIfNeeded(ctx context.Context) (bool, error)
	LessonIDs(ctx context.Context) ([]string, error)
	FetchLessons(ctx context.Context, ids []string) ([]Document, error)
	ModuleIDs(ctx context.Context) ([]string, error)
	FetchModules(ctx context.Context, ids []string) ([]Document, error)
}

// Loader is a filesystem Source. Lessons live in <root>/lessons/*.lesson and
// module trees in <root>/modules/*.yaml.
type Loader struct {
	rootDir     string
	jobs        int
	fingerprint string
	seen        bool
	mu          sync.Mutex
}

// NewLoader creates a filesystem source rooted at rootDir. jobs bounds
// concurrent file reads; values below 1 use the default.
func NewLoader(rootDir string, jobs int) *Loader {
	if jobs < 1 {
		jobs = defaultJobs
	}
	return &Loader{rootDir: rootDir, jobs: jobs}
}

// UpdateIfNeeded compares the current directory fingerprint with the one
// seen on the previous call. The first call only records it.
func (l *Loader) UpdateIfNeeded(_ context.Context) (bool, error) {
	fp, err := l.computeFingerprint()
	if err != nil {
		return false, fmt.Errorf("fingerprinting content: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	changed := l.seen && l.fingerprint != fp
	l.fingerprint = fp
	l.seen = true
	if changed {
		slog.Info("content changed on disk", "root", l.rootDir)
	}
	return changed, nil
}

// LessonIDs lists lesson file names without extension, sorted.
func (l *Loader) LessonIDs(_ context.Context) ([]string, error) {
	return l.catalog(lessonsDir, lessonExt)
}

// ModuleIDs lists module file names without extension, sorted.
func (l *Loader) ModuleIDs(_ context.Context) ([]string, error) {
	return l.catalog(modulesDir, ".yaml", ".yml")
}

// FetchLessons reads lesson bodies in the order of ids.
func (l *Loader) FetchLessons(ctx context.Context, ids []string) ([]Document, error) {
	return l.fetch(ctx, ids, func(id string) ([]byte, error) {
		data, err := os.ReadFile(filepath.Join(l.rootDir, lessonsDir, id+lessonExt))
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("lesson %s: %w", id, ErrNotFound)
		}
		return data, err
	})
}

// FetchModules reads module bodies in the order of ids.
func (l *Loader) FetchModules(ctx context.Context, ids []string) ([]Document, error) {
	return l.fetch(ctx, ids, func(id string) ([]byte, error) {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(l.rootDir, modulesDir, id+ext)
			data, err := os.ReadFile(path)
			if err == nil {
				return data, nil
			}
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, &ModuleParsingError{Kind: FileNotFound, Path: path, Err: err}
			}
		}
		return nil, &ModuleParsingError{Kind: FileNotFound, Path: id, Err: ErrNotFound}
	})
}

func (l *Loader) fetch(ctx context.Context, ids []string, read func(id string) ([]byte, error)) ([]Document, error) {
	docs := make([]Document, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.jobs)
	for i, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := read(id)
			if err != nil {
				return err
			}
			docs[i] = Document{ID: id, Body: data}
			slog.Debug("content read", "id", id, "bytes", len(data))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}

func (l *Loader) catalog(sub string, exts ...string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(l.rootDir, sub))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("listing %s: %w", sub, err)
	}

	ids := []string{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		for _, ext := range exts {
			if strings.HasSuffix(name, ext) {
				ids = append(ids, strings.TrimSuffix(name, ext))
				break
			}
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (l *Loader) computeFingerprint() (string, error) {
	var parts []string
	for _, sub := range []string{lessonsDir, modulesDir} {
		entries, err := os.ReadDir(filepath.Join(l.rootDir, sub))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return "", err
		}
		for _, e := range entries {
			info, err := e.Info()
			if err != nil {
				return "", err
			}
			parts = append(parts, fmt.Sprintf("%s/%s:%d:%d", sub, e.Name(), info.Size(), info.ModTime().UnixNano()))
		}
	}
	sort.Strings(parts)
	return strings.Join(parts, "|"), nil
}
