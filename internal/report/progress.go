// Package report exports learner progress as an XLSX workbook.
package report

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/pai-learn/internal/learning"
)

// Sheet names of the progress workbook.
const (
	ModulesSheet = "Modules"
	LessonsSheet = "Lessons"
)

var (
	moduleHeader = []any{"ID", "Title", "Depth", "Questions", "Status", "Completion %", "Score %", "Read time (min)"}
	lessonHeader = []any{"ID", "Title", "Tags", "Questions", "Status", "Completion %", "Score %", "Starred"}
)

// Build creates the progress workbook. The module sheet lists every module
// tree depth-first; the lesson sheet lists lessons in the given order. The
// caller must Close the returned file.
func Build(modules []*learning.Module, lessons []*learning.Lesson) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := build(f, modules, lessons); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

func build(f *excelize.File, modules []*learning.Module, lessons []*learning.Lesson) error {
	if err := f.SetSheetName("Sheet1", ModulesSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(LessonsSheet); err != nil {
		return fmt.Errorf("create lessons sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	var moduleRows [][]any
	for _, m := range modules {
		moduleRows = appendModule(moduleRows, m, 0)
	}
	if err := writeSheet(f, ModulesSheet, moduleHeader, moduleRows, bold); err != nil {
		return err
	}

	lessonRows := make([][]any, 0, len(lessons))
	for _, l := range lessons {
		lessonRows = append(lessonRows, []any{
			l.ID(),
			l.Title(),
			strings.Join(l.Tags(), ", "),
			len(l.Questions()),
			l.CompletionStatus().String(),
			round1(l.CompletionPercentage()),
			scoreCell(l.Score()),
			l.IsStarred(),
		})
	}
	return writeSheet(f, LessonsSheet, lessonHeader, lessonRows, bold)
}

func appendModule(rows [][]any, m *learning.Module, depth int) [][]any {
	rows = append(rows, []any{
		m.ID(),
		strings.Repeat("  ", depth) + m.Title(),
		depth,
		len(m.Questions()),
		m.CompletionStatus().String(),
		round1(m.CompletionPercentage()),
		scoreCell(m.Score()),
		round1(m.EstimatedReadTimeSeconds() / 60),
	})
	for _, sub := range m.SubModules() {
		rows = appendModule(rows, sub, depth+1)
	}
	return rows
}

func writeSheet(f *excelize.File, sheet string, header []any, rows [][]any, headerStyle int) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+2, err)
		}
	}

	if err := f.SetColWidth(sheet, "B", "B", 36); err != nil {
		return fmt.Errorf("size %s columns: %w", sheet, err)
	}
	return nil
}

// WriteProgress builds the workbook and writes it to w.
func WriteProgress(w io.Writer, modules []*learning.Module, lessons []*learning.Lesson) error {
	f, err := Build(modules, lessons)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// scoreCell leaves the cell empty when nothing has been answered.
func scoreCell(score float64, ok bool) any {
	if !ok {
		return ""
	}
	return round1(score)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
