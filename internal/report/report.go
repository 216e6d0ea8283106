// Package report renders tier progress and exam results as XLSX workbooks.
package report

import (
	"fmt"
	"io"
	"unicode"

	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/pai-dojo/internal/exam"
	"github.com/p-n-ai/pai-dojo/internal/progress"
)

const (
	SheetSummary = "Summary"
	SheetItems   = "Items"
	SheetExam    = "Exam"
)

const dateLayout = "2006-01-02"

// WriteProgress writes a workbook with a per-topic summary sheet and a
// per-item status sheet.
func WriteProgress(w io.Writer, tp progress.TierProgress) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetItems); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	b, err := newBook(f)
	if err != nil {
		return err
	}

	// Every text written to the sheets decides the reading direction.
	texts := []string{tp.Label}
	rows := [][]any{{"Topic", "Done", "Total", "Percent"}}
	for _, t := range tp.Topics {
		rows = append(rows, []any{t.Topic, t.Done, t.Total, t.Percent})
		texts = append(texts, t.Topic)
	}
	rows = append(rows, []any{tp.Label, tp.Done, tp.Total, tp.Percent})
	if err := b.table(SheetSummary, rows, true); err != nil {
		return err
	}

	items := [][]any{{"Topic", "Sub-topic", "Item", "Status"}}
	for _, t := range tp.Topics {
		for _, it := range t.Items {
			items = append(items, []any{t.Topic, it.SubTopic, it.Display, it.Status.String()})
			texts = append(texts, it.SubTopic, it.Display)
		}
	}
	if err := b.table(SheetItems, items, false); err != nil {
		return err
	}

	if hasHebrew(texts...) {
		if err := b.rightToLeft(SheetSummary, SheetItems); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// WriteExam writes a single-sheet workbook with the session header, one row
// per exercise and the score.
func WriteExam(w io.Writer, s *exam.Session, score exam.Score) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetExam); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	b, err := newBook(f)
	if err != nil {
		return err
	}

	header := [][]any{
		{"Trainee", s.Trainee},
		{"Tier", s.TierName},
		{"Date", s.Date.Format(dateLayout)},
	}
	for i, row := range header {
		if err := b.row(SheetExam, i+1, row); err != nil {
			return err
		}
	}

	start := len(header) + 2
	rows := [][]any{{"#", "Topic", "Exercise", "Mark"}}
	for i, e := range s.Exercises {
		rows = append(rows, []any{i + 1, e.Label(), e.Name, string(s.Marks[e.ID])})
	}
	rows = append(rows, []any{"", "Score", fmt.Sprintf("%g / %g", score.Total, score.Max), fmt.Sprintf("%d%%", score.Percent)})
	if err := b.tableAt(SheetExam, start, rows, true); err != nil {
		return err
	}

	if hasHebrew(s.Trainee, s.TierName) {
		if err := b.rightToLeft(SheetExam); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// ExamExporter writes exported sessions to W.
type ExamExporter struct {
	W io.Writer
}

func (e ExamExporter) ExportExam(s *exam.Session, score exam.Score) error {
	return WriteExam(e.W, s, score)
}

type book struct {
	f    *excelize.File
	bold int
}

func newBook(f *excelize.File) (*book, error) {
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}
	return &book{f: f, bold: bold}, nil
}

// table writes rows from A1 with a bold header. With boldLast the final
// row is bold too.
func (b *book) table(sheet string, rows [][]any, boldLast bool) error {
	return b.tableAt(sheet, 1, rows, boldLast)
}

func (b *book) tableAt(sheet string, start int, rows [][]any, boldLast bool) error {
	for i, row := range rows {
		if err := b.row(sheet, start+i, row); err != nil {
			return err
		}
	}
	if len(rows) == 0 {
		return nil
	}

	if err := b.boldRow(sheet, start, len(rows[0])); err != nil {
		return err
	}
	if boldLast && len(rows) > 1 {
		last := len(rows) - 1
		if err := b.boldRow(sheet, start+last, len(rows[last])); err != nil {
			return err
		}
	}

	if err := b.f.SetColWidth(sheet, "A", "D", 18); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	return nil
}

func (b *book) row(sheet string, n int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	if err := b.f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write row %d: %w", n, err)
	}
	return nil
}

func (b *book) boldRow(sheet string, n, cols int) error {
	first, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(cols, n)
	if err != nil {
		return err
	}
	return b.f.SetCellStyle(sheet, first, last, b.bold)
}

func (b *book) rightToLeft(sheets ...string) error {
	rtl := true
	for _, sheet := range sheets {
		if err := b.f.SetSheetView(sheet, 0, &excelize.ViewOptions{RightToLeft: &rtl}); err != nil {
			return fmt.Errorf("set sheet view: %w", err)
		}
	}
	return nil
}

// hasHebrew reports whether any of texts contains Hebrew letters.
func hasHebrew(texts ...string) bool {
	for _, s := range texts {
		for _, r := range s {
			if unicode.Is(unicode.Hebrew, r) {
				return true
			}
		}
	}
	return false
}
