package report_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/pai-dojo/internal/exam"
	"github.com/p-n-ai/pai-dojo/internal/mastery"
	"github.com/p-n-ai/pai-dojo/internal/progress"
	"github.com/p-n-ai/pai-dojo/internal/report"
)

func open(t *testing.T, buf *bytes.Buffer) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestWriteProgress(t *testing.T) {
	tp := progress.TierProgress{
		TierID: "green",
		Label:  "ירוקה",
		Result: progress.NewResult(1, 3),
		Topics: []progress.TopicProgress{
			{
				Topic:  "בעיטות",
				Result: progress.NewResult(1, 2),
				Items: []progress.ItemStatus{
					{ID: "a", Display: "בעיטה קדמית", Status: mastery.Yes},
					{ID: "b", Display: "בעיטה צידית", Status: mastery.No},
				},
			},
			{
				Topic:  "אגרופים",
				Result: progress.NewResult(0, 1),
				Items:  []progress.ItemStatus{{ID: "c", Display: "אגרוף ישר", Status: mastery.No}},
			},
		},
	}

	var buf bytes.Buffer
	if err := report.WriteProgress(&buf, tp); err != nil {
		t.Fatalf("WriteProgress() error = %v", err)
	}
	f := open(t, &buf)

	summary, err := f.GetRows(report.SheetSummary)
	if err != nil {
		t.Fatalf("GetRows(summary) error = %v", err)
	}
	want := [][]string{
		{"Topic", "Done", "Total", "Percent"},
		{"בעיטות", "1", "2", "50"},
		{"אגרופים", "0", "1", "0"},
		{"ירוקה", "1", "3", "33"},
	}
	if diff := cmp.Diff(want, summary); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}

	items, err := f.GetRows(report.SheetItems)
	if err != nil {
		t.Fatalf("GetRows(items) error = %v", err)
	}
	if len(items) != 4 {
		t.Fatalf("items rows = %d, want 4", len(items))
	}
	if got := items[1][3]; got != "yes" {
		t.Errorf("first item status = %q, want yes", got)
	}
}

func TestWriteProgress_RightToLeft(t *testing.T) {
	hebrewTopic := []progress.TopicProgress{{Topic: "בעיטות", Result: progress.NewResult(0, 0)}}
	hebrewItem := []progress.TopicProgress{{
		Topic:  "Kicks",
		Result: progress.NewResult(0, 1),
		Items:  []progress.ItemStatus{{ID: "a", Display: "בעיטה קדמית", Status: mastery.No}},
	}}
	latin := []progress.TopicProgress{{
		Topic:  "Kicks",
		Result: progress.NewResult(0, 1),
		Items:  []progress.ItemStatus{{ID: "a", Display: "Front kick", Status: mastery.No}},
	}}

	tests := []struct {
		name   string
		topics []progress.TopicProgress
		want   bool
	}{
		{"hebrew topic title", hebrewTopic, true},
		{"hebrew item display", hebrewItem, true},
		{"latin only", latin, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tp := progress.TierProgress{TierID: "green", Label: "Green", Topics: tt.topics}

			var buf bytes.Buffer
			if err := report.WriteProgress(&buf, tp); err != nil {
				t.Fatalf("WriteProgress() error = %v", err)
			}
			f := open(t, &buf)

			for _, sheet := range []string{report.SheetSummary, report.SheetItems} {
				view, err := f.GetSheetView(sheet, 0)
				if err != nil {
					t.Fatalf("GetSheetView(%s) error = %v", sheet, err)
				}
				got := view.RightToLeft != nil && *view.RightToLeft
				if got != tt.want {
					t.Errorf("%s right-to-left = %v, want %v", sheet, got, tt.want)
				}
			}
		})
	}
}

func TestWriteExam(t *testing.T) {
	exercises := []exam.Exercise{
		{ID: "a", Topic: "בעיטות", Name: "בעיטה קדמית"},
		{ID: "b", Topic: "בעיטות", Name: "בעיטה צידית"},
		{ID: "c", Topic: "אגרופים", Name: "אגרוף ישר"},
	}
	s := exam.NewSession("דנה", "green", "ירוקה", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), exercises)
	s.Mark("a", exam.Pass)
	s.Mark("b", exam.Partial)
	s.Mark("c", exam.Fail)

	var buf bytes.Buffer
	exporter := report.ExamExporter{W: &buf}
	if err := exporter.ExportExam(s, s.Score(exam.DefaultWeights())); err != nil {
		t.Fatalf("ExportExam() error = %v", err)
	}
	f := open(t, &buf)

	cells := map[string]string{
		"B1": "דנה",
		"B2": "ירוקה",
		"B3": "2026-03-01",
		"C6": "בעיטה קדמית",
		"D7": "partial",
		"C9": "1.5 / 3",
		"D9": "50%",
	}
	for cell, want := range cells {
		got, err := f.GetCellValue(report.SheetExam, cell)
		if err != nil {
			t.Fatalf("GetCellValue(%s) error = %v", cell, err)
		}
		if got != want {
			t.Errorf("%s = %q, want %q", cell, got, want)
		}
	}
}
