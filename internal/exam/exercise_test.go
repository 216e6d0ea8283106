package exam_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/p-n-ai/pai-dojo/internal/canon"
	"github.com/p-n-ai/pai-dojo/internal/curriculum"
	"github.com/p-n-ai/pai-dojo/internal/exam"
)

func testCatalog() *curriculum.Catalog {
	return curriculum.NewCatalog(curriculum.Tier{
		ID:    "green",
		Label: "ירוקה",
		Rank:  1,
		Topics: []curriculum.Topic{
			{
				Title: "בעיטות",
				Items: []curriculum.Item{
					curriculum.ParseItem("בעיטה קדמית"),
					curriculum.ParseItem("בעיטות::בעיטה קדמית"),
				},
				SubTopics: []curriculum.SubTopic{{
					Name:  "מסתובבות",
					Items: []curriculum.Item{curriculum.ParseItem("בעיטה סיבובית")},
				}},
			},
			{
				Title: "אגרופים",
				Items: []curriculum.Item{curriculum.ParseItem("אגרוף ישר")},
			},
		},
	})
}

func TestBuildExercises(t *testing.T) {
	catalog := testCatalog()
	got := exam.BuildExercises(catalog, canon.NewResolver(catalog), "green")

	type row struct{ Topic, SubTopic, Name string }
	var rows []row
	for _, e := range got {
		rows = append(rows, row{e.Topic, e.SubTopic, e.Name})
	}
	want := []row{
		{"בעיטות", "", "בעיטה קדמית"},
		{"בעיטות", "מסתובבות", "בעיטה סיבובית"},
		{"אגרופים", "", "אגרוף ישר"},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("BuildExercises() mismatch (-want +got):\n%s", diff)
	}

	if got[1].Label() != "בעיטות / מסתובבות" {
		t.Errorf("Label() = %q", got[1].Label())
	}
}

func TestBuildExercises_UnknownTier(t *testing.T) {
	catalog := testCatalog()
	if got := exam.BuildExercises(catalog, canon.NewResolver(catalog), "black"); len(got) != 0 {
		t.Errorf("BuildExercises(unknown) = %v, want empty", got)
	}
}

func TestExerciseID(t *testing.T) {
	a := exam.ExerciseID("green", "בעיטות", "", "בעיטה קדמית")
	if len(a) != 32 {
		t.Errorf("ExerciseID length = %d, want 32", len(a))
	}
	if b := exam.ExerciseID("GREEN", " בעיטות ", "", "בעיטה  קדמית"); a != b {
		t.Errorf("ExerciseID not stable under cosmetic changes: %s != %s", a, b)
	}
	if c := exam.ExerciseID("green", "בעיטות", "מסתובבות", "בעיטה קדמית"); a == c {
		t.Error("ExerciseID should differ by sub-topic")
	}
	if d := exam.ExerciseID("yellow", "בעיטות", "", "בעיטה קדמית"); a == d {
		t.Error("ExerciseID should differ by tier")
	}
}
