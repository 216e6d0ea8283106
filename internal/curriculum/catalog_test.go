package curriculum_test

import (
	"testing"

	"github.com/p-n-ai/pai-dojo/internal/curriculum"
)

func testCatalog() *curriculum.Catalog {
	return curriculum.NewCatalog(
		curriculum.Tier{
			ID: "green", Label: "חגורה ירוקה", Rank: 3,
			Topics: []curriculum.Topic{{
				Title: "בעיטות",
				Items: []curriculum.Item{curriculum.ParseItem("בעיטה קדמית")},
				SubTopics: []curriculum.SubTopic{{
					Name:  "בעיטות סיבוביות",
					Items: []curriculum.Item{curriculum.ParseItem("בעיטה מסובבת")},
				}},
			}},
		},
		curriculum.Tier{ID: "yellow", Label: "חגורה צהובה", Rank: 1},
	)
}

func TestCatalog_Tier(t *testing.T) {
	c := testCatalog()

	for _, key := range []string{"green", "GREEN", " green ", "חגורה ירוקה"} {
		if _, ok := c.Tier(key); !ok {
			t.Errorf("Tier(%q) not found", key)
		}
	}
	if _, ok := c.Tier("black"); ok {
		t.Error("Tier(black) should not be found")
	}
}

func TestCatalog_ListItems(t *testing.T) {
	c := testCatalog()

	direct := c.ListItems("green", "  בעיטות ", "")
	if len(direct) != 1 || direct[0].Raw != "בעיטה קדמית" {
		t.Errorf("ListItems(direct) = %v", direct)
	}

	sub := c.ListItems("green", "בעיטות", "בעיטות  סיבוביות")
	if len(sub) != 1 || sub[0].Raw != "בעיטה מסובבת" {
		t.Errorf("ListItems(sub) = %v", sub)
	}

	if got := c.ListItems("green", "אין כזה", ""); got != nil {
		t.Errorf("ListItems(unknown topic) = %v, want nil", got)
	}
	if got := c.ListSubTopics("black", "בעיטות"); got != nil {
		t.Errorf("ListSubTopics(unknown tier) = %v, want nil", got)
	}
}
