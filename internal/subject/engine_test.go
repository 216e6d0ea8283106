package subject_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/p-n-ai/pai-dojo/internal/canon"
	"github.com/p-n-ai/pai-dojo/internal/curriculum"
	"github.com/p-n-ai/pai-dojo/internal/subject"
)

func items(raw ...string) []curriculum.Item {
	out := make([]curriculum.Item, 0, len(raw))
	for _, r := range raw {
		out = append(out, curriculum.ParseItem(r))
	}
	return out
}

func newEngine() *subject.Engine {
	catalog := curriculum.NewCatalog(
		curriculum.Tier{
			ID:   "green",
			Rank: 3,
			Topics: []curriculum.Topic{
				{
					Title: "שחרורים",
					Items: items("תפיסת יד שמאל", "חניקה מאחור", "תפיסת חולצה"),
					SubTopics: []curriculum.SubTopic{
						{Name: "שחרורים מחניקות", Items: items("חניקה מלפנים", "חניקה מהצד")},
						{Name: "שחרורים מתפיסות", Items: items("תפיסת שיער", "תפיסת יד שמאל")},
					},
				},
				{
					Title: "הגנות",
					Items: items(
						"def:internal:punch::הגנה פנימית נגד אגרוף ישר",
						"def:external:punch::הגנה חיצונית נגד אגרוף",
						"def:external:kick::הגנה נגד בעיטה",
						"def:internal:knife::הגנה נגד סכין",
					),
				},
				{
					Title: "אגרופים",
					Items: items("אגרוף ישר", "אגרוף מגל"),
				},
			},
		},
		curriculum.Tier{
			ID:   "blue",
			Rank: 5,
			Topics: []curriculum.Topic{
				{Title: "שחרורים", Items: items("תפיסת יד שמאל", "תפיסת יד כפולה")},
			},
		},
	)
	return subject.NewEngine(catalog, canon.NewResolver(catalog), subject.EngineConfig{})
}

func displays(groups []subject.TopicItems) map[string][]string {
	out := make(map[string][]string)
	for _, g := range groups {
		for _, it := range g.Items {
			out[g.Topic] = append(out[g.Topic], it.Item.Display())
		}
	}
	return out
}

func TestResolveItems_KeywordRules(t *testing.T) {
	e := newEngine()
	s := subject.Subject{
		ID:     "grabs",
		Title:  "תפיסות יד",
		Topics: map[string][]string{"green": {"שחרורים"}},
		Filter: subject.Filter{
			IncludeAny: []string{"תפיס"},
			RequireAll: []string{"יד"},
			ExcludeAny: []string{"חניק"},
		},
	}

	got := displays(e.ResolveItems("green", s))
	want := map[string][]string{"שחרורים": {"תפיסת יד שמאל"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ResolveItems() mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveItems_SubTopicHint(t *testing.T) {
	e := newEngine()
	s := subject.Subject{
		ID:           "chokes",
		Title:        "שחרורים מחניקות",
		Topics:       map[string][]string{"green": {"שחרורים"}},
		SubTopicHint: "חניקות",
	}

	got := displays(e.ResolveItems("green", s))
	want := map[string][]string{"שחרורים": {"חניקה מלפנים", "חניקה מהצד"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ResolveItems() mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveItems_DefenseRootAdded(t *testing.T) {
	e := newEngine()
	s := subject.Subject{
		ID:     "punch-defenses",
		Title:  "הגנות נגד אגרופים",
		Topics: map[string][]string{"green": {"אגרופים"}},
		Filter: subject.Filter{IncludeAny: []string{"הגנה"}, RequireAll: []string{"אגרוף"}},
	}

	if !e.IsDefense(s) {
		t.Fatal("IsDefense() = false, want true from title")
	}
	got := displays(e.ResolveItems("green", s))
	want := map[string][]string{"הגנות": {"הגנה פנימית נגד אגרוף ישר", "הגנה חיצונית נגד אגרוף"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ResolveItems() mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveItems_TagFilter(t *testing.T) {
	e := newEngine()
	s := subject.Subject{
		ID:     "internal",
		Title:  "פנימיות",
		Topics: map[string][]string{"green": {}},
		Tag:    "def:internal",
	}

	if !e.IsDefense(s) {
		t.Fatal("IsDefense() = false, want true from tag")
	}
	got := displays(e.ResolveItems("green", s))
	want := map[string][]string{"הגנות": {"הגנה פנימית נגד אגרוף ישר", "הגנה נגד סכין"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ResolveItems() mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveItems_NotDefense(t *testing.T) {
	e := newEngine()
	s := subject.Subject{ID: "punches", Title: "אגרופים", Topics: map[string][]string{"green": {"אגרופים"}}}

	got := e.ResolveItems("green", s)
	if len(got) != 1 || got[0].Topic != "אגרופים" {
		t.Errorf("ResolveItems() = %+v, want only אגרופים", got)
	}
}

func TestResolveItems_ZeroMatches(t *testing.T) {
	e := newEngine()
	s := subject.Subject{
		ID:     "future",
		Title:  "נשק קר",
		Topics: map[string][]string{"green": {"נשק"}, "black": {"נשק"}},
	}

	if got := e.ResolveItems("green", s); len(got) != 0 {
		t.Errorf("ResolveItems() = %+v, want empty", got)
	}
	if got := e.CountItems(s); got != 0 {
		t.Errorf("CountItems() = %d, want 0", got)
	}
}

func TestCountItems_AcrossTiers(t *testing.T) {
	e := newEngine()
	s := subject.Subject{
		ID:     "hand-grabs",
		Title:  "תפיסות יד",
		Topics: map[string][]string{"green": {"שחרורים"}, "BLUE": {"שחרורים"}},
		Filter: subject.Filter{RequireAll: []string{"תפיסת יד"}},
	}

	// green: "תפיסת יד שמאל" (direct and sub-topic share an ID);
	// blue: "תפיסת יד שמאל" again and "תפיסת יד כפולה".
	if got := e.CountItems(s); got != 2 {
		t.Errorf("CountItems() = %d, want 2", got)
	}
}

func TestResolvePick_AndClassify(t *testing.T) {
	e := newEngine()
	s := subject.Subject{
		ID:     "defenses",
		Title:  "הגנות",
		Topics: map[string][]string{"green": {"הגנות"}},
		Picks: []subject.Pick{
			{ID: "punches", Filter: subject.Filter{IncludeAny: []string{"אגרוף"}}},
			{ID: "kicks", Filter: subject.Filter{IncludeAny: []string{"בעיטה"}}},
			{ID: "strikes", Filter: subject.Filter{IncludeAny: []string{"אגרוף", "בעיטה"}}},
		},
	}

	got, err := e.ResolvePick("green", s, "kicks")
	if err != nil {
		t.Fatalf("ResolvePick() error = %v", err)
	}
	want := map[string][]string{"הגנות": {"הגנה נגד בעיטה"}}
	if diff := cmp.Diff(want, displays(got)); diff != "" {
		t.Errorf("ResolvePick() mismatch (-want +got):\n%s", diff)
	}

	if _, err := e.ResolvePick("green", s, "nope"); !errors.Is(err, subject.ErrUnknownPick) {
		t.Errorf("ResolvePick(nope) error = %v, want ErrUnknownPick", err)
	}

	entry := canon.Entry{ID: "x", Item: curriculum.ParseItem("def:external:punch::הגנה חיצונית נגד אגרוף")}
	pick, ok := e.ClassifyPick(s, entry)
	if !ok || pick.ID != "strikes" {
		t.Errorf("ClassifyPick() = %q, %v; want strikes (last match wins)", pick.ID, ok)
	}

	entry = canon.Entry{ID: "y", Item: curriculum.ParseItem("הגנה נגד סכין")}
	if _, ok := e.ClassifyPick(s, entry); ok {
		t.Error("ClassifyPick() should not match an item no pick covers")
	}
}

func TestFilter_Match(t *testing.T) {
	tests := []struct {
		name   string
		filter subject.Filter
		texts  []string
		want   bool
	}{
		{"empty filter matches", subject.Filter{}, []string{"anything"}, true},
		{"include any hit", subject.Filter{IncludeAny: []string{"x", "kick"}}, []string{"Front KICK"}, true},
		{"include any miss", subject.Filter{IncludeAny: []string{"punch"}}, []string{"front kick"}, false},
		{"require all across texts", subject.Filter{RequireAll: []string{"front", "kick"}}, []string{"front", "kick"}, true},
		{"require all missing one", subject.Filter{RequireAll: []string{"front", "punch"}}, []string{"front kick"}, false},
		{"exclude any", subject.Filter{ExcludeAny: []string{"KICK"}}, []string{"front kick"}, false},
		{"blank keywords ignored", subject.Filter{IncludeAny: []string{" "}}, []string{"front kick"}, true},
		{"dash variants", subject.Filter{IncludeAny: []string{"a-b"}}, []string{"A–B"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Match(tt.texts...); got != tt.want {
				t.Errorf("Match() = %v, want %v", got, tt.want)
			}
		})
	}
}
