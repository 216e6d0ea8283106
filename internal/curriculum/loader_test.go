package curriculum_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/p-n-ai/pai-dojo/internal/curriculum"
)

func TestLoad_Tiers(t *testing.T) {
	dir := setupTestCatalog(t)

	catalog, err := curriculum.Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	tiers := catalog.ListTiers()
	if len(tiers) != 2 {
		t.Fatalf("ListTiers() = %d tiers, want 2", len(tiers))
	}
	if tiers[0].ID != "yellow" || tiers[1].ID != "green" {
		t.Errorf("ListTiers() order = [%s %s], want [yellow green]", tiers[0].ID, tiers[1].ID)
	}
}

func TestLoad_ParsesTopicsAndTags(t *testing.T) {
	dir := setupTestCatalog(t)

	catalog, err := curriculum.Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	topic, found := catalog.Topic("green", "הגנות")
	if !found {
		t.Fatal("Topic(green, הגנות) not found")
	}
	if len(topic.SubTopics) != 1 {
		t.Fatalf("SubTopics = %d, want 1", len(topic.SubTopics))
	}
	item := topic.SubTopics[0].Items[0]
	if item.Category != "def" || item.Subcategory != "internal" || item.Detail != "punch" {
		t.Errorf("tags = %q/%q/%q, want def/internal/punch", item.Category, item.Subcategory, item.Detail)
	}
	if item.Name != "הגנה פנימית נגד אגרוף" {
		t.Errorf("Name = %q", item.Name)
	}
	if len(topic.Exclude) != 1 {
		t.Errorf("Exclude = %v, want one entry", topic.Exclude)
	}
}

func TestLoad_SkipsInvalidDocuments(t *testing.T) {
	dir := setupTestCatalog(t)

	os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("id: [unterminated"), 0o644)
	os.WriteFile(filepath.Join(dir, "no-id.yaml"), []byte("label: x\ntopics: []\n"), 0o644)
	os.WriteFile(filepath.Join(dir, "subjects.yaml"), []byte("subjects: []\n"), 0o644)

	catalog, err := curriculum.Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := len(catalog.ListTiers()); got != 2 {
		t.Errorf("ListTiers() = %d, want 2 (invalid files should be skipped)", got)
	}
}

func TestLoad_DuplicateTier(t *testing.T) {
	dir := setupTestCatalog(t)

	os.WriteFile(filepath.Join(dir, "green-copy.yaml"), []byte("id: green\ntopics: []\n"), 0o644)

	if _, err := curriculum.Load(dir); err == nil {
		t.Fatal("Load() should fail on duplicate tier id")
	}
}

func TestLoad_EmptyDir(t *testing.T) {
	catalog, err := curriculum.Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := len(catalog.ListTiers()); got != 0 {
		t.Errorf("ListTiers() = %d, want 0 for empty dir", got)
	}
}

func setupTestCatalog(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	os.WriteFile(filepath.Join(dir, "green.yaml"), []byte(`
id: green
label: "חגורה ירוקה"
rank: 3
topics:
  - title: "נושא א"
    items:
      - "איטם אחד"
      - "איטם שתיים"
  - title: "הגנות"
    exclude:
      - "הגנה ישנה"
    items:
      - "הגנה ישנה"
    sub_topics:
      - name: "הגנות פנימיות"
        items:
          - "def:internal:punch::הגנה פנימית נגד אגרוף"
`), 0o644)

	os.WriteFile(filepath.Join(dir, "yellow.yml"), []byte(`
id: yellow
label: "חגורה צהובה"
rank: 1
topics:
  - title: "בעיטות"
    items:
      - "בעיטה קדמית"
`), 0o644)

	return dir
}
