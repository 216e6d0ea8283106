package curriculum

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads every tier YAML file under rootDir into a Catalog. Files that
// are not valid tier documents are skipped with a warning; two files
// declaring the same tier ID are an error.
func Load(rootDir string) (*Catalog, error) {
	var tiers []Tier
	seen := make(map[string]string)

	err := filepath.Walk(rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if !strings.HasSuffix(path, ".yaml") && !strings.HasSuffix(path, ".yml") {
			return nil
		}
		if strings.HasSuffix(path, ".subjects.yaml") || filepath.Base(path) == "subjects.yaml" {
			return nil // Subject views are loaded by the subject package
		}

		tier, ok, err := loadTier(path)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		key := strings.ToLower(tier.ID)
		if prev, dup := seen[key]; dup {
			return fmt.Errorf("tier %q declared in both %s and %s", tier.ID, prev, path)
		}
		seen[key] = path
		tiers = append(tiers, tier)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}

	c := NewCatalog(tiers...)
	slog.Info("catalog loaded", "tiers", len(tiers), "items", c.countItems())
	return c, nil
}

func loadTier(path string) (Tier, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Tier{}, false, err
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		slog.Warn("skipping invalid tier YAML", "path", path, "error", err)
		return Tier{}, false, nil
	}
	if err := ValidateDocument(doc); err != nil {
		slog.Warn("skipping tier YAML that fails schema", "path", path, "error", err)
		return Tier{}, false, nil
	}

	var tier Tier
	if err := yaml.Unmarshal(data, &tier); err != nil {
		slog.Warn("skipping invalid tier YAML", "path", path, "error", err)
		return Tier{}, false, nil
	}
	return tier, true, nil
}

func (c *Catalog) countItems() int {
	n := 0
	for _, t := range c.tiers {
		for _, topic := range t.Topics {
			n += len(topic.AllItems())
		}
	}
	return n
}
