package curriculum

import "gopkg.in/yaml.v3"

// Tier is a rank level in the curriculum (a belt), holding its topics.
type Tier struct {
	ID     string  `yaml:"id" json:"id"`
	Label  string  `yaml:"label" json:"label"`
	Rank   int     `yaml:"rank" json:"rank"`
	Topics []Topic `yaml:"topics" json:"topics"`
}

// Name returns the label used in persisted keys, falling back to the ID.
func (t Tier) Name() string {
	if t.Label != "" {
		return t.Label
	}
	return t.ID
}

// Topic is a subject area within a tier. Items holds the topic's direct
// exercises; SubTopics holds ordered subdivisions with their own items.
type Topic struct {
	Title     string     `yaml:"title" json:"title"`
	Items     []Item     `yaml:"items" json:"items"`
	SubTopics []SubTopic `yaml:"sub_topics" json:"sub_topics,omitempty"`
	// Exclude lists raw items that are kept in the catalog but not counted
	// towards progress.
	Exclude []string `yaml:"exclude" json:"exclude,omitempty"`
}

// SubTopic is a named subdivision of a Topic.
type SubTopic struct {
	Name  string `yaml:"name" json:"name"`
	Items []Item `yaml:"items" json:"items"`
}

// Item is one exercise as stored in the catalog. Tag metadata embedded in
// the raw string is parsed once, when the item is created.
type Item struct {
	Raw         string `json:"raw"`
	Category    string `json:"category,omitempty"`
	Subcategory string `json:"subcategory,omitempty"`
	Detail      string `json:"detail,omitempty"`
	Name        string `json:"name"`
}

// UnmarshalYAML decodes a plain string and parses its tags.
func (it *Item) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	*it = ParseItem(raw)
	return nil
}

// AllItems returns the topic's direct items followed by every sub-topic's
// items, in catalog order. Duplicates are kept.
func (t Topic) AllItems() []Item {
	n := len(t.Items)
	for _, st := range t.SubTopics {
		n += len(st.Items)
	}
	items := make([]Item, 0, n)
	items = append(items, t.Items...)
	for _, st := range t.SubTopics {
		items = append(items, st.Items...)
	}
	return items
}
