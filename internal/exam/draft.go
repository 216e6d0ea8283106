package exam

import (
	"fmt"
	"strings"
	"sync"

	"github.com/p-n-ai/pai-dojo/internal/textnorm"
)

// DraftStore persists in-progress marks keyed by trainee and tier.
type DraftStore interface {
	// Get returns the saved marks and whether a draft exists.
	Get(key string) (map[string]Mark, bool, error)
	// Put replaces the draft with marks.
	Put(key string, marks map[string]Mark) error
	Delete(key string) error
}

// DraftKey builds the draft key "{trainee}_{tier}" from a trimmed,
// whitespace-collapsed trainee name and the tier name.
func DraftKey(trainee, tierName string) string {
	return textnorm.CollapseSpace(trainee) + "_" + strings.TrimSpace(tierName)
}

// MemoryDraftStore is an in-memory DraftStore.
type MemoryDraftStore struct {
	mu     sync.RWMutex
	drafts map[string]map[string]Mark
}

func NewMemoryDraftStore() *MemoryDraftStore {
	return &MemoryDraftStore{drafts: make(map[string]map[string]Mark)}
}

func (s *MemoryDraftStore) Get(key string) (map[string]Mark, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	draft, ok := s.drafts[key]
	if !ok {
		return nil, false, nil
	}
	return copyMarks(draft), true, nil
}

func (s *MemoryDraftStore) Put(key string, marks map[string]Mark) error {
	if key == "" {
		return fmt.Errorf("draft key is required")
	}
	s.mu.Lock()
	s.drafts[key] = copyMarks(marks)
	s.mu.Unlock()
	return nil
}

func (s *MemoryDraftStore) Delete(key string) error {
	s.mu.Lock()
	delete(s.drafts, key)
	s.mu.Unlock()
	return nil
}

func copyMarks(in map[string]Mark) map[string]Mark {
	out := make(map[string]Mark, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
