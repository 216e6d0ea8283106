package mastery

import (
	"sort"
	"strings"
	"sync"
)

// StatusStore persists explicit tri-state statuses keyed by
// (tierID, topicKey, itemKey).
type StatusStore interface {
	GetStatus(tierID, topicKey, itemKey string) (Status, bool, error)
	SetStatus(tierID, topicKey, itemKey string, status Status) error
	ClearTopic(tierID, topicKey string) error
}

// SetStore persists string sets keyed by SetKey(tierID, topicKey).
type SetStore interface {
	Members(key string) ([]string, error)
	Add(key string, members ...string) error
	Remove(key string, members ...string) error
	Clear(key string) error
}

// SetKey builds the legacy "{tierId}_{topicSuffix}" key.
func SetKey(tierID, topicKey string) string {
	return tierID + "_" + topicKey
}

// MemoryStatusStore is an in-memory implementation of StatusStore.
type MemoryStatusStore struct {
	statuses map[string]map[string]Status
	mu       sync.RWMutex
}

// NewMemoryStatusStore creates a new in-memory status store.
func NewMemoryStatusStore() *MemoryStatusStore {
	return &MemoryStatusStore{
		statuses: make(map[string]map[string]Status),
	}
}

func (s *MemoryStatusStore) GetStatus(tierID, topicKey, itemKey string) (Status, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.statuses[SetKey(tierID, topicKey)][itemKey]
	return st, ok, nil
}

func (s *MemoryStatusStore) SetStatus(tierID, topicKey, itemKey string, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := SetKey(tierID, topicKey)
	if s.statuses[key] == nil {
		s.statuses[key] = make(map[string]Status)
	}
	s.statuses[key][itemKey] = status
	return nil
}

func (s *MemoryStatusStore) ClearTopic(tierID, topicKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.statuses, SetKey(tierID, topicKey))
	return nil
}

// MemorySetStore is an in-memory implementation of SetStore.
type MemorySetStore struct {
	sets map[string]map[string]struct{}
	mu   sync.RWMutex
}

// NewMemorySetStore creates a new in-memory set store.
func NewMemorySetStore() *MemorySetStore {
	return &MemorySetStore{
		sets: make(map[string]map[string]struct{}),
	}
}

func (s *MemorySetStore) Members(key string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	members := make([]string, 0, len(s.sets[key]))
	for m := range s.sets[key] {
		members = append(members, m)
	}
	sort.Strings(members)
	return members, nil
}

func (s *MemorySetStore) Add(key string, members ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sets[key] == nil {
		s.sets[key] = make(map[string]struct{})
	}
	for _, m := range members {
		if strings.TrimSpace(m) == "" {
			continue
		}
		s.sets[key][m] = struct{}{}
	}
	return nil
}

func (s *MemorySetStore) Remove(key string, members ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range members {
		delete(s.sets[key], m)
	}
	return nil
}

func (s *MemorySetStore) Clear(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sets, key)
	return nil
}
