package stream

import (
	"encoding/json"
	"sort"
	"sync"
	"time"
)

// Item is one entry in the mirrored feed. Raw carries the full upstream
// payload untouched for relaying to the UI; ID and CreatedAt are lifted
// out for de-duplication and ordering.
type Item struct {
	ID        string          `json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	Raw       json.RawMessage `json:"-"`
}

// MarshalJSON relays the original upstream payload verbatim.
func (i Item) MarshalJSON() ([]byte, error) {
	if len(i.Raw) > 0 {
		return i.Raw, nil
	}
	type plain Item
	return json.Marshal(plain(i))
}

// ParseItem lifts id and created_at out of a raw feed item. Items
// without an id are rejected (they cannot be de-duplicated).
func ParseItem(raw json.RawMessage) (Item, bool) {
	var head struct {
		ID        string    `json:"id"`
		CreatedAt time.Time `json:"created_at"`
	}
	if err := json.Unmarshal(raw, &head); err != nil || head.ID == "" {
		return Item{}, false
	}
	return Item{ID: head.ID, CreatedAt: head.CreatedAt, Raw: raw}, true
}

// Store holds the client's visible item list and the high-water
// sequence number. All methods are safe for concurrent use; the list
// is only mutated by the owning client's event handlers, while readers
// (status and snapshot endpoints) may arrive from any goroutine.
type Store struct {
	mu     sync.RWMutex
	items  []Item
	maxSeq int64
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// ObserveSeq advances the high-water sequence number. It never moves
// backwards: reconnects may replay older events and those must not
// rewind the cursor.
func (s *Store) ObserveSeq(seq int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq > s.maxSeq {
		s.maxSeq = seq
	}
}

// SinceSeq returns the highest sequence number observed so far.
func (s *Store) SinceSeq() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxSeq
}

// ReplaceAll installs a full snapshot, de-duplicated by id (first
// occurrence wins) and sorted by recency.
func (s *Store) ReplaceAll(items []Item) {
	seen := make(map[string]struct{}, len(items))
	deduped := make([]Item, 0, len(items))
	for _, item := range items {
		if _, dup := seen[item.ID]; dup {
			continue
		}
		seen[item.ID] = struct{}{}
		deduped = append(deduped, item)
	}
	sortItems(deduped)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = deduped
}

// Upsert removes any existing item with the same id, prepends the new
// version, and re-sorts.
func (s *Store) Upsert(item Item) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]Item, 0, len(s.items)+1)
	next = append(next, item)
	for _, existing := range s.items {
		if existing.ID != item.ID {
			next = append(next, existing)
		}
	}
	sortItems(next)
	s.items = next
}

// Delete removes the item with the given id, if present.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.items[:0]
	for _, existing := range s.items {
		if existing.ID != id {
			next = append(next, existing)
		}
	}
	s.items = next
}

// Snapshot returns a copy of the visible item list, newest first.
func (s *Store) Snapshot() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of visible items.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// sortItems orders newest first, with a stable id tie-break for equal
// timestamps so repeated re-sorts are deterministic.
func sortItems(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID < items[j].ID
	})
}
