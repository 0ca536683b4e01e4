package hands

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"

	"github.com/pokerlens/pokerlens/internal/types"
)

// Store is an in-memory hand collection ordered by play time. Re-imports of
// the same file are deduplicated by a content fingerprint, not by ID, since
// tracker exports regenerate IDs on every export.
type Store struct {
	mu    sync.RWMutex
	hands []*types.Hand
	seen  map[string]struct{}
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		seen: make(map[string]struct{}),
	}
}

// Add inserts a hand, returning false if an identical hand is already stored.
func (s *Store) Add(h *types.Hand) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(h)
}

// AddBatch inserts hands, returning how many were new.
func (s *Store) AddBatch(hs []*types.Hand) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, h := range hs {
		if s.addLocked(h) {
			added++
		}
	}
	return added
}

func (s *Store) addLocked(h *types.Hand) bool {
	fp := fingerprint(h)
	if _, dup := s.seen[fp]; dup {
		return false
	}
	s.seen[fp] = struct{}{}

	// Keep chronological order; imports are usually already sorted, so this
	// is a cheap append in the common case.
	i := sort.Search(len(s.hands), func(i int) bool {
		return s.hands[i].PlayedAt.After(h.PlayedAt)
	})
	s.hands = append(s.hands, nil)
	copy(s.hands[i+1:], s.hands[i:])
	s.hands[i] = h

	return true
}

// List returns hands matching the filter in chronological order.
func (s *Store) List(f types.Filter) []*types.Hand {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*types.Hand
	for _, h := range s.hands {
		if f.Matches(h) {
			out = append(out, h)
		}
	}
	return out
}

// Page returns a slice of the filtered hands plus the total match count.
func (s *Store) Page(f types.Filter, offset, limit int) ([]*types.Hand, int) {
	matched := s.List(f)
	total := len(matched)

	if offset >= total {
		return nil, total
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}
	return matched[offset:end], total
}

// Count returns the total number of stored hands.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.hands)
}

// Clear removes all hands.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hands = nil
	s.seen = make(map[string]struct{})
}

// fingerprint hashes the fields that identify a hand across re-exports.
func fingerprint(h *types.Hand) string {
	payload := fmt.Sprintf("%d|%v|%s|%v|%.2f",
		h.PlayedAt.UnixNano(), h.Stake, h.Position, h.HoleCards, h.NetWinnings)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}
