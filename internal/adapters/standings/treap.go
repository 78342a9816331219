package standings

import (
	"context"
	"math"
	"math/rand/v2"
	"sort"
	"sync"

	"github.com/okian/dawgbowl/pkg/metrics"
)

// Treap-based, in-memory Store.
//
// Ordering: total DESC, then key ASC. "less" means ranks earlier, so an
// in-order traversal yields the standings from best to worst.

// Totals are compared in fixed point so float noise never splits a tie.
const scoreScale = 1_000_000

type scoreFP int64

func toFixedPoint(x float64) scoreFP {
	switch {
	case math.IsNaN(x):
		return 0
	case x*scoreScale >= math.MaxInt64:
		return scoreFP(math.MaxInt64)
	case x*scoreScale <= math.MinInt64:
		return scoreFP(math.MinInt64)
	}
	return scoreFP(math.Round(x * scoreScale))
}

type node struct {
	key   string
	score scoreFP
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

func less(aScore scoreFP, aKey string, bScore scoreFP, bKey string) bool {
	if aScore != bScore {
		return aScore > bScore
	}
	return aKey < bKey
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n *node, key string, score scoreFP, prio uint64) *node {
	if n == nil {
		return &node{key: key, score: score, prio: prio, size: 1}
	}
	if less(score, key, n.score, n.key) {
		n.left = insert(n.left, key, score, prio)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, key, score, prio)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, key string, score scoreFP) *node {
	if n == nil {
		return nil
	}
	switch {
	case score == n.score && key == n.key:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, key, score)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, key, score)
		}
	case less(score, key, n.score, n.key):
		n.left = deleteNode(n.left, key, score)
	default:
		n.right = deleteNode(n.right, key, score)
	}
	fix(n)
	return n
}

// collect appends up to limit entries in rank order.
func collect(n *node, limit int, byKey map[string]record, out *[]Entry) {
	if n == nil || len(*out) >= limit {
		return
	}
	collect(n.left, limit, byKey, out)
	if len(*out) < limit {
		if rec, ok := byKey[n.key]; ok {
			*out = append(*out, rec.entry)
		}
	}
	if len(*out) < limit {
		collect(n.right, limit, byKey, out)
	}
}

type record struct {
	score scoreFP
	entry Entry
}

// TreapStore implements Store.
type TreapStore struct {
	mu        sync.RWMutex
	root      *node
	byKey     map[string]record
	resultsID string
}

// NewTreapStore returns empty standings.
func NewTreapStore() *TreapStore {
	return &TreapStore{byKey: make(map[string]record)}
}

func (s *TreapStore) Reset(_ context.Context, resultsID string) {
	s.mu.Lock()
	s.root = nil
	s.byKey = make(map[string]record)
	s.resultsID = resultsID
	s.mu.Unlock()
	metrics.UpdateStandingsSize(0)
}

func (s *TreapStore) ResultsID(_ context.Context) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resultsID
}

func (s *TreapStore) Upsert(_ context.Context, e Entry) bool {
	ns := toFixedPoint(e.Total)

	s.mu.Lock()
	if e.ResultsID != s.resultsID {
		s.mu.Unlock()
		return false
	}
	if old, ok := s.byKey[e.Key]; ok {
		s.root = deleteNode(s.root, e.Key, old.score)
	}
	e.Rank = 0
	s.byKey[e.Key] = record{score: ns, entry: e}
	s.root = insert(s.root, e.Key, ns, rand.Uint64()) //nolint:gosec // treap priority, not security
	n := len(s.byKey)
	s.mu.Unlock()

	metrics.UpdateStandingsSize(n)
	return true
}

func (s *TreapStore) Remove(_ context.Context, key string) bool {
	s.mu.Lock()
	old, ok := s.byKey[key]
	if ok {
		s.root = deleteNode(s.root, key, old.score)
		delete(s.byKey, key)
	}
	n := len(s.byKey)
	s.mu.Unlock()

	if ok {
		metrics.UpdateStandingsSize(n)
	}
	return ok
}

func (s *TreapStore) Rank(_ context.Context, key string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.byKey[key]; !ok {
		return Entry{}, ErrNotFound
	}
	all := make([]Entry, 0, len(s.byKey))
	collect(s.root, len(s.byKey), s.byKey, &all)
	assignRanksWithTies(all)
	for _, e := range all {
		if e.Key == key {
			return e, nil
		}
	}
	return Entry{}, ErrNotFound
}

func (s *TreapStore) TopN(_ context.Context, n int) ([]Entry, error) {
	if n < 1 {
		return nil, ErrInvalidLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0, min(n, len(s.byKey)))
	collect(s.root, n, s.byKey, &out)
	assignRanksWithTies(out)
	return out, nil
}

func (s *TreapStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byKey)
}

// sortEntries orders entries by total desc then key asc.
func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Total != entries[j].Total {
			return entries[i].Total > entries[j].Total
		}
		return entries[i].Key < entries[j].Key
	})
}

// assignRanksWithTies gives equal totals the same rank. Ranks are
// consecutive: 1, 1, 2.
func assignRanksWithTies(entries []Entry) {
	rank := 0
	for i := range entries {
		if i == 0 || toFixedPoint(entries[i].Total) != toFixedPoint(entries[i-1].Total) {
			rank++
		}
		entries[i].Rank = rank
	}
}
