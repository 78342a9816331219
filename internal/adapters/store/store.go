// Package store persists submitted lineups keyed by normalized username.
//
// Every backend treats a write as an atomic create-or-overwrite of one key.
// Concurrent writes to the same key are last-writer-wins. Backends do not
// retry; callers decide on retry policy.
package store

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/okian/dawgbowl/internal/domain/model"
)

// Store is durable keyed storage for submitted lineups.
type Store interface {
	// Write creates or overwrites the lineup under lineup.Key.
	Write(ctx context.Context, lineup model.SubmittedLineup) error
	// Get reads one lineup. Missing keys return ErrNotFound.
	Get(ctx context.Context, key string) (model.SubmittedLineup, error)
	// ListAll reads every lineup. Records that fail to decode are skipped and
	// reported in the listing rather than failing the call.
	ListAll(ctx context.Context) (Listing, error)
	// Delete removes a lineup. Missing keys return ErrNotFound.
	Delete(ctx context.Context, key string) error
}

// Listing is the result of ListAll.
type Listing struct {
	Lineups []model.SubmittedLineup
	Corrupt []CorruptRecord
}

// CorruptRecord names a stored record that could not be read back.
type CorruptRecord struct {
	Key string `json:"key"`
	Err string `json:"error"`
}

func (l *Listing) addCorrupt(key string, err error) {
	l.Corrupt = append(l.Corrupt, CorruptRecord{Key: key, Err: err.Error()})
}

// sort orders lineups by entry time then key, and corrupt records by key.
func (l *Listing) sort() {
	slices.SortFunc(l.Lineups, func(a, b model.SubmittedLineup) int {
		if c := a.EnteredAt.Compare(b.EnteredAt); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})
	slices.SortFunc(l.Corrupt, func(a, b CorruptRecord) int { return cmp.Compare(a.Key, b.Key) })
}

// checkKey rejects keys that are not already in normalized form so no backend
// ever sees path separators or other escapes.
func checkKey(key string) error {
	norm, err := model.NormalizeUsername(key)
	if err != nil || norm != key {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

func encode(l model.SubmittedLineup) ([]byte, error) {
	if err := checkKey(l.Key); err != nil {
		return nil, err
	}
	return json.MarshalIndent(l, "", "  ")
}

// decode parses a stored record strictly. The stored key must match the key
// the record was found under.
func decode(key string, data []byte) (model.SubmittedLineup, error) {
	var l model.SubmittedLineup
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&l); err != nil {
		return model.SubmittedLineup{}, fmt.Errorf("%w: %s: %w", ErrCorruptRecord, key, err)
	}
	if err := l.Validate(); err != nil {
		return model.SubmittedLineup{}, fmt.Errorf("%w: %s: %w", ErrCorruptRecord, key, err)
	}
	if l.Key != key {
		return model.SubmittedLineup{}, fmt.Errorf("%w: %s: stored under key %q", ErrCorruptRecord, key, l.Key)
	}
	return l, nil
}
