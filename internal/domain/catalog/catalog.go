// Package catalog holds the read-only pool of draftable contestants.
package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/okian/dawgbowl/internal/domain/model"
)

// Provider lists contestants. The list is fixed for the life of the process.
type Provider interface {
	List() []model.Contestant
	Get(id model.ContestantID) (model.Contestant, error)
}

// Catalog is an ordered, indexed contestant pool.
type Catalog struct {
	contestants []model.Contestant
	byID        map[model.ContestantID]int
}

// New validates contestants and builds a catalog preserving their order.
func New(contestants []model.Contestant) (*Catalog, error) {
	if len(contestants) < model.RosterSize {
		return nil, fmt.Errorf("%w: %d contestants, need at least %d", ErrInvalidCatalog, len(contestants), model.RosterSize)
	}
	c := &Catalog{
		contestants: slices.Clone(contestants),
		byID:        make(map[model.ContestantID]int, len(contestants)),
	}
	for i, ct := range c.contestants {
		switch {
		case ct.ID <= 0:
			return nil, fmt.Errorf("%w: contestant %q has id %d", ErrInvalidCatalog, ct.Name, ct.ID)
		case strings.TrimSpace(ct.Name) == "":
			return nil, fmt.Errorf("%w: contestant %d has no name", ErrInvalidCatalog, ct.ID)
		case ct.Salary <= 0:
			return nil, fmt.Errorf("%w: contestant %q salary %d", ErrInvalidCatalog, ct.Name, ct.Salary)
		case ct.Rating < 0 || ct.Rating > 10:
			return nil, fmt.Errorf("%w: contestant %q rating %.2f outside [0, 10]", ErrInvalidCatalog, ct.Name, ct.Rating)
		}
		if _, dup := c.byID[ct.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %d", ErrInvalidCatalog, ct.ID)
		}
		c.byID[ct.ID] = i
	}
	return c, nil
}

// List returns the contestants in catalog order.
func (c *Catalog) List() []model.Contestant { return slices.Clone(c.contestants) }

// Len is the pool size.
func (c *Catalog) Len() int { return len(c.contestants) }

// IDs returns every contestant id in catalog order.
func (c *Catalog) IDs() []model.ContestantID {
	ids := make([]model.ContestantID, len(c.contestants))
	for i, ct := range c.contestants {
		ids[i] = ct.ID
	}
	return ids
}

// Get looks up one contestant.
func (c *Catalog) Get(id model.ContestantID) (model.Contestant, error) {
	i, ok := c.byID[id]
	if !ok {
		return model.Contestant{}, fmt.Errorf("%w: %d", ErrUnknownContestant, id)
	}
	return c.contestants[i], nil
}

type file struct {
	Contestants []model.Contestant `yaml:"contestants"`
}

// Load decodes a YAML catalog. Unknown fields are rejected.
func Load(r io.Reader) (*Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f file
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidCatalog)
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}
	return New(f.Contestants)
}

// LoadFile reads a YAML catalog from disk.
func LoadFile(path string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Load(bytes.NewReader(b))
}
