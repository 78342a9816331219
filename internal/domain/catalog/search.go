package catalog

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/okian/dawgbowl/internal/domain/model"
)

// SortOrder controls Search ordering.
type SortOrder string

const (
	SortCatalog    SortOrder = ""
	SortSalaryDesc SortOrder = "salary_desc"
	SortSalaryAsc  SortOrder = "salary_asc"
	SortName       SortOrder = "name"
)

// ParseSortOrder accepts the query values used by the API.
func ParseSortOrder(s string) (SortOrder, error) {
	switch o := SortOrder(strings.ToLower(strings.TrimSpace(s))); o {
	case SortCatalog, SortSalaryDesc, SortSalaryAsc, SortName:
		return o, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSort, s)
	}
}

// Search filters by a case-insensitive name substring and orders the result.
// Equal keys fall back to id so results are stable.
func (c *Catalog) Search(query string, order SortOrder) []model.Contestant {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]model.Contestant, 0, len(c.contestants))
	for _, ct := range c.contestants {
		if q == "" || strings.Contains(strings.ToLower(ct.Name), q) {
			out = append(out, ct)
		}
	}

	var less func(a, b model.Contestant) int
	switch order {
	case SortSalaryDesc:
		less = func(a, b model.Contestant) int { return cmp.Compare(b.Salary, a.Salary) }
	case SortSalaryAsc:
		less = func(a, b model.Contestant) int { return cmp.Compare(a.Salary, b.Salary) }
	case SortName:
		less = func(a, b model.Contestant) int { return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)) }
	default:
		return out
	}
	slices.SortStableFunc(out, func(a, b model.Contestant) int {
		if r := less(a, b); r != 0 {
			return r
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}
