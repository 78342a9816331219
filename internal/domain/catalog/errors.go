package catalog

import "errors"

var (
	ErrInvalidCatalog    = errors.New("invalid catalog")
	ErrUnknownContestant = errors.New("unknown contestant")
	ErrUnknownSort       = errors.New("unknown sort order")
)
