package scoring

import "errors"

var (
	ErrMissingOutcome     = errors.New("missing outcome")
	ErrInvalidOutcome     = errors.New("invalid outcome")
	ErrUnsupportedOutcome = errors.New("unsupported outcome kind")
)
