package outcome

import "errors"

var ErrUnsupportedKind = errors.New("unsupported outcome kind")
