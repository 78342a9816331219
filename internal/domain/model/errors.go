package model

import "errors"

var (
	ErrInvalidUsername = errors.New("invalid username")
	ErrMalformedLineup = errors.New("malformed lineup")
)
