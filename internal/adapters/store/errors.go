package store

import "errors"

var (
	ErrStorageUnavailable = errors.New("lineup storage unavailable")
	ErrNotFound           = errors.New("lineup not found")
	ErrCorruptRecord      = errors.New("corrupt lineup record")
	ErrInvalidKey         = errors.New("invalid lineup key")
)
