package repository

import "errors"

// Sentinel kinds for persistence errors.
var (
	ErrCorruptDocument = errors.New("ledger document is corrupt")
	ErrOpenStore       = errors.New("open ledger store")
)
