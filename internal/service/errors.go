package service

import "errors"

var (
	ErrNotFound = errors.New("not found")
	// ErrExhausted means the product's credential pool has no free slot; the
	// order is left untouched so the operator can restock and retry.
	ErrExhausted = errors.New("no_credentials_available")
	// ErrConflict means a concurrent request won the status transition.
	ErrConflict = errors.New("order changed concurrently")
)
