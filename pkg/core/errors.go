package core

import "errors"

// Common errors.
var (
	ErrNotFound    = errors.New("record not found")
	ErrDuplicateID = errors.New("record already exists")
	ErrNotIndexed  = errors.New("field is not indexed")
	ErrReadOnly    = errors.New("repository is in read-only mode")
	ErrEmptyID     = errors.New("record ID cannot be empty")
)
