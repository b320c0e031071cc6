// Package apperr defines sentinel errors shared across layers.
package apperr

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrAlreadyExists    = errors.New("already exists")
	ErrInvalidPath      = errors.New("invalid path")
	ErrNoSnapshot       = errors.New("no published snapshot")
	ErrPublishConflict  = errors.New("publish conflict")
	ErrChecksumMismatch = errors.New("checksum mismatch")
)
