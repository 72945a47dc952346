package repository

import "errors"

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidRange is returned for a skip section whose range is
	// non-positive or starts before zero.
	ErrInvalidRange = errors.New("invalid time range")
	// ErrOverlap is returned when a skip section would strictly overlap an
	// existing one for the same job.
	ErrOverlap = errors.New("section overlaps an existing section")
)
