package storage

import "errors"

var (
	// ErrNotFound is returned when a requested row does not exist
	ErrNotFound = errors.New("not found")
	// ErrAlreadyGenerated is returned when a planned batch already exists for a (user, date)
	ErrAlreadyGenerated = errors.New("daily schedule already generated")
	// ErrSuggestionNotPending is returned when a suggestion has already been accepted or rejected
	ErrSuggestionNotPending = errors.New("suggestion is not pending")
	// ErrConflict is returned when a row with the same identity already exists
	ErrConflict = errors.New("already exists")
	// ErrNotInitialized is returned when the store is used before Init or Load
	ErrNotInitialized = errors.New("storage not initialized, run 'gradually init' first")
)
