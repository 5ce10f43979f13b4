package usecase

import (
	"errors"
	"fmt"
)

var (
	ErrPackNotFound       = errors.New("pack not found")
	ErrPackExists         = errors.New("a pack with this name already exists")
	ErrDownloadInProgress = errors.New("pack download is still in progress")
	ErrTileNotFound       = errors.New("tile not found")
)

// ValidationError reports malformed pack-creation parameters. It is returned
// synchronously, before any store write happens.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid pack parameters: " + e.Reason
}

// ResolutionError reports a source whose tile URL templates could not be
// determined. It fails the whole pack-creation attempt.
type ResolutionError struct {
	Source string
	Err    error
}

func (e *ResolutionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("failed to resolve source %q", e.Source)
	}
	return fmt.Sprintf("failed to resolve source %q: %v", e.Source, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}
