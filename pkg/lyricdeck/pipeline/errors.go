package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every error returned by this package matches exactly one of
// these through errors.Is.
var (
	ErrSourceNotFound    = errors.New("lyrics not found")
	ErrLineCountMismatch = errors.New("line count mismatch")
	ErrCapacityExceeded  = errors.New("slide capacity exceeded")
	ErrRenderingFailure  = errors.New("rendering failed")
	ErrEmptyDeck         = errors.New("no song could be prepared")
	ErrIncompletePair    = errors.New("incomplete line pair")
	ErrLanguageMismatch  = errors.New("line language does not match track")
)

// SourceNotFoundError reports a title (or one language of it) that no source
// could supply. Language is empty when nothing at all was found.
type SourceNotFoundError struct {
	Title    string
	Language Language
}

func (e *SourceNotFoundError) Error() string {
	if e.Language == "" {
		return fmt.Sprintf("%q: %v", e.Title, ErrSourceNotFound)
	}
	return fmt.Sprintf("%q: %s %v", e.Title, e.Language, ErrSourceNotFound)
}

func (e *SourceNotFoundError) Is(target error) bool { return target == ErrSourceNotFound }

// LineCountMismatchError reports tracks that cannot be paired line by line.
type LineCountMismatchError struct {
	Title   string
	English int
	Korean  int
}

func (e *LineCountMismatchError) Error() string {
	return fmt.Sprintf("%q: %v: %d english vs %d korean lines", e.Title, ErrLineCountMismatch, e.English, e.Korean)
}

func (e *LineCountMismatchError) Is(target error) bool { return target == ErrLineCountMismatch }

// CapacityExceededError reports a pair side holding more lines than a slide
// can show. It indicates a bug in reconciliation, not bad input.
type CapacityExceededError struct {
	Title    string
	Language Language
	Lines    int
}

func (e *CapacityExceededError) Error() string {
	msg := fmt.Sprintf("%v: %d %s lines (max %d)", ErrCapacityExceeded, e.Lines, e.Language, SlideCapacity)
	if e.Title != "" {
		msg = fmt.Sprintf("%q: %s", e.Title, msg)
	}
	return msg
}

func (e *CapacityExceededError) Is(target error) bool { return target == ErrCapacityExceeded }

// RenderingError wraps the renderer's own error unchanged.
type RenderingError struct {
	Err error
}

func (e *RenderingError) Error() string { return fmt.Sprintf("%v: %v", ErrRenderingFailure, e.Err) }

func (e *RenderingError) Is(target error) bool { return target == ErrRenderingFailure }

func (e *RenderingError) Unwrap() error { return e.Err }

// SongFailure is a per-song error collected during a run.
type SongFailure struct {
	Title string
	Err   error
}

func (f SongFailure) Error() string { return f.Err.Error() }

func (f SongFailure) Unwrap() error { return f.Err }

// EmptyDeckError is returned when every requested song failed. It carries
// the per-song failures so the caller can fix them in one pass.
type EmptyDeckError struct {
	Failures []SongFailure
}

func (e *EmptyDeckError) Error() string {
	if len(e.Failures) == 0 {
		return fmt.Sprintf("%v: no titles requested", ErrEmptyDeck)
	}
	msgs := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		msgs[i] = f.Error()
	}
	return fmt.Sprintf("%v: %s", ErrEmptyDeck, strings.Join(msgs, "; "))
}

func (e *EmptyDeckError) Is(target error) bool { return target == ErrEmptyDeck }

// Unwrap exposes the per-song failures to errors.Is and errors.As.
func (e *EmptyDeckError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f
	}
	return errs
}
