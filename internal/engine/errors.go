package engine

import (
	"errors"
	"fmt"
)

// ErrNotFound means a URL has no record in the store yet. Callers treat
// it as "not processed", not as a hard failure.
var ErrNotFound = errors.New("metadata not found")

// ParseError is a structured LLM response that failed shape validation.
// It is never retried; the crawler catches it at the candidate boundary.
type ParseError struct {
	Stage string // which structured call produced it
	Raw   string // offending payload, for the log
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s response: %v", e.Stage, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// FetchError is a transient scrape/transcribe/network failure. Recovered
// by skipping the item.
type FetchError struct {
	Op  string // "download", "comments", "user-videos", "transcribe"
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
