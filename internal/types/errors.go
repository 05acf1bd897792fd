package types

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidRepoPath = errors.New("invalid repo path")
	ErrNoRepos         = errors.New("no repos registered")
	ErrUpstream        = errors.New("upstream search error")

	ErrInvalidBackend  = errors.New("invalid backend")
	ErrDataStoreAccess = errors.New("data store read/write error")
)

func Err(typedError error, innerErr error, msgTemplate string, args ...any) error {
	if msgTemplate == "" {
		return errors.Join(typedError, innerErr)
	} else {
		return errors.Join(typedError, innerErr, fmt.Errorf(msgTemplate, args...))
	}
}

// UpstreamError carries the message returned by the search API. Error() yields
// that message alone so it can be relayed to the chat as-is.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("search request failed with status %d", e.StatusCode)
	}
	return e.Message
}

func (e *UpstreamError) Unwrap() error { return ErrUpstream }
