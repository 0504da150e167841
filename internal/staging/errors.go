package staging

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownRow       = errors.New("stock row not found in the current list")
	ErrInvalidAmount    = errors.New("amount must be non-zero")
	ErrCommitInProgress = errors.New("commit in progress")
	ErrReadOnly         = errors.New("pending changes are under review")
	ErrRowMissing       = errors.New("stock row no longer exists")
	ErrCommitFailed     = errors.New("failed to save stock changes")
	ErrStale            = errors.New("stock list is out of date, refresh first")
	ErrNegativeQuantity = errors.New("pending change would make stock negative")
)

// CommitError is the single aggregate error returned when any update request fails.
type CommitError struct {
	Failed int
	Total  int
	Err    error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("%s: %d of %d updates failed: %v", ErrCommitFailed, e.Failed, e.Total, e.Err)
}

func (e *CommitError) Unwrap() error { return e.Err }

func (e *CommitError) Is(target error) bool { return target == ErrCommitFailed }
