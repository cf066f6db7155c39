package lifecycle

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidStatus   = errors.New("invalid status")
	ErrNotFound        = errors.New("issue not found")
	ErrForbidden       = errors.New("not allowed to change this issue")
	ErrNotAssigned     = errors.New("issue has no assignee")
	ErrInvalidAssignee = errors.New("assignee must be a staff member")
)

// TransitionRejectedError wraps a write the store refused. The stored issue is unchanged.
type TransitionRejectedError struct {
	IssueID string
	Err     error
}

func (e *TransitionRejectedError) Error() string {
	return fmt.Sprintf("transition rejected for issue %s: %v", e.IssueID, e.Err)
}

func (e *TransitionRejectedError) Unwrap() error { return e.Err }
