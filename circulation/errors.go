package circulation

import (
	"errors"
	"fmt"

	"github.com/kevinaaaquil/library/models"
)

var (
	// ErrForbidden means the acting role may not take the action.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidState means the book's current status does not permit the action.
	ErrInvalidState = errors.New("invalid state")
	// ErrInvalidRequest means the request itself is malformed.
	ErrInvalidRequest = errors.New("invalid request")
)

// PolicyError describes a rejected request. Kind is one of the sentinel errors
// above, so callers can match with errors.Is.
type PolicyError struct {
	Kind   error
	Action Action
	Role   models.Role
	Status models.Status
	Reason string
}

func (e *PolicyError) Error() string {
	msg := fmt.Sprintf("%s: %s by %s", e.Kind, e.Action, e.Role)
	if e.Status != "" {
		msg += fmt.Sprintf(" on %s book", e.Status)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *PolicyError) Unwrap() error {
	return e.Kind
}

func forbidden(req Request, reason string) error {
	return &PolicyError{Kind: ErrForbidden, Action: req.Action, Role: req.Role, Reason: reason}
}

func invalidState(req Request, status models.Status) error {
	return &PolicyError{Kind: ErrInvalidState, Action: req.Action, Role: req.Role, Status: status}
}

func invalidRequest(req Request, reason string) error {
	return &PolicyError{Kind: ErrInvalidRequest, Action: req.Action, Role: req.Role, Reason: reason}
}
