package circulation

import (
	"errors"
	"strings"
	"time"

	"github.com/kevinaaaquil/library/models"
	"github.com/kevinaaaquil/library/utils"
)

const (
	DefaultLoanPeriod  = 14 * 24 * time.Hour
	DefaultRenewPeriod = 14 * 24 * time.Hour
)

// Metadata carries the mutable fields of an edit. Nil fields are left unchanged.
type Metadata struct {
	Title    *string `json:"title,omitempty"`
	Author   *string `json:"author,omitempty"`
	ISBN     *string `json:"isbn,omitempty"`
	Category *string `json:"category,omitempty"`
}

func (m Metadata) empty() bool {
	return m.Title == nil && m.Author == nil && m.ISBN == nil && m.Category == nil
}

// Request is a proposed transition, validated against the book and the acting role.
type Request struct {
	Action Action
	BookID string
	Role   models.Role
	// Actor is the acting user's ref. Empty means unknown, which skips ownership checks.
	Actor string
	// IssuedTo is the borrower for an issue; defaults to the reserving user.
	IssuedTo string
	Metadata Metadata
}

// Policy decides circulation transitions. The zero value is not useful; use DefaultPolicy.
type Policy struct {
	LoanPeriod  time.Duration
	RenewPeriod time.Duration
}

func DefaultPolicy() Policy {
	return Policy{LoanPeriod: DefaultLoanPeriod, RenewPeriod: DefaultRenewPeriod}
}

// NextStatus validates req against book at time now and returns the updated
// book. The input book is not modified. Role permission is checked before
// state, so a role that can never take an action always gets ErrForbidden.
func (p Policy) NextStatus(book models.Book, req Request, now time.Time) (models.Book, error) {
	if _, ok := from[req.Action]; !ok {
		return book, invalidRequest(req, "unknown action")
	}
	if !Can(req.Role, req.Action) {
		return book, forbidden(req, "")
	}
	current := Effective(book, now)
	if !allowedFrom(req.Action, current.Status) {
		return book, invalidState(req, current.Status)
	}

	next := Normalize(book)
	switch req.Action {
	case ActionReserve:
		next.Status = models.StatusReserved
		next.ReservedBy = req.Actor

	case ActionRenew:
		if req.Actor != "" && next.IssuedTo != req.Actor {
			return book, forbidden(req, "book is issued to another reader")
		}
		base := now
		if next.DueDate != nil {
			base = *next.DueDate
		}
		due := base.Add(p.RenewPeriod)
		next.DueDate = &due
		next.OverdueAlertedAt = nil

	case ActionIssue:
		borrower := strings.TrimSpace(req.IssuedTo)
		if borrower == "" {
			borrower = next.ReservedBy
		}
		if borrower == "" {
			return book, invalidRequest(req, "no borrower given")
		}
		due := now.Add(p.LoanPeriod)
		next.Status = models.StatusIssued
		next.IssuedTo = borrower
		next.DueDate = &due
		next.ReservedBy = ""
		next.OverdueAlertedAt = nil

	case ActionReturn:
		next.Status = models.StatusAvailable
		next.IssuedTo = ""
		next.DueDate = nil
		next.ReservedBy = ""
		next.OverdueAlertedAt = nil

	case ActionEdit:
		if err := applyMetadata(&next, req); err != nil {
			return book, err
		}
	}
	next.UpdatedAt = now
	return next, nil
}

func applyMetadata(b *models.Book, req Request) error {
	m := req.Metadata
	if m.empty() {
		return invalidRequest(req, "no fields to edit")
	}
	if m.Title != nil {
		t := strings.TrimSpace(*m.Title)
		if t == "" {
			return invalidRequest(req, "title cannot be empty")
		}
		b.Title = t
	}
	if m.Author != nil {
		b.Author = strings.TrimSpace(*m.Author)
	}
	if m.ISBN != nil {
		isbn, ok := utils.NormalizeISBN(*m.ISBN)
		if !ok {
			return invalidRequest(req, "isbn must have 10 or 13 digits")
		}
		b.ISBN = isbn
	}
	if m.Category != nil {
		b.Category = strings.TrimSpace(*m.Category)
	}
	return nil
}

// Actions returns the actions role may take on book right now, acting as actor.
// It asks NextStatus, so it never offers an action NextStatus would reject on
// permission or state.
func (p Policy) Actions(book models.Book, role models.Role, actor string, now time.Time) []Action {
	var out []Action
	for _, a := range AllActions {
		_, err := p.NextStatus(book, Request{Action: a, BookID: book.ID, Role: role, Actor: actor}, now)
		if err == nil || errors.Is(err, ErrInvalidRequest) {
			out = append(out, a)
		}
	}
	return out
}
