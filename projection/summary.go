package projection

import (
	"sort"
	"time"

	"github.com/kevinaaaquil/library/circulation"
	"github.com/kevinaaaquil/library/models"
)

const (
	DefaultDueSoonWindow = 3 * 24 * time.Hour
	DefaultLoanLimit     = 5
)

// Viewer is who a projection is computed for. Ref is the viewer's user ref;
// it is optional and only scopes the student's personal loan block.
type Viewer struct {
	Role models.Role
	Ref  string
	Name string
}

// Loans is a student's own loan block ("3 out of 5 allowed").
type Loans struct {
	Count           int     `json:"count"`
	Overdue         int     `json:"overdue"`
	DueSoon         int     `json:"dueSoon"`
	Limit           int     `json:"limit"`
	QuotaPercentage float64 `json:"quotaPercentage"`
}

type Stats struct {
	Total     int `json:"totalBooks"`
	Available int `json:"availableBooks"`
	Issued    int `json:"issuedBooks"`
	Overdue   int `json:"overdueBooks"`
	Reserved  int `json:"reservedBooks"`
	// IssuePercentage is issued (not overdue) books over the total, 0..100.
	IssuePercentage float64 `json:"issuePercentage"`
	DueSoon         int     `json:"dueSoon"`
	// Notifications is role-scoped: due-soon loans for students, overdue books for staff.
	Notifications int    `json:"notifications"`
	Loans         *Loans `json:"loans,omitempty"`
}

// Projection holds the tunables of the dashboard view.
type Projection struct {
	DueSoonWindow time.Duration
	LoanLimit     int
}

func Default() Projection {
	return Projection{DueSoonWindow: DefaultDueSoonWindow, LoanLimit: DefaultLoanLimit}
}

// Summarize computes dashboard statistics with the default window and limit.
func Summarize(books []models.Book, viewer Viewer, now time.Time) Stats {
	return Default().Summarize(books, viewer, now)
}

// Summarize counts books by effective status and derives the role-scoped
// figures. It is deterministic given books and now.
func (p Projection) Summarize(books []models.Book, viewer Viewer, now time.Time) Stats {
	var s Stats
	for _, b := range books {
		e := circulation.Effective(b, now)
		s.Total++
		switch e.Status {
		case models.StatusAvailable:
			s.Available++
		case models.StatusIssued:
			s.Issued++
		case models.StatusOverdue:
			s.Overdue++
		case models.StatusReserved:
			s.Reserved++
		}
		if p.dueSoon(e, now) {
			s.DueSoon++
		}
	}
	s.IssuePercentage = percentage(s.Issued, s.Total)

	if viewer.Role == models.RoleStudent && viewer.Ref != "" {
		s.Loans = p.loans(books, viewer.Ref, now)
	}
	switch {
	case viewer.Role.Staff():
		s.Notifications = s.Overdue
	case s.Loans != nil:
		s.Notifications = s.Loans.DueSoon
	default:
		s.Notifications = s.DueSoon
	}
	return s
}

func (p Projection) loans(books []models.Book, ref string, now time.Time) *Loans {
	l := &Loans{Limit: p.LoanLimit}
	for _, b := range LoansOf(books, ref, now) {
		l.Count++
		if b.Status == models.StatusOverdue {
			l.Overdue++
		}
		if p.dueSoon(b, now) {
			l.DueSoon++
		}
	}
	l.QuotaPercentage = percentage(l.Count, l.Limit)
	return l
}

// dueSoon reports whether an effective, not yet overdue loan falls due within the window.
func (p Projection) dueSoon(b models.Book, now time.Time) bool {
	if b.Status != models.StatusIssued || b.DueDate == nil {
		return false
	}
	return !b.DueDate.After(now.Add(p.DueSoonWindow))
}

// LoansOf returns the books on loan to ref, with effective status, soonest due first.
func LoansOf(books []models.Book, ref string, now time.Time) []models.Book {
	var out []models.Book
	for _, b := range books {
		e := circulation.Effective(b, now)
		if e.Status.OnLoan() && e.IssuedTo == ref {
			out = append(out, e)
		}
	}
	sortByDue(out)
	return out
}

// OverdueList returns the overdue books, most overdue first.
func OverdueList(books []models.Book, now time.Time) []models.Book {
	var out []models.Book
	for _, b := range books {
		e := circulation.Effective(b, now)
		if e.Status == models.StatusOverdue {
			out = append(out, e)
		}
	}
	sortByDue(out)
	return out
}

// Available returns the books that can be reserved or issued right now.
func Available(books []models.Book, now time.Time) []models.Book {
	var out []models.Book
	for _, b := range books {
		e := circulation.Effective(b, now)
		if e.Status == models.StatusAvailable {
			out = append(out, e)
		}
	}
	return out
}

func sortByDue(books []models.Book) {
	sort.SliceStable(books, func(i, j int) bool {
		a, b := books[i].DueDate, books[j].DueDate
		if a == nil || b == nil {
			return b == nil && a != nil
		}
		return a.Before(*b)
	})
}

func percentage(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}
