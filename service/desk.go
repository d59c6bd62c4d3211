package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kevinaaaquil/library/circulation"
	"github.com/kevinaaaquil/library/metrics"
	"github.com/kevinaaaquil/library/models"
	"github.com/kevinaaaquil/library/projection"
	"github.com/kevinaaaquil/library/store"
)

var (
	// ErrLoanLimit means the borrower already holds the maximum number of loans.
	ErrLoanLimit = errors.New("loan limit reached")
	// ErrUnknownBorrower means an issue named a borrower that is not a user.
	ErrUnknownBorrower = errors.New("unknown borrower")
)

const recentActivityLimit = 10

// Desk is the circulation desk: it loads a book, asks the policy for the
// transition, persists the result and records it in the activity feed.
// Activities, Users and Metrics are optional.
type Desk struct {
	Catalog    store.Catalog
	Activities store.ActivityLog
	Users      store.UserStore
	Policy     circulation.Policy
	Projection projection.Projection
	Metrics    *metrics.Metrics
	Logger     *zap.Logger
	Now        func() time.Time

	// mu serialises read-modify-write of books between requests and the sweeper.
	mu sync.Mutex
}

func NewDesk(cat store.Catalog, logger *zap.Logger) *Desk {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Desk{
		Catalog:    cat,
		Policy:     circulation.DefaultPolicy(),
		Projection: projection.Default(),
		Logger:     logger,
		Now:        func() time.Time { return time.Now().UTC() },
	}
}

func (d *Desk) now() time.Time {
	if d.Now == nil {
		return time.Now().UTC()
	}
	return d.Now()
}

// BookView is a book as a viewer sees it, with the actions they may take.
type BookView struct {
	models.Book
	Actions []circulation.Action `json:"actions"`
}

func (d *Desk) view(b models.Book, viewer projection.Viewer, now time.Time) BookView {
	e := circulation.Effective(b, now)
	actions := d.Policy.Actions(e, viewer.Role, viewer.Ref, now)
	if actions == nil {
		actions = []circulation.Action{}
	}
	return BookView{Book: circulation.Visible(e, viewer.Role, viewer.Ref), Actions: actions}
}

// Books lists the catalog with effective status, masked for the viewer.
func (d *Desk) Books(ctx context.Context, viewer projection.Viewer) ([]BookView, error) {
	books, err := d.Catalog.AllBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	now := d.now()
	out := make([]BookView, 0, len(books))
	for _, b := range books {
		out = append(out, d.view(b, viewer, now))
	}
	return out, nil
}

func (d *Desk) Book(ctx context.Context, viewer projection.Viewer, id string) (BookView, error) {
	b, err := d.Catalog.BookByID(ctx, id)
	if err != nil {
		return BookView{}, fmt.Errorf("load book %s: %w", id, err)
	}
	return d.view(*b, viewer, d.now()), nil
}

// Apply runs req against the stored book and saves the result. The returned
// book carries its effective status.
func (d *Desk) Apply(ctx context.Context, req circulation.Request) (models.Book, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	book, err := d.apply(ctx, req)
	d.Metrics.ObserveTransition(req.Action, err)
	if err != nil {
		d.Logger.Debug("transition rejected",
			zap.String("bookId", req.BookID),
			zap.String("action", string(req.Action)),
			zap.String("role", string(req.Role)),
			zap.Error(err),
		)
		return models.Book{}, err
	}
	d.Logger.Info("book transition",
		zap.String("bookId", book.ID),
		zap.String("action", string(req.Action)),
		zap.String("actor", req.Actor),
		zap.String("status", string(book.Status)),
	)
	return book, nil
}

func (d *Desk) apply(ctx context.Context, req circulation.Request) (models.Book, error) {
	now := d.now()
	current, err := d.Catalog.BookByID(ctx, req.BookID)
	if err != nil {
		return models.Book{}, fmt.Errorf("load book %s: %w", req.BookID, err)
	}
	next, err := d.Policy.NextStatus(*current, req, now)
	if err != nil {
		return models.Book{}, err
	}
	if req.Action == circulation.ActionIssue {
		if err := d.checkBorrower(ctx, next.IssuedTo, now); err != nil {
			return models.Book{}, err
		}
	}
	stored := circulation.Normalize(next)
	if err := d.Catalog.SaveBook(ctx, &stored); err != nil {
		return models.Book{}, fmt.Errorf("save book %s: %w", stored.ID, err)
	}
	d.record(ctx, activityFor(req, stored, now))
	return circulation.Effective(stored, now), nil
}

// checkBorrower enforces the loan limit and, when users are wired, that the
// borrower exists.
func (d *Desk) checkBorrower(ctx context.Context, borrower string, now time.Time) error {
	if d.Users != nil {
		u, err := d.Users.UserByID(ctx, borrower)
		if err != nil {
			return fmt.Errorf("load borrower %s: %w", borrower, err)
		}
		if u == nil {
			return fmt.Errorf("%w: %s", ErrUnknownBorrower, borrower)
		}
	}
	limit := d.Projection.LoanLimit
	if limit <= 0 {
		return nil
	}
	books, err := d.Catalog.AllBooks(ctx)
	if err != nil {
		return fmt.Errorf("list books: %w", err)
	}
	if n := len(projection.LoansOf(books, borrower, now)); n >= limit {
		return fmt.Errorf("%w: %s holds %d of %d", ErrLoanLimit, borrower, n, limit)
	}
	return nil
}

var activityKinds = map[circulation.Action]models.ActivityKind{
	circulation.ActionIssue:   models.ActivityIssued,
	circulation.ActionReturn:  models.ActivityReturned,
	circulation.ActionReserve: models.ActivityReserved,
	circulation.ActionRenew:   models.ActivityRenewed,
	circulation.ActionEdit:    models.ActivityEdited,
}

func activityFor(req circulation.Request, book models.Book, now time.Time) *models.Activity {
	subject := book.IssuedTo
	if req.Action == circulation.ActionReserve {
		subject = book.ReservedBy
	}
	return &models.Activity{
		Kind:      activityKinds[req.Action],
		BookID:    book.ID,
		BookTitle: book.Title,
		Actor:     req.Actor,
		Subject:   subject,
		At:        now,
	}
}

// record appends to the feed. The transition is already saved, so a failure
// here is logged and not returned.
func (d *Desk) record(ctx context.Context, a *models.Activity) {
	if d.Activities == nil {
		return
	}
	if err := d.Activities.InsertActivity(ctx, a); err != nil {
		d.Logger.Warn("failed to record activity", zap.String("bookId", a.BookID), zap.Error(err))
	}
}

// ActivityView is a feed entry with the subject's display name resolved.
type ActivityView struct {
	models.Activity
	SubjectName string `json:"subjectName,omitempty"`
}

// Dashboard is everything one role's landing page shows.
type Dashboard struct {
	Stats       projection.Stats       `json:"stats"`
	Header      projection.HeaderView  `json:"header"`
	Navigation  []projection.NavItem   `json:"navigation"`
	MyLoans     []models.Book          `json:"myLoans,omitempty"`
	NewArrivals []models.Book          `json:"newArrivals,omitempty"`
	Overdue     []models.Book          `json:"overdue,omitempty"`
	Activities  []ActivityView         `json:"activities,omitempty"`
	TotalUsers  int                    `json:"totalUsers,omitempty"`
	Users       []projection.RoleShare `json:"userDistribution,omitempty"`

	// Alerts and AlertWarnings are filled for admins only.
	Alerts        []projection.Alert `json:"alerts,omitempty"`
	AlertWarnings int                `json:"alertWarnings,omitempty"`
}

const newArrivalsLimit = 6

func (d *Desk) Dashboard(ctx context.Context, viewer projection.Viewer) (*Dashboard, error) {
	books, err := d.Catalog.AllBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	now := d.now()
	stats := d.Projection.Summarize(books, viewer, now)
	if viewer.Role.Staff() {
		d.Metrics.ObserveStats(stats)
	}
	dash := &Dashboard{
		Stats:      stats,
		Header:     projection.Header(viewer, stats),
		Navigation: projection.Navigation(viewer.Role, stats),
	}

	switch {
	case viewer.Role.Staff():
		dash.Overdue = projection.OverdueList(books, now)
		names, users, err := d.userNames(ctx)
		if err != nil {
			return nil, err
		}
		if dash.Activities, err = d.recent(ctx, names); err != nil {
			return nil, err
		}
		if viewer.Role == models.RoleAdmin {
			dash.TotalUsers = len(users)
			dash.Users = projection.UserDistribution(users)
			dash.Alerts = projection.SystemAlerts(stats)
			dash.AlertWarnings = projection.Warnings(dash.Alerts)
		}
	default:
		if viewer.Ref != "" {
			dash.MyLoans = projection.LoansOf(books, viewer.Ref, now)
		}
		arrivals := projection.Available(books, now)
		if len(arrivals) > newArrivalsLimit {
			arrivals = arrivals[:newArrivalsLimit]
		}
		dash.NewArrivals = arrivals
	}
	return dash, nil
}

func (d *Desk) userNames(ctx context.Context) (map[string]string, []models.User, error) {
	if d.Users == nil {
		return nil, nil, nil
	}
	users, err := d.Users.ListUsers(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list users: %w", err)
	}
	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID] = projection.DisplayName(u.Name, u.Email)
	}
	return names, users, nil
}

func (d *Desk) recent(ctx context.Context, names map[string]string) ([]ActivityView, error) {
	if d.Activities == nil {
		return nil, nil
	}
	acts, err := d.Activities.RecentActivities(ctx, recentActivityLimit)
	if err != nil {
		return nil, fmt.Errorf("recent activities: %w", err)
	}
	out := make([]ActivityView, 0, len(acts))
	for _, a := range acts {
		v := ActivityView{Activity: a}
		if a.Subject != "" {
			v.SubjectName = names[a.Subject]
		}
		out = append(out, v)
	}
	return out, nil
}

// Report is the circulation snapshot uploaded by ReportStore.
type Report struct {
	GeneratedAt time.Time         `json:"generatedAt"`
	GeneratedBy string            `json:"generatedBy"`
	Stats       projection.Stats  `json:"stats"`
	Overdue     []models.Book     `json:"overdue"`
	Activities  []models.Activity `json:"activities"`
}

// Report builds a staff circulation report.
func (d *Desk) Report(ctx context.Context, viewer projection.Viewer) (*Report, error) {
	books, err := d.Catalog.AllBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	now := d.now()
	r := &Report{
		GeneratedAt: now,
		GeneratedBy: strings.TrimSpace(viewer.Name),
		Stats:       d.Projection.Summarize(books, viewer, now),
		Overdue:     projection.OverdueList(books, now),
		Activities:  []models.Activity{},
	}
	if r.Overdue == nil {
		r.Overdue = []models.Book{}
	}
	if d.Activities != nil {
		acts, err := d.Activities.RecentActivities(ctx, 0)
		if err != nil {
			return nil, fmt.Errorf("recent activities: %w", err)
		}
		r.Activities = acts
	}
	return r, nil
}
