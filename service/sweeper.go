package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kevinaaaquil/library/circulation"
	"github.com/kevinaaaquil/library/models"
)

const DefaultSweepInterval = time.Hour

// Sweeper finds loans that became overdue, records an overdue alert and
// notifies the borrower. Each loan is alerted once; a new loan of the same
// book starts unmarked.
type Sweeper struct {
	Desk     *Desk
	Notifier Notifier
	Interval time.Duration
}

func NewSweeper(desk *Desk, notifier Notifier, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{Desk: desk, Notifier: notifier, Interval: interval}
}

// Run sweeps immediately and then every Interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		if _, err := s.SweepOnce(ctx); err != nil && ctx.Err() == nil {
			s.Desk.Logger.Error("overdue sweep failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// SweepOnce alerts every newly overdue loan and returns how many were alerted.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	notices, err := s.mark(ctx)
	for _, n := range notices {
		if s.Notifier == nil {
			continue
		}
		if err := s.Notifier.NotifyOverdue(ctx, n); err != nil {
			s.Desk.Logger.Warn("overdue notice failed", zap.String("bookId", n.Book.ID), zap.Error(err))
		}
	}
	if len(notices) > 0 {
		s.Desk.Logger.Info("overdue sweep", zap.Int("alerted", len(notices)))
	}
	return len(notices), err
}

// mark saves the alert mark under the desk lock and returns the notices to
// send once the lock is released. On error the notices for books already
// marked are still returned.
func (s *Sweeper) mark(ctx context.Context) ([]OverdueNotice, error) {
	d := s.Desk
	d.mu.Lock()
	defer d.mu.Unlock()

	books, err := d.Catalog.AllBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	now := d.now()
	var notices []OverdueNotice
	for _, b := range books {
		if !circulation.IsOverdue(b, now) || b.OverdueAlertedAt != nil {
			continue
		}
		alerted := now
		b.OverdueAlertedAt = &alerted
		b = circulation.Normalize(b)
		if err := d.Catalog.SaveBook(ctx, &b); err != nil {
			return notices, fmt.Errorf("save book %s: %w", b.ID, err)
		}
		d.record(ctx, &models.Activity{
			Kind:      models.ActivityOverdueAlert,
			BookID:    b.ID,
			BookTitle: b.Title,
			Subject:   b.IssuedTo,
			At:        now,
		})
		d.Metrics.OverdueAlert()

		n := OverdueNotice{Book: circulation.Effective(b, now), DaysOverdue: daysOverdue(*b.DueDate, now)}
		if d.Users != nil {
			u, err := d.Users.UserByID(ctx, b.IssuedTo)
			if err != nil {
				d.Logger.Warn("load borrower", zap.String("userId", b.IssuedTo), zap.Error(err))
			} else if u != nil {
				n.Email = u.Email
				n.Name = u.Name
			}
		}
		notices = append(notices, n)
	}
	return notices, nil
}

// daysOverdue counts started days past due, so anything overdue is at least 1.
func daysOverdue(due, now time.Time) int {
	days := int(now.Sub(due) / (24 * time.Hour))
	if now.Sub(due)%(24*time.Hour) > 0 {
		days++
	}
	return days
}
