package store

import (
	"context"
	"errors"

	"github.com/kevinaaaquil/library/models"
)

// ErrNotFound is returned by BookByID when no book has the id.
var ErrNotFound = errors.New("not found")

// Catalog holds the book records. SaveBook inserts or replaces by ID.
type Catalog interface {
	AllBooks(ctx context.Context) ([]models.Book, error)
	BookByID(ctx context.Context, id string) (*models.Book, error)
	SaveBook(ctx context.Context, book *models.Book) error
}

// ActivityLog is the recent activity feed, newest first.
type ActivityLog interface {
	InsertActivity(ctx context.Context, a *models.Activity) error
	RecentActivities(ctx context.Context, limit int) ([]models.Activity, error)
}

// UserStore lookups return (nil, nil) when the user does not exist.
type UserStore interface {
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	UserByID(ctx context.Context, id string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) (string, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, id string, email, hashedPassword *string, role *models.Role) error
	DeleteUser(ctx context.Context, id string) error
	CountByRole(ctx context.Context, role models.Role) (int64, error)
}

// Store is everything the service needs from a backend.
type Store interface {
	Catalog
	ActivityLog
	UserStore
	Close(ctx context.Context) error
}

func cloneBook(b models.Book) models.Book {
	if b.DueDate != nil {
		d := *b.DueDate
		b.DueDate = &d
	}
	if b.OverdueAlertedAt != nil {
		a := *b.OverdueAlertedAt
		b.OverdueAlertedAt = &a
	}
	return b
}
