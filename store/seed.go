package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kevinaaaquil/library/circulation"
	"github.com/kevinaaaquil/library/models"
	"github.com/kevinaaaquil/library/utils"
)

//go:embed seed.yaml
var defaultSeed []byte

// SeedUser carries a plaintext password; it is hashed when the seed is applied.
type SeedUser struct {
	ID       string      `yaml:"id"`
	Email    string      `yaml:"email"`
	Name     string      `yaml:"name"`
	Password string      `yaml:"password"`
	Role     models.Role `yaml:"role"`
}

// SeedBook is a book whose due date may be given relative to the apply time.
type SeedBook struct {
	models.Book `yaml:",inline"`
	DueInDays   *int `yaml:"dueInDays,omitempty"`
}

type Seed struct {
	Users []SeedUser `yaml:"users"`
	Books []SeedBook `yaml:"books"`
}

// DefaultSeed returns the built-in demo catalog.
func DefaultSeed() (*Seed, error) {
	return ParseSeed(defaultSeed)
}

func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	return ParseSeed(data)
}

func ParseSeed(data []byte) (*Seed, error) {
	var s Seed
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Seed) validate() error {
	for i, u := range s.Users {
		if u.Email == "" || u.Password == "" {
			return fmt.Errorf("seed user %d: email and password are required", i)
		}
		if _, ok := models.ParseRole(string(u.Role)); !ok {
			return fmt.Errorf("seed user %s: unknown role %q", u.Email, u.Role)
		}
	}
	for i, b := range s.Books {
		if b.ID == "" || b.Title == "" {
			return fmt.Errorf("seed book %d: id and title are required", i)
		}
		if !slices.Contains(models.ValidStatuses, b.Status) {
			return fmt.Errorf("seed book %s: unknown status %q", b.ID, b.Status)
		}
		hasDue := b.DueDate != nil || b.DueInDays != nil
		switch {
		case b.Status.OnLoan() && (b.IssuedTo == "" || !hasDue):
			return fmt.Errorf("seed book %s: issuedTo and dueDate (or dueInDays) are required for %s", b.ID, b.Status)
		case !b.Status.OnLoan() && (b.IssuedTo != "" || hasDue):
			return fmt.Errorf("seed book %s: issuedTo and dueDate are only allowed on loans, not %s", b.ID, b.Status)
		case b.Status == models.StatusReserved && b.ReservedBy == "":
			return fmt.Errorf("seed book %s: reservedBy is required for reserved", b.ID)
		case b.Status != models.StatusReserved && b.ReservedBy != "":
			return fmt.Errorf("seed book %s: reservedBy is only allowed on reserved books, not %s", b.ID, b.Status)
		}
	}
	return nil
}

// BooksAt returns the seed's books as stored at now: relative due dates are
// resolved and overdue is folded back to issued.
func (s *Seed) BooksAt(now time.Time) []models.Book {
	out := make([]models.Book, 0, len(s.Books))
	for _, sb := range s.Books {
		b := sb.Book
		if sb.DueInDays != nil {
			due := now.AddDate(0, 0, *sb.DueInDays)
			b.DueDate = &due
		}
		b = circulation.Normalize(b)
		b.UpdatedAt = now
		out = append(out, b)
	}
	return out
}

// Apply writes the seed into the stores. Existing books (by id) and users (by
// email) are left alone, so applying twice is harmless. users may be nil.
func (s *Seed) Apply(ctx context.Context, cat Catalog, users UserStore, now time.Time) error {
	if users != nil {
		for _, su := range s.Users {
			existing, err := users.UserByEmail(ctx, su.Email)
			if err != nil {
				return fmt.Errorf("seed user %s: %w", su.Email, err)
			}
			if existing != nil {
				continue
			}
			hash, err := utils.HashPassword(su.Password)
			if err != nil {
				return fmt.Errorf("seed user %s: %w", su.Email, err)
			}
			u := &models.User{ID: su.ID, Email: su.Email, Name: su.Name, Password: hash, Role: su.Role, CreatedAt: now}
			if _, err := users.CreateUser(ctx, u); err != nil {
				return fmt.Errorf("seed user %s: %w", su.Email, err)
			}
		}
	}
	for _, b := range s.BooksAt(now) {
		_, err := cat.BookByID(ctx, b.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("seed book %s: %w", b.ID, err)
		}
		if err := cat.SaveBook(ctx, &b); err != nil {
			return fmt.Errorf("seed book %s: %w", b.ID, err)
		}
	}
	return nil
}
