package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/kevinaaaquil/library/models"
)

var _ Store = (*Memory)(nil)

// Memory keeps everything in process. Values are copied in and out, so callers
// never share state with the store.
type Memory struct {
	mu         sync.RWMutex
	books      map[string]models.Book
	users      map[string]models.User
	activities []models.Activity
}

func NewMemory() *Memory {
	return &Memory{
		books: make(map[string]models.Book),
		users: make(map[string]models.User),
	}
}

func (m *Memory) AllBooks(ctx context.Context) ([]models.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	books := make([]models.Book, 0, len(m.books))
	for _, b := range m.books {
		books = append(books, cloneBook(b))
	}
	sort.Slice(books, func(i, j int) bool {
		if books[i].Title != books[j].Title {
			return books[i].Title < books[j].Title
		}
		return books[i].ID < books[j].ID
	})
	return books, nil
}

func (m *Memory) BookByID(ctx context.Context, id string) (*models.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.books[id]
	if !ok {
		return nil, ErrNotFound
	}
	b = cloneBook(b)
	return &b, nil
}

func (m *Memory) SaveBook(ctx context.Context, book *models.Book) error {
	if book.ID == "" {
		book.ID = uuid.NewString()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.books[book.ID] = cloneBook(*book)
	return nil
}

func (m *Memory) InsertActivity(ctx context.Context, a *models.Activity) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activities = append(m.activities, *a)
	return nil
}

func (m *Memory) RecentActivities(ctx context.Context, limit int) ([]models.Activity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Activity, len(m.activities))
	copy(out, m.activities)
	sort.SliceStable(out, func(i, j int) bool { return out[i].At.After(out[j].At) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (m *Memory) UserByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (m *Memory) CreateUser(ctx context.Context, user *models.User) (string, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = *user
	return user.ID, nil
}

func (m *Memory) ListUsers(ctx context.Context) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	users := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool {
		if !users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].CreatedAt.Before(users[j].CreatedAt)
		}
		return users[i].ID < users[j].ID
	})
	return users, nil
}

func (m *Memory) UpdateUser(ctx context.Context, id string, email, hashedPassword *string, role *models.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil
	}
	if email != nil {
		u.Email = *email
	}
	if hashedPassword != nil {
		u.Password = *hashedPassword
	}
	if role != nil {
		u.Role = *role
	}
	m.users[id] = u
	return nil
}

func (m *Memory) DeleteUser(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
	return nil
}

func (m *Memory) CountByRole(ctx context.Context, role models.Role) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int64
	for _, u := range m.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

func (m *Memory) Close(ctx context.Context) error {
	return nil
}
