package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "modernc.org/sqlite"             // pure go sqlite driver

	"github.com/kevinaaaquil/library/models"
)

var _ Store = (*SQL)(nil)

const (
	driverPostgres = "pgx"
	driverSQLite   = "sqlite"
)

// SQL stores books, users and activity in relational tables. The same queries
// run on Postgres (pgx) and SQLite (modernc); placeholders are written as ?
// and rebound for Postgres.
type SQL struct {
	db     *sql.DB
	driver string
}

// NewPostgres connects to dsn and creates the tables if missing.
func NewPostgres(ctx context.Context, dsn string) (*SQL, error) {
	db, err := sql.Open(driverPostgres, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return newSQL(ctx, db, driverPostgres)
}

// NewSQLite opens (or creates) the database file at path.
func NewSQLite(ctx context.Context, path string) (*SQL, error) {
	if path == "" {
		path = "library.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open(driverSQLite, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	return newSQL(ctx, db, driverSQLite)
}

func newSQL(ctx context.Context, db *sql.DB, driver string) (*SQL, error) {
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	s := &SQL{db: db, driver: driver}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS books (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		author TEXT NOT NULL DEFAULT '',
		isbn TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		due_date BIGINT,
		issued_to TEXT NOT NULL DEFAULT '',
		reserved_by TEXT NOT NULL DEFAULT '',
		overdue_alerted_at BIGINT,
		updated_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL DEFAULT '',
		password TEXT NOT NULL,
		role TEXT NOT NULL,
		created_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS activities (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		book_id TEXT NOT NULL,
		book_title TEXT NOT NULL DEFAULT '',
		actor TEXT NOT NULL DEFAULT '',
		subject TEXT NOT NULL DEFAULT '',
		at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS activities_at ON activities (at)`,
}

func (s *SQL) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("execute ddl: %w", err)
		}
	}
	return nil
}

// DB exposes the underlying sql.DB for tests.
func (s *SQL) DB() *sql.DB { return s.db }

func (s *SQL) Close(ctx context.Context) error {
	return s.db.Close()
}

// rebind turns ? placeholders into $1..$n for Postgres.
func (s *SQL) rebind(query string) string {
	if s.driver != driverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

const bookColumns = `id, title, author, isbn, category, status, due_date, issued_to, reserved_by, overdue_alerted_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanBook(row scanner) (models.Book, error) {
	var (
		b            models.Book
		status       string
		due, alerted sql.NullInt64
		updated      int64
	)
	if err := row.Scan(&b.ID, &b.Title, &b.Author, &b.ISBN, &b.Category, &status, &due, &b.IssuedTo, &b.ReservedBy, &alerted, &updated); err != nil {
		return models.Book{}, err
	}
	b.Status = models.Status(status)
	b.DueDate = fromMicros(due)
	b.OverdueAlertedAt = fromMicros(alerted)
	b.UpdatedAt = time.UnixMicro(updated).UTC()
	return b, nil
}

func (s *SQL) AllBooks(ctx context.Context) ([]models.Book, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+bookColumns+` FROM books ORDER BY title, id`)
	if err != nil {
		return nil, fmt.Errorf("select books: %w", err)
	}
	defer func() { _ = rows.Close() }()
	books := []models.Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate books: %w", err)
	}
	return books, nil
}

func (s *SQL) BookByID(ctx context.Context, id string) (*models.Book, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+bookColumns+` FROM books WHERE id = ?`), id)
	b, err := scanBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select book: %w", err)
	}
	return &b, nil
}

func (s *SQL) SaveBook(ctx context.Context, book *models.Book) error {
	if book.ID == "" {
		book.ID = uuid.NewString()
	}
	q := `INSERT INTO books (` + bookColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			author = excluded.author,
			isbn = excluded.isbn,
			category = excluded.category,
			status = excluded.status,
			due_date = excluded.due_date,
			issued_to = excluded.issued_to,
			reserved_by = excluded.reserved_by,
			overdue_alerted_at = excluded.overdue_alerted_at,
			updated_at = excluded.updated_at`
	_, err := s.db.ExecContext(ctx, s.rebind(q),
		book.ID, book.Title, book.Author, book.ISBN, book.Category, string(book.Status),
		toMicros(book.DueDate), book.IssuedTo, book.ReservedBy, toMicros(book.OverdueAlertedAt),
		book.UpdatedAt.UnixMicro())
	if err != nil {
		return fmt.Errorf("upsert book: %w", err)
	}
	return nil
}

func (s *SQL) InsertActivity(ctx context.Context, a *models.Activity) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO activities (id, kind, book_id, book_title, actor, subject, at) VALUES (?, ?, ?, ?, ?, ?, ?)`),
		a.ID, string(a.Kind), a.BookID, a.BookTitle, a.Actor, a.Subject, a.At.UnixMicro())
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

func (s *SQL) RecentActivities(ctx context.Context, limit int) ([]models.Activity, error) {
	q := `SELECT id, kind, book_id, book_title, actor, subject, at FROM activities ORDER BY at DESC`
	var args []any
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("select activities: %w", err)
	}
	defer func() { _ = rows.Close() }()
	out := []models.Activity{}
	for rows.Next() {
		var (
			a    models.Activity
			kind string
			at   int64
		)
		if err := rows.Scan(&a.ID, &kind, &a.BookID, &a.BookTitle, &a.Actor, &a.Subject, &at); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		a.Kind = models.ActivityKind(kind)
		a.At = time.UnixMicro(at).UTC()
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activities: %w", err)
	}
	return out, nil
}

const userColumns = `id, email, name, password, role, created_at`

func scanUser(row scanner) (models.User, error) {
	var (
		u       models.User
		role    string
		created int64
	)
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Password, &role, &created); err != nil {
		return models.User{}, err
	}
	u.Role = models.Role(role)
	u.CreatedAt = time.UnixMicro(created).UTC()
	return u, nil
}

func (s *SQL) userWhere(ctx context.Context, where string, arg any) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+userColumns+` FROM users WHERE `+where), arg)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}
	return &u, nil
}

func (s *SQL) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.userWhere(ctx, `email = ?`, email)
}

func (s *SQL) UserByID(ctx context.Context, id string) (*models.User, error) {
	return s.userWhere(ctx, `id = ?`, id)
}

func (s *SQL) CreateUser(ctx context.Context, user *models.User) (string, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?)`),
		user.ID, user.Email, user.Name, user.Password, string(user.Role), user.CreatedAt.UnixMicro())
	if err != nil {
		return "", fmt.Errorf("insert user: %w", err)
	}
	return user.ID, nil
}

func (s *SQL) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	defer func() { _ = rows.Close() }()
	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

func (s *SQL) UpdateUser(ctx context.Context, id string, email, hashedPassword *string, role *models.Role) error {
	var (
		sets []string
		args []any
	)
	if email != nil {
		sets = append(sets, "email = ?")
		args = append(args, *email)
	}
	if hashedPassword != nil {
		sets = append(sets, "password = ?")
		args = append(args, *hashedPassword)
	}
	if role != nil {
		sets = append(sets, "role = ?")
		args = append(args, string(*role))
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	q := `UPDATE users SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
	if _, err := s.db.ExecContext(ctx, s.rebind(q), args...); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

func (s *SQL) DeleteUser(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM users WHERE id = ?`), id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

func (s *SQL) CountByRole(ctx context.Context, role models.Role) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, s.rebind(`SELECT COUNT(*) FROM users WHERE role = ?`), string(role)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func toMicros(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMicro(), Valid: true}
}

func fromMicros(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.UnixMicro(v.Int64).UTC()
	return &t
}
