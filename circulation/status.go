package circulation

import (
	"time"

	"github.com/kevinaaaquil/library/models"
)

// Normalize returns book in its storable form: overdue is folded back to issued.
func Normalize(book models.Book) models.Book {
	if book.Status == models.StatusOverdue {
		book.Status = models.StatusIssued
	}
	return book
}

// Effective returns book with its status as of now. An issued book whose due
// date has passed reads as overdue; nothing else changes.
func Effective(book models.Book, now time.Time) models.Book {
	book = Normalize(book)
	if IsOverdue(book, now) {
		book.Status = models.StatusOverdue
	}
	return book
}

// IsOverdue reports whether a stored loan is past its due date at now.
func IsOverdue(book models.Book, now time.Time) bool {
	s := book.Status
	return (s == models.StatusIssued || s == models.StatusOverdue) &&
		book.DueDate != nil && book.DueDate.Before(now)
}

// Visible masks the fields role may not see. Students only see the borrower
// or reserver when it is themselves.
func Visible(book models.Book, role models.Role, viewer string) models.Book {
	if role.Staff() {
		return book
	}
	if viewer == "" || book.IssuedTo != viewer {
		book.IssuedTo = ""
	}
	if viewer == "" || book.ReservedBy != viewer {
		book.ReservedBy = ""
	}
	return book
}
