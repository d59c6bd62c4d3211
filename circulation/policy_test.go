package circulation_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevinaaaquil/library/circulation"
	"github.com/kevinaaaquil/library/models"
)

var now = time.Date(2024, 12, 20, 10, 0, 0, 0, time.UTC)

func Test_NextStatus_Issue_AvailableByLibrarian(t *testing.T) {
	// arrange
	policy := circulation.DefaultPolicy()
	book := givenAvailableBook(t)

	// act
	got, err := policy.NextStatus(book, circulation.Request{
		Action:   circulation.ActionIssue,
		BookID:   book.ID,
		Role:     models.RoleLibrarian,
		IssuedTo: "reader-1",
	}, now)

	// assert
	require.NoError(t, err)
	assert.Equal(t, models.StatusIssued, got.Status)
	assert.Equal(t, "reader-1", got.IssuedTo)
	require.NotNil(t, got.DueDate)
	assert.Equal(t, now.Add(policy.LoanPeriod), *got.DueDate)
	assert.Equal(t, models.StatusAvailable, book.Status, "input book must not change")
}

func Test_NextStatus_Issue_ReservedDefaultsToReserver(t *testing.T) {
	policy := circulation.DefaultPolicy()
	book := givenAvailableBook(t)
	book.Status = models.StatusReserved
	book.ReservedBy = "reader-2"

	got, err := policy.NextStatus(book, circulation.Request{Action: circulation.ActionIssue, Role: models.RoleAdmin}, now)

	require.NoError(t, err)
	assert.Equal(t, models.StatusIssued, got.Status)
	assert.Equal(t, "reader-2", got.IssuedTo)
	assert.Empty(t, got.ReservedBy)
}

func Test_NextStatus_Issue_WithoutBorrowerIsInvalidRequest(t *testing.T) {
	policy := circulation.DefaultPolicy()

	_, err := policy.NextStatus(givenAvailableBook(t), circulation.Request{Action: circulation.ActionIssue, Role: models.RoleLibrarian}, now)

	assert.ErrorIs(t, err, circulation.ErrInvalidRequest)
}

func Test_NextStatus_IssueThenReturn_RestoresAvailable(t *testing.T) {
	// arrange
	policy := circulation.DefaultPolicy()
	book := givenAvailableBook(t)

	// act
	issued, err := policy.NextStatus(book, circulation.Request{Action: circulation.ActionIssue, Role: models.RoleLibrarian, IssuedTo: "reader-1"}, now)
	require.NoError(t, err)
	returned, err := policy.NextStatus(issued, circulation.Request{Action: circulation.ActionReturn, Role: models.RoleLibrarian}, now.Add(time.Hour))

	// assert
	require.NoError(t, err)
	assert.Equal(t, models.StatusAvailable, returned.Status)
	assert.Empty(t, returned.IssuedTo)
	assert.Nil(t, returned.DueDate)
}

func Test_NextStatus_Return_OverdueBook(t *testing.T) {
	policy := circulation.DefaultPolicy()
	book := givenIssuedBook(t, "reader-1", now.Add(-24*time.Hour))
	alerted := now.Add(-time.Hour)
	book.OverdueAlertedAt = &alerted

	got, err := policy.NextStatus(book, circulation.Request{Action: circulation.ActionReturn, Role: models.RoleAdmin}, now)

	require.NoError(t, err)
	assert.Equal(t, models.StatusAvailable, got.Status)
	assert.Nil(t, got.OverdueAlertedAt)
}

func Test_NextStatus_Student_AlwaysForbiddenToIssue(t *testing.T) {
	policy := circulation.DefaultPolicy()
	books := []models.Book{
		givenAvailableBook(t),
		givenIssuedBook(t, "reader-1", now.Add(time.Hour)),
		givenIssuedBook(t, "reader-1", now.Add(-time.Hour)),
	}
	reserved := givenAvailableBook(t)
	reserved.Status = models.StatusReserved
	books = append(books, reserved)

	for _, book := range books {
		_, err := policy.NextStatus(book, circulation.Request{Action: circulation.ActionIssue, Role: models.RoleStudent, IssuedTo: "reader-1"}, now)
		assert.ErrorIs(t, err, circulation.ErrForbidden, "status %s", book.Status)
	}
}

func Test_NextStatus_Forbidden_StaffCannotReserveOrRenew(t *testing.T) {
	policy := circulation.DefaultPolicy()

	_, err := policy.NextStatus(givenAvailableBook(t), circulation.Request{Action: circulation.ActionReserve, Role: models.RoleLibrarian}, now)
	assert.ErrorIs(t, err, circulation.ErrForbidden)

	_, err = policy.NextStatus(givenIssuedBook(t, "r", now.Add(time.Hour)), circulation.Request{Action: circulation.ActionRenew, Role: models.RoleAdmin}, now)
	assert.ErrorIs(t, err, circulation.ErrForbidden)
}

func Test_NextStatus_Reserve(t *testing.T) {
	policy := circulation.DefaultPolicy()

	got, err := policy.NextStatus(givenAvailableBook(t), circulation.Request{Action: circulation.ActionReserve, Role: models.RoleStudent, Actor: "reader-3"}, now)

	require.NoError(t, err)
	assert.Equal(t, models.StatusReserved, got.Status)
	assert.Equal(t, "reader-3", got.ReservedBy)
	assert.Nil(t, got.DueDate)
	assert.Empty(t, got.IssuedTo)
}

func Test_NextStatus_Reserve_IssuedBookIsInvalidState(t *testing.T) {
	policy := circulation.DefaultPolicy()

	_, err := policy.NextStatus(givenIssuedBook(t, "reader-1", now.Add(time.Hour)), circulation.Request{Action: circulation.ActionReserve, Role: models.RoleStudent}, now)

	assert.ErrorIs(t, err, circulation.ErrInvalidState)
	var perr *circulation.PolicyError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, models.StatusIssued, perr.Status)
}

func Test_NextStatus_Renew_ExtendsDueDate(t *testing.T) {
	policy := circulation.DefaultPolicy()
	due := now.Add(48 * time.Hour)
	book := givenIssuedBook(t, "reader-1", due)

	got, err := policy.NextStatus(book, circulation.Request{Action: circulation.ActionRenew, Role: models.RoleStudent, Actor: "reader-1"}, now)

	require.NoError(t, err)
	assert.Equal(t, models.StatusIssued, got.Status)
	assert.Equal(t, due.Add(policy.RenewPeriod), *got.DueDate)
	assert.Equal(t, due, *book.DueDate, "input due date must not change")
}

func Test_NextStatus_Renew_OverdueIsInvalidState(t *testing.T) {
	policy := circulation.DefaultPolicy()

	_, err := policy.NextStatus(givenIssuedBook(t, "reader-1", now.Add(-time.Minute)), circulation.Request{Action: circulation.ActionRenew, Role: models.RoleStudent, Actor: "reader-1"}, now)

	assert.ErrorIs(t, err, circulation.ErrInvalidState)
}

func Test_NextStatus_Renew_SomeoneElsesLoanIsForbidden(t *testing.T) {
	policy := circulation.DefaultPolicy()

	_, err := policy.NextStatus(givenIssuedBook(t, "reader-1", now.Add(time.Hour)), circulation.Request{Action: circulation.ActionRenew, Role: models.RoleStudent, Actor: "reader-9"}, now)

	assert.ErrorIs(t, err, circulation.ErrForbidden)
}

func Test_NextStatus_Edit(t *testing.T) {
	policy := circulation.DefaultPolicy()
	book := givenIssuedBook(t, "reader-1", now.Add(time.Hour))
	title, isbn := "  Clean Code, 2nd ed. ", "978-0-13-235088-4"

	got, err := policy.NextStatus(book, circulation.Request{
		Action:   circulation.ActionEdit,
		Role:     models.RoleLibrarian,
		Metadata: circulation.Metadata{Title: &title, ISBN: &isbn},
	}, now)

	require.NoError(t, err)
	assert.Equal(t, "Clean Code, 2nd ed.", got.Title)
	assert.Equal(t, "9780132350884", got.ISBN)
	assert.Equal(t, book.Status, got.Status)
	assert.Equal(t, book.IssuedTo, got.IssuedTo)
}

func Test_NextStatus_Edit_Rejects(t *testing.T) {
	policy := circulation.DefaultPolicy()
	empty, badISBN := " ", "123"

	for _, m := range []circulation.Metadata{{}, {Title: &empty}, {ISBN: &badISBN}} {
		_, err := policy.NextStatus(givenAvailableBook(t), circulation.Request{Action: circulation.ActionEdit, Role: models.RoleAdmin, Metadata: m}, now)
		assert.ErrorIs(t, err, circulation.ErrInvalidRequest)
	}

	_, err := policy.NextStatus(givenAvailableBook(t), circulation.Request{Action: circulation.ActionEdit, Role: models.RoleStudent, Metadata: circulation.Metadata{Title: &badISBN}}, now)
	assert.ErrorIs(t, err, circulation.ErrForbidden)
}

func Test_NextStatus_UnknownAction(t *testing.T) {
	_, err := circulation.DefaultPolicy().NextStatus(givenAvailableBook(t), circulation.Request{Action: "burn", Role: models.RoleAdmin}, now)

	assert.ErrorIs(t, err, circulation.ErrInvalidRequest)
}

func Test_Actions_PerRole(t *testing.T) {
	policy := circulation.DefaultPolicy()
	available := givenAvailableBook(t)
	issued := givenIssuedBook(t, "reader-1", now.Add(time.Hour))
	overdue := givenIssuedBook(t, "reader-1", now.Add(-time.Hour))

	assert.Equal(t, []circulation.Action{circulation.ActionReserve}, policy.Actions(available, models.RoleStudent, "reader-1", now))
	assert.Equal(t, []circulation.Action{circulation.ActionRenew}, policy.Actions(issued, models.RoleStudent, "reader-1", now))
	assert.Empty(t, policy.Actions(issued, models.RoleStudent, "reader-2", now))
	assert.Empty(t, policy.Actions(overdue, models.RoleStudent, "reader-1", now))

	assert.Equal(t, []circulation.Action{circulation.ActionIssue, circulation.ActionEdit}, policy.Actions(available, models.RoleLibrarian, "", now))
	assert.Equal(t, []circulation.Action{circulation.ActionReturn, circulation.ActionEdit}, policy.Actions(overdue, models.RoleAdmin, "", now))
}

func Test_Actions_NeverOfferRejectedAction(t *testing.T) {
	policy := circulation.DefaultPolicy()
	reserved := givenAvailableBook(t)
	reserved.Status = models.StatusReserved
	reserved.ReservedBy = "reader-1"
	books := []models.Book{
		givenAvailableBook(t),
		reserved,
		givenIssuedBook(t, "reader-1", now.Add(time.Hour)),
		givenIssuedBook(t, "reader-1", now.Add(-time.Hour)),
	}

	for _, book := range books {
		for _, role := range models.ValidRoles {
			for _, a := range policy.Actions(book, role, "reader-1", now) {
				_, err := policy.NextStatus(book, circulation.Request{Action: a, Role: role, Actor: "reader-1"}, now)
				assert.False(t, errors.Is(err, circulation.ErrForbidden) || errors.Is(err, circulation.ErrInvalidState),
					"%s offered %s on %s book but got %v", role, a, book.Status, err)
			}
		}
	}
}

func Test_Can(t *testing.T) {
	assert.True(t, circulation.Can(models.RoleStudent, circulation.ActionReserve))
	assert.False(t, circulation.Can(models.RoleStudent, circulation.ActionEdit))
	assert.True(t, circulation.Can(models.RoleAdmin, circulation.ActionEdit))
	assert.False(t, circulation.Can(models.Role("guest"), circulation.ActionReserve))
}

func Test_ParseAction(t *testing.T) {
	a, ok := circulation.ParseAction(" Return ")
	assert.True(t, ok)
	assert.Equal(t, circulation.ActionReturn, a)

	_, ok = circulation.ParseAction("borrow")
	assert.False(t, ok)
}

func givenAvailableBook(t *testing.T) models.Book {
	t.Helper()
	return models.Book{
		ID:       "book-1",
		Title:    "The Pragmatic Programmer",
		Author:   "David Thomas",
		ISBN:     "978-0201616224",
		Category: "Programming",
		Status:   models.StatusAvailable,
	}
}

func givenIssuedBook(t *testing.T, to string, due time.Time) models.Book {
	t.Helper()
	b := givenAvailableBook(t)
	b.Status = models.StatusIssued
	b.IssuedTo = to
	b.DueDate = &due
	return b
}
