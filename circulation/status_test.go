package circulation_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kevinaaaquil/library/circulation"
	"github.com/kevinaaaquil/library/models"
)

func Test_Effective_OverdueIffIssuedAndPastDue(t *testing.T) {
	tests := []struct {
		name   string
		stored models.Status
		due    *time.Time
		want   models.Status
	}{
		{"issued not yet due", models.StatusIssued, ptr(now.Add(time.Second)), models.StatusIssued},
		{"issued due exactly now", models.StatusIssued, ptr(now), models.StatusIssued},
		{"issued past due", models.StatusIssued, ptr(now.Add(-time.Second)), models.StatusOverdue},
		{"stored overdue but renewed", models.StatusOverdue, ptr(now.Add(time.Hour)), models.StatusIssued},
		{"stored overdue past due", models.StatusOverdue, ptr(now.Add(-time.Hour)), models.StatusOverdue},
		{"available", models.StatusAvailable, nil, models.StatusAvailable},
		{"reserved", models.StatusReserved, nil, models.StatusReserved},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			book := models.Book{ID: "b", Status: tt.stored, DueDate: tt.due}

			got := circulation.Effective(book, now)

			assert.Equal(t, tt.want, got.Status)
			assert.Equal(t, tt.stored, book.Status)
		})
	}
}

func Test_Normalize_NeverStoresOverdue(t *testing.T) {
	book := models.Book{Status: models.StatusOverdue, DueDate: ptr(now.Add(-time.Hour)), IssuedTo: "r"}

	assert.Equal(t, models.StatusIssued, circulation.Normalize(book).Status)
	assert.Equal(t, models.StatusAvailable, circulation.Normalize(models.Book{Status: models.StatusAvailable}).Status)
}

func Test_Visible_HidesBorrowerFromStudents(t *testing.T) {
	book := models.Book{Status: models.StatusIssued, IssuedTo: "reader-1", DueDate: ptr(now)}

	assert.Empty(t, circulation.Visible(book, models.RoleStudent, "reader-2").IssuedTo)
	assert.Empty(t, circulation.Visible(book, models.RoleStudent, "").IssuedTo)
	assert.Equal(t, "reader-1", circulation.Visible(book, models.RoleStudent, "reader-1").IssuedTo)
	assert.Equal(t, "reader-1", circulation.Visible(book, models.RoleLibrarian, "").IssuedTo)
	assert.Equal(t, "reader-1", circulation.Visible(book, models.RoleAdmin, "").IssuedTo)
}

func ptr(t time.Time) *time.Time {
	return &t
}
