package projection_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevinaaaquil/library/models"
	"github.com/kevinaaaquil/library/projection"
)

var now = time.Date(2024, 12, 20, 10, 0, 0, 0, time.UTC)

func Test_Summarize_OneOverdueBook(t *testing.T) {
	books := []models.Book{issued(t, "b1", "reader-1", now.AddDate(0, 0, -1))}

	stats := projection.Summarize(books, projection.Viewer{Role: models.RoleLibrarian}, now)

	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.Overdue)
	assert.Equal(t, 0, stats.Issued)
	assert.Equal(t, 1, stats.Notifications)
	assert.Zero(t, stats.IssuePercentage)
}

func Test_Summarize_IssuePercentageExcludesOverdue(t *testing.T) {
	books := []models.Book{
		{ID: "a1", Title: "Refactoring", Status: models.StatusAvailable},
		{ID: "a2", Title: "Clean Code", Status: models.StatusAvailable},
		issued(t, "i1", "reader-1", now.AddDate(0, 0, 3)),
		issued(t, "o1", "reader-2", now.AddDate(0, 0, -1)),
	}

	stats := projection.Summarize(books, projection.Viewer{Role: models.RoleLibrarian}, now)

	assert.Equal(t, 1, stats.Issued)
	assert.Equal(t, 1, stats.Overdue)
	assert.InDelta(t, 25.0, stats.IssuePercentage, 0.001)
}

func Test_Summarize_CountsPerEffectiveStatus(t *testing.T) {
	books := mixedCatalog(t)
	issuedBooks, total := 2, 6

	stats := projection.Summarize(books, projection.Viewer{Role: models.RoleAdmin}, now)

	want := projection.Stats{
		Total:           6,
		Available:       2,
		Issued:          2,
		Overdue:         1,
		Reserved:        1,
		IssuePercentage: float64(issuedBooks) / float64(total) * 100,
		DueSoon:         1,
		Notifications:   1,
	}
	if diff := cmp.Diff(want, stats); diff != "" {
		t.Errorf("Summarize() mismatch (-want +got):\n%s", diff)
	}
}

func Test_Summarize_StudentLoans(t *testing.T) {
	books := mixedCatalog(t)

	stats := projection.Summarize(books, projection.Viewer{Role: models.RoleStudent, Ref: "reader-1"}, now)

	require.NotNil(t, stats.Loans)
	assert.Equal(t, 2, stats.Loans.Count)
	assert.Equal(t, 1, stats.Loans.Overdue)
	assert.Equal(t, 1, stats.Loans.DueSoon)
	assert.Equal(t, projection.DefaultLoanLimit, stats.Loans.Limit)
	assert.InDelta(t, 40.0, stats.Loans.QuotaPercentage, 0.001)
	assert.Equal(t, 1, stats.Notifications)
}

func Test_Summarize_StudentWithoutRefSeesCatalogDueSoon(t *testing.T) {
	stats := projection.Summarize(mixedCatalog(t), projection.Viewer{Role: models.RoleStudent}, now)

	assert.Nil(t, stats.Loans)
	assert.Equal(t, stats.DueSoon, stats.Notifications)
}

func Test_Summarize_EmptyCatalog(t *testing.T) {
	stats := projection.Summarize(nil, projection.Viewer{Role: models.RoleLibrarian}, now)

	assert.Equal(t, projection.Stats{}, stats)
}

func Test_Summarize_DueSoonWindowIsInclusive(t *testing.T) {
	p := projection.Projection{DueSoonWindow: 24 * time.Hour, LoanLimit: 5}
	books := []models.Book{
		issued(t, "edge", "r", now.Add(24*time.Hour)),
		issued(t, "later", "r", now.Add(24*time.Hour+time.Second)),
	}

	stats := p.Summarize(books, projection.Viewer{Role: models.RoleLibrarian}, now)

	assert.Equal(t, 1, stats.DueSoon)
}

func Test_Summarize_IsDeterministic(t *testing.T) {
	books := mixedCatalog(t)
	v := projection.Viewer{Role: models.RoleStudent, Ref: "reader-1"}

	assert.Equal(t, projection.Summarize(books, v, now), projection.Summarize(books, v, now))
}

func Test_OverdueList_MostOverdueFirst(t *testing.T) {
	books := []models.Book{
		issued(t, "a", "r1", now.Add(-time.Hour)),
		issued(t, "b", "r2", now.Add(-48*time.Hour)),
		issued(t, "c", "r3", now.Add(time.Hour)),
	}

	got := projection.OverdueList(books, now)

	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, "a", got[1].ID)
	assert.Equal(t, models.StatusOverdue, got[0].Status)
}

func Test_Available(t *testing.T) {
	got := projection.Available(mixedCatalog(t), now)

	assert.Len(t, got, 2)
	for _, b := range got {
		assert.Equal(t, models.StatusAvailable, b.Status)
	}
}

// mixedCatalog: 2 available, 1 reserved, 2 issued (one due in 2 days), 1 overdue.
// reader-1 holds the overdue book and the one due soon.
func mixedCatalog(t *testing.T) []models.Book {
	t.Helper()
	return []models.Book{
		{ID: "a1", Title: "The Pragmatic Programmer", Status: models.StatusAvailable},
		{ID: "a2", Title: "Refactoring", Status: models.StatusAvailable},
		{ID: "r1", Title: "Domain-Driven Design", Status: models.StatusReserved, ReservedBy: "reader-2"},
		issued(t, "i1", "reader-1", now.Add(48*time.Hour)),
		issued(t, "i2", "reader-2", now.Add(10*24*time.Hour)),
		issued(t, "o1", "reader-1", now.Add(-5*24*time.Hour)),
	}
}

func issued(t *testing.T, id, to string, due time.Time) models.Book {
	t.Helper()
	return models.Book{ID: id, Title: "Book " + id, Status: models.StatusIssued, IssuedTo: to, DueDate: &due}
}
