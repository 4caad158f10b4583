package repository

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/civicvoice/CivicVoice/app/models"
)

// newMockRepo builds the repository on a sqlmock connection so statement
// traffic can be asserted without a live database.
func newMockRepo(t *testing.T) (IssueRepository, sqlmock.Sqlmock) {
	t.Helper()

	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      conn,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	return NewIssueRepository(db), mock
}

func issueRow(resolved bool, updatedAt time.Time) *sqlmock.Rows {
	return sqlmock.
		NewRows([]string{"id", "uuid", "title", "description", "location", "resolved", "created_at", "updated_at"}).
		AddRow(7, "u-7", "Garbage pileup", "Pile keeps growing.", "Ranchi", resolved, updatedAt.Add(-time.Hour), updatedAt)
}

func TestResolve_FlipsUnresolvedIssue(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)
	updatedAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT (.+) FROM `issues`").
		WillReturnRows(issueRow(false, updatedAt))
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `issues` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	issue, err := repo.Resolve(7)
	require.NoError(t, err)
	assert.True(t, issue.Resolved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolve_RepeatCallWritesNothing(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)
	updatedAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT (.+) FROM `issues`").
		WillReturnRows(issueRow(true, updatedAt))

	issue, err := repo.Resolve(7)
	require.NoError(t, err)
	assert.True(t, issue.Resolved)
	assert.Equal(t, updatedAt, issue.UpdatedAt, "repeat resolve must not bump updated_at")
	assert.NoError(t, mock.ExpectationsWereMet(), "already-resolved issues take no write")
}

func TestResolve_UnknownID(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM `issues`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.Resolve(9999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestList_FiltersByResolvedState(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)
	updatedAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT (.+) FROM `issues` WHERE resolved = (.+) ORDER BY created_at DESC, id DESC").
		WillReturnRows(issueRow(true, updatedAt))

	resolved := true
	issues, err := repo.List(&resolved)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, models.Issue{
		ID:          7,
		UUID:        "u-7",
		Title:       "Garbage pileup",
		Description: "Pile keeps growing.",
		Location:    "Ranchi",
		Resolved:    true,
		CreatedAt:   updatedAt.Add(-time.Hour),
		UpdatedAt:   updatedAt,
	}, issues[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}
