package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/upeu-dev/vinculacion-api/internal/models"
)

func newProjectRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestProjectRepositoryUpdateStateApplies(t *testing.T) {
	db, mock, cleanup := newProjectRepoMock(t)
	defer cleanup()
	repo := NewProjectRepository(db)

	mock.ExpectExec("UPDATE vm_projects SET state").
		WithArgs("proj-1", models.ProjectStatePlanned, models.ProjectStateInProgress, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	applied, err := repo.UpdateState(context.Background(), "proj-1", models.ProjectStatePlanned, models.ProjectStateInProgress)
	require.NoError(t, err)
	require.True(t, applied)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepositoryUpdateStateLosesGuard(t *testing.T) {
	db, mock, cleanup := newProjectRepoMock(t)
	defer cleanup()
	repo := NewProjectRepository(db)

	// Another transition already moved the row: the guard matches nothing.
	mock.ExpectExec("UPDATE vm_projects SET state").
		WithArgs("proj-1", models.ProjectStatePlanned, models.ProjectStateInProgress, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	applied, err := repo.UpdateState(context.Background(), "proj-1", models.ProjectStatePlanned, models.ProjectStateInProgress)
	require.NoError(t, err)
	require.False(t, applied)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepositoryTakenLevels(t *testing.T) {
	db, mock, cleanup := newProjectRepoMock(t)
	defer cleanup()
	repo := NewProjectRepository(db)

	rows := sqlmock.NewRows([]string{"level"}).AddRow(2).AddRow(5)
	mock.ExpectQuery("SELECT level FROM vm_projects").
		WithArgs("ep-1", "per-1", models.ProjectTypeLinked, models.ProjectStateCancelled).
		WillReturnRows(rows)

	levels, err := repo.TakenLevels(context.Background(), "ep-1", "per-1")
	require.NoError(t, err)
	require.Equal(t, []int{2, 5}, levels)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepositoryExistsByCode(t *testing.T) {
	db, mock, cleanup := newProjectRepoMock(t)
	defer cleanup()
	repo := NewProjectRepository(db)

	mock.ExpectQuery("SELECT 1 FROM vm_projects").
		WithArgs("VIN-2026-01").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	taken, err := repo.ExistsByCode(context.Background(), "VIN-2026-01")
	require.NoError(t, err)
	require.False(t, taken)
	require.NoError(t, mock.ExpectationsWereMet())
}
