package folders

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock, db
}

func TestCreate_Success(t *testing.T) {
	repo, mock, _ := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO folders`).
		WithArgs("Reports", "u1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow("f1", now, now))

	folder, err := repo.Create(context.Background(), &models.Folder{Name: "Reports", OwnerID: "u1"})
	require.NoError(t, err)
	require.Equal(t, "f1", folder.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_UniqueViolationMapsToConflict(t *testing.T) {
	repo, mock, _ := newMockRepo(t)

	mock.ExpectQuery(`INSERT INTO folders`).
		WithArgs("Reports", "u1").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "folders_owner_name_unique"})

	_, err := repo.Create(context.Background(), &models.Folder{Name: "Reports", OwnerID: "u1"})
	require.ErrorIs(t, err, common.ErrorConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, _ := newMockRepo(t)

	mock.ExpectQuery(`SELECT id, name, owner_id`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestListByOwner(t *testing.T) {
	repo, mock, _ := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT f.id, f.name, f.owner_id`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "name", "owner_id", "created_at", "updated_at", "count"}).
			AddRow("f2", "Photos", "u1", now, now, 3).
			AddRow("f1", "Reports", "u1", now, now.Add(-time.Hour), 0))

	list, err := repo.ListByOwner(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "Photos", list[0].Name)
	require.Equal(t, int64(3), list[0].FileCount)
	require.Equal(t, int64(0), list[1].FileCount)
}

func TestExistsByName(t *testing.T) {
	repo, mock, _ := newMockRepo(t)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("u1", "Reports", "f9").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsByName(context.Background(), "u1", "Reports", "f9")
	require.NoError(t, err)
	require.True(t, exists)
}

func TestUpdateName_NotFound(t *testing.T) {
	repo, mock, _ := newMockRepo(t)

	mock.ExpectExec(`UPDATE folders SET name`).
		WithArgs("missing", "New").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateName(context.Background(), "missing", "New")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestDelete_Success(t *testing.T) {
	repo, mock, _ := newMockRepo(t)

	mock.ExpectExec(`DELETE FROM folders`).
		WithArgs("f1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "f1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
