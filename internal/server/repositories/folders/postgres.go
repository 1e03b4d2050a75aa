package folders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/dbx"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgresRepository implements folder persistence over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a folder. Two concurrent creates with the same (owner,
// name) race on the unique constraint: exactly one succeeds, the other
// gets ErrorConflict.
func (r *PostgresRepository) Create(ctx context.Context, folder *models.Folder) (*models.Folder, error) {
	query :=
		`INSERT INTO folders (name, owner_id)
		 VALUES ($1, $2)
		 RETURNING id, created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query, folder.Name, folder.OwnerID).
		Scan(&folder.ID, &folder.CreatedAt, &folder.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return folder, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Folder, error) {
	query :=
		`SELECT id, name, owner_id, created_at, updated_at FROM folders
		 WHERE id = $1
		 `

	folder := &models.Folder{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&folder.ID, &folder.Name, &folder.OwnerID, &folder.CreatedAt, &folder.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return folder, nil
}

// ListByOwner returns the owner's folders, most recently updated first,
// with per-folder file counts for the dashboard.
func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.FolderInfo, error) {
	query :=
		`SELECT f.id, f.name, f.owner_id, f.created_at, f.updated_at, COUNT(fl.id)
		 FROM folders f
		 LEFT JOIN files fl ON fl.folder_id = f.id
		 WHERE f.owner_id = $1
		 GROUP BY f.id
		 ORDER BY f.updated_at DESC
		 `

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to select folders: %w", err)
	}
	defer rows.Close()

	var result []*models.FolderInfo
	for rows.Next() {
		var item models.FolderInfo
		if err := rows.Scan(&item.ID, &item.Name, &item.OwnerID,
			&item.CreatedAt, &item.UpdatedAt, &item.FileCount); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) ExistsByName(ctx context.Context, ownerID, name, excludeID string) (bool, error) {
	query :=
		`SELECT EXISTS (
		     SELECT 1 FROM folders
		     WHERE owner_id = $1 AND name = $2 AND ($3 = '' OR id::text <> $3)
		 )`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, ownerID, name, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

// UpdateName renames the folder and bumps updated_at. Exactly one row must
// be affected; zero rows means the folder is gone.
func (r *PostgresRepository) UpdateName(ctx context.Context, id, name string) error {
	query := `UPDATE folders SET name = $2, updated_at = now() WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, name)
	if err != nil {
		if isUniqueViolation(err) {
			return common.ErrorConflict
		}
		return fmt.Errorf("db error: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM folders WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
