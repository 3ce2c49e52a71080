package steward

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"govnet/internal/governance/models"
	pgplatform "govnet/internal/platform/postgres"
	id "govnet/pkg/domain"
	"govnet/pkg/platform/sentinel"
)

// PostgresStore persists stewards in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed steward store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const stewardColumns = `id, name, email, organization, role, status,
	schemas_created, credentials_issued, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, st *models.Steward) error {
	query := `
		INSERT INTO stewards (` + stewardColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(st.ID),
		st.Name,
		st.Email,
		st.Organization,
		st.Role,
		string(st.Status),
		st.SchemasCreated,
		st.CredentialsIssued,
		st.CreatedAt,
		st.UpdatedAt,
	)
	if err != nil {
		if pgplatform.IsUniqueViolation(err, "") {
			return fmt.Errorf("create steward: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("create steward: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, stewardID id.StewardID) (*models.Steward, error) {
	return s.findOne(ctx, "id = $1", uuid.UUID(stewardID))
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.Steward, error) {
	return s.findOne(ctx, "email = $1", email)
}

func (s *PostgresStore) findOne(ctx context.Context, where string, arg any) (*models.Steward, error) {
	query := `SELECT ` + stewardColumns + ` FROM stewards WHERE ` + where
	st, err := scanSteward(s.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find steward: %w", err)
	}
	return st, nil
}

// List returns stewards oldest first, optionally only active ones.
func (s *PostgresStore) List(ctx context.Context, activeOnly bool) ([]*models.Steward, error) {
	query := `SELECT ` + stewardColumns + ` FROM stewards`
	if activeOnly {
		query += ` WHERE status = 'active'`
	}
	query += ` ORDER BY created_at ASC, email ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list stewards: %w", err)
	}
	defer rows.Close()

	var out []*models.Steward
	for rows.Next() {
		st, err := scanSteward(rows)
		if err != nil {
			return nil, fmt.Errorf("scan steward: %w", err)
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stewards: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM stewards`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count stewards: %w", err)
	}
	return n, nil
}

// CountActive returns the quorum denominator.
func (s *PostgresStore) CountActive(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM stewards WHERE status = 'active'`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count active stewards: %w", err)
	}
	return n, nil
}

// Update overwrites mutable fields (status, counters).
func (s *PostgresStore) Update(ctx context.Context, st *models.Steward) error {
	query := `
		UPDATE stewards
		SET status = $2, schemas_created = $3, credentials_issued = $4, updated_at = $5
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query,
		uuid.UUID(st.ID),
		string(st.Status),
		st.SchemasCreated,
		st.CredentialsIssued,
		st.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update steward: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update steward rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// Delete removes a steward. Votes reference stewards with ON DELETE RESTRICT,
// so deleting a steward who voted fails with sentinel.ErrConflict.
func (s *PostgresStore) Delete(ctx context.Context, stewardID id.StewardID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM stewards WHERE id = $1`, uuid.UUID(stewardID))
	if err != nil {
		if pgplatform.IsForeignKeyViolation(err) {
			return fmt.Errorf("delete steward: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("delete steward: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete steward rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSteward(row rowScanner) (*models.Steward, error) {
	var (
		st        models.Steward
		stewardID uuid.UUID
		status    string
	)
	if err := row.Scan(
		&stewardID,
		&st.Name,
		&st.Email,
		&st.Organization,
		&st.Role,
		&status,
		&st.SchemasCreated,
		&st.CredentialsIssued,
		&st.CreatedAt,
		&st.UpdatedAt,
	); err != nil {
		return nil, err
	}
	st.ID = id.StewardID(stewardID)
	st.Status = models.StewardStatus(status)
	return &st, nil
}
