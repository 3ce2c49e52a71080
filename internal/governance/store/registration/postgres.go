package registration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"govnet/internal/governance/models"
	pgplatform "govnet/internal/platform/postgres"
	id "govnet/pkg/domain"
	"govnet/pkg/platform/sentinel"
)

// PostgresStore persists ledger registrations in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed registration store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const registrationColumns = `id, client_id, did, verkey, admin_url, role, alias,
	ledger_status, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, r *models.Registration) error {
	query := `
		INSERT INTO ledger_registrations (` + registrationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(r.ID),
		uuid.UUID(r.ClientID),
		r.DID,
		r.Verkey,
		r.AdminURL,
		string(r.Role),
		r.Alias,
		string(r.LedgerStatus),
		r.CreatedAt,
		r.UpdatedAt,
	)
	if err != nil {
		if pgplatform.IsUniqueViolation(err, "") {
			return fmt.Errorf("create registration: %w", sentinel.ErrConflict)
		}
		if pgplatform.IsForeignKeyViolation(err) {
			return fmt.Errorf("create registration: %w", sentinel.ErrNotFound)
		}
		return fmt.Errorf("create registration: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, registrationID id.RegistrationID) (*models.Registration, error) {
	return s.findOne(ctx, "id = $1", uuid.UUID(registrationID))
}

func (s *PostgresStore) FindByClientID(ctx context.Context, clientID id.ClientID) (*models.Registration, error) {
	return s.findOne(ctx, "client_id = $1", uuid.UUID(clientID))
}

func (s *PostgresStore) FindByDID(ctx context.Context, did string) (*models.Registration, error) {
	return s.findOne(ctx, "did = $1", did)
}

func (s *PostgresStore) FindByVerkey(ctx context.Context, verkey string) (*models.Registration, error) {
	return s.findOne(ctx, "verkey = $1", verkey)
}

func (s *PostgresStore) findOne(ctx context.Context, where string, arg any) (*models.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM ledger_registrations WHERE ` + where
	var (
		r              models.Registration
		registrationID uuid.UUID
		clientID       uuid.UUID
		role           string
		status         string
	)
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&registrationID,
		&clientID,
		&r.DID,
		&r.Verkey,
		&r.AdminURL,
		&role,
		&r.Alias,
		&status,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find registration: %w", err)
	}
	r.ID = id.RegistrationID(registrationID)
	r.ClientID = id.ClientID(clientID)
	r.Role = models.LedgerRole(role)
	r.LedgerStatus = models.LedgerStatus(status)
	return &r, nil
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, registrationID id.RegistrationID, status models.LedgerStatus, now time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE ledger_registrations SET ledger_status = $2, updated_at = $3 WHERE id = $1
	`, uuid.UUID(registrationID), string(status), now)
	if err != nil {
		return fmt.Errorf("update registration status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update registration status rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
