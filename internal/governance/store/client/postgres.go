package client

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"govnet/internal/governance/models"
	pgplatform "govnet/internal/platform/postgres"
	id "govnet/pkg/domain"
	"govnet/pkg/platform/sentinel"
)

// PostgresStore persists clients in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed client store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const clientColumns = `id, company_name, tax_id, email, phone, address, role, justification,
	status, api_key, first_vote_at, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, c *models.Client) error {
	query := `
		INSERT INTO clients (` + clientColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(c.ID),
		c.CompanyName,
		c.TaxID,
		c.Email,
		c.Phone,
		c.Address,
		string(c.Role),
		c.Justification,
		string(c.Status),
		nullString(c.APIKey),
		nullTime(c.FirstVoteAt),
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		if pgplatform.IsUniqueViolation(err, "") {
			return fmt.Errorf("create client: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("create client: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, clientID id.ClientID) (*models.Client, error) {
	return s.findOne(ctx, "id = $1", uuid.UUID(clientID))
}

func (s *PostgresStore) FindByTaxID(ctx context.Context, taxID string) (*models.Client, error) {
	return s.findOne(ctx, "tax_id = $1", taxID)
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.Client, error) {
	return s.findOne(ctx, "email = $1", email)
}

func (s *PostgresStore) FindByAPIKey(ctx context.Context, apiKey string) (*models.Client, error) {
	return s.findOne(ctx, "api_key = $1", apiKey)
}

func (s *PostgresStore) findOne(ctx context.Context, where string, arg any) (*models.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE ` + where
	c, err := scanClient(s.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find client: %w", err)
	}
	return c, nil
}

// List returns clients matching filter, oldest first.
func (s *PostgresStore) List(ctx context.Context, filter models.ClientFilter) ([]*models.Client, error) {
	var (
		conds []string
		args  []any
	)
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Role != "" {
		args = append(args, string(filter.Role))
		conds = append(conds, fmt.Sprintf("role = $%d", len(args)))
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		args = append(args, "%"+escapeLike(term)+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(company_name ILIKE $%d OR email ILIKE $%d OR tax_id ILIKE $%d)", n, n, n))
	}

	query := `SELECT ` + clientColumns + ` FROM clients`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var out []*models.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clients: %w", err)
	}
	return out, nil
}

// SetFirstVoteAt stamps first_vote_at only if it is still unset.
func (s *PostgresStore) SetFirstVoteAt(ctx context.Context, clientID id.ClientID, at time.Time) (bool, error) {
	query := `
		UPDATE clients
		SET first_vote_at = $2, updated_at = $2
		WHERE id = $1 AND first_vote_at IS NULL
	`
	result, err := s.db.ExecContext(ctx, query, uuid.UUID(clientID), at)
	if err != nil {
		return false, fmt.Errorf("set first vote at: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("set first vote at rows affected: %w", err)
	}
	if rows > 0 {
		return true, nil
	}
	if err := s.ensureExists(ctx, clientID); err != nil {
		return false, err
	}
	return false, nil
}

// Finalize sets status and api key in one conditional UPDATE that only matches
// a client still in voting without a key.
func (s *PostgresStore) Finalize(ctx context.Context, clientID id.ClientID, status models.ClientStatus, apiKey string, now time.Time) error {
	query := `
		UPDATE clients
		SET status = $2, api_key = $3, updated_at = $4
		WHERE id = $1 AND status = 'voting' AND api_key IS NULL
	`
	result, err := s.db.ExecContext(ctx, query, uuid.UUID(clientID), string(status), nullString(apiKey), now)
	if err != nil {
		if pgplatform.IsUniqueViolation(err, "clients_api_key_key") {
			return fmt.Errorf("finalize client: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("finalize client: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("finalize client rows affected: %w", err)
	}
	if rows > 0 {
		return nil
	}
	if err := s.ensureExists(ctx, clientID); err != nil {
		return err
	}
	return sentinel.ErrStaleState
}

func (s *PostgresStore) ensureExists(ctx context.Context, clientID id.ClientID) error {
	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM clients WHERE id = $1)`, uuid.UUID(clientID)).Scan(&exists); err != nil {
		return fmt.Errorf("check client exists: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClient(row rowScanner) (*models.Client, error) {
	var (
		c           models.Client
		clientID    uuid.UUID
		role        string
		status      string
		apiKey      sql.NullString
		firstVoteAt sql.NullTime
	)
	if err := row.Scan(
		&clientID,
		&c.CompanyName,
		&c.TaxID,
		&c.Email,
		&c.Phone,
		&c.Address,
		&role,
		&c.Justification,
		&status,
		&apiKey,
		&firstVoteAt,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	c.ID = id.ClientID(clientID)
	c.Role = models.ClientRole(role)
	c.Status = models.ClientStatus(status)
	c.APIKey = apiKey.String
	if firstVoteAt.Valid {
		t := firstVoteAt.Time
		c.FirstVoteAt = &t
	}
	return &c, nil
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

func nullTime(value *time.Time) sql.NullTime {
	if value == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *value, Valid: true}
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
