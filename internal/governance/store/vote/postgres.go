package vote

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

// PostgresStore persists votes in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed vote store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const voteColumns = `id, steward_id, client_id, vote, comment, created_at`

// Create relies on votes_steward_client_key to reject a second ballot for the pair.
func (s *PostgresStore) Create(ctx context.Context, v *models.Vote) error {
	query := `
		INSERT INTO votes (` + voteColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(v.ID),
		uuid.UUID(v.StewardID),
		uuid.UUID(v.ClientID),
		string(v.Choice),
		v.Comment,
		v.CreatedAt,
	)
	if err != nil {
		if pgplatform.IsUniqueViolation(err, "votes_steward_client_key") {
			return fmt.Errorf("create vote: %w", sentinel.ErrConflict)
		}
		if pgplatform.IsForeignKeyViolation(err) {
			return fmt.Errorf("create vote: %w", sentinel.ErrNotFound)
		}
		return fmt.Errorf("create vote: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByPair(ctx context.Context, stewardID id.StewardID, clientID id.ClientID) (*models.Vote, error) {
	query := `SELECT ` + voteColumns + ` FROM votes WHERE steward_id = $1 AND client_id = $2`
	v, err := scanVote(s.db.QueryRowContext(ctx, query, uuid.UUID(stewardID), uuid.UUID(clientID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find vote: %w", err)
	}
	return v, nil
}

func (s *PostgresStore) ListByClient(ctx context.Context, clientID id.ClientID) ([]*models.Vote, error) {
	return s.list(ctx, "client_id = $1", uuid.UUID(clientID))
}

func (s *PostgresStore) ListBySteward(ctx context.Context, stewardID id.StewardID) ([]*models.Vote, error) {
	return s.list(ctx, "steward_id = $1", uuid.UUID(stewardID))
}

func (s *PostgresStore) CountBySteward(ctx context.Context, stewardID id.StewardID) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM votes WHERE steward_id = $1`, uuid.UUID(stewardID)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count votes: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) list(ctx context.Context, where string, arg any) ([]*models.Vote, error) {
	query := `SELECT ` + voteColumns + ` FROM votes WHERE ` + where + ` ORDER BY created_at ASC, id ASC`
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list votes: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Vote, 0)
	for rows.Next() {
		v, err := scanVote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan vote: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate votes: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVote(row rowScanner) (*models.Vote, error) {
	var (
		v         models.Vote
		voteID    uuid.UUID
		stewardID uuid.UUID
		clientID  uuid.UUID
		choice    string
	)
	if err := row.Scan(&voteID, &stewardID, &clientID, &choice, &v.Comment, &v.CreatedAt); err != nil {
		return nil, err
	}
	v.ID = id.VoteID(voteID)
	v.StewardID = id.StewardID(stewardID)
	v.ClientID = id.ClientID(clientID)
	v.Choice = models.VoteChoice(choice)
	return &v, nil
}
