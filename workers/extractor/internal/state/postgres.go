package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"bingads-extractor/workers/extractor/internal/domain"
)

// PostgresStore keeps the state document in a table keyed by configuration:
//
//	config_id TEXT PRIMARY KEY, state JSONB, updated_at TIMESTAMPTZ
type PostgresStore struct {
	db       *sqlx.DB
	table    string
	configID string
	qb       squirrel.StatementBuilderType
	now      func() time.Time
}

func NewPostgresStore(db *sqlx.DB, table, configID string) *PostgresStore {
	return &PostgresStore{
		db:       db,
		table:    table,
		configID: configID,
		qb:       squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		now:      time.Now,
	}
}

// OpenPostgres connects with lib/pq and verifies the connection.
func OpenPostgres(ctx context.Context, url string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(2)
	return db, nil
}

// EnsureTable creates the state table if it is missing.
func (p *PostgresStore) EnsureTable(ctx context.Context) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	config_id TEXT PRIMARY KEY,
	state JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`, p.table)
	if _, err := p.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create state table: %w", err)
	}
	return nil
}

func (p *PostgresStore) loadQuery() (string, []interface{}, error) {
	return p.qb.
		Select("state").
		From(p.table).
		Where(squirrel.Eq{"config_id": p.configID}).
		ToSql()
}

func (p *PostgresStore) saveQuery(raw []byte) (string, []interface{}, error) {
	return p.qb.
		Insert(p.table).
		Columns("config_id", "state", "updated_at").
		Values(p.configID, string(raw), p.now().UTC()).
		Suffix("ON CONFLICT (config_id) DO UPDATE SET state = EXCLUDED.state, updated_at = EXCLUDED.updated_at").
		ToSql()
}

// Load returns an empty state when no row exists.
func (p *PostgresStore) Load(ctx context.Context) (State, error) {
	query, args, err := p.loadQuery()
	if err != nil {
		return State{}, fmt.Errorf("build query: %w", err)
	}

	var raw []byte
	err = p.db.GetContext(ctx, &raw, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return State{}, nil
	}
	if err != nil {
		return State{}, domain.ErrStateLoadFailed.Wrap(err)
	}
	return decode(raw)
}

func (p *PostgresStore) Save(ctx context.Context, s State) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return domain.ErrStateSaveFailed.Wrap(err)
	}
	query, args, err := p.saveQuery(raw)
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if _, err := p.db.ExecContext(ctx, query, args...); err != nil {
		return domain.ErrStateSaveFailed.Wrap(err)
	}
	return nil
}
