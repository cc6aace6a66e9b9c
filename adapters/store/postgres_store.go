package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/keel-labs/walletgate/core"
	"github.com/keel-labs/walletgate/ports"
)

const pgUniqueViolation = "23505"

const identitiesSchema = `
create table if not exists identities (
	id         text primary key,
	address    text not null unique,
	name       text not null,
	role       text not null default 'USER',
	created_at timestamptz not null
);
create index if not exists identities_role_idx on identities(role);
`

// PostgresStore is a Postgres implementation of the IdentityStore
// interface. The unique constraint on address enforces the one-identity-
// per-address invariant; concurrent inserts surface as a unique violation.
type PostgresStore struct {
	db *sql.DB
}

// OpenPostgres connects to Postgres and ensures the identities schema.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(15 * time.Minute)

	if _, err := db.ExecContext(ctx, identitiesSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", core.ErrStorageUnavailable, err)
	}
	return &PostgresStore{db: db}, nil
}

// NewPostgresStore wraps an existing database handle.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

var _ ports.IdentityStore = (*PostgresStore)(nil)

// Close releases the connection pool.
func (s *PostgresStore) Close() error { return s.db.Close() }

// FindByAddress resolves an identity by its normalized wallet address.
func (s *PostgresStore) FindByAddress(ctx context.Context, address string) (*core.Identity, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, address, name, role, created_at from identities where address = $1`, address)
	return scanIdentity(row)
}

// Get resolves an identity by id.
func (s *PostgresStore) Get(ctx context.Context, id string) (*core.Identity, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, address, name, role, created_at from identities where id = $1`, id)
	return scanIdentity(row)
}

// Insert stores a new identity; a unique violation on address becomes
// core.ErrDuplicateAddress so the resolver can retry against the winner.
func (s *PostgresStore) Insert(ctx context.Context, identity *core.Identity) error {
	_, err := s.db.ExecContext(ctx,
		`insert into identities(id, address, name, role, created_at) values($1, $2, $3, $4, $5)`,
		identity.ID, identity.Address, identity.Name, string(identity.Role), identity.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return core.ErrDuplicateAddress
		}
		return fmt.Errorf("%w: %v", core.ErrStorageUnavailable, err)
	}
	return nil
}

// UpdateRole patches the role of an existing identity.
func (s *PostgresStore) UpdateRole(ctx context.Context, id string, role core.Role) (*core.Identity, error) {
	row := s.db.QueryRowContext(ctx,
		`update identities set role = $2 where id = $1 returning id, address, name, role, created_at`,
		id, string(role))
	return scanIdentity(row)
}

// List returns all identities.
func (s *PostgresStore) List(ctx context.Context) ([]*core.Identity, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, address, name, role, created_at from identities order by created_at`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var identities []*core.Identity
	for rows.Next() {
		var identity core.Identity
		var role string
		if err := rows.Scan(&identity.ID, &identity.Address, &identity.Name, &role, &identity.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: %v", core.ErrStorageUnavailable, err)
		}
		identity.Role = core.Role(role)
		identities = append(identities, &identity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrStorageUnavailable, err)
	}
	return identities, nil
}

func scanIdentity(row *sql.Row) (*core.Identity, error) {
	var identity core.Identity
	var role string
	err := row.Scan(&identity.ID, &identity.Address, &identity.Name, &role, &identity.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrStorageUnavailable, err)
	}
	identity.Role = core.Role(role)
	return &identity, nil
}
