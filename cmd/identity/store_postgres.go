package identity

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store over PostgreSQL.
//
// The pgx pool is owned by the caller; this store never closes it.
// Identifiers are quoted with pgx.Identifier.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

// PostgresOption configures the store.
type PostgresOption func(*PostgresStore) error

var pgIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// WithSchema sets the Postgres schema (default "hello").
func WithSchema(schema string) PostgresOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if schema == "" {
			return fmt.Errorf("identity: empty schema")
		}
		if !pgIdentRe.MatchString(schema) {
			return fmt.Errorf("identity: invalid schema identifier")
		}
		s.schema = schema
		return nil
	}
}

// NewPostgresStore constructs a PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool, opts ...PostgresOption) (*PostgresStore, error) {
	st := &PostgresStore{pool: pool, schema: "hello"}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.pool == nil {
		return nil, fmt.Errorf("identity: nil pool")
	}
	return st, nil
}

// Migrate creates the schema and members table if missing.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	members := s.table()
	ddl := `CREATE SCHEMA IF NOT EXISTS ` + pgx.Identifier{s.schema}.Sanitize() + `;
CREATE TABLE IF NOT EXISTS ` + members + ` (
  id BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
  login_id TEXT NOT NULL,
  name TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  CONSTRAINT uq_members_login_id UNIQUE (login_id)
);`
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("identity: migrate: %w", err)
	}
	return nil
}

func (s *PostgresStore) table() string {
	return pgx.Identifier{s.schema, "members"}.Sanitize()
}

func (s *PostgresStore) Save(ctx context.Context, in NewMember) (Member, error) {
	const op = "identity.PostgresStore.Save"

	if in.LoginID == "" || in.PasswordHash == "" {
		return Member{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "login id and password hash are required"}
	}

	m := Member{LoginID: in.LoginID, Name: in.Name, PasswordHash: in.PasswordHash}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO `+s.table()+` (login_id, name, password_hash)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		in.LoginID, in.Name, in.PasswordHash,
	).Scan(&m.ID)
	if err != nil {
		if pgIsUniqueViolation(err) {
			return Member{}, ConflictError{Op: op, Field: "loginId"}
		}
		return Member{}, err
	}
	return m, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id int64) (Member, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, login_id, name, password_hash FROM `+s.table()+` WHERE id = $1`, id)
	return scanMember(row, "identity.PostgresStore.FindByID", "member "+strconv.FormatInt(id, 10))
}

func (s *PostgresStore) FindByLoginID(ctx context.Context, loginID string) (Member, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, login_id, name, password_hash FROM `+s.table()+` WHERE login_id = $1`, loginID)
	return scanMember(row, "identity.PostgresStore.FindByLoginID", "member")
}

func (s *PostgresStore) FindAll(ctx context.Context) ([]Member, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, login_id, name, password_hash FROM `+s.table()+` ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.ID, &m.LoginID, &m.Name, &m.PasswordHash); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE `+s.table()+` SET password_hash = $2 WHERE id = $1`, id, hash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return NotFoundError{Op: "identity.PostgresStore.UpdatePasswordHash", Resource: "member " + strconv.FormatInt(id, 10)}
	}
	return nil
}

func scanMember(row pgx.Row, op, resource string) (Member, error) {
	var m Member
	err := row.Scan(&m.ID, &m.LoginID, &m.Name, &m.PasswordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return Member{}, NotFoundError{Op: op, Resource: resource}
	}
	if err != nil {
		return Member{}, err
	}
	return m, nil
}

func pgIsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
