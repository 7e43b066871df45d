package item

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store over a caller-owned pgx pool.
type PostgresStore struct {
	pool  *pgxpool.Pool
	table string
	ddl   string
}

var pgIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// NewPostgresStore builds a store for schema.items. An empty schema means "hello".
func NewPostgresStore(pool *pgxpool.Pool, schema string) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("item: nil pool")
	}
	if schema == "" {
		schema = "hello"
	}
	if !pgIdentRe.MatchString(schema) {
		return nil, fmt.Errorf("item: invalid schema identifier")
	}

	table := pgx.Identifier{schema, "items"}.Sanitize()
	return &PostgresStore{
		pool:  pool,
		table: table,
		ddl: `CREATE SCHEMA IF NOT EXISTS ` + pgx.Identifier{schema}.Sanitize() + `;
CREATE TABLE IF NOT EXISTS ` + table + ` (
  id BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
  item_name TEXT NOT NULL,
  price INTEGER NULL,
  quantity INTEGER NULL
);`,
	}, nil
}

// Migrate creates the items table if missing.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, s.ddl); err != nil {
		return fmt.Errorf("item: migrate: %w", err)
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, it Item) (Item, error) {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO `+s.table+` (item_name, price, quantity) VALUES ($1, $2, $3) RETURNING id`,
		it.ItemName, it.Price, it.Quantity,
	).Scan(&it.ID)
	if err != nil {
		return Item{}, err
	}
	return it, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id int64) (Item, error) {
	var it Item
	err := s.pool.QueryRow(ctx,
		`SELECT id, item_name, price, quantity FROM `+s.table+` WHERE id = $1`, id,
	).Scan(&it.ID, &it.ItemName, &it.Price, &it.Quantity)
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, notFound(id)
	}
	if err != nil {
		return Item{}, err
	}
	return it, nil
}

func (s *PostgresStore) FindAll(ctx context.Context) ([]Item, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, item_name, price, quantity FROM `+s.table+` ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Item, error) {
		var it Item
		err := row.Scan(&it.ID, &it.ItemName, &it.Price, &it.Quantity)
		return it, err
	})
}

func (s *PostgresStore) Update(ctx context.Context, id int64, it Item) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE `+s.table+` SET item_name = $2, price = $3, quantity = $4 WHERE id = $1`,
		id, it.ItemName, it.Price, it.Quantity,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return notFound(id)
	}
	return nil
}
