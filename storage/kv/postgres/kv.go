// Package postgres backs the key/value store with a single PostgreSQL table,
// for deployments where several app instances share one store.
package postgres

import (
	"database/sql"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver
	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/arifa/core"
)

const schema = `
CREATE TABLE IF NOT EXISTS arifa_kv (
    key   text PRIMARY KEY,
    value jsonb NOT NULL
);`

type store struct {
	db *sqlx.DB
}

var _ core.KV = (*store)(nil)

func NewStore(dsn string) (*store, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "connecting to postgres")
	}
	if _, err = db.Exec(schema); err != nil {
		db.Close()
		return nil, pkgerrors.Wrap(err, "ensuring kv table")
	}
	return &store{db: db}, nil
}

func (s *store) Get(key string) ([]byte, error) {
	var value []byte
	err := s.db.Get(&value, `SELECT value FROM arifa_kv WHERE key = $1`, key)
	if err == sql.ErrNoRows {
		return nil, core.ErrKeyNotFound
	}
	return value, pkgerrors.Wrapf(err, "reading key %q", key)
}

func (s *store) Set(key string, value []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO arifa_kv (key, value) VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
		key, value,
	)
	return pkgerrors.Wrapf(err, "writing key %q", key)
}

func (s *store) Close() error {
	return s.db.Close()
}
