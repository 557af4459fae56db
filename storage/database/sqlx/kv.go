package sqlxrepos

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/storage/database"
)

type kvStore struct {
	db *sqlx.DB
}

var _ core.KeyValueStore = (*kvStore)(nil)

// NewKeyValueStore returns a core.KeyValueStore backed by the kv_store table.
func NewKeyValueStore(db *sqlx.DB) core.KeyValueStore {
	return &kvStore{db: db}
}

func (s *kvStore) Get(key string) (string, bool, error) {
	var value string
	err := s.db.Get(&value, s.db.Rebind(`SELECT value FROM kv_store WHERE name = ?`), key)
	switch {
	case err == nil:
		return value, true, nil
	case errors.Is(err, sql.ErrNoRows):
		return "", false, nil
	default:
		return "", false, database.CheckConn(errors.Wrapf(err, "getting %q", key))
	}
}

func (s *kvStore) Set(key, value string) error {
	q := s.db.Rebind(`INSERT INTO kv_store (name, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`)
	if _, err := s.db.Exec(q, key, value, time.Now().UnixNano()); err != nil {
		return database.CheckConn(errors.Wrapf(err, "setting %q", key))
	}
	return nil
}

func (s *kvStore) Remove(key string) error {
	if _, err := s.db.Exec(s.db.Rebind(`DELETE FROM kv_store WHERE name = ?`), key); err != nil {
		return database.CheckConn(errors.Wrapf(err, "removing %q", key))
	}
	return nil
}
