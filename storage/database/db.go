// Package database opens the SQL database backing the portal's persistent storage.
package database

import (
	"database/sql"
	"database/sql/driver"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/trezcool/masomo-portal/core"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

var ErrUnknownDriver = errors.New("unknown storage driver")

var schema = []string{
	`CREATE TABLE IF NOT EXISTS kv_store (
		name       TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		email         TEXT NOT NULL UNIQUE,
		school_id     TEXT NOT NULL DEFAULT '',
		role          TEXT NOT NULL,
		is_active     BOOLEAN NOT NULL DEFAULT TRUE,
		password_hash TEXT NOT NULL,
		created_at    BIGINT NOT NULL,
		last_login    BIGINT NOT NULL DEFAULT 0
	)`,
}

// Open connects to the SQL database described by conf and waits for it to answer.
// The memory driver has no SQL database: use the inmem stores instead.
func Open(conf core.StorageConfig) (*sqlx.DB, error) {
	var db *sqlx.DB
	var err error

	switch conf.Driver {
	case DriverSQLite:
		db, err = sqlx.Open(DriverSQLite, conf.DSN)
		if err != nil {
			return nil, errors.Wrap(err, "opening sqlite database")
		}
		// a single writer
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	case DriverPostgres:
		db, err = sqlx.Open(DriverPostgres, conf.DSN)
		if err != nil {
			return nil, errors.Wrap(err, "opening postgres database")
		}
	default:
		return nil, errors.Wrap(ErrUnknownDriver, conf.Driver)
	}

	if err = ping(db, 10); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(db *sqlx.DB, maxAttempts int) error {
	var err error
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err = db.Ping()
		if err == nil {
			break
		}
		time.Sleep(time.Duration(attempts) * 100 * time.Millisecond)
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}

// Migrate creates the tables that do not exist yet.
func Migrate(db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return errors.Wrap(err, "migrating database")
		}
	}
	return nil
}

// CheckConn turns errors of a closed or broken connection into shutdown errors.
func CheckConn(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, driver.ErrBadConn) ||
		strings.Contains(err.Error(), "sql: database is closed") {
		return errors.Wrap(core.NewShutdownError("database connection lost"), err.Error())
	}
	return err
}
