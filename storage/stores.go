// Package storage picks the stores matching the configured storage driver.
package storage

import (
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/user"
	"github.com/trezcool/masomo-portal/storage/database"
	inmemdb "github.com/trezcool/masomo-portal/storage/database/inmem"
	sqlxrepos "github.com/trezcool/masomo-portal/storage/database/sqlx"
)

type Stores struct {
	KV    core.KeyValueStore
	Users user.Repository
	close func() error
}

func (s *Stores) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// Open returns the stores for conf.Driver, migrating SQL databases first.
func Open(conf core.StorageConfig) (*Stores, error) {
	if conf.Driver == database.DriverMemory {
		db := inmemdb.Open()
		return &Stores{KV: inmemdb.NewKeyValueStore(db), Users: inmemdb.NewUserRepository(db)}, nil
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}
	if err = database.Migrate(db); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "preparing database")
	}
	return &Stores{
		KV:    sqlxrepos.NewKeyValueStore(db),
		Users: sqlxrepos.NewUserRepository(db),
		close: db.Close,
	}, nil
}
