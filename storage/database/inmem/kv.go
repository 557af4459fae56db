package inmemdb

import "github.com/trezcool/masomo-portal/core"

type kvStore struct {
	db *kvTable
}

var _ core.KeyValueStore = (*kvStore)(nil)

func NewKeyValueStore(db *DB) core.KeyValueStore {
	return &kvStore{db: db.kv}
}

func (s *kvStore) Get(key string) (string, bool, error) {
	s.db.mutex.RLock()
	defer s.db.mutex.RUnlock()
	v, ok := s.db.table[key]
	return v, ok, nil
}

func (s *kvStore) Set(key, value string) error {
	s.db.mutex.Lock()
	defer s.db.mutex.Unlock()
	s.db.table[key] = value
	return nil
}

func (s *kvStore) Remove(key string) error {
	s.db.mutex.Lock()
	defer s.db.mutex.Unlock()
	delete(s.db.table, key)
	return nil
}
