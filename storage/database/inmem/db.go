// Package inmemdb holds the in-memory stores used by tests and the "memory" storage driver.
package inmemdb

import (
	"sync"

	"github.com/trezcool/masomo-portal/core/user"
)

type (
	DB struct {
		user *userTable
		kv   *kvTable
	}

	userTable struct {
		table map[string]*user.User
		mutex sync.RWMutex
	}

	kvTable struct {
		table map[string]string
		mutex sync.RWMutex
	}
)

func Open() *DB {
	return &DB{
		user: &userTable{table: make(map[string]*user.User)},
		kv:   &kvTable{table: make(map[string]string)},
	}
}
