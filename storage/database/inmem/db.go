package inmemdb

import (
	"sync"

	"github.com/trezcool/maendeleo/core/progress"
	"github.com/trezcool/maendeleo/core/user"
)

// DB is an in-memory store used in tests and local smoke runs.
type DB struct {
	mutex sync.RWMutex
	users map[string]*user.User
	items map[string]*progress.Item
}

func NewDB() *DB {
	return &DB{
		users: make(map[string]*user.User),
		items: make(map[string]*progress.Item),
	}
}

// Reset drops all stored records.
func (db *DB) Reset() {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	db.users = make(map[string]*user.User)
	db.items = make(map[string]*progress.Item)
}
