package store

import (
	"database/sql"
	"sync"
)

type Store struct {
	db *sql.DB
	// BookCache caches *model.Book rows by id. Invalidated on every update
	// or delete.
	BookCache sync.Map
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Ping() error {
	return s.db.Ping()
}

func (s *Store) Close() error {
	return s.db.Close()
}
