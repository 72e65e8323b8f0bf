package store

import "database/sql"

// Store persists users and their analysis history.
type Store struct {
	db *sql.DB
}

// New builds a store on top of an open database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}
