package repository

import "database/sql"

// Querier is the subset of database/sql shared by *sql.DB and *sql.Tx. Methods
// that must run either standalone or inside an open transaction accept it.
type Querier interface {
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}
