package db

import (
	"database/sql"
)

// Database is a connectable handle to the media index store.
type Database interface {
	Connect() error
	Close() error
	DB() *sql.DB
}
