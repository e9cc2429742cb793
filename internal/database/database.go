package database

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const (
	Postgres = "postgres"
	SQLite   = "sqlite3"
)

// Open connects to the database and brings the schema up to date.
func Open(driver, dsn string) (db *sqlx.DB, err error) {
	if driver != Postgres && driver != SQLite {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err = sqlx.Open(driver, dsn)
	if err != nil {
		return
	}

	if err = db.Ping(); err != nil {
		db.Close()
		return
	}

	// db tuning options
	if driver == SQLite {
		// one writer keeps SQLite from returning SQLITE_BUSY under concurrent submits
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(20)
		db.SetMaxIdleConns(10)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(2 * time.Hour)

	if err = Migrate(db); err != nil {
		db.Close()
		return
	}

	return
}
