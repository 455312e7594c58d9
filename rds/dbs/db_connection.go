package dbs

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq" // PostgreSQL Driver
)

type DB struct {
	*sql.DB
}

// InitConnection opens a connection to the instance endpoint and verifies
// it with a ping before handing it out.
func InitConnection(host string, port int64, dbName string, user string, password string) (*DB, error) {
	dataSourceName := fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=require",
		host,
		port,
		dbName,
		user,
		password,
	)

	db, err := sql.Open("postgres", dataSourceName)
	if err != nil {
		return nil, err
	}

	if err = db.Ping(); err != nil {
		return nil, err
	}
	return &DB{db}, nil
}
