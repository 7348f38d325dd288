package db

import (
	"fmt"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

var DB *sqlx.DB

// InitPostgres opens the sqlx connection used by the sweep query and the
// health check. Retries briefly so the bot survives a database that comes up
// a moment after it does.
func InitPostgres() error {

	host := os.Getenv("PG_HOST")
	port := os.Getenv("PG_PORT")
	user := os.Getenv("PG_USER")
	dbname := os.Getenv("PG_DB")
	password := os.Getenv("PG_PASSWORD")
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, dbname)

	var err error

	for i := 0; i < 10; i++ {
		DB, err = sqlx.Connect("postgres", dsn)
		if err == nil {
			// single-process service, one shared connection pool
			DB.SetMaxOpenConns(10)
			DB.SetConnMaxIdleTime(5 * time.Minute)
			return nil
		}
		time.Sleep(500 * time.Millisecond)
	}
	return err

}
