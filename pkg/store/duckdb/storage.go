package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"

	"github.com/marcboeker/go-duckdb/v2"
)

const ReportsSchema = `
	CREATE TABLE IF NOT EXISTS reports (
		id VARCHAR PRIMARY KEY,
		account VARCHAR NOT NULL,
		provider VARCHAR NOT NULL,
		report_type VARCHAR NOT NULL,
		format VARCHAR NOT NULL,
		status VARCHAR NOT NULL,
		download_url VARCHAR NULL,
		error VARCHAR NULL,
		requested_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);
`

const ReportConfigsSchema = `
	CREATE TABLE IF NOT EXISTS report_configs (
		id VARCHAR PRIMARY KEY,
		account VARCHAR NOT NULL,
		provider VARCHAR NOT NULL,
		report_type VARCHAR NOT NULL,
		resources JSON,
		frequency VARCHAR NOT NULL,
		format VARCHAR NOT NULL,
		email VARCHAR NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
`

var bootQueries = []string{
	ReportsSchema,
	ReportConfigsSchema,
}

type Settings struct {
	DbPath string
}

// NewDB opens the embedded database and runs the schema bootstrap on
// every fresh connection. Boot queries are idempotent.
func NewDB(settings Settings) (*sql.DB, error) {
	c, err := duckdb.NewConnector(fmt.Sprintf("%s?threads=4", settings.DbPath), func(exec driver.ExecerContext) error {
		for _, query := range bootQueries {
			_, err := exec.ExecContext(context.Background(), query, nil)
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	db := sql.OpenDB(c)
	return db, nil
}
