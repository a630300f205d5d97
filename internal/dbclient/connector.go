package dbclient

import (
	"context"
	"fmt"
)

const defaultRowLimit = 50

// ResultSet is a fully fetched query result with every value rendered
// as cell text.
type ResultSet struct {
	Columns   []string   `json:"columns"`
	Rows      [][]string `json:"rows"`
	Truncated bool       `json:"truncated,omitempty"`
}

// Connector abstracts a source database that document imports read from.
type Connector interface {
	// TestConnection verifies connectivity.
	TestConnection(ctx context.Context) error

	// Query runs a read query and fetches up to limit rows.
	Query(ctx context.Context, query string, limit int) (*ResultSet, error)

	// Close closes the connection.
	Close() error
}

// New creates a Connector for the given driver name and DSN.
func New(driver, dsn string) (Connector, error) {
	switch driver {
	case "mysql":
		return newSQLConnector("mysql", dsn)
	case "postgres", "postgresql":
		return newSQLConnector("postgres", dsn)
	case "sqlite", "sqlite3":
		return newSQLConnector("sqlite", dsn)
	case "mongodb", "mongo":
		return newMongoConnector(dsn)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}
}
