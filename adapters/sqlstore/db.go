package sqlstore

import (
	"context"
	"fmt"
	"time"

	"edaworkspace/internal/errors"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Open connects to the analysis database; driver is "postgres" or "sqlite"
func Open(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	var driverName string
	switch driver {
	case "postgres":
		driverName = "postgres"
	case "sqlite":
		driverName = "sqlite"
	default:
		return nil, errors.ConfigInvalid(fmt.Sprintf("unsupported analysis store driver %q", driver))
	}

	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, errors.DatabaseError("failed to open analysis database", err)
	}

	if driverName == "sqlite" {
		// a single connection keeps in-memory databases shared and serializes writers
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, errors.DatabaseError("failed to connect to analysis database", err)
	}
	return db, nil
}
