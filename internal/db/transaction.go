package db

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/telecast-io/telecast/internal/logger"
)

// WithTransaction executes fn inside a database transaction identified by op.
// The transaction commits if fn returns nil and rolls back if it returns an
// error or panics. SQLite allows a single writer, so a slow transaction here
// stalls every other write; op names the culprit in the debug log.
func (db *DB) WithTransaction(ctx context.Context, op string, fn func(*gorm.DB) error) error {
	start := time.Now()
	err := db.DB.WithContext(ctx).Transaction(fn)
	logger.Log.Debug().
		Str("op", op).
		Dur("elapsed", time.Since(start)).
		Bool("committed", err == nil).
		Msg("Transaction finished")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
