package db

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
)

// StartReadingsCleaner deletes readings older than retention every interval
// until ctx is done.
func StartReadingsCleaner(
	ctx context.Context,
	db *sql.DB,
	driver Driver,
	interval time.Duration,
	retention time.Duration,
	log *zap.Logger,
) {
	query := Rebind(driver, `DELETE FROM readings WHERE recorded_at < ?`)
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cutoff := time.Now().Add(-retention).UnixMilli()
				res, err := db.ExecContext(ctx, query, cutoff)
				if err != nil {
					log.Error("failed to clean old readings", zap.Error(err))
					continue
				}
				if rows, _ := res.RowsAffected(); rows > 0 {
					log.Info("cleaned old readings", zap.Int64("removed", rows))
				}
			}
		}
	}()
}
