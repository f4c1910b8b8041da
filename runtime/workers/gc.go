package workers

import (
	"context"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const gcDiscardRatio = 0.5

// ValueLogGCWorker reclaims Badger value-log space in the background.
// RunValueLogGC returns ErrNoRewrite when there is nothing to collect,
// which is the normal idle case, not a failure.
type ValueLogGCWorker struct {
	db       *badger.DB
	log      *slog.Logger
	interval time.Duration
}

func NewValueLogGCWorker(db *badger.DB, log *slog.Logger, interval time.Duration) *ValueLogGCWorker {
	return &ValueLogGCWorker{db: db, log: log, interval: interval}
}

func (w *ValueLogGCWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			for {
				err := w.db.RunValueLogGC(gcDiscardRatio)
				if err == badger.ErrNoRewrite {
					break
				}
				if err != nil {
					w.log.Warn("Value log GC failed", "error", err)
					break
				}
				w.log.Debug("Value log file collected")
			}
		}
	}
}
