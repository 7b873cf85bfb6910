package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"subweave/internal/logging"
	"subweave/internal/queue"
)

// HeartbeatMonitor keeps processing rows fresh and reclaims rows whose
// heartbeat expired, typically after a crash or an unclean shutdown.
type HeartbeatMonitor struct {
	store    *queue.Store
	logger   *slog.Logger
	interval time.Duration
	timeout  time.Duration
}

// NewHeartbeatMonitor constructs a monitor with the given refresh interval
// and staleness timeout. Non-positive values fall back to safe defaults.
func NewHeartbeatMonitor(store *queue.Store, logger *slog.Logger, interval, timeout time.Duration) *HeartbeatMonitor {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &HeartbeatMonitor{
		store:    store,
		logger:   logger,
		interval: interval,
		timeout:  timeout,
	}
}

// ReclaimStaleItems rolls processing rows with expired heartbeats back to the
// preceding ready status so the lane can pick them up again.
func (h *HeartbeatMonitor) ReclaimStaleItems(ctx context.Context, logger *slog.Logger, statuses []queue.Status) error {
	if logger == nil {
		logger = h.logger
	}
	cutoff := time.Now().UTC().Add(-h.timeout)
	count, err := h.store.ReclaimStaleProcessing(ctx, cutoff, statuses...)
	if err != nil {
		return err
	}
	if count > 0 {
		logger.Info("reclaimed stale processing items",
			logging.Int64("count", count),
			logging.Duration("heartbeat_timeout", h.timeout),
			logging.String(logging.FieldEventType, "heartbeat_reclaim"),
		)
	}
	return nil
}

// StartLoop refreshes the heartbeat for a single item until ctx is cancelled.
// The caller adds itself to wg before starting the goroutine.
func (h *HeartbeatMonitor) StartLoop(ctx context.Context, wg *sync.WaitGroup, itemID int64) {
	defer wg.Done()
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := h.store.UpdateHeartbeat(ctx, itemID); err != nil {
				if errors.Is(err, context.Canceled) {
					h.logger.Debug("daemon shutting down, heartbeat update cancelled",
						logging.Int64(logging.FieldItemID, itemID),
					)
					return
				}
				h.logger.Warn("heartbeat update failed",
					logging.Int64(logging.FieldItemID, itemID),
					logging.Error(err),
					logging.String(logging.FieldEventType, "heartbeat_update_failed"),
					logging.String(logging.FieldErrorHint, "check queue database access"),
					logging.String(logging.FieldImpact, "item may be reclaimed while still processing"),
				)
			}
		}
	}
}
