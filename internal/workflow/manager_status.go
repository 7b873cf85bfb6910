package workflow

import (
	"context"

	"subweave/internal/logging"
	"subweave/internal/queue"
	"subweave/internal/stage"
)

// StatusSummary is a point-in-time snapshot of the manager used by the
// status command and the IPC status endpoint.
type StatusSummary struct {
	Running     bool
	LastError   string
	LastItem    *queue.Item
	QueueStats  map[queue.Status]int
	StageHealth map[string]stage.Health
}

// Status reports whether the lanes are running, the most recent item and
// error, current queue counts, and the health of every configured stage.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	summary := StatusSummary{}

	m.mu.RLock()
	summary.Running = m.running
	if m.lastErr != nil {
		summary.LastError = m.lastErr.Error()
	}
	if m.lastItem != nil {
		copied := *m.lastItem
		summary.LastItem = &copied
	}
	m.mu.RUnlock()

	if stats, err := m.store.Stats(ctx); err == nil {
		summary.QueueStats = stats
	} else {
		m.logger.Warn("queue stats unavailable for status summary",
			logging.Error(err),
			logging.String(logging.FieldEventType, "queue_stats_failed"),
			logging.String(logging.FieldErrorHint, "check queue database access"),
		)
	}

	summary.StageHealth = m.stageHealth(ctx)
	return summary
}

func (m *Manager) stageHealth(ctx context.Context) map[string]stage.Health {
	m.mu.RLock()
	stages := make([]pipelineStage, 0, 8)
	for _, kind := range m.laneOrder {
		lane := m.lanes[kind]
		if lane == nil {
			continue
		}
		stages = append(stages, lane.stages...)
	}
	m.mu.RUnlock()

	health := make(map[string]stage.Health, len(stages))
	for _, stg := range stages {
		if stg.handler == nil {
			health[stg.name] = stage.Unhealthy(stg.name, "no handler configured")
			continue
		}
		health[stg.name] = stg.handler.HealthCheck(ctx)
	}
	return health
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) setLastItem(item *queue.Item) {
	if item == nil {
		return
	}
	copied := *item
	m.mu.Lock()
	m.lastItem = &copied
	m.mu.Unlock()
}
