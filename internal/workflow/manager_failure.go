package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"subweave/internal/logging"
	"subweave/internal/queue"
	"subweave/internal/services"
)

func (m *Manager) handleStageFailure(ctx context.Context, stageName string, item *queue.Item, stageErr error) {
	base := m.logger
	if base == nil {
		base = logging.NewNop()
	}
	logger := m.stageLoggerForItem(ctx, base, item).With(logging.String("component", "workflow-manager"))

	message := classifyStageFailure(stageName, stageErr)
	resolved := services.FailureStatus(stageErr)
	setItemFailureState(item, resolved, message)

	logger.Error("stage failed",
		logging.String("resolved_status", string(resolved)),
		logging.String("error_message", strings.TrimSpace(message)),
		logging.Alert("stage_failure"),
		logging.Error(stageErr),
		logging.String(logging.FieldEventType, "stage_failure"),
	)

	if err := m.store.Update(ctx, item); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("daemon shutting down, could not update stage failure")
		} else {
			logger.Error("failed to persist stage failure", logging.Error(err))
		}
	}

	m.setLastItem(item)
	m.notifyStageError(ctx, stageName, item, stageErr)
	m.checkQueueCompletion(ctx)
}

func classifyStageFailure(stageName string, stageErr error) string {
	if stageErr == nil {
		if stageName != "" {
			return fmt.Sprintf("%s failed without error detail", stageName)
		}
		return "workflow failed without error detail"
	}
	message := strings.TrimSpace(stageErr.Error())
	if message == "" {
		if stageName != "" {
			return fmt.Sprintf("%s failed", stageName)
		}
		return "workflow failed"
	}
	return message
}

// setItemFailureState routes validation and configuration failures to review
// so the operator fixes the input instead of retrying a lost cause; anything
// else is a plain failure that retry may clear.
func setItemFailureState(item *queue.Item, status queue.Status, message string) {
	if status == queue.StatusReview {
		item.Status = queue.StatusReview
		item.NeedsReview = true
		item.ReviewReason = message
		item.ErrorMessage = message
		item.ProgressStage = "Needs review"
		item.ProgressMessage = message
		item.ProgressPercent = 0
		item.LastHeartbeat = nil
		return
	}
	item.SetFailed(message)
}
