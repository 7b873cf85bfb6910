package workflow

import "subweave/internal/queue"

// ConfigureStages registers the concrete stage handlers the workflow will run.
// Fetching and transcription share the foreground lane; translation, rendering,
// and organizing run behind them in the background lane.
func (m *Manager) ConfigureStages(set StageSet) {
	foreground := &laneState{kind: laneForeground, name: "foreground", notificationsEnabled: true}
	background := &laneState{kind: laneBackground, name: "background", notificationsEnabled: false}

	if set.Fetcher != nil {
		foreground.stages = append(foreground.stages, pipelineStage{
			name:             "fetcher",
			handler:          set.Fetcher,
			startStatus:      queue.StatusPending,
			processingStatus: queue.StatusFetching,
			doneStatus:       queue.StatusFetched,
		})
	}
	if set.Transcriber != nil {
		foreground.stages = append(foreground.stages, pipelineStage{
			name:             "transcriber",
			handler:          set.Transcriber,
			startStatus:      queue.StatusFetched,
			processingStatus: queue.StatusTranscribing,
			doneStatus:       queue.StatusTranscribed,
		})
	}
	if set.Translator != nil {
		background.stages = append(background.stages, pipelineStage{
			name:             "translator",
			handler:          set.Translator,
			startStatus:      queue.StatusTranscribed,
			processingStatus: queue.StatusTranslating,
			doneStatus:       queue.StatusTranslated,
		})
	}
	if set.Renderer != nil {
		background.stages = append(background.stages, pipelineStage{
			name:             "renderer",
			handler:          set.Renderer,
			startStatus:      queue.StatusTranslated,
			processingStatus: queue.StatusRendering,
			doneStatus:       queue.StatusRendered,
		})
	}
	if set.Organizer != nil {
		background.stages = append(background.stages, pipelineStage{
			name:             "organizer",
			handler:          set.Organizer,
			startStatus:      queue.StatusRendered,
			processingStatus: queue.StatusOrganizing,
			doneStatus:       queue.StatusCompleted,
		})
	}

	lanes := make(map[laneKind]*laneState)
	order := make([]laneKind, 0, 2)

	if len(foreground.stages) > 0 {
		foreground.finalize()
		lanes[foreground.kind] = foreground
		order = append(order, foreground.kind)
	}
	if len(background.stages) > 0 {
		background.finalize()
		lanes[background.kind] = background
		order = append(order, background.kind)
	}

	for _, lane := range lanes {
		if lane == nil {
			continue
		}
		lane.runReclaimer = len(lane.processingStatuses) > 0
	}

	m.mu.Lock()
	m.lanes = lanes
	m.laneOrder = order
	m.mu.Unlock()
}
