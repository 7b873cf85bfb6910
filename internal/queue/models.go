package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a queue item.
type Status string

const (
	StatusPending      Status = "pending"
	StatusFetching     Status = "fetching"
	StatusFetched      Status = "fetched"
	StatusTranscribing Status = "transcribing"
	StatusTranscribed  Status = "transcribed"
	StatusTranslating  Status = "translating"
	StatusTranslated   Status = "translated"
	StatusRendering    Status = "rendering"
	StatusRendered     Status = "rendered"
	StatusOrganizing   Status = "organizing"
	StatusCompleted    Status = "completed"
	StatusFailed       Status = "failed"
	StatusReview       Status = "review"
)

// UserStopReason is the review reason set when a user explicitly stops an item.
const UserStopReason = "Stop requested by user"

// DaemonStopReason is the error message set when items are failed due to daemon shutdown.
const DaemonStopReason = "Daemon stopped"

var allStatuses = []Status{
	StatusPending,
	StatusFetching,
	StatusFetched,
	StatusTranscribing,
	StatusTranscribed,
	StatusTranslating,
	StatusTranslated,
	StatusRendering,
	StatusRendered,
	StatusOrganizing,
	StatusCompleted,
	StatusFailed,
	StatusReview,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var processingStatuses = map[Status]struct{}{
	StatusFetching:     {},
	StatusTranscribing: {},
	StatusTranslating:  {},
	StatusRendering:    {},
	StatusOrganizing:   {},
}

type statusTransition struct {
	from Status
	to   Status
}

// stageRollbackTransitions map an interrupted processing status back to the
// start of its stage so a restarted daemon picks the item up cleanly.
var stageRollbackTransitions = []statusTransition{
	{from: StatusFetching, to: StatusPending},
	{from: StatusTranscribing, to: StatusFetched},
	{from: StatusTranslating, to: StatusTranscribed},
	{from: StatusRendering, to: StatusTranslated},
	{from: StatusOrganizing, to: StatusRendered},
}

// DatabaseHealth captures diagnostic information about the queue database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	SchemaVersion    string
	TableExists      bool
	ColumnsPresent   []string
	MissingColumns   []string
	IntegrityCheck   bool
	TotalItems       int
	Error            string
}

// HealthSummary describes aggregated queue counts per key lifecycle states.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Failed     int
	Review     int
	Completed  int
}

// Item represents a queue item persisted in SQLite. The *File fields are the
// per-stage artifacts; each stage fills its own and reads its predecessors'.
type Item struct {
	ID                   int64
	Source               string // URL or local path as submitted
	Title                string
	Status               Status
	TargetLanguage       string // empty selects the configured default
	MediaFile            string // fetched video
	TranscriptFile       string // source-language SRT
	TranslatedFile       string // target-language SRT
	BilingualFile        string // combined SRT
	SubtitleFile         string // styled ASS track
	RenderedFile         string // video with burned subtitles
	FinalFile            string // library destination
	ItemLogPath          string
	ErrorMessage         string
	CreatedAt            time.Time
	UpdatedAt            time.Time
	ProgressStage        string
	ProgressPercent      float64
	ProgressMessage      string
	MediaDurationSeconds float64
	MetadataJSON         string
	LastHeartbeat        *time.Time
	NeedsReview          bool
	ReviewReason         string
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsProcessing returns true when the status reflects an in-flight operation.
func (i Item) IsProcessing() bool {
	return IsProcessingStatus(i.Status)
}

// IsProcessingStatus reports whether a status reflects an in-flight operation.
func IsProcessingStatus(status Status) bool {
	_, ok := processingStatuses[status]
	return ok
}

// IsUserStopReason reports whether a review reason represents a user-initiated stop.
func IsUserStopReason(reason string) bool {
	return strings.EqualFold(strings.TrimSpace(reason), UserStopReason)
}

// InitProgress resets progress fields for a new stage. If ProgressStage is
// currently empty it is set to the provided stage value; otherwise the
// existing stage is preserved to support resume scenarios. ErrorMessage is
// cleared.
func (i *Item) InitProgress(stage, message string) {
	if i.ProgressStage == "" {
		i.ProgressStage = stage
	}
	i.ProgressMessage = message
	i.ProgressPercent = 0
	i.ErrorMessage = ""
}

// SetProgress updates all three progress fields together.
func (i *Item) SetProgress(stage, message string, percent float64) {
	i.ProgressStage = stage
	i.ProgressMessage = message
	i.ProgressPercent = percent
}

// SetProgressComplete sets progress to 100% with the given stage and message.
func (i *Item) SetProgressComplete(stage, message string) {
	i.SetProgress(stage, message, 100)
}

// SetFailed marks the item as failed with the given error message and clears
// the heartbeat.
func (i *Item) SetFailed(message string) {
	i.Status = StatusFailed
	i.ErrorMessage = message
	i.ProgressPercent = 0
	i.ProgressMessage = message
	i.LastHeartbeat = nil
	i.ProgressStage = "Failed"
}

// ProcessingLane partitions the workflow into the tool-bound foreground
// stages (fetch, transcribe) and the background stages that follow.
type ProcessingLane string

const (
	LaneForeground ProcessingLane = "foreground"
	LaneBackground ProcessingLane = "background"
)

// LaneForItem maps a queue item to its processing lane.
func LaneForItem(item *Item) ProcessingLane {
	if item == nil {
		return LaneForeground
	}
	switch item.Status {
	case StatusPending, StatusFetching, StatusFetched, StatusTranscribing:
		return LaneForeground
	case StatusTranscribed, StatusTranslating, StatusTranslated,
		StatusRendering, StatusRendered, StatusOrganizing, StatusCompleted:
		return LaneBackground
	case StatusFailed, StatusReview:
		// Items that never produced a transcript failed in the foreground.
		if item.TranscriptFile != "" {
			return LaneBackground
		}
		return LaneForeground
	default:
		return LaneForeground
	}
}
