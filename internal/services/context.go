package services

import "context"

// Context keys are unexported struct types so no other package can collide
// with them. The values ride along every stage execution and surface as
// correlation fields on log lines.
type (
	itemIDKey    struct{}
	stageKey     struct{}
	laneKey      struct{}
	requestIDKey struct{}
)

// WithItemID tags ctx with the queue item being processed.
func WithItemID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, itemIDKey{}, id)
}

// ItemIDFromContext reports the queue item id carried by ctx, if any.
func ItemIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(itemIDKey{}).(int64)
	return id, ok
}

// WithStage tags ctx with the pipeline stage name. Empty names are ignored.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey{}, stage)
}

// StageFromContext reports the stage name carried by ctx, if any.
func StageFromContext(ctx context.Context) (string, bool) {
	stage, ok := ctx.Value(stageKey{}).(string)
	return stage, ok && stage != ""
}

// WithLane tags ctx with the workflow lane driving the stage. Empty names
// are ignored.
func WithLane(ctx context.Context, lane string) context.Context {
	if lane == "" {
		return ctx
	}
	return context.WithValue(ctx, laneKey{}, lane)
}

// LaneFromContext reports the lane name carried by ctx, if any.
func LaneFromContext(ctx context.Context) (string, bool) {
	lane, ok := ctx.Value(laneKey{}).(string)
	return lane, ok && lane != ""
}

// WithRequestID tags ctx with a correlation id for one item's trip through a
// lane. Empty ids are ignored.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext reports the correlation id carried by ctx, if any.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok && id != ""
}
