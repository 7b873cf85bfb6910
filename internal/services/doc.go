// Package services holds the shared plumbing used by stage handlers and the
// external tool integrations.
//
// It provides:
//   - Context helpers that stamp queue item IDs, stage names, lanes, and
//     request correlation identifiers for logging.
//   - Sentinel error markers plus the Wrap helper that classify failures into
//     queue statuses (failed vs review).
//
// Stage logic should route every failure through these helpers so error
// handling and observability stay uniform across the pipeline.
package services
