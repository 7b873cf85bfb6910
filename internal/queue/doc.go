// Package queue persists pipeline items in SQLite and exposes helpers for
// driving their lifecycle.
//
// The Store manages database connections, schema initialization, stats
// queries, heartbeat tracking, stuck-item recovery, and the status
// transitions the workflow manager steps items through. Queue items carry
// the per-stage artifact paths (media file, transcripts, subtitle track,
// rendered video) so stages can resume from whatever the previous run left
// behind.
//
// The database is transient storage for in-flight jobs rather than a
// long-term archive. Schema changes bump the version in schema.go; users
// clear the database to adopt the new schema.
package queue
