// Package daemon coordinates the long-running Subweave process.
//
// It wires configuration, queue storage, and the workflow manager into a
// single lifecycle with flock-based locking to prevent multiple instances.
// The daemon exposes queue maintenance helpers, handles source and local-file
// enqueue requests from the IPC server, and reports dependency health.
//
// Keep orchestration logic here: individual pipeline stages live in their
// respective packages while the daemon focuses on startup, shutdown, and high
// level coordination.
package daemon
