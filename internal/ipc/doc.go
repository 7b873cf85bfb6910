// Package ipc is the control plane between the subweave CLI and the daemon:
// a JSON-RPC service on a Unix socket, plus the client the commands dial.
//
// The server side wraps the daemon and the queue store behind small
// request/response DTOs so the wire format stays independent of the storage
// models. The client side adds per-call timeouts so a dead daemon turns into
// a fast, recognizable error instead of a hang.
//
// New endpoints should follow the existing DTO shape so older clients keep
// decoding responses they already understand.
package ipc
