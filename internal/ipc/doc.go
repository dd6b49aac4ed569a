// Package ipc exposes the backlog tool-call surface via JSON-RPC over a Unix
// domain socket.
//
// The contract is a narrow request/response boundary: one scheduler operation
// per round-trip. Domain failures (unknown id, already passing, invalid bulk
// entry, blocked or finished backlog) are reported in structured response
// fields; only store-level faults surface as RPC errors.
package ipc
