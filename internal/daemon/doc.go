// Package daemon owns the backlog process lifecycle: the single-instance
// lock, the stop-request signal file the external coding agent polls between
// features, and the status snapshot served over IPC.
package daemon
