// Package main hosts the backlog CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into IPC calls
// against the daemon, falling back to direct store access when no daemon is
// running. It centralizes configuration resolution and socket discovery so
// subcommands can focus on user experience instead of wiring.
package main
