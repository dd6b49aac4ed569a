// Package features persists the work-item backlog in SQLite and exposes the
// queries and transitions the scheduler builds on.
//
// The Store manages the database connection, schema migrations, ordered
// selection queries, and the multi-step mutations (claim, move-to-back, bulk
// insert) that must commit atomically. Each exported mutation is a single
// transaction; a crash between operations leaves the last-committed state
// intact, which is what makes resumption after a restart possible.
//
// Treat this package as the single source of truth for backlog persistence;
// schema changes are new files under migrations/ applied in lexical order.
package features
