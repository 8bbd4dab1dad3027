// Package history persists a record of completed interrogations in SQLite.
//
// The database is a convenience log for operators (CLI history command,
// GET /tagger/v1/history), not part of the queue coordination path: the
// result store and queues stay in-memory. Rows beyond the configured keep
// limit are pruned on insert.
package history
