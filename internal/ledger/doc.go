// Package ledger persists the record of successfully processed videos in
// SQLite. Presence of a row is the idempotency gate: a video id with an entry
// is never reprocessed automatically. Writes use replace-if-present
// semantics, so at most one row exists per canonical id.
package ledger
