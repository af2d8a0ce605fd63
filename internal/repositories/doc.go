// Package repositories implements the SQLite import journal.
//
// [ImportRepository] implements models.Repository[*models.ImportRun] and additionally stores the
// per-playlist and per-track outcomes of each run. Runs support soft deletes via deleted_at
// timestamps and deleted runs are excluded from queries.
//
// Sequence numbers give runs a stable, human-readable ordering (run #42) independent of UUIDs.
// The [NextSequence] function atomically increments per-table counters in dedicated sequence tables.
package repositories
