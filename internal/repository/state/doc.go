// Package state implements persistence for the monitor dedup State.
//
// FileRepository keeps the record as a small JSON document
// ({"last_cycle": "YYYYMMDD_HH", "is_completed": false}) replaced atomically
// on every save; SQLiteRepository keeps the same two fields in a single-row
// table. Both satisfy Repository, which the monitor service depends on.
package state
