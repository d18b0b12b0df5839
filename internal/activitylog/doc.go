// Package activitylog keeps the human-readable audit trail of check runs.
//
// Each line is "[YYYY-MM-DD HH:MM:SS] message". The file is capped at a fixed
// number of entries and the oldest ones are evicted first.
package activitylog
