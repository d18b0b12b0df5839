// Package status renders the stored monitor state and the newest activity
// log entries as terminal tables.
package status
