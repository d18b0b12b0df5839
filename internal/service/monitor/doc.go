// Package monitor implements the cycle detection state machine.
//
// A Monitor is built for a single pass: it loads the dedup state, lists the
// cycles of the current UTC day, and sends at most one notification. The
// state is saved only after the sink confirms delivery, so a failed send is
// retried on the next pass and a delivered one is never repeated unless
// the save itself fails.
package monitor
