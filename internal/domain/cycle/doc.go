// Package cycle contains core domain types for forecast cycle monitoring.
//
// It defines Hour (one of the four fixed publication hours), Date, Identity
// (a date and hour pair naming one dataset run) and State (the persisted
// dedup record of the last seen cycle and its completion status).
package cycle
