// Package nomads probes the NOMADS file server for forecast cycles.
//
// ListCycles reads a day directory listing and reports which publication
// hours have started; CheckCompletion issues a HEAD request for the marker
// file written last in a cycle. Both return an explicit Outcome so callers
// can tell "nothing published yet" from "server unreachable".
package nomads
