// Package selftest sends a single test notification through the configured sink.
package selftest
