// Package check runs one monitoring pass: it loads the settings, takes the
// run lock next to the state file, wires the NOMADS client, the notifier and
// the state store into a monitor.Monitor and runs it once.
package check
