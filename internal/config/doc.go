// Package config defines the settings used by the gfs-monitor binaries and
// provides helpers to load, validate and save them in YAML format.
//
// Settings come from a YAML file and are overridden by environment
// variables; a .env file in the working directory is honoured as well.
package config
