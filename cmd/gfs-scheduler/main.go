package main

import "github.com/oshokin/gfs-monitor/cmd/gfs-scheduler/cmd"

func main() {
	cmd.Execute()
}
