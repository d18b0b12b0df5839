package main

import "github.com/oshokin/gfs-monitor/cmd/gfs-monitor/cmd"

func main() {
	cmd.Execute()
}
