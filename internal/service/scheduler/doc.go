// Package scheduler runs monitoring passes on a cron schedule for hosts
// without an external scheduler. Every tick performs exactly the same pass
// as the gfs-monitor command.
package scheduler
