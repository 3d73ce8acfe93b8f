// Package memory configures the Go soft memory limit from container
// environment variables, so the image pipeline stays inside its
// cgroup allocation.
package memory
