// Package osproc implements platform.ProcessManager on top of os/exec and
// the Linux /proc filesystem.
package osproc
