//go:build linux

package cmd

import (
	"github.com/mj1618/desktop-organizer/internal/logging"
	"github.com/mj1618/desktop-organizer/internal/platform/x11"
)

func setPlatformLogger(l *logging.Logger) {
	x11.Logger = l.Named("x11")
}
