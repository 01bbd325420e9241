//go:build !linux

package cmd

import "github.com/mj1618/desktop-organizer/internal/logging"

func setPlatformLogger(*logging.Logger) {}
