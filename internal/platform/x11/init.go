//go:build linux

package x11

import (
	"fmt"
	"os"

	"github.com/BurntSushi/xgbutil"

	"github.com/mj1618/desktop-organizer/internal/logging"
	"github.com/mj1618/desktop-organizer/internal/platform"
	"github.com/mj1618/desktop-organizer/internal/platform/desktopenv"
	"github.com/mj1618/desktop-organizer/internal/platform/osproc"
)

// Logger is used by backends created through platform.NewProvider. The CLI
// sets it before the first provider is built.
var Logger = logging.NewNop()

func init() {
	platform.NewProviderFunc = func() (*platform.Provider, error) {
		if os.Getenv("DISPLAY") == "" {
			return nil, fmt.Errorf("%w (DISPLAY is not set)", platform.ErrUnsupported)
		}
		xu, err := xgbutil.NewConn()
		if err != nil {
			return nil, fmt.Errorf("connecting to X server: %w", err)
		}
		procs := osproc.New(Logger)
		return &platform.Provider{
			Windows:   NewWindowManager(xu, procs, Logger),
			Processes: procs,
			Displays:  NewDisplays(xu),
			Wallpaper: desktopenv.NewWallpaper(Logger),
			Volume:    desktopenv.NewVolume(Logger),
			Desktops:  NewDesktops(xu),
		}, nil
	}
}
