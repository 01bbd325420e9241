// Package wallpaper validates and applies a profile's desktop background.
package wallpaper

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/mj1618/desktop-organizer/internal/logging"
	"github.com/mj1618/desktop-organizer/internal/platform"
)

var (
	// ErrBlocked means a wallpaper engine owns the background.
	ErrBlocked = errors.New("a wallpaper engine is running")
	// ErrUnsupportedFormat means the extension is not an accepted image type.
	ErrUnsupportedFormat = errors.New("unsupported wallpaper format")
)

// Extensions lists accepted wallpaper file extensions.
var Extensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".gif", ".tif", ".tiff", ".webp"}

// ProcessChecker reports whether a process with a command name is running.
type ProcessChecker interface {
	IsRunning(name string) bool
}

// Applier sets wallpapers unless a blocking process runs.
type Applier struct {
	setter   platform.WallpaperSetter
	procs    ProcessChecker
	blocking []string
	log      *logging.Logger
}

// NewApplier creates an applier. blocking lists process names (for example
// a wallpaper engine) that make any change unsafe.
func NewApplier(setter platform.WallpaperSetter, procs ProcessChecker, blocking []string, log *logging.Logger) *Applier {
	if log == nil {
		log = logging.NewNop()
	}
	return &Applier{setter: setter, procs: procs, blocking: blocking, log: log.Named("wallpaper")}
}

// Apply validates path and sets it as the wallpaper. An empty path is a
// successful no-op.
func (a *Applier) Apply(path string) error {
	if path == "" {
		return nil
	}
	for _, name := range a.blocking {
		if a.procs != nil && a.procs.IsRunning(name) {
			return fmt.Errorf("%w (%s)", ErrBlocked, name)
		}
	}
	if err := Validate(path); err != nil {
		return err
	}
	if a.setter == nil {
		return platform.ErrUnsupported
	}
	if err := a.setter.SetWallpaper(path); err != nil {
		return fmt.Errorf("setting wallpaper: %w", err)
	}
	a.log.Info("wallpaper changed", zap.String("path", path))
	return nil
}

// ApplyIfSafe is Apply reporting success and a message instead of an
// error. Failures are logged as warnings.
func (a *Applier) ApplyIfSafe(path string) (bool, string) {
	if err := a.Apply(path); err != nil {
		a.log.Warn("wallpaper not applied", zap.String("path", path), zap.Error(err))
		return false, err.Error()
	}
	return true, ""
}

// Validate checks that path exists, has an accepted extension and decodes
// as an image header.
func Validate(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	supported := false
	for _, e := range Extensions {
		if e == ext {
			supported = true
			break
		}
	}
	if !supported {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("wallpaper file: %w", err)
	}
	defer f.Close()

	if _, _, err := image.DecodeConfig(f); err != nil {
		return fmt.Errorf("wallpaper %s is not a readable image: %w", filepath.Base(path), err)
	}
	return nil
}
