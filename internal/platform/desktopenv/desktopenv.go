// Package desktopenv drives desktop settings that Linux exposes only through
// helper programs: the wallpaper (gsettings, xfconf-query or feh) and the
// output volume (pactl).
package desktopenv

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mj1618/desktop-organizer/internal/logging"
)

const commandTimeout = 5 * time.Second

// ErrNoBackend is returned when none of the helper programs is installed.
var ErrNoBackend = errors.New("no supported helper program found")

// Runner executes a helper program and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// LookPath reports whether a program is installed.
type LookPath func(name string) (string, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	if err != nil {
		return out.Bytes(), fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(out.String()))
	}
	return out.Bytes(), nil
}

type base struct {
	run  Runner
	look LookPath
	log  *logging.Logger
}

func newBase(log *logging.Logger) base {
	if log == nil {
		log = logging.NewNop()
	}
	return base{run: execRunner, look: exec.LookPath, log: log}
}

func (b base) exec(name string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	return b.run(ctx, name, args...)
}

// Wallpaper sets the background through the first helper that works.
type Wallpaper struct{ base }

// NewWallpaper returns a wallpaper setter using the real helpers.
func NewWallpaper(log *logging.Logger) *Wallpaper {
	b := newBase(log)
	b.log = b.log.Named("wallpaper")
	return &Wallpaper{b}
}

// wallpaperBackends lists helper invocations in preference order. Each
// backend is a group of commands that must all succeed; the first group that
// does wins.
func wallpaperBackends(path string) [][][]string {
	uri := "file://" + path
	return [][][]string{
		{
			{"gsettings", "set", "org.gnome.desktop.background", "picture-uri", uri},
			{"gsettings", "set", "org.gnome.desktop.background", "picture-uri-dark", uri},
		},
		{{"xfconf-query", "-c", "xfce4-desktop", "-p", "/backdrop/screen0/monitor0/workspace0/last-image", "-s", path}},
		{{"feh", "--no-fehbg", "--bg-fill", path}},
	}
}

func (w *Wallpaper) SetWallpaper(path string) error {
	var errs []error
	applied := false
	for _, backend := range wallpaperBackends(path) {
		helper := backend[0][0]
		if _, err := w.look(helper); err != nil {
			continue
		}
		if err := w.runAll(backend); err != nil {
			errs = append(errs, err)
			continue
		}
		w.log.Debug("wallpaper set", zap.String("helper", helper), zap.String("path", path))
		applied = true
		break
	}
	if applied {
		return nil
	}
	if len(errs) == 0 {
		return fmt.Errorf("setting wallpaper: %w", ErrNoBackend)
	}
	return fmt.Errorf("setting wallpaper: %w", errors.Join(errs...))
}

func (w *Wallpaper) runAll(cmds [][]string) error {
	for _, c := range cmds {
		if _, err := w.exec(c[0], c[1:]...); err != nil {
			return err
		}
	}
	return nil
}

// Volume controls the default PulseAudio or PipeWire sink through pactl.
type Volume struct{ base }

// NewVolume returns a pactl-backed volume controller.
func NewVolume(log *logging.Logger) *Volume {
	b := newBase(log)
	b.log = b.log.Named("volume")
	return &Volume{b}
}

func (v *Volume) SetVolume(percent int) error {
	if percent < 0 || percent > 100 {
		return fmt.Errorf("volume %d out of range 0-100", percent)
	}
	if _, err := v.look("pactl"); err != nil {
		return fmt.Errorf("setting volume: %w", ErrNoBackend)
	}
	_, err := v.exec("pactl", "set-sink-volume", "@DEFAULT_SINK@", strconv.Itoa(percent)+"%")
	return err
}

func (v *Volume) Volume() (int, error) {
	if _, err := v.look("pactl"); err != nil {
		return 0, fmt.Errorf("reading volume: %w", ErrNoBackend)
	}
	out, err := v.exec("pactl", "get-sink-volume", "@DEFAULT_SINK@")
	if err != nil {
		return 0, err
	}
	return parseVolume(string(out))
}

var percentRe = regexp.MustCompile(`(\d+)%`)

// parseVolume returns the first channel's percentage from pactl output.
func parseVolume(out string) (int, error) {
	m := percentRe.FindStringSubmatch(out)
	if m == nil {
		return 0, fmt.Errorf("no volume in pactl output %q", strings.TrimSpace(out))
	}
	return strconv.Atoi(m[1])
}
