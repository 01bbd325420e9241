package wallpaper

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	"github.com/mj1618/desktop-organizer/internal/model"
	"github.com/mj1618/desktop-organizer/internal/platform/platformtest"
)

func writePNG(t *testing.T, dir, name string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func TestEmptyPathIsNoop(t *testing.T) {
	d := platformtest.NewDesktop()
	a := NewApplier(d.Wallpaper, d.Processes, nil, nil)

	ok, msg := a.ApplyIfSafe("")
	assert.True(t, ok)
	assert.Empty(t, msg)
	assert.Empty(t, d.Wallpaper.Calls())
}

func TestApplySetsValidImage(t *testing.T) {
	d := platformtest.NewDesktop()
	path := writePNG(t, t.TempDir(), "bg.png")
	a := NewApplier(d.Wallpaper, d.Processes, []string{"wallpaperengine"}, nil)

	require.NoError(t, a.Apply(path))
	assert.Equal(t, []string{path}, d.Wallpaper.Calls())
}

func TestApplyAcceptsBMP(t *testing.T) {
	d := platformtest.NewDesktop()
	path := filepath.Join(t.TempDir(), "bg.bmp")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, bmp.Encode(f, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	require.NoError(t, f.Close())

	a := NewApplier(d.Wallpaper, d.Processes, nil, nil)
	assert.NoError(t, a.Apply(path))
}

func TestApplyRefusedWhileEngineRuns(t *testing.T) {
	d := platformtest.NewDesktop()
	d.Processes.Spawn("/opt/engine/wallpaperengine", model.Rect{Width: 10, Height: 10})
	path := writePNG(t, t.TempDir(), "bg.png")
	a := NewApplier(d.Wallpaper, d.Processes, []string{"wallpaperengine"}, nil)

	err := a.Apply(path)
	assert.ErrorIs(t, err, ErrBlocked)
	assert.Empty(t, d.Wallpaper.Calls())
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	good := writePNG(t, dir, "ok.png")
	garbage := filepath.Join(dir, "bad.jpg")
	require.NoError(t, os.WriteFile(garbage, []byte("not an image"), 0o644))

	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{"valid png", good, nil},
		{"wrong extension", filepath.Join(dir, "notes.txt"), ErrUnsupportedFormat},
		{"missing file", filepath.Join(dir, "missing.png"), os.ErrNotExist},
		{"undecodable", garbage, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.path)
			switch {
			case tt.name == "valid png":
				assert.NoError(t, err)
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			default:
				assert.Error(t, err)
			}
		})
	}
}

func TestSetterFailureIsReported(t *testing.T) {
	d := platformtest.NewDesktop()
	d.Wallpaper.Err = errors.New("gsettings missing")
	path := writePNG(t, t.TempDir(), "bg.png")
	a := NewApplier(d.Wallpaper, d.Processes, nil, nil)

	ok, msg := a.ApplyIfSafe(path)
	assert.False(t, ok)
	assert.Contains(t, msg, "gsettings missing")
}
