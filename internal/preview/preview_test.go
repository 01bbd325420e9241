package preview

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mj1618/desktop-organizer/internal/model"
)

func TestRender(t *testing.T) {
	p := &model.WorkspaceProfile{Name: "work"}
	p.AddApp(model.NewEntry("/usr/bin/editor", "editor", model.Rect{X: 100, Y: 100, Width: 800, Height: 600}))
	p.AddApp(model.NewEntry("/usr/bin/term", "term", model.Rect{}))
	displays := []model.Display{
		{Bounds: model.Rect{Width: 1920, Height: 1080}, DeviceID: "DP-1", IsPrimary: true},
		{Bounds: model.Rect{X: 1920, Width: 1280, Height: 1024}, DeviceID: "DP-2"},
	}

	img, err := Render(p, displays, 0.1)
	require.NoError(t, err)
	assert.Equal(t, 320+2*margin, img.Bounds().Dx())
	assert.Equal(t, 108+2*margin, img.Bounds().Dy())

	// top-left corner of the editor box
	assert.Equal(t, appColor, img.RGBAAt(margin+10, margin+10))
	// top-left corner of the primary display
	assert.Equal(t, primaryColor, img.RGBAAt(margin, margin))
	assert.Equal(t, background, img.RGBAAt(1, 1))
}

func TestRenderErrors(t *testing.T) {
	_, err := Render(nil, nil, 0.1)
	assert.Error(t, err)

	_, err = Render(&model.WorkspaceProfile{Name: "x"}, nil, 0.1)
	assert.Error(t, err)

	p := &model.WorkspaceProfile{Name: "x"}
	p.AddApp(model.NewEntry("/usr/bin/a", "a", model.Rect{Width: 100, Height: 100}))
	_, err = Render(p, nil, 0)
	assert.Error(t, err)
	_, err = Render(p, nil, 2)
	assert.Error(t, err)
}

func TestWritePNG(t *testing.T) {
	p := &model.WorkspaceProfile{Name: "x"}
	p.AddApp(model.NewEntry("/usr/bin/a", "a", model.Rect{X: -100, Y: 0, Width: 500, Height: 400}))

	var buf bytes.Buffer
	require.NoError(t, WritePNG(&buf, p, nil, 0.5))
	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 250+2*margin, img.Bounds().Dx())
}
