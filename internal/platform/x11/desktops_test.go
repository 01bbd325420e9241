package x11

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mj1618/desktop-organizer/internal/model"
)

func TestRenamed(t *testing.T) {
	assert.Equal(t, []string{"a", "work", "c"}, renamed([]string{"a", "b", "c"}, 1, "work"))
	assert.Equal(t, []string{"a", "", "", "dev"}, renamed([]string{"a"}, 3, "dev"))
}

func TestMarkPrimary(t *testing.T) {
	ds := []model.Display{
		{Bounds: model.Rect{X: -1920, Width: 1920, Height: 1080}},
		{Bounds: model.Rect{Width: 2560, Height: 1440}},
	}
	markPrimary(ds)
	assert.False(t, ds[0].IsPrimary)
	assert.True(t, ds[1].IsPrimary)

	named := []model.Display{{IsPrimary: true}, {Bounds: model.Rect{Width: 10, Height: 10}}}
	markPrimary(named)
	assert.False(t, named[1].IsPrimary)

	off := []model.Display{{Bounds: model.Rect{X: 100, Width: 10, Height: 10}}}
	markPrimary(off)
	assert.True(t, off[0].IsPrimary)
}
