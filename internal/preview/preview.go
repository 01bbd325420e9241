// Package preview renders a profile's saved layout over the display topology
// as an image, so a profile can be checked without applying it.
package preview

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/mj1618/desktop-organizer/internal/model"
)

// DefaultScale maps desktop pixels to image pixels.
const DefaultScale = 0.1

var (
	background   = color.RGBA{R: 24, G: 24, B: 24, A: 255}
	displayColor = color.RGBA{R: 70, G: 130, B: 180, A: 255}
	primaryColor = color.RGBA{R: 255, G: 215, B: 0, A: 255}
	appColor     = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	textColor    = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	outlineColor = color.RGBA{R: 0, G: 0, B: 0, A: 200}
)

const margin = 10

// Render draws displays as outlines and each app with a saved position as a
// labelled box. Apps without a saved position are skipped.
func Render(p *model.WorkspaceProfile, displays []model.Display, scale float64) (*image.RGBA, error) {
	if p == nil {
		return nil, fmt.Errorf("profile is nil")
	}
	if scale <= 0 || scale > 1 {
		return nil, fmt.Errorf("scale must be in (0, 1], got %v", scale)
	}

	var rects []model.Rect
	for _, d := range displays {
		rects = append(rects, d.Bounds)
	}
	for _, e := range p.Apps {
		if e.HasSavedPosition() {
			rects = append(rects, e.SavedRect())
		}
	}
	if len(rects) == 0 {
		return nil, fmt.Errorf("nothing to draw: no displays and no saved positions")
	}
	desk := union(rects)

	w := int(float64(desk.Width)*scale) + 2*margin
	h := int(float64(desk.Height)*scale) + 2*margin
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	project := func(r model.Rect) (int, int, int, int) {
		x1 := margin + int(float64(r.X-desk.X)*scale)
		y1 := margin + int(float64(r.Y-desk.Y)*scale)
		return x1, y1, x1 + int(float64(r.Width)*scale), y1 + int(float64(r.Height)*scale)
	}

	for _, d := range displays {
		x1, y1, x2, y2 := project(d.Bounds)
		c := displayColor
		if d.IsPrimary {
			c = primaryColor
		}
		drawRectangle(img, x1, y1, x2, y2, c)
		drawTextWithOutline(img, d.DeviceID, x1+4, y1+14, c, outlineColor)
	}
	for _, e := range p.Apps {
		if !e.HasSavedPosition() {
			continue
		}
		x1, y1, x2, y2 := project(e.SavedRect())
		drawRectangle(img, x1, y1, x2, y2, appColor)
		drawTextWithOutline(img, e.Name(), (x1+x2)/2-len(e.Name())*7/2, (y1+y2)/2, textColor, outlineColor)
	}
	return img, nil
}

// WritePNG renders p and encodes it to w.
func WritePNG(w io.Writer, p *model.WorkspaceProfile, displays []model.Display, scale float64) error {
	img, err := Render(p, displays, scale)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

func union(rects []model.Rect) model.Rect {
	minX, minY := rects[0].X, rects[0].Y
	maxX, maxY := rects[0].X+rects[0].Width, rects[0].Y+rects[0].Height
	for _, r := range rects[1:] {
		minX = min(minX, r.X)
		minY = min(minY, r.Y)
		maxX = max(maxX, r.X+r.Width)
		maxY = max(maxY, r.Y+r.Height)
	}
	return model.Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

func drawRectangle(img *image.RGBA, x1, y1, x2, y2 int, c color.Color) {
	b := img.Bounds()
	x1, y1 = max(x1, b.Min.X), max(y1, b.Min.Y)
	x2, y2 = min(x2, b.Max.X), min(y2, b.Max.Y)
	if x2 <= x1 || y2 <= y1 {
		return
	}
	for x := x1; x < x2; x++ {
		img.Set(x, y1, c)
		img.Set(x, y2-1, c)
	}
	for y := y1; y < y2; y++ {
		img.Set(x1, y, c)
		img.Set(x2-1, y, c)
	}
}

// drawTextWithOutline draws text with its baseline at (x, y) using
// basicfont.Face7x13, ringed by an outline for contrast.
func drawTextWithOutline(img *image.RGBA, text string, x, y int, fg, outline color.Color) {
	if text == "" {
		return
	}
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			if dx == 0 && dy == 0 {
				continue
			}
			drawString(img, text, x+dx, y+dy, outline)
		}
	}
	drawString(img, text, x, y, fg)
}

func drawString(img *image.RGBA, text string, x, y int, c color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}
