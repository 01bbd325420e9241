package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	xgbxinerama "github.com/BurntSushi/xgb/xinerama"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xinerama"
	"github.com/BurntSushi/xgbutil/xrect"
	"github.com/BurntSushi/xgbutil/xwindow"

	"github.com/mj1618/desktop-organizer/internal/model"
)

// Displays reports monitors through RandR, falling back to Xinerama heads
// and finally to the root window.
type Displays struct {
	xu       *xgbutil.XUtil
	randr    bool
	xinerama bool
}

// NewDisplays checks once which extensions are available.
func NewDisplays(xu *xgbutil.XUtil) *Displays {
	return &Displays{
		xu:       xu,
		randr:    randr.Init(xu.Conn()) == nil,
		xinerama: xgbxinerama.Init(xu.Conn()) == nil,
	}
}

func (d *Displays) GetActiveDisplays() ([]model.Display, error) {
	if d.randr {
		if ds, err := d.outputs(); err == nil && len(ds) > 0 {
			return ds, nil
		}
	}
	if d.xinerama {
		if heads, err := xinerama.PhysicalHeads(d.xu); err == nil && len(heads) > 0 {
			return fromHeads(heads), nil
		}
	}
	root, err := xwindow.RawGeometry(d.xu, xproto.Drawable(d.xu.RootWin()))
	if err != nil {
		return nil, fmt.Errorf("reading root geometry: %w", err)
	}
	return fromHeads([]xrect.Rect{root}), nil
}

// outputs lists connected RandR outputs that drive a CRTC.
func (d *Displays) outputs() ([]model.Display, error) {
	conn := d.xu.Conn()
	root := d.xu.RootWin()

	res, err := randr.GetScreenResourcesCurrent(conn, root).Reply()
	if err != nil {
		return nil, err
	}
	var primary randr.Output
	if p, err := randr.GetOutputPrimary(conn, root).Reply(); err == nil {
		primary = p.Output
	}

	var out []model.Display
	for _, o := range res.Outputs {
		info, err := randr.GetOutputInfo(conn, o, res.ConfigTimestamp).Reply()
		if err != nil || info.Connection != randr.ConnectionConnected || info.Crtc == 0 {
			continue
		}
		crtc, err := randr.GetCrtcInfo(conn, info.Crtc, res.ConfigTimestamp).Reply()
		if err != nil || crtc.Width == 0 || crtc.Height == 0 {
			continue
		}
		out = append(out, model.Display{
			Bounds:    model.Rect{X: int(crtc.X), Y: int(crtc.Y), Width: int(crtc.Width), Height: int(crtc.Height)},
			DeviceID:  string(info.Name),
			IsPrimary: o == primary,
		})
	}
	markPrimary(out)
	return out, nil
}

func fromHeads(heads []xrect.Rect) []model.Display {
	out := make([]model.Display, 0, len(heads))
	for i, h := range heads {
		out = append(out, model.Display{
			Bounds:   model.Rect{X: h.X(), Y: h.Y(), Width: h.Width(), Height: h.Height()},
			DeviceID: fmt.Sprintf("head-%d", i),
		})
	}
	markPrimary(out)
	return out
}

// markPrimary makes sure exactly one display is primary when RandR did not
// name one: the display at the origin, else the first.
func markPrimary(ds []model.Display) {
	if len(ds) == 0 {
		return
	}
	for _, d := range ds {
		if d.IsPrimary {
			return
		}
	}
	for i := range ds {
		if ds[i].Bounds.Contains(0, 0) {
			ds[i].IsPrimary = true
			return
		}
	}
	ds[0].IsPrimary = true
}
