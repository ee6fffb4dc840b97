// Package preview draws top-down frames of a generated scene. The frames
// are a quick visual check of placement and cycles before a scene is sent
// to the renderer. Tests use testify.
package preview

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/gogpu/gg"

	"github.com/AaronLay10/cyclist/internal/events"
	"github.com/AaronLay10/cyclist/internal/scene"
)

// margin is the share of the bounds added on every side, so orbits that
// leave the bounds stay visible.
const margin = 0.25

// Previewer writes PNG frames for scenes.
type Previewer struct {
	dir   string
	width int
	every int
}

// New returns a previewer writing to dir. Every every-th frame is drawn,
// starting with frame 1.
func New(dir string, width, every int) (*Previewer, error) {
	if width < 16 {
		return nil, fmt.Errorf("preview width must be at least 16, got %d", width)
	}
	if every < 1 {
		every = 1
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Previewer{dir: dir, width: width, every: every}, nil
}

// Frames returns the frame numbers a scene's preview covers.
func (p *Previewer) Frames(s *scene.Scene) []int {
	var frames []int
	for f := 1; f <= s.TotalFrames(); f += p.every {
		frames = append(frames, f)
	}
	return frames
}

// FileName is the preview file of one frame.
func FileName(split string, index, frame int) string {
	return fmt.Sprintf("%s_%d_frame_%04d.png", split, index, frame)
}

// Write draws every preview frame of s and returns the written paths.
func (p *Previewer) Write(s *scene.Scene) ([]string, error) {
	var paths []string
	for _, frame := range p.Frames(s) {
		dc := p.Draw(s, frame)
		path := filepath.Join(p.dir, FileName(s.Split, s.Index, frame))
		err := dc.SavePNG(path)
		dc.Close()
		if err != nil {
			return paths, fmt.Errorf("frame %d: %w", frame, err)
		}
		paths = append(paths, path)
	}
	events.Emit("info", "preview.written", "", map[string]interface{}{
		"scene_index": s.Index,
		"frames":      len(paths),
		"directory":   p.dir,
	})
	return paths, nil
}

// projection maps ground-plane coordinates to pixels, y pointing up.
type projection struct {
	minX, maxY float64
	scale      float64
}

func newProjection(b scene.Bounds, width int) (projection, int) {
	w, h := b.MaxX-b.MinX, b.MaxY-b.MinY
	mx, my := w*margin, h*margin
	scale := float64(width) / (w + 2*mx)
	height := int(math.Round((h + 2*my) * scale))
	return projection{minX: b.MinX - mx, maxY: b.MaxY + my, scale: scale}, height
}

func (p projection) point(l scene.Location) (float64, float64) {
	return (l.X - p.minX) * p.scale, (p.maxY - l.Y) * p.scale
}

// Draw renders one frame. The caller closes the returned context.
func (p *Previewer) Draw(s *scene.Scene, frame int) *gg.Context {
	proj, height := newProjection(s.Bounds, p.width)
	dc := gg.NewContext(p.width, height)

	light := 1.0
	if s.Lights != nil {
		if st := s.Lights.At(frame); st.Intensity != nil {
			light = 0.55 + 0.45*(*st.Intensity)
		}
	}
	dc.SetRGB(0.9*light, 0.9*light, 0.88*light)
	dc.DrawRectangle(0, 0, float64(p.width), float64(height))
	dc.Fill()

	x0, y0 := proj.point(scene.Location{X: s.MinX, Y: s.MaxY})
	x1, y1 := proj.point(scene.Location{X: s.MaxX, Y: s.MinY})
	dc.SetRGB(0.4, 0.4, 0.4)
	dc.SetLineWidth(1)
	dc.DrawRectangle(x0, y0, x1-x0, y1-y0)
	dc.Stroke()

	for _, o := range s.Objects {
		if c := o.Cycle(scene.KindOrbit); c != nil && c.Center != nil && *c.Center < len(s.Objects) {
			cx, cy := proj.point(scene.LocationAt(s.Objects[*c.Center], frame))
			ox, oy := proj.point(scene.LocationAt(o, frame))
			dc.SetRGBA(0.2, 0.2, 0.2, 0.3)
			dc.DrawLine(cx, cy, ox, oy)
			dc.Stroke()
		}
	}

	for _, o := range s.Objects {
		drawObject(dc, proj, s, o, frame)
	}
	return dc
}

func drawObject(dc *gg.Context, proj projection, s *scene.Scene, o *scene.Object, frame int) {
	x, y := proj.point(scene.LocationAt(o, frame))

	radius := s.SizeValue(o.Size)
	if c := o.Cycle(scene.KindResize); c != nil {
		radius *= c.ScaleAt(frame)
	}
	radius *= proj.scale

	name := o.Color
	if c := o.Cycle(scene.KindRecolor); c != nil {
		if col := c.ColorAt(frame); col != "" {
			name = col
		}
	}
	if rgba := s.Colors[name]; len(rgba) >= 3 {
		dc.SetRGB(rgba[0], rgba[1], rgba[2])
	} else {
		dc.SetRGB(0.5, 0.5, 0.5)
	}

	rotation := o.Angle
	if c := o.Cycle(scene.KindRotate); c != nil {
		if st := c.At(frame); len(st.Rotation) > 0 {
			rotation += st.Rotation[0]
		}
	}

	switch o.Mesh {
	case scene.SphereMesh, "Cylinder":
		dc.DrawCircle(x, y, radius)
	case "Cube":
		dc.DrawRegularPolygon(4, x, y, radius*math.Sqrt2, rotation+math.Pi/4)
	default:
		dc.DrawRegularPolygon(6, x, y, radius, rotation)
	}
	dc.FillPreserve()
	dc.SetRGB(0.1, 0.1, 0.1)
	dc.SetLineWidth(1)
	dc.Stroke()
}
