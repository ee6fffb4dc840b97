package scene

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// CycleEngine computes trajectories for the cycles an object owns.
type CycleEngine struct {
	scene   *Scene
	periods *PeriodChooser
	rng     *rand.Rand
}

// NewCycleEngine binds an engine to the scene under construction.
func NewCycleEngine(s *Scene, periods *PeriodChooser, rng *rand.Rand) *CycleEngine {
	return &CycleEngine{scene: s, periods: periods, rng: rng}
}

// Apply fills in every cycle present in o.Cycles, in ApplicationOrder.
// Cycle entries are expected to exist as placeholders.
func (e *CycleEngine) Apply(o *Object) error {
	for _, k := range ApplicationOrder {
		if !o.HasCycle(k) {
			continue
		}
		var err error
		switch k {
		case KindRecolor:
			err = e.applyRecolor(o)
		case KindRotate:
			e.applyRotate(o)
		case KindResize:
			err = e.applyResize(o)
		case KindLinear:
			e.applyLinear(o)
		case KindOrbit:
			err = e.applyOrbit(o)
		}
		if err != nil {
			return fmt.Errorf("apply %s: %w", k, err)
		}
	}
	return nil
}

// chunks calls fn for the first frame of each period-length chunk.
func (e *CycleEngine) chunks(period int, fn func(base int)) {
	total := e.scene.TotalFrames()
	for base := 1; base <= total; base += period {
		fn(base)
	}
}

func (e *CycleEngine) applyOrbit(o *Object) error {
	if len(e.scene.Objects) == 0 {
		return ErrNoOrbitCenter
	}
	period := e.periods.Choose(e.rng)

	initial := e.rng.Float64() * 2 * math.Pi
	increment := 2 * math.Pi / float64(period)
	direction := CounterClockwise
	if e.rng.Intn(2) == 0 {
		increment = -increment
		direction = Clockwise
	}

	centerIndex := e.rng.Intn(len(e.scene.Objects))
	center := e.scene.Objects[centerIndex]
	radius := uniform(e.rng, 2*e.scene.SizeValue(center.Size), e.scene.MaxOrbitRadius)
	z := e.scene.SizeValue(o.Size)

	states := make([]State, 0, e.scene.TotalFrames())
	e.chunks(period, func(base int) {
		for cf := 0; cf < period; cf++ {
			frame := base + cf
			c := LocationAt(center, frame)
			angle := initial + increment*float64(cf)
			states = append(states, State{
				Frame: frame,
				Location: &Location{
					X: c.X + radius*math.Cos(angle),
					Y: c.Y + radius*math.Sin(angle),
					Z: z,
				},
			})
		}
	})

	o.Cycles[KindOrbit] = &Cycle{
		Period:    period,
		States:    states,
		Center:    &centerIndex,
		Direction: direction,
	}
	o.Location = *states[0].Location
	return nil
}

func (e *CycleEngine) applyLinear(o *Object) {
	period := e.periods.Choose(e.rng)
	z := e.scene.SizeValue(o.Size)
	start := e.randomLocation(z)
	end := e.randomLocation(z)
	dx, dy := end.X-start.X, end.Y-start.Y
	half := float64(period) / 2

	states := make([]State, 0, e.scene.TotalFrames())
	e.chunks(period, func(base int) {
		for cf := 0; cf < period; cf++ {
			var t float64
			if float64(cf) <= half {
				t = float64(cf) / half
			} else {
				t = 1 - (float64(cf)-half)/half
			}
			states = append(states, State{
				Frame:    base + cf,
				Location: &Location{X: start.X + t*dx, Y: start.Y + t*dy, Z: z},
			})
		}
	})

	o.Location = start
	o.IntermittentLocation = &end
	o.Cycles[KindLinear] = &Cycle{Period: period, States: states}
}

func (e *CycleEngine) applyResize(o *Object) error {
	alternatives := otherKeys(e.scene.Sizes, o.Size)
	if len(alternatives) == 0 {
		return fmt.Errorf("%w: no size other than %q", ErrPaletteTooSmall, o.Size)
	}
	period := e.periods.Choose(e.rng)
	o.IntermittentSize = alternatives[e.rng.Intn(len(alternatives))]

	grow := e.scene.SizeValue(o.IntermittentSize) / e.scene.SizeValue(o.Size)
	shrink := 1 / grow

	states := []State{{Frame: 1, Factor: float64Ptr(1.0)}}
	e.chunks(period, func(base int) {
		states = append(states,
			State{Frame: base + period/2, Factor: float64Ptr(grow)},
			State{Frame: base + period, Factor: float64Ptr(shrink)},
		)
	})

	o.Cycles[KindResize] = &Cycle{Period: period, States: states}
	return nil
}

func (e *CycleEngine) applyRecolor(o *Object) error {
	alternatives := otherKeys(e.scene.Colors, o.Color)
	if len(alternatives) == 0 {
		return fmt.Errorf("%w: no color other than %q", ErrPaletteTooSmall, o.Color)
	}
	period := e.periods.Choose(e.rng)
	o.IntermittentColor = alternatives[e.rng.Intn(len(alternatives))]

	var states []State
	e.chunks(period, func(base int) {
		states = append(states,
			State{Frame: base, Color: o.Color},
			State{Frame: base + period/2, Color: o.IntermittentColor},
			State{Frame: base + period, Color: o.Color},
		)
	})

	o.Cycles[KindRecolor] = &Cycle{Period: period, States: states}
	return nil
}

func (e *CycleEngine) applyRotate(o *Object) {
	period := e.periods.Choose(e.rng)
	step := 2 * math.Pi / float64(period)

	states := make([]State, 0, e.scene.TotalFrames())
	e.chunks(period, func(base int) {
		for cf := 0; cf < period; cf++ {
			states = append(states, State{
				Frame:    base + cf,
				Rotation: []float64{float64(cf) * step, 0, 0},
			})
		}
	})

	o.Cycles[KindRotate] = &Cycle{Period: period, States: states}
}

// ApplyLights gives the scene a day-night lighting cycle.
func (e *CycleEngine) ApplyLights() {
	period := e.periods.Choose(e.rng)

	states := make([]State, 0, e.scene.TotalFrames())
	e.chunks(period, func(base int) {
		for cf := 0; cf < period; cf++ {
			intensity := 0.5*math.Cos(2*math.Pi*float64(cf)/float64(period)) + 0.5
			states = append(states, State{Frame: base + cf, Intensity: &intensity})
		}
	})

	e.scene.Lights = &Cycle{Period: period, States: states}
}

func (e *CycleEngine) randomLocation(z float64) Location {
	b := e.scene.Bounds
	return Location{
		X: uniform(e.rng, b.MinX, b.MaxX),
		Y: uniform(e.rng, b.MinY, b.MaxY),
		Z: z,
	}
}

// LocationAt resolves the position of o at a 1-based frame. Orbit takes
// precedence over linear motion; objects without either stay put.
func LocationAt(o *Object, frame int) Location {
	for _, k := range []Kind{KindOrbit, KindLinear} {
		if c := o.Cycle(k); c != nil && len(c.States) > 0 {
			if st := c.At(frame); st.Location != nil {
				return *st.Location
			}
		}
	}
	return o.Location
}

// At returns the state governing a 1-based frame. Dense trajectories are
// indexed directly; keyframe trajectories hold the most recent keyframe.
func (c *Cycle) At(frame int) State {
	if len(c.States) == 0 {
		return State{Frame: frame}
	}
	if i := frame - 1; i >= 0 && i < len(c.States) && c.States[i].Frame == frame {
		return c.States[i]
	}
	i := sort.Search(len(c.States), func(i int) bool { return c.States[i].Frame > frame })
	if i == 0 {
		return c.States[0]
	}
	return c.States[i-1]
}

// ScaleAt returns the absolute scale of a resizing object at a frame,
// interpolating linearly between the cumulative keyframe factors.
func (c *Cycle) ScaleAt(frame int) float64 {
	scale := 1.0
	prevFrame, prevScale := 1, 1.0
	for _, st := range c.States {
		if st.Factor == nil {
			continue
		}
		next := scale * *st.Factor
		if st.Frame >= frame {
			if st.Frame == prevFrame {
				return next
			}
			t := float64(frame-prevFrame) / float64(st.Frame-prevFrame)
			return prevScale + t*(next-prevScale)
		}
		scale = next
		prevFrame, prevScale = st.Frame, scale
	}
	return scale
}

// ColorAt returns the color name shown at a frame: the intermittent color
// for the second half of each chunk and the starting color otherwise.
func (c *Cycle) ColorAt(frame int) string {
	return c.At(frame).Color
}

func otherKeys[V any](m map[string]V, exclude string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		if k != exclude {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

func float64Ptr(v float64) *float64 {
	return &v
}
