package scene

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AaronLay10/cyclist/internal/events"
)

func intPtr(v int) *int { return &v }

func testParams() Params {
	return Params{
		Split:                 "test",
		Seed:                  7,
		FPS:                   8,
		Duration:              4,
		Bounds:                Bounds{MinX: -5, MaxX: 5, MinY: -5, MaxY: 5},
		MinimumDistance:       0.5,
		RelationshipThreshold: 0.5,
		MaxOrbitRadius:        5,
		MaxTries:              100,
		MaxRestarts:           20,
		ForceGeneration:       true,
		MinPrimeFactors:       1,
		MaxPrimeFactors:       3,
		Clutter:               Range{Count: intPtr(2)},
		Cycles: map[Kind]Range{
			KindOrbit:   {Count: intPtr(1)},
			KindLinear:  {Count: intPtr(1)},
			KindResize:  {Count: intPtr(1)},
			KindRecolor: {Count: intPtr(1)},
			KindRotate:  {Count: intPtr(1)},
		},
		Colors: map[string][]float64{
			"red":  {1, 0, 0, 1},
			"blue": {0, 0, 1, 1},
			"gray": {0.5, 0.5, 0.5, 1},
		},
		Sizes:     map[string]float64{"small": 0.35, "large": 0.7},
		Meshes:    []string{"Sphere", "Cube", "Cylinder"},
		Materials: []string{"Rubber", "Metal"},
	}
}

func TestPrimeFactors(t *testing.T) {
	assert.Equal(t, []int{2, 2, 2, 2, 2, 5}, PrimeFactors(160))
	assert.Equal(t, []int{3, 3, 7}, PrimeFactors(63))
	assert.Equal(t, []int{13}, PrimeFactors(13))
	assert.Empty(t, PrimeFactors(1))
}

func TestPeriodDividesTotalFrames(t *testing.T) {
	for _, total := range []int{160, 96, 150, 64} {
		factors := PrimeFactors(total)
		p, err := NewPeriodChooser(total, 1, len(factors))
		require.NoError(t, err)
		rng := rand.New(rand.NewSource(int64(total)))
		for i := 0; i < 200; i++ {
			period := p.Choose(rng)
			require.Zero(t, total%period, "period %d must divide %d", period, total)
		}
	}
}

func TestPeriodChooserRejectsMalformedBounds(t *testing.T) {
	cases := []struct {
		name     string
		min, max int
	}{
		{"inverted", 4, 2},
		{"zero min", 0, 2},
		{"too many factors", 1, 7},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewPeriodChooser(160, tc.min, tc.max)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedPeriodConfig))
		})
	}
}

func TestMalformedPeriodConfigFailsBeforeGeneration(t *testing.T) {
	p := testParams()
	p.MaxPrimeFactors = 9
	_, err := NewGenerator(p, 0)
	require.ErrorIs(t, err, ErrMalformedPeriodConfig)
}

func TestNonPositiveSizesFailBeforeGeneration(t *testing.T) {
	for _, scale := range []float64{0, -0.35} {
		p := testParams()
		p.Sizes["medium"] = scale
		_, err := NewGenerator(p, 0)
		require.Error(t, err, "scale %g", scale)
		assert.Contains(t, err.Error(), `size "medium"`)
	}
}

func newTestEngine(t *testing.T) (*Scene, *CycleEngine) {
	t.Helper()
	p := testParams()
	g, err := NewGenerator(p, 0)
	require.NoError(t, err)
	s := g.newScene()
	periods, err := NewPeriodChooser(s.TotalFrames(), s.MinPrimeFactors, s.MaxPrimeFactors)
	require.NoError(t, err)
	return s, NewCycleEngine(s, periods, rand.New(rand.NewSource(3)))
}

func TestDenseTrajectoriesCoverEveryFrameOnce(t *testing.T) {
	s, e := newTestEngine(t)
	s.AddObject(&Object{Size: "small", Color: "red", Location: Location{X: 1, Y: 1}})

	o := &Object{Size: "large", Color: "blue", Cycles: map[Kind]*Cycle{
		KindLinear: {}, KindRotate: {},
	}}
	require.NoError(t, e.Apply(o))
	orbiter := &Object{Size: "small", Color: "gray", Cycles: map[Kind]*Cycle{KindOrbit: {}}}
	require.NoError(t, e.Apply(orbiter))
	e.ApplyLights()

	total := s.TotalFrames()
	for name, c := range map[string]*Cycle{
		"linear": o.Cycle(KindLinear),
		"rotate": o.Cycle(KindRotate),
		"orbit":  orbiter.Cycle(KindOrbit),
		"lights": s.Lights,
	} {
		t.Run(name, func(t *testing.T) {
			require.Len(t, c.States, total)
			require.Zero(t, total%c.Period)
			for i, st := range c.States {
				assert.Equal(t, i+1, st.Frame)
			}
		})
	}
}

func TestLinearReturnsToStartEachPeriod(t *testing.T) {
	s, e := newTestEngine(t)
	o := &Object{Size: "small", Color: "red", Cycles: map[Kind]*Cycle{KindLinear: {}}}
	require.NoError(t, e.Apply(o))

	c := o.Cycle(KindLinear)
	for base := 1; base <= s.TotalFrames(); base += c.Period {
		loc := c.At(base).Location
		require.NotNil(t, loc)
		assert.InDelta(t, o.Location.X, loc.X, 1e-9)
		assert.InDelta(t, o.Location.Y, loc.Y, 1e-9)
	}
	assert.NotNil(t, o.IntermittentLocation)
}

func TestOrbitStaysAtRadiusAroundCenter(t *testing.T) {
	s, e := newTestEngine(t)
	s.AddObject(&Object{Size: "large", Color: "red", Location: Location{X: 0, Y: 0}})
	o := &Object{Size: "small", Color: "blue", Cycles: map[Kind]*Cycle{KindOrbit: {}}}
	require.NoError(t, e.Apply(o))

	c := o.Cycle(KindOrbit)
	require.NotNil(t, c.Center)
	assert.Equal(t, 0, *c.Center)
	assert.Contains(t, []string{Clockwise, CounterClockwise}, c.Direction)

	radius := c.States[0].Location.Dist(Location{})
	assert.GreaterOrEqual(t, radius, 2*0.7)
	assert.LessOrEqual(t, radius, 5.0)
	for _, st := range c.States {
		assert.InDelta(t, radius, st.Location.Dist(Location{}), 1e-9)
	}
	assert.Equal(t, *c.States[0].Location, o.Location)
}

func TestOrbitWithoutObjectsFails(t *testing.T) {
	_, e := newTestEngine(t)
	o := &Object{Size: "small", Color: "blue", Cycles: map[Kind]*Cycle{KindOrbit: {}}}
	require.ErrorIs(t, e.Apply(o), ErrNoOrbitCenter)
}

func TestResizeAndRecolorKeyframes(t *testing.T) {
	s, e := newTestEngine(t)
	o := &Object{Size: "small", Color: "red", Cycles: map[Kind]*Cycle{
		KindResize: {}, KindRecolor: {},
	}}
	require.NoError(t, e.Apply(o))

	assert.Equal(t, "large", o.IntermittentSize)
	assert.NotEqual(t, "red", o.IntermittentColor)

	resize := o.Cycle(KindResize)
	require.Equal(t, 1, resize.States[0].Frame)
	require.Equal(t, 1.0, *resize.States[0].Factor)
	assert.Len(t, resize.States, 1+2*s.TotalFrames()/resize.Period)
	assert.InDelta(t, 2.0, resize.ScaleAt(1+resize.Period/2), 1e-9)
	assert.InDelta(t, 1.0, resize.ScaleAt(1+resize.Period), 1e-9)

	recolor := o.Cycle(KindRecolor)
	assert.Equal(t, "red", recolor.ColorAt(1))
	if recolor.Period > 1 {
		assert.Equal(t, o.IntermittentColor, recolor.ColorAt(1+recolor.Period/2))
	}
	assert.Len(t, recolor.States, 3*s.TotalFrames()/recolor.Period)
}

func TestRecolorNeedsSecondColor(t *testing.T) {
	s, e := newTestEngine(t)
	s.Colors = map[string][]float64{"red": {1, 0, 0, 1}}
	o := &Object{Size: "small", Color: "red", Cycles: map[Kind]*Cycle{KindRecolor: {}}}
	require.ErrorIs(t, e.Apply(o), ErrPaletteTooSmall)
}

func TestCollisionValidation(t *testing.T) {
	objects := []*Object{
		{Location: Location{X: 0, Y: 0}},
		{Location: Location{X: 1, Y: 0}},
	}
	assert.True(t, AlwaysCollisionFree(objects, 10, 1.0))
	assert.False(t, AlwaysCollisionFree(objects, 10, 1.5))

	// Repeated checks on an unchanged scene give the same answer.
	for i := 0; i < 3; i++ {
		assert.True(t, CollisionFree(FrameLocations(objects, 1), 1.0))
	}
}

func TestAlwaysCollisionFreeSeesMovingObjects(t *testing.T) {
	mover := &Object{
		Location: Location{X: -3},
		Cycles: map[Kind]*Cycle{KindLinear: {Period: 2, States: []State{
			{Frame: 1, Location: &Location{X: -3}},
			{Frame: 2, Location: &Location{X: 0.2}},
		}}},
	}
	still := &Object{Location: Location{X: 0}}
	objects := []*Object{mover, still}

	assert.True(t, CollisionFree(FrameLocations(objects, 1), 1))
	assert.False(t, AlwaysCollisionFree(objects, 2, 1))
}

func TestGenerateAnnouncesStartRestartsAndOutcome(t *testing.T) {
	sub := events.Subscribe("generation.started", "generation.restarted", "scene.")
	defer events.Unsubscribe(sub)

	g, err := NewGenerator(testParams(), 11)
	require.NoError(t, err)
	_, err = g.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PhaseDone, g.Phase())

	var seen []events.Event
	for done := false; !done; {
		select {
		case e := <-sub:
			seen = append(seen, e)
		default:
			done = true
		}
	}
	require.GreaterOrEqual(t, len(seen), 2)
	first, last := seen[0], seen[len(seen)-1]
	assert.Equal(t, "generation.started", first.Name)
	assert.Equal(t, 11, first.Fields["scene_index"])
	assert.Equal(t, "scene.generated", last.Name)
	assert.Equal(t, 11, last.Fields["scene_index"])

	restarts := len(seen) - 2
	for _, e := range seen[1 : len(seen)-1] {
		assert.Equal(t, "generation.restarted", e.Name)
	}
	assert.Equal(t, restarts+1, last.Fields["attempts"])
}

func TestGenerateIsDeterministic(t *testing.T) {
	gen := func() []byte {
		g, err := NewGenerator(testParams(), 3)
		require.NoError(t, err)
		s, err := g.Generate(context.Background())
		require.NoError(t, err)
		b, err := json.Marshal(s)
		require.NoError(t, err)
		return b
	}
	assert.JSONEq(t, string(gen()), string(gen()))
}

func TestGenerateHonorsOwnershipRules(t *testing.T) {
	for index := 0; index < 5; index++ {
		g, err := NewGenerator(testParams(), index)
		require.NoError(t, err)
		s, err := g.Generate(context.Background())
		require.NoError(t, err)
		require.Equal(t, PhaseDone, g.Phase())

		assert.True(t, AlwaysCollisionFree(s.Objects, s.TotalFrames(), s.MinimumDistance))
		for i, o := range s.Objects {
			assert.False(t, o.HasCycle(KindOrbit) && o.HasCycle(KindLinear), "object %d orbits and moves", i)
			if o.HasCycle(KindRotate) {
				assert.NotEqual(t, SphereMesh, o.Mesh)
			}
			if c := o.Cycle(KindOrbit); c != nil {
				assert.Less(t, *c.Center, i, "orbit center must be placed first")
			}
		}
		assert.Equal(t, "test_"+itoa(index)+"_config.json", s.SceneConfigFile)
	}
}

func TestPredeterminedObjectsComeFirst(t *testing.T) {
	p := testParams()
	p.Predetermined = []ObjectSpec{{Mesh: "Cube", Color: "red", Location: &Location{X: 4, Y: 4}}}
	g, err := NewGenerator(p, 0)
	require.NoError(t, err)
	s, err := g.Generate(context.Background())
	require.NoError(t, err)

	first := s.Objects[0]
	assert.Equal(t, "Cube", first.Mesh)
	assert.Equal(t, "red", first.Color)
	assert.Equal(t, 4.0, first.Location.X)
	assert.Equal(t, s.SizeValue(first.Size), first.Location.Z)
}

func TestRestartsAreBounded(t *testing.T) {
	p := testParams()
	p.Bounds = Bounds{MinX: -0.1, MaxX: 0.1, MinY: -0.1, MaxY: 0.1}
	p.MinimumDistance = 5
	p.MaxTries = 3
	p.MaxRestarts = 2
	p.Cycles = nil

	g, err := NewGenerator(p, 0)
	require.NoError(t, err)
	_, err = g.Generate(context.Background())
	require.ErrorIs(t, err, ErrPlacementExhausted)
	assert.Equal(t, 3, g.Attempts())
	assert.Equal(t, PhaseFailed, g.Phase())

	p.ForceGeneration = false
	g, err = NewGenerator(p, 0)
	require.NoError(t, err)
	_, err = g.Generate(context.Background())
	require.ErrorIs(t, err, ErrPlacementExhausted)
	assert.Equal(t, 1, g.Attempts())
}

func TestGenerateStopsOnCancelledContext(t *testing.T) {
	g, err := NewGenerator(testParams(), 0)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = g.Generate(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func itoa(i int) string {
	b, _ := json.Marshal(i)
	return string(b)
}
