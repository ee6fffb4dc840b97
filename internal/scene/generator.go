package scene

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/AaronLay10/cyclist/internal/events"
)

// SphereMesh is never used for rotating objects since a rotating sphere
// looks static.
const SphereMesh = "Sphere"

// DefaultMaxRestarts bounds forced generation when no limit is configured.
const DefaultMaxRestarts = 100

// Phase is a step of the generation state machine.
type Phase int

const (
	PhaseCollectingPredetermined Phase = iota
	PhasePlacingClutter
	PhaseAssigningCycles
	PhasePlacingNonOrbit
	PhasePlacingOrbit
	PhaseDone
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseCollectingPredetermined:
		return "collecting-predetermined"
	case PhasePlacingClutter:
		return "placing-clutter"
	case PhaseAssigningCycles:
		return "assigning-cycle-ownership"
	case PhasePlacingNonOrbit:
		return "placing-non-orbit-cyclic"
	case PhasePlacingOrbit:
		return "placing-orbit-cyclic"
	case PhaseDone:
		return "done"
	case PhaseFailed:
		return "failed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Range is an inclusive count range. A non-nil Count fixes the value.
type Range struct {
	Min   int
	Max   int
	Count *int
}

func (r Range) resolve(rng *rand.Rand) int {
	if r.Count != nil {
		return *r.Count
	}
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + rng.Intn(r.Max-r.Min+1)
}

// ObjectSpec describes an object to generate. Empty fields are randomized.
type ObjectSpec struct {
	Mesh     string
	Material string
	Size     string
	Color    string
	Angle    *float64
	Location *Location
	Cycles   []Kind
}

// Params holds everything needed to generate scenes of one dataset split.
type Params struct {
	Split    string
	Seed     int64
	FPS      int
	Duration float64
	Bounds   Bounds

	MinimumDistance       float64
	RelationshipThreshold float64
	MaxOrbitRadius        float64

	MaxTries        int
	MaxRestarts     int
	ForceGeneration bool
	CyclicLights    bool

	MinPrimeFactors int
	MaxPrimeFactors int

	Clutter Range
	Cycles  map[Kind]Range

	Colors     map[string][]float64
	Sizes      map[string]float64
	Meshes     []string
	Materials  []string
	Directions map[string][]float64

	Predetermined []ObjectSpec
}

// TotalFrames returns fps times duration.
func (p Params) TotalFrames() int {
	return int(math.Round(float64(p.FPS) * p.Duration))
}

// Validate rejects parameters that can never produce a scene.
func (p Params) Validate() error {
	if p.FPS <= 0 || p.Duration <= 0 {
		return fmt.Errorf("fps and duration must be positive, got %d and %g", p.FPS, p.Duration)
	}
	if frames := float64(p.FPS) * p.Duration; math.Abs(frames-math.Round(frames)) > 1e-9 {
		return fmt.Errorf("fps * duration must be a whole number of frames, got %g", frames)
	}
	if _, err := NewPeriodChooser(p.TotalFrames(), p.MinPrimeFactors, p.MaxPrimeFactors); err != nil {
		return err
	}
	if p.MaxTries <= 0 {
		return fmt.Errorf("max number of tries must be positive, got %d", p.MaxTries)
	}
	if p.Bounds.MinX >= p.Bounds.MaxX || p.Bounds.MinY >= p.Bounds.MaxY {
		return fmt.Errorf("empty bounds %+v", p.Bounds)
	}
	if len(p.Colors) == 0 || len(p.Sizes) == 0 {
		return fmt.Errorf("%w: colors and sizes must not be empty", ErrPaletteTooSmall)
	}
	for name, scale := range p.Sizes {
		if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
			return fmt.Errorf("size %q must be a positive scale, got %g", name, scale)
		}
	}
	if len(p.Meshes) == 0 || len(p.Materials) == 0 {
		return fmt.Errorf("%w: meshes=%d materials=%d", ErrNoAssets, len(p.Meshes), len(p.Materials))
	}
	return nil
}

// Generator builds the scene with a given index. Each index draws from its
// own random stream seeded with seed + index.
type Generator struct {
	params   Params
	index    int
	rng      *rand.Rand
	phase    Phase
	attempts int
}

// NewGenerator validates params before any randomized work is done.
func NewGenerator(params Params, index int) (*Generator, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Generator{
		params: params,
		index:  index,
		rng:    rand.New(rand.NewSource(params.Seed + int64(index))),
	}, nil
}

// Phase returns the current state of the generator.
func (g *Generator) Phase() Phase {
	return g.phase
}

// Attempts returns how many attempts the last Generate call needed.
func (g *Generator) Attempts() int {
	return g.attempts
}

// Generate runs the state machine until a scene is accepted. Without
// ForceGeneration the first failed attempt is returned to the caller;
// with it the scene restarts with fresh randomization, at most
// MaxRestarts times.
func (g *Generator) Generate(ctx context.Context) (*Scene, error) {
	maxRestarts := g.params.MaxRestarts
	if maxRestarts <= 0 {
		maxRestarts = DefaultMaxRestarts
	}
	g.attempts = 0

	events.Emit("info", "generation.started", "", map[string]interface{}{
		"scene_index": g.index,
		"split":       g.params.Split,
	})

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		g.attempts++

		s, err := g.attempt()
		if err == nil {
			g.setPhase(PhaseDone)
			events.Emit("info", "scene.generated", "", map[string]interface{}{
				"scene_index": g.index,
				"objects":     len(s.Objects),
				"attempts":    g.attempts,
			})
			return s, nil
		}

		g.setPhase(PhaseFailed)
		restartable := errors.Is(err, ErrPlacementExhausted) || errors.Is(err, ErrNoOrbitCenter)
		if !restartable || !g.params.ForceGeneration || g.attempts > maxRestarts {
			events.Emit("error", "scene.failed", err.Error(), map[string]interface{}{
				"scene_index": g.index,
				"attempts":    g.attempts,
			})
			return nil, fmt.Errorf("scene %d: %w", g.index, err)
		}

		events.Emit("warning", "generation.restarted", err.Error(), map[string]interface{}{
			"scene_index": g.index,
			"attempt":     g.attempts,
		})
	}
}

func (g *Generator) setPhase(p Phase) {
	g.phase = p
	events.Emit("debug", "generation.state", "", map[string]interface{}{
		"scene_index": g.index,
		"phase":       p.String(),
	})
}

// attempt builds one scene from scratch.
func (g *Generator) attempt() (*Scene, error) {
	s := g.newScene()
	periods, err := NewPeriodChooser(s.TotalFrames(), s.MinPrimeFactors, s.MaxPrimeFactors)
	if err != nil {
		return nil, err
	}
	a := &placement{
		gen:    g,
		scene:  s,
		engine: NewCycleEngine(s, periods, g.rng),
	}

	g.setPhase(PhaseCollectingPredetermined)
	for i, spec := range g.params.Predetermined {
		if err := a.place(PhaseCollectingPredetermined, i, spec); err != nil {
			return nil, err
		}
	}

	g.setPhase(PhasePlacingClutter)
	s.NumberOfClutterObjects = g.params.Clutter.resolve(g.rng)
	for i := 0; i < s.NumberOfClutterObjects; i++ {
		if err := a.place(PhasePlacingClutter, i, ObjectSpec{}); err != nil {
			return nil, err
		}
	}

	g.setPhase(PhaseAssigningCycles)
	specs, err := g.assignCycles(s)
	if err != nil {
		return nil, err
	}

	g.setPhase(PhasePlacingNonOrbit)
	for i, spec := range specs {
		if hasKind(spec.Cycles, KindOrbit) {
			continue
		}
		if err := a.place(PhasePlacingNonOrbit, i, spec); err != nil {
			return nil, err
		}
	}

	g.setPhase(PhasePlacingOrbit)
	for i, spec := range specs {
		if !hasKind(spec.Cycles, KindOrbit) {
			continue
		}
		if err := a.place(PhasePlacingOrbit, i, spec); err != nil {
			return nil, err
		}
	}

	if g.params.CyclicLights {
		a.engine.ApplyLights()
	}
	s.SceneConfigFile, s.VideoFile, s.BlendFile = FileNames(s.Split, s.Index)
	return s, nil
}

// assignCycles draws which pool slot owns which cycle kinds. Orbit and
// linear are mutually exclusive; resize, recolor and rotate are drawn
// independently from the whole pool. Slots without cycles are dropped.
func (g *Generator) assignCycles(s *Scene) ([]ObjectSpec, error) {
	counts := make(map[Kind]int, len(ApplicationOrder))
	pool := 0
	for _, k := range ApplicationOrder {
		counts[k] = g.params.Cycles[k].resolve(g.rng)
		pool += counts[k]
	}
	s.CycleCounts = counts

	owners := make(map[Kind]map[int]bool, len(ApplicationOrder))
	orbit := sample(g.rng, seq(pool), counts[KindOrbit])
	owners[KindOrbit] = orbit

	var rest []int
	for _, i := range seq(pool) {
		if !orbit[i] {
			rest = append(rest, i)
		}
	}
	owners[KindLinear] = sample(g.rng, rest, counts[KindLinear])
	for _, k := range []Kind{KindResize, KindRecolor, KindRotate} {
		owners[k] = sample(g.rng, seq(pool), counts[k])
	}

	var specs []ObjectSpec
	for i := 0; i < pool; i++ {
		var spec ObjectSpec
		for _, k := range []Kind{KindOrbit, KindLinear, KindResize, KindRecolor, KindRotate} {
			if owners[k][i] {
				spec.Cycles = append(spec.Cycles, k)
			}
		}
		if len(spec.Cycles) == 0 {
			continue
		}
		if hasKind(spec.Cycles, KindRotate) {
			mesh, err := g.chooseMesh(true)
			if err != nil {
				return nil, err
			}
			spec.Mesh = mesh
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func (g *Generator) chooseMesh(rotating bool) (string, error) {
	candidates := g.params.Meshes
	if rotating {
		candidates = nil
		for _, m := range g.params.Meshes {
			if m != SphereMesh {
				candidates = append(candidates, m)
			}
		}
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("%w: no mesh usable for rotation", ErrNoAssets)
	}
	return candidates[g.rng.Intn(len(candidates))], nil
}

func (g *Generator) newScene() *Scene {
	p := g.params
	directions := p.Directions
	if len(directions) == 0 {
		directions = DefaultDirections()
	}
	return &Scene{
		Index:                 g.index,
		Split:                 p.Split,
		Seed:                  p.Seed,
		FPS:                   p.FPS,
		Duration:              p.Duration,
		Bounds:                p.Bounds,
		MinimumDistance:       p.MinimumDistance,
		RelationshipThreshold: p.RelationshipThreshold,
		MaxOrbitRadius:        p.MaxOrbitRadius,
		MaxTries:              p.MaxTries,
		MinPrimeFactors:       p.MinPrimeFactors,
		MaxPrimeFactors:       p.MaxPrimeFactors,
		Colors:                p.Colors,
		Sizes:                 p.Sizes,
		Directions:            directions,
	}
}

// placement holds the mutable state of a single attempt.
type placement struct {
	gen    *Generator
	scene  *Scene
	engine *CycleEngine
}

// place tries up to MaxTries fresh candidates for spec and accepts the
// first that keeps the scene collision free over the whole video.
func (a *placement) place(phase Phase, ordinal int, spec ObjectSpec) error {
	total := a.scene.TotalFrames()
	n := len(a.scene.Objects)

	for try := 1; try <= a.scene.MaxTries; try++ {
		o, err := a.materialize(spec)
		if err != nil {
			return err
		}
		candidate := append(a.scene.Objects[:n:n], o)
		if !AlwaysCollisionFree(candidate, total, a.scene.MinimumDistance) {
			continue
		}
		a.scene.AddObject(o)
		events.Emit("debug", "object.placed", "", map[string]interface{}{
			"scene_index": a.scene.Index,
			"phase":       phase.String(),
			"object":      n,
			"tries":       try,
		})
		return nil
	}

	events.Emit("warning", "generation.exhausted", "", map[string]interface{}{
		"scene_index": a.scene.Index,
		"phase":       phase.String(),
		"ordinal":     ordinal,
		"tries":       a.scene.MaxTries,
	})
	return fmt.Errorf("%w: %s object %d after %d tries", ErrPlacementExhausted, phase, ordinal, a.scene.MaxTries)
}

// materialize fills every unset attribute of spec at random and applies
// its cycles.
func (a *placement) materialize(spec ObjectSpec) (*Object, error) {
	g := a.gen
	o := &Object{
		Mesh:     spec.Mesh,
		Material: spec.Material,
		Size:     spec.Size,
		Color:    spec.Color,
	}
	if o.Mesh == "" {
		mesh, err := g.chooseMesh(false)
		if err != nil {
			return nil, err
		}
		o.Mesh = mesh
	}
	if o.Material == "" {
		o.Material = g.params.Materials[g.rng.Intn(len(g.params.Materials))]
	}
	if o.Size == "" {
		sizes := otherKeys(a.scene.Sizes, "")
		o.Size = sizes[g.rng.Intn(len(sizes))]
	}
	if o.Color == "" {
		colors := otherKeys(a.scene.Colors, "")
		o.Color = colors[g.rng.Intn(len(colors))]
	}

	if len(spec.Cycles) > 0 {
		o.Cycles = make(map[Kind]*Cycle, len(spec.Cycles))
		for _, k := range spec.Cycles {
			o.Cycles[k] = &Cycle{}
		}
		if err := a.engine.Apply(o); err != nil {
			return nil, err
		}
	}

	if spec.Angle != nil {
		o.Angle = *spec.Angle
	} else {
		o.Angle = 2 * math.Pi * g.rng.Float64()
	}

	if !o.HasCycle(KindLinear) && !o.HasCycle(KindOrbit) {
		z := a.scene.SizeValue(o.Size)
		if spec.Location != nil {
			o.Location = Location{X: spec.Location.X, Y: spec.Location.Y, Z: z}
		} else {
			o.Location = a.engine.randomLocation(z)
		}
	}
	return o, nil
}

func hasKind(kinds []Kind, k Kind) bool {
	for _, have := range kinds {
		if have == k {
			return true
		}
	}
	return false
}

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// sample draws k distinct elements of from.
func sample(rng *rand.Rand, from []int, k int) map[int]bool {
	if k > len(from) {
		k = len(from)
	}
	picked := make(map[int]bool, k)
	for _, i := range rng.Perm(len(from))[:k] {
		picked[from[i]] = true
	}
	return picked
}
