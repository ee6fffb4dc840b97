// Package scene generates cyclic scenes and their records.
// Tests use testify.
package scene

import "math"

// Kind names a periodic transformation an object can undergo.
type Kind string

const (
	KindOrbit   Kind = "orbit"
	KindLinear  Kind = "linear"
	KindResize  Kind = "resize"
	KindRecolor Kind = "recolor"
	KindRotate  Kind = "rotate"
)

// ApplicationOrder is the order in which cycles are applied to an object.
// Orbit is last because it depends on the final position of its center.
var ApplicationOrder = []Kind{KindRecolor, KindRotate, KindResize, KindLinear, KindOrbit}

// Orbit directions.
const (
	Clockwise        = "clockwise"
	CounterClockwise = "counterclockwise"
)

// Location is a position on the ground plane. Z carries the resting height.
type Location struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z,omitempty"`
}

// Dist returns the planar distance between two locations.
func (l Location) Dist(o Location) float64 {
	return math.Hypot(l.X-o.X, l.Y-o.Y)
}

// State is one entry of a trajectory. Exactly one payload field is set.
type State struct {
	Frame     int       `json:"frame"`
	Location  *Location `json:"location,omitempty"`
	Factor    *float64  `json:"factor,omitempty"`
	Color     string    `json:"color,omitempty"`
	Rotation  []float64 `json:"rotation,omitempty"`
	Intensity *float64  `json:"intensity,omitempty"`
}

// Cycle is a periodic transformation with its pre-computed trajectory.
type Cycle struct {
	Period int     `json:"period"`
	States []State `json:"states"`

	// Orbit only. Center is a reference to another object of the same
	// scene, not ownership.
	Center    *int   `json:"center,omitempty"`
	Direction string `json:"direction,omitempty"`
}

// Object is a single placed scene object.
type Object struct {
	Mesh     string          `json:"mesh"`
	Material string          `json:"material"`
	Size     string          `json:"size"`
	Color    string          `json:"color"`
	Angle    float64         `json:"angle"`
	Location Location        `json:"location"`
	Cycles   map[Kind]*Cycle `json:"cycles,omitempty"`

	IntermittentLocation *Location `json:"intermittent_location,omitempty"`
	IntermittentSize     string    `json:"intermittent_size,omitempty"`
	IntermittentColor    string    `json:"intermittent_color,omitempty"`

	AlwaysWithinBoundaries *bool `json:"always_within_boundaries,omitempty"`
}

// Cycle returns the cycle of the given kind or nil.
func (o *Object) Cycle(k Kind) *Cycle {
	if o.Cycles == nil {
		return nil
	}
	return o.Cycles[k]
}

// HasCycle reports whether the object undergoes a cycle of the given kind.
func (o *Object) HasCycle(k Kind) bool {
	return o.Cycle(k) != nil
}

// HasAnyCycle reports whether the object has at least one cycle.
func (o *Object) HasAnyCycle() bool {
	return len(o.Cycles) > 0
}

// Period returns the period of the given cycle kind.
func (o *Object) Period(k Kind) (int, bool) {
	c := o.Cycle(k)
	if c == nil {
		return 0, false
	}
	return c.Period, true
}

// Bounds is the rectangle objects are placed in.
type Bounds struct {
	MinX float64 `json:"min_x"`
	MaxX float64 `json:"max_x"`
	MinY float64 `json:"min_y"`
	MaxY float64 `json:"max_y"`
}

// Contains reports whether l lies inside the bounds, edges included.
func (b Bounds) Contains(l Location) bool {
	return l.X >= b.MinX && l.X <= b.MaxX && l.Y >= b.MinY && l.Y <= b.MaxY
}

// Scene is the complete description of one generated video.
type Scene struct {
	Index int    `json:"scene_index"`
	Split string `json:"split"`
	Seed  int64  `json:"seed"`

	FPS      int     `json:"fps"`
	Duration float64 `json:"duration"`
	Bounds

	MinimumDistance       float64 `json:"minimum_distance"`
	RelationshipThreshold float64 `json:"relationship_threshold"`
	MaxOrbitRadius        float64 `json:"max_orbit_radius"`
	MaxTries              int     `json:"max_number_of_tries"`
	MinPrimeFactors       int     `json:"min_number_of_prime_factors"`
	MaxPrimeFactors       int     `json:"max_number_of_prime_factors"`

	NumberOfClutterObjects int          `json:"number_of_clutter_objects"`
	CycleCounts            map[Kind]int `json:"cycle_counts"`

	Colors     map[string][]float64 `json:"colors"`
	Sizes      map[string]float64   `json:"sizes"`
	Directions map[string][]float64 `json:"directions,omitempty"`

	Objects       []*Object     `json:"objects"`
	Lights        *Cycle        `json:"lights,omitempty"`
	Relationships Relationships `json:"relationships,omitempty"`

	SceneConfigFile string   `json:"scene_config_file"`
	VideoFile       string   `json:"video_file"`
	BlendFile       string   `json:"blend_file"`
	Rendered        bool     `json:"rendered"`
	RenderTime      *float64 `json:"render_time,omitempty"`

	revision uint64
}

// TotalFrames returns fps times duration.
func (s *Scene) TotalFrames() int {
	return int(math.Round(float64(s.FPS) * s.Duration))
}

// AddObject appends an accepted object and bumps the scene revision.
func (s *Scene) AddObject(o *Object) {
	s.Objects = append(s.Objects, o)
	s.revision++
}

// Touch marks the object list as changed. Callers that mutate objects in
// place must call it so derived caches are rebuilt.
func (s *Scene) Touch() {
	s.revision++
}

// Revision changes whenever the object list changes.
func (s *Scene) Revision() uint64 {
	return s.revision
}

// SizeValue returns the numeric size for a size name.
func (s *Scene) SizeValue(name string) float64 {
	return s.Sizes[name]
}
