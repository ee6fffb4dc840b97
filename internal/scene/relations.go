package scene

import "math"

// Relationships maps a relation name to, per 1-based frame, the ordered
// pairs [i, j] for which object i stands in that relation to object j.
type Relationships map[string]map[int][][2]int

// Pairs returns the pairs of a relation at a frame.
func (r Relationships) Pairs(relation string, frame int) [][2]int {
	return r[relation][frame]
}

// DefaultDirections are the unit directions used when no renderer has
// reported camera-aligned ones.
func DefaultDirections() map[string][]float64 {
	return map[string][]float64{
		"behind": {0, 1, 0},
		"front":  {0, -1, 0},
		"left":   {-1, 0, 0},
		"right":  {1, 0, 0},
		"above":  {0, 0, 1},
		"below":  {0, 0, -1},
	}
}

// planar reports whether a relation is derived from ground-plane
// positions. Vertical relations are kept as empty entries.
func planar(relation string) bool {
	return relation != "above" && relation != "below"
}

// DeriveRelationships computes the relationship table for every frame.
func DeriveRelationships(s *Scene) Relationships {
	directions := s.Directions
	if len(directions) == 0 {
		directions = DefaultDirections()
	}
	total := s.TotalFrames()

	rel := make(Relationships, len(directions))
	for name, dir := range directions {
		rel[name] = make(map[int][][2]int)
		if !planar(name) || len(dir) < 2 {
			continue
		}
		for frame := 1; frame <= total; frame++ {
			locs := FrameLocations(s.Objects, frame)
			pairs := [][2]int{}
			for i := range locs {
				for j := range locs {
					if i == j {
						continue
					}
					dx, dy := locs[i].X-locs[j].X, locs[i].Y-locs[j].Y
					norm := math.Hypot(dx, dy)
					if norm == 0 {
						continue
					}
					if (dx*dir[0]+dy*dir[1])/norm > s.RelationshipThreshold {
						pairs = append(pairs, [2]int{i, j})
					}
				}
			}
			rel[name][frame] = pairs
		}
	}
	return rel
}

// DeriveRegions sets AlwaysWithinBoundaries on every object.
func DeriveRegions(s *Scene) {
	total := s.TotalFrames()
	for _, o := range s.Objects {
		within := true
		for frame := 1; frame <= total && within; frame++ {
			within = s.Bounds.Contains(LocationAt(o, frame))
		}
		o.AlwaysWithinBoundaries = &within
	}
	s.Touch()
}

// Finalize attaches relationships and region labels to a scene. Directions
// reported by the renderer replace the configured ones when present.
func Finalize(s *Scene, directions map[string][]float64) {
	if len(directions) > 0 {
		s.Directions = directions
	}
	s.Relationships = DeriveRelationships(s)
	DeriveRegions(s)
}
