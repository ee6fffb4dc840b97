package scene

// CollisionFree reports whether every pair of locations is at least
// minDist apart on the ground plane.
func CollisionFree(locations []Location, minDist float64) bool {
	for i := 0; i < len(locations); i++ {
		for j := i + 1; j < len(locations); j++ {
			if locations[i].Dist(locations[j]) < minDist {
				return false
			}
		}
	}
	return true
}

// FrameLocations resolves the position of every object at a 1-based frame.
func FrameLocations(objects []*Object, frame int) []Location {
	locs := make([]Location, len(objects))
	for i, o := range objects {
		locs[i] = LocationAt(o, frame)
	}
	return locs
}

// AlwaysCollisionFree checks CollisionFree at every frame of the video.
func AlwaysCollisionFree(objects []*Object, totalFrames int, minDist float64) bool {
	for frame := 1; frame <= totalFrames; frame++ {
		if !CollisionFree(FrameLocations(objects, frame), minDist) {
			return false
		}
	}
	return true
}
