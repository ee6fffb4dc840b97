package scene

import "errors"

var (
	// ErrPlacementExhausted is returned when an object could not be placed
	// within the configured number of tries.
	ErrPlacementExhausted = errors.New("placement exhausted")

	// ErrMalformedPeriodConfig is returned for prime-factor bounds that
	// cannot be satisfied by the total frame count.
	ErrMalformedPeriodConfig = errors.New("malformed period configuration")

	// ErrNoOrbitCenter is returned when an orbit is requested in an empty scene.
	ErrNoOrbitCenter = errors.New("orbit requires an existing object")

	// ErrPaletteTooSmall is returned when a recolor or resize has no
	// alternative value to cycle to.
	ErrPaletteTooSmall = errors.New("palette too small")

	// ErrNoAssets is returned when no mesh or material can be chosen.
	ErrNoAssets = errors.New("no assets available")
)
