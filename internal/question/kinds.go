package question

import (
	"fmt"
	"strings"
)

// HandlerKind enumerates every node type a program may contain.
type HandlerKind int

const (
	KindScene HandlerKind = iota

	KindFilterColor
	KindFilterShape
	KindFilterMaterial
	KindFilterSize
	KindFilterColorUniversal
	KindFilterSizeUniversal
	KindFilterEnlarge
	KindFilterOrbit
	KindFilterLinear
	KindFilterMotion
	KindFilterRotate
	KindFilterChangeColor
	KindFilterEnlargePeriod
	KindFilterMotionPeriod
	KindFilterLinearPeriod
	KindFilterColorPeriod

	KindRelateExistential
	KindRelateUniversal

	KindExcept
	KindUnion
	KindIntersect
	KindInclude
	KindUnique
	KindCount
	KindExist

	KindLogicalAnd
	KindLogicalOr
	KindLogicalNot

	KindQueryColor
	KindQuerySize
	KindQueryShape
	KindQueryMaterial
	KindQueryColorInitial
	KindQueryColorFinal
	KindQuerySizeInitial
	KindQuerySizeFinal
	KindQueryOrbit
	KindQueryEnlargePeriod
	KindQueryColorPeriod
	KindQueryMotionPeriod
	KindQueryLinearPeriod
	KindQueryOrbitPeriod
	KindQueryLinearPasses
	KindQueryOrbitPasses

	KindEqualShape
	KindEqualMaterial
	KindEqualObject
	KindEqualInteger
	KindEqualEnlarge
	KindEqualChangeColor
	KindEqualEnlargePeriod
	KindEqualMotionPeriod
	KindEqualColorPeriod
	KindLessThan
	KindGreaterThan
	KindEqualColorExistential
	KindEqualColorUniversal
	KindEqualSizeExistential
	KindEqualSizeUniversal

	KindSameColor
	KindSameSize
	KindSameShape
	KindSameMaterial
	KindSameEnlargePeriod
	KindSameMotionPeriod
	KindSameColorPeriod

	numKinds
)

var kindNames = [numKinds]string{
	KindScene: "scene",

	KindFilterColor:          "filter_color",
	KindFilterShape:          "filter_shape",
	KindFilterMaterial:       "filter_material",
	KindFilterSize:           "filter_size",
	KindFilterColorUniversal: "filter_color_universal",
	KindFilterSizeUniversal:  "filter_size_universal",
	KindFilterEnlarge:        "filter_enlarge",
	KindFilterOrbit:          "filter_orbit",
	KindFilterLinear:         "filter_linear",
	KindFilterMotion:         "filter_motion",
	KindFilterRotate:         "filter_rotate",
	KindFilterChangeColor:    "filter_change_color",
	KindFilterEnlargePeriod:  "filter_enlarge_period",
	KindFilterMotionPeriod:   "filter_motion_period",
	KindFilterLinearPeriod:   "filter_linear_period",
	KindFilterColorPeriod:    "filter_color_period",

	KindRelateExistential: "relate_existential",
	KindRelateUniversal:   "relate_universal",

	KindExcept:    "except",
	KindUnion:     "union",
	KindIntersect: "intersect",
	KindInclude:   "include",
	KindUnique:    "unique",
	KindCount:     "count",
	KindExist:     "exist",

	KindLogicalAnd: "logical_and",
	KindLogicalOr:  "logical_or",
	KindLogicalNot: "logical_not",

	KindQueryColor:         "query_color",
	KindQuerySize:          "query_size",
	KindQueryShape:         "query_shape",
	KindQueryMaterial:      "query_material",
	KindQueryColorInitial:  "query_color_initial",
	KindQueryColorFinal:    "query_color_final",
	KindQuerySizeInitial:   "query_size_initial",
	KindQuerySizeFinal:     "query_size_final",
	KindQueryOrbit:         "query_orbit",
	KindQueryEnlargePeriod: "query_enlarge_period",
	KindQueryColorPeriod:   "query_color_period",
	KindQueryMotionPeriod:  "query_motion_period",
	KindQueryLinearPeriod:  "query_linear_period",
	KindQueryOrbitPeriod:   "query_orbit_period",
	KindQueryLinearPasses:  "query_linear_passes",
	KindQueryOrbitPasses:   "query_orbit_passes",

	KindEqualShape:            "equal_shape",
	KindEqualMaterial:         "equal_material",
	KindEqualObject:           "equal_object",
	KindEqualInteger:          "equal_integer",
	KindEqualEnlarge:          "equal_enlarge",
	KindEqualChangeColor:      "equal_change_color",
	KindEqualEnlargePeriod:    "equal_enlarge_period",
	KindEqualMotionPeriod:     "equal_motion_period",
	KindEqualColorPeriod:      "equal_color_period",
	KindLessThan:              "less_than",
	KindGreaterThan:           "greater_than",
	KindEqualColorExistential: "equal_color_existential",
	KindEqualColorUniversal:   "equal_color_universal",
	KindEqualSizeExistential:  "equal_size_existential",
	KindEqualSizeUniversal:    "equal_size_universal",

	KindSameColor:         "same_color",
	KindSameSize:          "same_size",
	KindSameShape:         "same_shape",
	KindSameMaterial:      "same_material",
	KindSameEnlargePeriod: "same_enlarge_period",
	KindSameMotionPeriod:  "same_motion_period",
	KindSameColorPeriod:   "same_color_period",
}

var kindByName = func() map[string]HandlerKind {
	m := make(map[string]HandlerKind, numKinds)
	for k, name := range kindNames {
		m[name] = HandlerKind(k)
	}
	return m
}()

func (k HandlerKind) String() string {
	if k >= 0 && k < numKinds {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind maps a node type to its kind.
func ParseKind(name string) (HandlerKind, error) {
	k, ok := kindByName[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownHandler, name)
	}
	return k, nil
}

// Kinds returns every registered node type name.
func Kinds() []string {
	return append([]string(nil), kindNames[:]...)
}

// isRelate reports whether a node type relates objects to each other.
func isRelate(name string) bool {
	return strings.HasPrefix(name, "relate")
}
