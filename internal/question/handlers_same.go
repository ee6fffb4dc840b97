package question

import (
	"github.com/AaronLay10/cyclist/internal/scene"
)

// sameHandler returns the other objects that match the input object. The
// match table is computed once per scene revision and shared by all
// programs evaluated on the same view.
func sameHandler(key string, match func(a, b *scene.Object) bool) Handler {
	return func(v *View, inputs []Value, side []string) (Value, error) {
		if err := arity(inputs, side, 1, 0); err != nil {
			return Invalid, err
		}
		_, i, err := indexArg(v, inputs[0])
		if err != nil {
			return Invalid, err
		}
		return Indices(v.sameAs(key, match)[i]), nil
	}
}

// sameChanging matches objects whose attribute values meet at some point:
// equal starting values, a destination equal to the other's start, or equal
// destinations.
func sameChanging(attr attribute) func(a, b *scene.Object) bool {
	return func(a, b *scene.Object) bool {
		va, vb := attr.of(a), attr.of(b)
		if va == vb {
			return true
		}
		destA, changesA := attr.changes(a)
		destB, changesB := attr.changes(b)
		hasA := changesA && destA != ""
		hasB := changesB && destB != ""
		switch {
		case hasA && destA == vb:
			return true
		case hasB && destB == va:
			return true
		case hasA && hasB:
			return destA == destB
		}
		return false
	}
}

var (
	sameColor = sameChanging(attrColor)
	sameSize  = sameChanging(attrSize)
)

func sameStatic(attr attribute) func(a, b *scene.Object) bool {
	return func(a, b *scene.Object) bool {
		return attr.of(a) == attr.of(b)
	}
}

func samePeriod(period periodOf) func(a, b *scene.Object) bool {
	return func(a, b *scene.Object) bool {
		pa, okA := period(a)
		pb, okB := period(b)
		return okA && okB && pa == pb
	}
}
