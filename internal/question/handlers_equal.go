package question

import (
	"github.com/AaronLay10/cyclist/internal/scene"
)

func equalHandler(v *View, inputs []Value, side []string) (Value, error) {
	if err := arity(inputs, side, 2, 0); err != nil {
		return Invalid, err
	}
	return Bool(inputs[0].Equal(inputs[1])), nil
}

func compareInts(inputs []Value, side []string, cmp func(a, b int) bool) (Value, error) {
	if err := arity(inputs, side, 2, 0); err != nil {
		return Invalid, err
	}
	a, err := intArg(inputs[0])
	if err != nil {
		return Invalid, err
	}
	b, err := intArg(inputs[1])
	if err != nil {
		return Invalid, err
	}
	return Bool(cmp(a, b)), nil
}

func lessThan(v *View, inputs []Value, side []string) (Value, error) {
	return compareInts(inputs, side, func(a, b int) bool { return a < b })
}

func greaterThan(v *View, inputs []Value, side []string) (Value, error) {
	return compareInts(inputs, side, func(a, b int) bool { return a > b })
}

// pairHandler adapts a decision over two objects into a Handler.
func pairHandler(decide func(a, b *scene.Object) Value) Handler {
	return func(v *View, inputs []Value, side []string) (Value, error) {
		if err := arity(inputs, side, 2, 0); err != nil {
			return Invalid, err
		}
		a, _, err := indexArg(v, inputs[0])
		if err != nil {
			return Invalid, err
		}
		b, _, err := indexArg(v, inputs[1])
		if err != nil {
			return Invalid, err
		}
		return decide(a, b), nil
	}
}

// equalColorExistential decides whether two objects share a color at some
// frame. When a destination color equals the other object's starting color
// the answer depends on phase offsets the record does not carry.
func equalColorExistential(a, b *scene.Object) Value {
	if a.Color == b.Color {
		return Bool(true)
	}
	destA, recolorsA := attrColor.changes(a)
	destB, recolorsB := attrColor.changes(b)
	if !recolorsA && !recolorsB {
		return Bool(false)
	}
	if (recolorsA && destA == b.Color) || (recolorsB && destB == a.Color) {
		return Invalid
	}
	if recolorsA && recolorsB {
		return Bool(destA == destB)
	}
	return Bool(false)
}

// equalSizeExistential treats a one-sided resize as a match: the resizing
// object sweeps through a range of scales that is assumed to cover the
// other's size.
func equalSizeExistential(a, b *scene.Object) Value {
	if a.Size == b.Size {
		return Bool(true)
	}
	resizesA := hasResize(a)
	resizesB := hasResize(b)
	switch {
	case !resizesA && !resizesB:
		return Bool(false)
	case resizesA != resizesB:
		return Bool(true)
	default:
		return Invalid
	}
}

func equalColorUniversal(a, b *scene.Object) Value {
	return Bool(equalThroughout(attrColor, recolorPeriod, a, b))
}

func equalSizeUniversal(a, b *scene.Object) Value {
	return Bool(equalThroughout(attrSize, resizePeriod, a, b))
}

// equalThroughout reports whether two objects agree on an attribute at
// every frame: same start, and either both static or both cycling to the
// same value with the same period.
func equalThroughout(attr attribute, period periodOf, a, b *scene.Object) bool {
	if attr.of(a) != attr.of(b) {
		return false
	}
	destA, changesA := attr.changes(a)
	destB, changesB := attr.changes(b)
	if !changesA && !changesB {
		return true
	}
	if changesA != changesB || destA != destB {
		return false
	}
	pa, _ := period(a)
	pb, _ := period(b)
	return pa == pb
}
