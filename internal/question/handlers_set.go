package question

import (
	"slices"
)

func sceneHandler(v *View, inputs []Value, side []string) (Value, error) {
	if err := arity(inputs, side, 0, 0); err != nil {
		return Invalid, err
	}
	all := make([]int, len(v.Scene().Objects))
	for i := range all {
		all[i] = i
	}
	return Indices(all), nil
}

func setOp(inputs []Value, side []string, keep func(inA, inB bool) bool) (Value, error) {
	if err := arity(inputs, side, 2, 0); err != nil {
		return Invalid, err
	}
	a, err := listArg(inputs[0])
	if err != nil {
		return Invalid, err
	}
	b, err := listArg(inputs[1])
	if err != nil {
		return Invalid, err
	}

	inA := make(map[int]bool, len(a))
	for _, i := range a {
		inA[i] = true
	}
	inB := make(map[int]bool, len(b))
	for _, i := range b {
		inB[i] = true
	}

	out := []int{}
	seen := make(map[int]bool)
	for _, i := range append(append([]int{}, a...), b...) {
		if seen[i] {
			continue
		}
		seen[i] = true
		if keep(inA[i], inB[i]) {
			out = append(out, i)
		}
	}
	slices.Sort(out)
	return Indices(out), nil
}

func exceptHandler(v *View, inputs []Value, side []string) (Value, error) {
	return setOp(inputs, side, func(inA, inB bool) bool { return inA && !inB })
}

func unionHandler(v *View, inputs []Value, side []string) (Value, error) {
	return setOp(inputs, side, func(inA, inB bool) bool { return inA || inB })
}

func intersectHandler(v *View, inputs []Value, side []string) (Value, error) {
	return setOp(inputs, side, func(inA, inB bool) bool { return inA && inB })
}

// includeHandler reports whether an object is a member of a set. A
// second input that is not a set yields Invalid rather than an error.
func includeHandler(v *View, inputs []Value, side []string) (Value, error) {
	if err := arity(inputs, side, 2, 0); err != nil {
		return Invalid, err
	}
	_, i, err := indexArg(v, inputs[0])
	if err != nil {
		return Invalid, err
	}
	set, ok := inputs[1].AsIndices()
	if !ok {
		return Invalid, nil
	}
	return Bool(slices.Contains(set, i)), nil
}

func uniqueHandler(v *View, inputs []Value, side []string) (Value, error) {
	if err := arity(inputs, side, 1, 0); err != nil {
		return Invalid, err
	}
	set, err := listArg(inputs[0])
	if err != nil {
		return Invalid, err
	}
	if len(set) != 1 {
		return Invalid, nil
	}
	return Index(set[0]), nil
}

func countHandler(v *View, inputs []Value, side []string) (Value, error) {
	if err := arity(inputs, side, 1, 0); err != nil {
		return Invalid, err
	}
	set, err := listArg(inputs[0])
	if err != nil {
		return Invalid, err
	}
	return Int(len(set)), nil
}

func existHandler(v *View, inputs []Value, side []string) (Value, error) {
	if err := arity(inputs, side, 1, 0); err != nil {
		return Invalid, err
	}
	set, err := listArg(inputs[0])
	if err != nil {
		return Invalid, err
	}
	return Bool(len(set) > 0), nil
}

func logicalAnd(v *View, inputs []Value, side []string) (Value, error) {
	a, b, err := boolPair(inputs, side)
	if err != nil {
		return Invalid, err
	}
	return Bool(a && b), nil
}

func logicalOr(v *View, inputs []Value, side []string) (Value, error) {
	a, b, err := boolPair(inputs, side)
	if err != nil {
		return Invalid, err
	}
	return Bool(a || b), nil
}

func logicalNot(v *View, inputs []Value, side []string) (Value, error) {
	if err := arity(inputs, side, 1, 0); err != nil {
		return Invalid, err
	}
	a, err := boolArg(inputs[0])
	if err != nil {
		return Invalid, err
	}
	return Bool(!a), nil
}

func boolPair(inputs []Value, side []string) (bool, bool, error) {
	if err := arity(inputs, side, 2, 0); err != nil {
		return false, false, err
	}
	a, err := boolArg(inputs[0])
	if err != nil {
		return false, false, err
	}
	b, err := boolArg(inputs[1])
	if err != nil {
		return false, false, err
	}
	return a, b, nil
}
