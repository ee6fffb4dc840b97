package question

import (
	"fmt"
	"sort"
)

func relationFrames(v *View, inputs []Value, side []string) (map[int][][2]int, int, error) {
	if err := arity(inputs, side, 1, 1); err != nil {
		return nil, 0, err
	}
	_, target, err := indexArg(v, inputs[0])
	if err != nil {
		return nil, 0, err
	}
	frames, ok := v.relationships()[side[0]]
	if !ok {
		return nil, 0, fmt.Errorf("%w: unknown relation %q", ErrBadInput, side[0])
	}
	return frames, target, nil
}

// relatedAt returns the objects standing in the relation to target in one frame.
func relatedAt(pairs [][2]int, target int) map[int]bool {
	out := make(map[int]bool)
	for _, p := range pairs {
		if p[1] == target {
			out[p[0]] = true
		}
	}
	return out
}

// relateExistential returns the objects that stand in the relation to the
// input object in at least one frame.
func relateExistential(v *View, inputs []Value, side []string) (Value, error) {
	frames, target, err := relationFrames(v, inputs, side)
	if err != nil {
		return Invalid, err
	}
	found := make(map[int]bool)
	for _, pairs := range frames {
		for i := range relatedAt(pairs, target) {
			found[i] = true
		}
	}
	return Indices(sortedKeys(found)), nil
}

// relateUniversal returns the objects that stand in the relation to the
// input object in every frame. A relation without frames relates nothing.
func relateUniversal(v *View, inputs []Value, side []string) (Value, error) {
	frames, target, err := relationFrames(v, inputs, side)
	if err != nil {
		return Invalid, err
	}
	if len(frames) == 0 {
		return Indices(nil), nil
	}

	result := make(map[int]bool, len(v.Scene().Objects))
	for i := range v.Scene().Objects {
		result[i] = true
	}
	for _, pairs := range frames {
		now := relatedAt(pairs, target)
		for i := range result {
			if !now[i] {
				delete(result, i)
			}
		}
	}
	return Indices(sortedKeys(result)), nil
}

func sortedKeys(m map[int]bool) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
