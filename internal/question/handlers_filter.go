package question

import (
	"fmt"
	"strconv"

	"github.com/AaronLay10/cyclist/internal/scene"
)

// filterObjects keeps the objects of a set for which keep holds.
func filterObjects(v *View, inputs []Value, side []string, keep func(o *scene.Object, value string) bool) (Value, error) {
	if err := arity(inputs, side, 1, 1); err != nil {
		return Invalid, err
	}
	set, err := listArg(inputs[0])
	if err != nil {
		return Invalid, err
	}
	out := []int{}
	for _, i := range set {
		o, err := v.object(i)
		if err != nil {
			return Invalid, err
		}
		if keep(o, side[0]) {
			out = append(out, i)
		}
	}
	return Indices(out), nil
}

// filterExistential accepts objects that show the value at some point of
// the video: their starting value or the value a cycle changes them into.
// Any resizing object passes a size filter, since its size sweeps through
// every value between start and destination.
func filterExistential(attr attribute) Handler {
	return func(v *View, inputs []Value, side []string) (Value, error) {
		return filterObjects(v, inputs, side, func(o *scene.Object, value string) bool {
			if attr.of(o) == value {
				return true
			}
			if attr == attrSize && hasResize(o) {
				return true
			}
			dest, changes := attr.changes(o)
			return changes && dest == value
		})
	}
}

// filterUniversal accepts objects that show the value for the whole video.
func filterUniversal(attr attribute) Handler {
	return func(v *View, inputs []Value, side []string) (Value, error) {
		return filterObjects(v, inputs, side, func(o *scene.Object, value string) bool {
			_, changes := attr.changes(o)
			return attr.of(o) == value && !changes
		})
	}
}

// filterCycle selects objects with (side input anything but "False") or
// without (side input "False") a cycle. Objects without any cycle are
// never selected, not even by "False".
func filterCycle(has func(o *scene.Object) bool) Handler {
	return func(v *View, inputs []Value, side []string) (Value, error) {
		return filterObjects(v, inputs, side, func(o *scene.Object, value string) bool {
			if !o.HasAnyCycle() {
				return false
			}
			if value == "False" {
				return !has(o)
			}
			return has(o)
		})
	}
}

// filterPeriod selects objects whose cycle has the period given as side
// input, in frames.
func filterPeriod(period periodOf) Handler {
	return func(v *View, inputs []Value, side []string) (Value, error) {
		if len(side) == 1 {
			if _, err := strconv.Atoi(side[0]); err != nil {
				return Invalid, fmt.Errorf("%w: period %q is not an integer", ErrBadInput, side[0])
			}
		}
		return filterObjects(v, inputs, side, func(o *scene.Object, value string) bool {
			want, _ := strconv.Atoi(value)
			p, ok := period(o)
			return ok && p == want
		})
	}
}
