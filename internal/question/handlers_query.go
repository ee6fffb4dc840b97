package question

import (
	"github.com/AaronLay10/cyclist/internal/scene"
)

func singleObject(v *View, inputs []Value, side []string) (*scene.Object, int, error) {
	if err := arity(inputs, side, 1, 0); err != nil {
		return nil, 0, err
	}
	return indexArg(v, inputs[0])
}

// queryStatic reads an attribute that must not change during the clip.
func queryStatic(attr attribute) Handler {
	return func(v *View, inputs []Value, side []string) (Value, error) {
		o, _, err := singleObject(v, inputs, side)
		if err != nil {
			return Invalid, err
		}
		if _, changes := attr.changes(o); changes {
			return Invalid, nil
		}
		return String(attr.of(o)), nil
	}
}

func queryInitial(attr attribute) Handler {
	return func(v *View, inputs []Value, side []string) (Value, error) {
		o, _, err := singleObject(v, inputs, side)
		if err != nil {
			return Invalid, err
		}
		return String(attr.of(o)), nil
	}
}

// queryFinal reads the value a cycle changes the attribute into.
func queryFinal(attr attribute) Handler {
	return func(v *View, inputs []Value, side []string) (Value, error) {
		o, _, err := singleObject(v, inputs, side)
		if err != nil {
			return Invalid, err
		}
		dest, changes := attr.changes(o)
		if !changes || dest == "" {
			return Invalid, nil
		}
		return String(dest), nil
	}
}

func queryOrbitCenter(v *View, inputs []Value, side []string) (Value, error) {
	o, _, err := singleObject(v, inputs, side)
	if err != nil {
		return Invalid, err
	}
	c := o.Cycle(scene.KindOrbit)
	if c == nil || c.Center == nil {
		return Invalid, nil
	}
	return Index(*c.Center), nil
}

func queryPeriod(period periodOf) Handler {
	return func(v *View, inputs []Value, side []string) (Value, error) {
		o, _, err := singleObject(v, inputs, side)
		if err != nil {
			return Invalid, err
		}
		p, ok := period(o)
		if !ok {
			return Invalid, nil
		}
		return Int(p), nil
	}
}

// queryPasses counts the full repetitions of a cycle within the clip.
// Clips that end mid-repetition are undecidable.
func queryPasses(period periodOf) Handler {
	return func(v *View, inputs []Value, side []string) (Value, error) {
		o, _, err := singleObject(v, inputs, side)
		if err != nil {
			return Invalid, err
		}
		p, ok := period(o)
		total := v.Scene().TotalFrames()
		if !ok || p <= 0 || total%p != 0 {
			return Invalid, nil
		}
		return Int(total / p), nil
	}
}
