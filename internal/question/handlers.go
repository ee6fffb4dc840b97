package question

import (
	"fmt"

	"github.com/AaronLay10/cyclist/internal/scene"
)

func catalog() [numKinds]Handler {
	var h [numKinds]Handler

	h[KindScene] = sceneHandler

	h[KindFilterColor] = filterExistential(attrColor)
	h[KindFilterShape] = filterExistential(attrShape)
	h[KindFilterMaterial] = filterExistential(attrMaterial)
	h[KindFilterSize] = filterExistential(attrSize)
	h[KindFilterColorUniversal] = filterUniversal(attrColor)
	h[KindFilterSizeUniversal] = filterUniversal(attrSize)
	h[KindFilterEnlarge] = filterCycle(hasResize)
	h[KindFilterOrbit] = filterCycle(hasOrbit)
	h[KindFilterLinear] = filterCycle(hasLinear)
	h[KindFilterMotion] = filterCycle(hasMotion)
	h[KindFilterRotate] = filterCycle(hasRotate)
	h[KindFilterChangeColor] = filterCycle(hasRecolor)
	h[KindFilterEnlargePeriod] = filterPeriod(resizePeriod)
	h[KindFilterMotionPeriod] = filterPeriod(motionPeriod)
	h[KindFilterLinearPeriod] = filterPeriod(linearPeriod)
	h[KindFilterColorPeriod] = filterPeriod(recolorPeriod)

	h[KindRelateExistential] = relateExistential
	h[KindRelateUniversal] = relateUniversal

	h[KindExcept] = exceptHandler
	h[KindUnion] = unionHandler
	h[KindIntersect] = intersectHandler
	h[KindInclude] = includeHandler
	h[KindUnique] = uniqueHandler
	h[KindCount] = countHandler
	h[KindExist] = existHandler

	h[KindLogicalAnd] = logicalAnd
	h[KindLogicalOr] = logicalOr
	h[KindLogicalNot] = logicalNot

	h[KindQueryColor] = queryStatic(attrColor)
	h[KindQuerySize] = queryStatic(attrSize)
	h[KindQueryShape] = queryStatic(attrShape)
	h[KindQueryMaterial] = queryStatic(attrMaterial)
	h[KindQueryColorInitial] = queryInitial(attrColor)
	h[KindQueryColorFinal] = queryFinal(attrColor)
	h[KindQuerySizeInitial] = queryInitial(attrSize)
	h[KindQuerySizeFinal] = queryFinal(attrSize)
	h[KindQueryOrbit] = queryOrbitCenter
	h[KindQueryEnlargePeriod] = queryPeriod(resizePeriod)
	h[KindQueryColorPeriod] = queryPeriod(recolorPeriod)
	h[KindQueryMotionPeriod] = queryPeriod(motionPeriod)
	h[KindQueryLinearPeriod] = queryPeriod(linearPeriod)
	h[KindQueryOrbitPeriod] = queryPeriod(orbitPeriod)
	h[KindQueryLinearPasses] = queryPasses(linearPeriod)
	h[KindQueryOrbitPasses] = queryPasses(orbitPeriod)

	for _, k := range []HandlerKind{
		KindEqualShape, KindEqualMaterial, KindEqualObject, KindEqualInteger,
		KindEqualEnlarge, KindEqualChangeColor, KindEqualEnlargePeriod,
		KindEqualMotionPeriod, KindEqualColorPeriod,
	} {
		h[k] = equalHandler
	}
	h[KindLessThan] = lessThan
	h[KindGreaterThan] = greaterThan
	h[KindEqualColorExistential] = pairHandler(equalColorExistential)
	h[KindEqualColorUniversal] = pairHandler(equalColorUniversal)
	h[KindEqualSizeExistential] = pairHandler(equalSizeExistential)
	h[KindEqualSizeUniversal] = pairHandler(equalSizeUniversal)

	h[KindSameColor] = sameHandler("color", sameColor)
	h[KindSameSize] = sameHandler("size", sameSize)
	h[KindSameShape] = sameHandler("shape", sameStatic(attrShape))
	h[KindSameMaterial] = sameHandler("material", sameStatic(attrMaterial))
	h[KindSameEnlargePeriod] = sameHandler("resize_period", samePeriod(resizePeriod))
	h[KindSameMotionPeriod] = sameHandler("motion_period", samePeriod(motionPeriod))
	h[KindSameColorPeriod] = sameHandler("recolor_period", samePeriod(recolorPeriod))

	return h
}

// attribute names a static object property.
type attribute int

const (
	attrColor attribute = iota
	attrSize
	attrShape
	attrMaterial
)

func (a attribute) of(o *scene.Object) string {
	switch a {
	case attrColor:
		return o.Color
	case attrSize:
		return o.Size
	case attrShape:
		return o.Mesh
	default:
		return o.Material
	}
}

// changes reports whether a cycle makes the attribute vary over time, and
// the value it cycles to.
func (a attribute) changes(o *scene.Object) (string, bool) {
	switch a {
	case attrColor:
		return o.IntermittentColor, o.HasCycle(scene.KindRecolor)
	case attrSize:
		return o.IntermittentSize, o.HasCycle(scene.KindResize)
	default:
		return "", false
	}
}

func hasOrbit(o *scene.Object) bool { return o.HasCycle(scene.KindOrbit) }
func hasLinear(o *scene.Object) bool { return o.HasCycle(scene.KindLinear) }
func hasMotion(o *scene.Object) bool { return hasOrbit(o) || hasLinear(o) }
func hasRotate(o *scene.Object) bool { return o.HasCycle(scene.KindRotate) }
func hasResize(o *scene.Object) bool { return o.HasCycle(scene.KindResize) }
func hasRecolor(o *scene.Object) bool { return o.HasCycle(scene.KindRecolor) }

type periodOf func(o *scene.Object) (int, bool)

func resizePeriod(o *scene.Object) (int, bool) { return o.Period(scene.KindResize) }
func recolorPeriod(o *scene.Object) (int, bool) { return o.Period(scene.KindRecolor) }
func linearPeriod(o *scene.Object) (int, bool) { return o.Period(scene.KindLinear) }
func orbitPeriod(o *scene.Object) (int, bool) { return o.Period(scene.KindOrbit) }

func motionPeriod(o *scene.Object) (int, bool) {
	if p, ok := o.Period(scene.KindOrbit); ok {
		return p, true
	}
	return o.Period(scene.KindLinear)
}

func arity(inputs []Value, side []string, nIn, nSide int) error {
	if len(inputs) != nIn || len(side) != nSide {
		return fmt.Errorf("%w: want %d inputs and %d side inputs, got %d and %d",
			ErrBadInput, nIn, nSide, len(inputs), len(side))
	}
	return nil
}

func indexArg(v *View, in Value) (*scene.Object, int, error) {
	i, ok := in.AsIndex()
	if !ok {
		return nil, 0, fmt.Errorf("%w: want object index, got %s", ErrBadInput, in.Tag())
	}
	o, err := v.object(i)
	return o, i, err
}

func listArg(in Value) ([]int, error) {
	l, ok := in.AsIndices()
	if !ok {
		return nil, fmt.Errorf("%w: want object list, got %s", ErrBadInput, in.Tag())
	}
	return l, nil
}

func intArg(in Value) (int, error) {
	n, ok := in.AsInt()
	if !ok {
		return 0, fmt.Errorf("%w: want integer, got %s", ErrBadInput, in.Tag())
	}
	return n, nil
}

func boolArg(in Value) (bool, error) {
	b, ok := in.AsBool()
	if !ok {
		return false, fmt.Errorf("%w: want boolean, got %s", ErrBadInput, in.Tag())
	}
	return b, nil
}
