package question

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AaronLay10/cyclist/internal/scene"
)

func recoloring(color, dest string, period int) *scene.Object {
	return &scene.Object{
		Mesh: "Cube", Size: "small", Color: color,
		IntermittentColor: dest,
		Cycles:            map[scene.Kind]*scene.Cycle{scene.KindRecolor: {Period: period}},
	}
}

func resizing(size, dest string, period int) *scene.Object {
	return &scene.Object{
		Mesh: "Cube", Size: size, Color: "gray",
		IntermittentSize: dest,
		Cycles:           map[scene.Kind]*scene.Cycle{scene.KindResize: {Period: period}},
	}
}

func static(color, size string) *scene.Object {
	return &scene.Object{Mesh: "Cube", Size: size, Color: color}
}

func TestEqualColorExistential(t *testing.T) {
	tests := []struct {
		name string
		a, b *scene.Object
		want Value
	}{
		{"same static color", static("red", "small"), static("red", "small"), Bool(true)},
		{"same start while recoloring", recoloring("red", "blue", 4), static("red", "small"), Bool(true)},
		{"different static colors", static("red", "small"), static("blue", "small"), Bool(false)},
		{"destination meets static color", recoloring("red", "blue", 4), static("blue", "small"), Invalid},
		{"destination meets static color reversed", static("blue", "small"), recoloring("red", "blue", 4), Invalid},
		{"destination elsewhere", recoloring("red", "green", 4), static("blue", "small"), Bool(false)},
		{"both recolor to same color", recoloring("red", "green", 4), recoloring("blue", "green", 2), Bool(true)},
		{"both recolor apart", recoloring("red", "green", 4), recoloring("blue", "yellow", 2), Bool(false)},
		{"crossing recolors", recoloring("red", "blue", 4), recoloring("blue", "red", 4), Invalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := equalColorExistential(tt.a, tt.b)
			assert.True(t, got.Equal(tt.want), "got %s want %s", got, tt.want)
		})
	}
}

func TestEqualSizeExistential(t *testing.T) {
	assert.True(t, equalSizeExistential(static("red", "small"), static("blue", "small")).Equal(Bool(true)))
	assert.True(t, equalSizeExistential(static("red", "small"), static("red", "large")).Equal(Bool(false)))
	assert.True(t, equalSizeExistential(resizing("small", "large", 4), static("red", "medium")).Equal(Bool(true)))
	assert.True(t, equalSizeExistential(resizing("small", "large", 4), resizing("large", "small", 4)).IsInvalid())
}

func TestEqualUniversal(t *testing.T) {
	assert.True(t, equalColorUniversal(static("red", "small"), static("red", "large")).Equal(Bool(true)))
	assert.True(t, equalColorUniversal(recoloring("red", "blue", 4), static("red", "small")).Equal(Bool(false)))
	assert.True(t, equalColorUniversal(recoloring("red", "blue", 4), recoloring("red", "blue", 4)).Equal(Bool(true)))
	assert.True(t, equalColorUniversal(recoloring("red", "blue", 4), recoloring("red", "blue", 2)).Equal(Bool(false)))
	assert.True(t, equalSizeUniversal(resizing("small", "large", 4), resizing("small", "medium", 4)).Equal(Bool(false)))
	assert.True(t, equalSizeUniversal(resizing("small", "large", 8), resizing("small", "large", 8)).Equal(Bool(true)))
}

func twoObjectRelations(frame2 [][2]int) *scene.Scene {
	return &scene.Scene{
		FPS:      1,
		Duration: 2,
		Objects:  []*scene.Object{static("red", "small"), static("blue", "small")},
		Relationships: scene.Relationships{
			"left":  {1: {{1, 0}}, 2: frame2},
			"above": {},
		},
	}
}

func TestRelateUniversal(t *testing.T) {
	relate := func(s *scene.Scene, relation string) Value {
		out, err := relateUniversal(NewView(s), []Value{Index(0)}, []string{relation})
		require.NoError(t, err)
		return out
	}

	assert.Equal(t, "[1]", relate(twoObjectRelations([][2]int{{1, 0}}), "left").String())
	assert.Equal(t, "[]", relate(twoObjectRelations(nil), "left").String())
	assert.Equal(t, "[]", relate(twoObjectRelations(nil), "above").String())

	_, err := relateUniversal(NewView(twoObjectRelations(nil)), []Value{Index(0)}, []string{"inside"})
	assert.ErrorIs(t, err, ErrBadInput)
}

func TestRelateExistential(t *testing.T) {
	out, err := relateExistential(NewView(twoObjectRelations(nil)), []Value{Index(0)}, []string{"left"})
	require.NoError(t, err)
	assert.Equal(t, "[1]", out.String())

	out, err = relateExistential(NewView(twoObjectRelations(nil)), []Value{Index(1)}, []string{"left"})
	require.NoError(t, err)
	assert.Equal(t, "[]", out.String())
}

func TestRelationshipsDerivedOnDemand(t *testing.T) {
	s := &scene.Scene{
		FPS:                   1,
		Duration:              1,
		RelationshipThreshold: 0.5,
		Directions:            scene.DefaultDirections(),
		Objects: []*scene.Object{
			{Mesh: "Cube", Location: scene.Location{X: 0}},
			{Mesh: "Cube", Location: scene.Location{X: 3}},
		},
	}
	out, err := relateExistential(NewView(s), []Value{Index(0)}, []string{"right"})
	require.NoError(t, err)
	assert.Equal(t, "[1]", out.String())
}

func TestSetAlgebra(t *testing.T) {
	v := NewView(fixtureScene())
	a, b := Indices([]int{2, 0}), Indices([]int{1, 2})

	out, err := unionHandler(v, []Value{a, b}, nil)
	require.NoError(t, err)
	assert.Equal(t, "[0,1,2]", out.String())

	out, err = intersectHandler(v, []Value{a, b}, nil)
	require.NoError(t, err)
	assert.Equal(t, "[2]", out.String())

	out, err = exceptHandler(v, []Value{a, b}, nil)
	require.NoError(t, err)
	assert.Equal(t, "[0]", out.String())

	out, err = includeHandler(v, []Value{Index(1), b}, nil)
	require.NoError(t, err)
	assert.True(t, out.Equal(Bool(true)))

	out, err = includeHandler(v, []Value{Index(1), Int(3)}, nil)
	require.NoError(t, err)
	assert.True(t, out.IsInvalid())

	out, err = uniqueHandler(v, []Value{Indices(nil)}, nil)
	require.NoError(t, err)
	assert.True(t, out.IsInvalid())
}

func TestLogicalNot(t *testing.T) {
	e := NewEngine()
	p := program(t, `[{"type":"scene","inputs":[]},
		{"type":"exist","inputs":[0]},
		{"type":"logical_not","inputs":[1]}]`)
	ans, err := e.Answer(p, NewView(fixtureScene()))
	require.NoError(t, err)
	assert.True(t, ans.Equal(Bool(false)))

	out, err := logicalOr(nil, []Value{Bool(false), Bool(true)}, nil)
	require.NoError(t, err)
	assert.True(t, out.Equal(Bool(true)))
	out, err = logicalAnd(nil, []Value{Bool(false), Bool(true)}, nil)
	require.NoError(t, err)
	assert.True(t, out.Equal(Bool(false)))
}

func TestFilters(t *testing.T) {
	v := NewView(fixtureScene())
	all := Indices([]int{0, 1, 2})
	run := func(h Handler, side string) string {
		out, err := h(v, []Value{all}, []string{side})
		require.NoError(t, err)
		return out.String()
	}

	assert.Equal(t, "[0,1]", run(filterExistential(attrColor), "red"))
	assert.Equal(t, "[1,2]", run(filterExistential(attrColor), "blue"))
	assert.Equal(t, "[0]", run(filterUniversal(attrColor), "red"))
	assert.Equal(t, "[0,2]", run(filterExistential(attrMaterial), "Rubber"))
	assert.Equal(t, "[1]", run(filterCycle(hasRecolor), "True"))
	// objects without any cycle are never selected
	assert.Equal(t, "[]", run(filterCycle(hasRecolor), "False"))
	assert.Equal(t, "[1]", run(filterPeriod(recolorPeriod), "4"))
	assert.Equal(t, "[]", run(filterPeriod(recolorPeriod), "2"))

	_, err := filterPeriod(recolorPeriod)(v, []Value{all}, []string{"four"})
	assert.ErrorIs(t, err, ErrBadInput)
}

func TestFilterSizeKeepsResizingObjects(t *testing.T) {
	// small, medium and large: a resize sweeps through every size, so a
	// shrinking or growing object passes any size filter.
	v := NewView(&scene.Scene{
		FPS:      4,
		Duration: 2,
		Objects: []*scene.Object{
			resizing("small", "medium", 4),
			static("red", "large"),
			static("blue", "small"),
		},
	})
	all := Indices([]int{0, 1, 2})
	run := func(size string) string {
		out, err := filterExistential(attrSize)(v, []Value{all}, []string{size})
		require.NoError(t, err)
		return out.String()
	}

	assert.Equal(t, "[0,1]", run("large"))
	assert.Equal(t, "[0]", run("medium"))
	assert.Equal(t, "[0,2]", run("small"))

	e := NewEngine()
	answer, err := e.Answer(program(t, `[{"type":"scene","inputs":[]},
		{"type":"filter_size","inputs":[0],"side_inputs":["large"]}]`), v)
	require.NoError(t, err)
	assert.Equal(t, "[0,1]", answer.String())
}

func TestQueries(t *testing.T) {
	v := NewView(fixtureScene())
	run := func(h Handler, i int) Value {
		out, err := h(v, []Value{Index(i)}, nil)
		require.NoError(t, err)
		return out
	}

	assert.Equal(t, "red", run(queryStatic(attrColor), 0).String())
	assert.True(t, run(queryStatic(attrColor), 1).IsInvalid())
	assert.Equal(t, "large", run(queryStatic(attrSize), 1).String())
	assert.Equal(t, "red", run(queryInitial(attrColor), 1).String())
	assert.Equal(t, "blue", run(queryFinal(attrColor), 1).String())
	assert.True(t, run(queryFinal(attrColor), 0).IsInvalid())
	assert.Equal(t, "4", run(queryPeriod(recolorPeriod), 1).String())
	assert.True(t, run(queryOrbitCenter, 1).IsInvalid())

	_, err := queryStatic(attrColor)(v, []Value{Index(7)}, nil)
	assert.ErrorIs(t, err, ErrBadInput)
}

func TestQueryPasses(t *testing.T) {
	center := 0
	s := &scene.Scene{
		FPS:      4,
		Duration: 2,
		Objects: []*scene.Object{
			static("red", "small"),
			{Mesh: "Cube", Cycles: map[scene.Kind]*scene.Cycle{
				scene.KindOrbit: {Period: 4, Center: &center, Direction: scene.Clockwise},
			}},
			{Mesh: "Cube", Cycles: map[scene.Kind]*scene.Cycle{
				scene.KindLinear: {Period: 3},
			}},
		},
	}
	v := NewView(s)

	out, err := queryPasses(orbitPeriod)(v, []Value{Index(1)}, nil)
	require.NoError(t, err)
	assert.Equal(t, "2", out.String())

	out, err = queryPasses(linearPeriod)(v, []Value{Index(2)}, nil)
	require.NoError(t, err)
	assert.True(t, out.IsInvalid())

	out, err = queryOrbitCenter(v, []Value{Index(1)}, nil)
	require.NoError(t, err)
	assert.True(t, out.Equal(Index(0)))

	out, err = queryPeriod(motionPeriod)(v, []Value{Index(2)}, nil)
	require.NoError(t, err)
	assert.Equal(t, "3", out.String())
}

func TestSameColorCountsDestinations(t *testing.T) {
	s := &scene.Scene{
		Objects: []*scene.Object{
			recoloring("red", "blue", 4),
			static("blue", "small"),
			static("green", "small"),
			recoloring("yellow", "blue", 2),
		},
	}
	v := NewView(s)
	out, err := sameHandler("color", sameColor)(v, []Value{Index(0)}, nil)
	require.NoError(t, err)
	assert.Equal(t, "[1,3]", out.String())

	out, err = sameHandler("color", sameColor)(v, []Value{Index(2)}, nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", out.String())

	out, err = sameHandler("recolor_period", samePeriod(recolorPeriod))(v, []Value{Index(0)}, nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", out.String())
}

func TestCompareIntegers(t *testing.T) {
	out, err := lessThan(nil, []Value{Int(1), Int(2)}, nil)
	require.NoError(t, err)
	assert.True(t, out.Equal(Bool(true)))

	out, err = greaterThan(nil, []Value{Int(1), Int(2)}, nil)
	require.NoError(t, err)
	assert.True(t, out.Equal(Bool(false)))

	_, err = lessThan(nil, []Value{Int(1), String("2")}, nil)
	assert.ErrorIs(t, err, ErrBadInput)

	out, err = equalHandler(nil, []Value{String("Cube"), String("Cube")}, nil)
	require.NoError(t, err)
	assert.True(t, out.Equal(Bool(true)))
}
