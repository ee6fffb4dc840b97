package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoObjectScene() *Scene {
	s := &Scene{
		FPS:                   2,
		Duration:              1,
		Bounds:                Bounds{MinX: -5, MaxX: 5, MinY: -5, MaxY: 5},
		RelationshipThreshold: 0.5,
		Directions:            DefaultDirections(),
	}
	s.AddObject(&Object{Location: Location{X: -2, Y: 0}})
	s.AddObject(&Object{Location: Location{X: 2, Y: 0}})
	return s
}

func TestDeriveRelationships(t *testing.T) {
	s := twoObjectScene()
	rel := DeriveRelationships(s)

	for frame := 1; frame <= 2; frame++ {
		assert.Equal(t, [][2]int{{0, 1}}, rel.Pairs("left", frame))
		assert.Equal(t, [][2]int{{1, 0}}, rel.Pairs("right", frame))
		assert.Empty(t, rel.Pairs("front", frame))
		assert.Empty(t, rel.Pairs("behind", frame))
	}

	require.Contains(t, rel, "above")
	assert.Empty(t, rel["above"])
	assert.Empty(t, rel["below"])
}

func TestDeriveRegions(t *testing.T) {
	s := twoObjectScene()
	s.Objects[1].Cycles = map[Kind]*Cycle{KindLinear: {Period: 2, States: []State{
		{Frame: 1, Location: &Location{X: 2}},
		{Frame: 2, Location: &Location{X: 6}},
	}}}
	before := s.Revision()

	DeriveRegions(s)

	require.NotNil(t, s.Objects[0].AlwaysWithinBoundaries)
	assert.True(t, *s.Objects[0].AlwaysWithinBoundaries)
	assert.False(t, *s.Objects[1].AlwaysWithinBoundaries)
	assert.NotEqual(t, before, s.Revision())
}

func TestRecordStoreRoundTripAndMarkRendered(t *testing.T) {
	store, err := NewRecordStore(t.TempDir())
	require.NoError(t, err)

	s := twoObjectScene()
	s.Split = "val"
	s.Index = 4
	require.NoError(t, store.Save(s))
	assert.Equal(t, "val_4_config.json", s.SceneConfigFile)
	assert.Equal(t, "val_4.mp4", s.VideoFile)
	assert.Equal(t, "val_4.blend", s.BlendFile)

	loaded, err := store.LoadIndex("val", 4)
	require.NoError(t, err)
	assert.False(t, loaded.Rendered)
	assert.Len(t, loaded.Objects, 2)
	assert.Nil(t, loaded.Relationships)

	flipped := map[string][]float64{"left": {1, 0, 0}, "right": {-1, 0, 0}}
	done, err := store.MarkRendered(s.SceneConfigFile, 12.5, flipped)
	require.NoError(t, err)
	assert.True(t, done.Rendered)
	assert.Equal(t, 12.5, *done.RenderTime)
	assert.Equal(t, [][2]int{{1, 0}}, done.Relationships.Pairs("left", 1))

	reloaded, err := store.Load(s.SceneConfigFile)
	require.NoError(t, err)
	assert.True(t, reloaded.Rendered)
	assert.Equal(t, done.Relationships, reloaded.Relationships)
	assert.True(t, *reloaded.Objects[0].AlwaysWithinBoundaries)
}
