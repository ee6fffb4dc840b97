package question

import (
	"fmt"
	"sync"

	"github.com/AaronLay10/cyclist/internal/scene"
)

// View is a scene as handlers see it, together with data derived from it.
// Derived data is rebuilt whenever the scene revision changes. A View may
// be shared between goroutines.
type View struct {
	scene *scene.Scene

	mu        sync.Mutex
	revision  uint64
	same      map[string]map[int][]int
	relations scene.Relationships
}

// NewView wraps a scene.
func NewView(s *scene.Scene) *View {
	return &View{scene: s, revision: s.Revision()}
}

// Scene returns the underlying scene.
func (v *View) Scene() *scene.Scene {
	return v.scene
}

// invalidate drops derived data if the scene changed. Callers hold v.mu.
func (v *View) invalidate() {
	if rev := v.scene.Revision(); rev != v.revision {
		v.revision = rev
		v.same = nil
		v.relations = nil
	}
}

func (v *View) object(i int) (*scene.Object, error) {
	if i < 0 || i >= len(v.scene.Objects) {
		return nil, fmt.Errorf("%w: object index %d out of range [0,%d)", ErrBadInput, i, len(v.scene.Objects))
	}
	return v.scene.Objects[i], nil
}

// relationships returns the scene's relationship table, deriving it on
// demand for records that have not been finalized yet.
func (v *View) relationships() scene.Relationships {
	if v.scene.Relationships != nil {
		return v.scene.Relationships
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.invalidate()
	if v.relations == nil {
		v.relations = scene.DeriveRelationships(v.scene)
	}
	return v.relations
}

// sameAs returns, per object, the other objects for which match holds.
// Results are cached under key.
func (v *View) sameAs(key string, match func(a, b *scene.Object) bool) map[int][]int {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.invalidate()

	if cached, ok := v.same[key]; ok {
		return cached
	}
	objects := v.scene.Objects
	table := make(map[int][]int, len(objects))
	for i, a := range objects {
		same := []int{}
		for j, b := range objects {
			if i != j && match(a, b) {
				same = append(same, j)
			}
		}
		table[i] = same
	}
	if v.same == nil {
		v.same = make(map[string]map[int][]int)
	}
	v.same[key] = table
	return table
}
