package scene

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileNames returns the scene record, video and blend file names for a
// scene of a split.
func FileNames(split string, index int) (config, video, blend string) {
	return fmt.Sprintf("%s_%d_config.json", split, index),
		fmt.Sprintf("%s_%d.mp4", split, index),
		fmt.Sprintf("%s_%d.blend", split, index)
}

// RecordStore reads and writes scene records in one directory.
type RecordStore struct {
	dir string
	mu  sync.Mutex
}

// NewRecordStore creates dir if needed.
func NewRecordStore(dir string) (*RecordStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create scene directory: %w", err)
	}
	return &RecordStore{dir: dir}, nil
}

// Dir returns the directory records live in.
func (r *RecordStore) Dir() string {
	return r.dir
}

// Path returns the full path of a record file.
func (r *RecordStore) Path(file string) string {
	return filepath.Join(r.dir, file)
}

// Save writes the record atomically under its scene_config_file name.
func (r *RecordStore) Save(s *Scene) error {
	if s.SceneConfigFile == "" {
		s.SceneConfigFile, s.VideoFile, s.BlendFile = FileNames(s.Split, s.Index)
	}
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal scene %d: %w", s.Index, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	path := r.Path(s.SceneConfigFile)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to rename %s: %w", tmp, err)
	}
	return nil
}

// Load reads a record by file name.
func (r *RecordStore) Load(file string) (*Scene, error) {
	r.mu.Lock()
	b, err := os.ReadFile(r.Path(file))
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return ParseRecord(b)
}

// LoadIndex reads the record of a scene index in a split.
func (r *RecordStore) LoadIndex(split string, index int) (*Scene, error) {
	file, _, _ := FileNames(split, index)
	return r.Load(file)
}

// MarkRendered applies what the renderer reports back and derives the
// relationship table and region labels on the same record.
func (r *RecordStore) MarkRendered(file string, renderTime float64, directions map[string][]float64) (*Scene, error) {
	s, err := r.Load(file)
	if err != nil {
		return nil, err
	}
	s.Rendered = true
	s.RenderTime = &renderTime
	Finalize(s, directions)
	if err := r.Save(s); err != nil {
		return nil, err
	}
	return s, nil
}

// ParseRecord decodes a scene record.
func ParseRecord(b []byte) (*Scene, error) {
	var s Scene
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("invalid scene record: %w", err)
	}
	if s.FPS <= 0 {
		return nil, fmt.Errorf("invalid scene record: fps %d", s.FPS)
	}
	return &s, nil
}
