package mqtt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/AaronLay10/cyclist/internal/scene"
)

// PayloadVersion is the render protocol version this package speaks.
const PayloadVersion = 1

// Topics returns the job and completion topics under prefix.
func Topics(prefix string) (jobs, done string) {
	prefix = strings.TrimSuffix(prefix, "/")
	return prefix + "/render/jobs", prefix + "/render/done"
}

// RenderJob asks a renderer to turn a scene record into a video.
type RenderJob struct {
	Version         int    `json:"version"`
	SceneIndex      int    `json:"scene_index"`
	Split           string `json:"split"`
	SceneConfigFile string `json:"scene_config_file"`
	VideoFile       string `json:"video_file"`
	BlendFile       string `json:"blend_file,omitempty"`
}

// JobFor builds the render job of a saved scene.
func JobFor(s *scene.Scene) RenderJob {
	return RenderJob{
		Version:         PayloadVersion,
		SceneIndex:      s.Index,
		Split:           s.Split,
		SceneConfigFile: s.SceneConfigFile,
		VideoFile:       s.VideoFile,
		BlendFile:       s.BlendFile,
	}
}

// RenderDone is a renderer's completion report. Directions are the
// camera-aligned relation directions the renderer measured, if any.
type RenderDone struct {
	Version         int                  `json:"version"`
	SceneConfigFile string               `json:"scene_config_file"`
	RenderTime      float64              `json:"render_time"`
	Directions      map[string][]float64 `json:"directions,omitempty"`
	Error           string               `json:"error,omitempty"`
}

// ParseRenderDone parses and checks a completion payload.
func ParseRenderDone(data []byte) (*RenderDone, error) {
	var payload RenderDone
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("invalid render completion JSON: %w", err)
	}

	if payload.Version != PayloadVersion {
		return nil, fmt.Errorf("unsupported render completion version: %d", payload.Version)
	}

	if payload.SceneConfigFile == "" {
		return nil, fmt.Errorf("scene_config_file is required")
	}

	if payload.RenderTime < 0 {
		return nil, fmt.Errorf("render_time must not be negative, got %g", payload.RenderTime)
	}

	for name, dir := range payload.Directions {
		if len(dir) != 3 {
			return nil, fmt.Errorf("direction %q: want 3 components, got %d", name, len(dir))
		}
	}

	return &payload, nil
}
