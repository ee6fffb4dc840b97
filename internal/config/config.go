// Package config loads the generation YAML file, .env files and secrets.
// Tests use the standard testing package.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/image/colornames"
	"gopkg.in/yaml.v3"

	"github.com/AaronLay10/cyclist/internal/scene"
)

// DefaultColorNames is the palette used when generation.yaml has none.
// Values are looked up in the SVG color table.
var DefaultColorNames = []string{"gray", "red", "blue", "green", "brown", "purple", "cyan", "yellow"}

// DefaultSizes maps size names to object radii.
var DefaultSizes = map[string]float64{"small": 0.35, "large": 0.7}

type Range struct {
	Min   int  `yaml:"min"`
	Max   int  `yaml:"max"`
	Count *int `yaml:"count"`
}

type ObjectConfig struct {
	Mesh     string   `yaml:"mesh"`
	Material string   `yaml:"material"`
	Size     string   `yaml:"size"`
	Color    string   `yaml:"color"`
	Angle    *float64 `yaml:"angle"`
	Location *struct {
		X float64 `yaml:"x"`
		Y float64 `yaml:"y"`
		Z float64 `yaml:"z"`
	} `yaml:"location"`
	Cycles []string `yaml:"cycles"`
}

// GenerationConfig is the parsed generation.yaml.
type GenerationConfig struct {
	Version int `yaml:"version"`

	Output struct {
		Split          string `yaml:"split"`
		SceneConfigDir string `yaml:"scene_config_directory"`
		VideoDir       string `yaml:"video_directory"`
		BlendDir       string `yaml:"blendfile_directory"`
	} `yaml:"output"`

	Seed             *int64 `yaml:"seed"`
	SceneIndexOffset int    `yaml:"scene_index_offset"`
	NumberOfVideos   int    `yaml:"number_of_videos"`
	Workers          int    `yaml:"workers"`

	Video struct {
		FPS      int     `yaml:"fps"`
		Duration float64 `yaml:"duration"`
	} `yaml:"video"`

	Bounds struct {
		MinX float64 `yaml:"min_x"`
		MaxX float64 `yaml:"max_x"`
		MinY float64 `yaml:"min_y"`
		MaxY float64 `yaml:"max_y"`
	} `yaml:"bounds"`

	MinimumDistance       float64 `yaml:"minimum_distance"`
	RelationshipThreshold float64 `yaml:"relationship_threshold"`
	MaxOrbitRadius        float64 `yaml:"max_orbit_radius"`

	MaxTries        int  `yaml:"max_number_of_tries"`
	MaxRestarts     int  `yaml:"max_number_of_restarts"`
	ForceGeneration bool `yaml:"force_generation"`
	CyclicLights    bool `yaml:"cyclic_lights"`

	Clutter Range            `yaml:"clutter"`
	Cycles  map[string]Range `yaml:"cycles"`

	PrimeFactors struct {
		Min int `yaml:"min"`
		Max int `yaml:"max"`
	} `yaml:"prime_factors"`

	Palette struct {
		Colors     map[string][]float64 `yaml:"colors"`
		ColorNames []string             `yaml:"color_names"`
		Sizes      map[string]float64   `yaml:"sizes"`
	} `yaml:"palette"`

	Assets struct {
		Meshes      []string `yaml:"meshes"`
		Materials   []string `yaml:"materials"`
		ShapeDir    string   `yaml:"shape_directory"`
		MaterialDir string   `yaml:"material_directory"`
	} `yaml:"assets"`

	Directions    map[string][]float64 `yaml:"directions"`
	Predetermined []ObjectConfig       `yaml:"predetermined_objects"`

	Postgres struct {
		Enabled bool   `yaml:"enabled"`
		Dataset string `yaml:"dataset"`
	} `yaml:"postgres"`

	MQTT struct {
		Broker   string `yaml:"broker"`
		ClientID string `yaml:"client_id"`
		Prefix   string `yaml:"topic_prefix"`
		Timeout  string `yaml:"render_timeout"`
	} `yaml:"mqtt"`

	Preview struct {
		Enabled   bool   `yaml:"enabled"`
		Directory string `yaml:"directory"`
		Every     int    `yaml:"every"`
		Width     int    `yaml:"width"`
	} `yaml:"preview"`

	API struct {
		Port int `yaml:"port"`
	} `yaml:"api"`
}

// Default returns the configuration used for every key generation.yaml
// leaves out.
func Default() *GenerationConfig {
	var c GenerationConfig
	c.Version = 1
	c.Output.Split = "train"
	c.Output.SceneConfigDir = "output/scenes"
	c.Output.VideoDir = "output/videos"
	c.Output.BlendDir = "output/blendfiles"
	c.NumberOfVideos = 1
	c.Workers = 1
	c.Video.FPS = 32
	c.Video.Duration = 5
	c.Bounds.MinX, c.Bounds.MaxX = -5, 5
	c.Bounds.MinY, c.Bounds.MaxY = -5, 5
	c.MinimumDistance = 1.5
	c.RelationshipThreshold = 0.5
	c.MaxOrbitRadius = 5
	c.MaxTries = 100
	c.MaxRestarts = scene.DefaultMaxRestarts
	c.PrimeFactors.Min = 5
	c.PrimeFactors.Max = 6
	c.Assets.Meshes = []string{"Cube", "Sphere", "Cylinder"}
	c.Assets.Materials = []string{"Rubber", "Metal"}
	c.MQTT.Prefix = "cyclist"
	c.MQTT.ClientID = "cyclist-generator"
	c.MQTT.Timeout = "30m"
	c.Preview.Directory = "output/previews"
	c.Preview.Every = 8
	c.Preview.Width = 512
	c.API.Port = 8080
	return &c
}

// LoadEnv loads .env files into the process environment. Missing files
// are ignored.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// LoadGenerationConfig reads generation.yaml on top of Default.
func LoadGenerationConfig(path string) (*GenerationConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseGenerationConfig(b)
}

func ParseGenerationConfig(b []byte) (*GenerationConfig, error) {
	cfg := Default()
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, err
	}
	if cfg.Version != 1 {
		return nil, fmt.Errorf("unsupported generation.yaml version: %d", cfg.Version)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that would otherwise only fail once
// generation has started.
func (c *GenerationConfig) Validate() error {
	if c.NumberOfVideos < 0 {
		return fmt.Errorf("number_of_videos must not be negative, got %d", c.NumberOfVideos)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	for name := range c.Cycles {
		if !knownKind(name) {
			return fmt.Errorf("unknown cycle kind %q", name)
		}
	}
	for i, o := range c.Predetermined {
		for _, k := range o.Cycles {
			if !knownKind(k) {
				return fmt.Errorf("predetermined object %d: unknown cycle kind %q", i, k)
			}
		}
	}
	for name, rgb := range c.Palette.Colors {
		if len(rgb) != 3 {
			return fmt.Errorf("color %q: want 3 channels, got %d", name, len(rgb))
		}
	}
	if _, err := c.RenderTimeout(); err != nil {
		return err
	}
	params, err := c.Params()
	if err != nil {
		return err
	}
	return params.Validate()
}

// RenderTimeout is how long a dispatched render job may stay unanswered.
func (c *GenerationConfig) RenderTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.MQTT.Timeout)
	if err != nil {
		return 0, fmt.Errorf("mqtt.render_timeout: %w", err)
	}
	return d, nil
}

// Colors resolves the palette to RGBA tuples in [0,1]. Explicit RGB values
// are given in 0-255; named colors are looked up in the SVG color table.
func (c *GenerationConfig) Colors() (map[string][]float64, error) {
	out := make(map[string][]float64)
	for name, rgb := range c.Palette.Colors {
		out[name] = []float64{rgb[0] / 255, rgb[1] / 255, rgb[2] / 255, 1}
	}
	names := c.Palette.ColorNames
	if len(out) == 0 && len(names) == 0 {
		names = DefaultColorNames
	}
	for _, name := range names {
		rgba, ok := colornames.Map[strings.ToLower(name)]
		if !ok {
			return nil, fmt.Errorf("unknown color name %q", name)
		}
		out[name] = []float64{float64(rgba.R) / 255, float64(rgba.G) / 255, float64(rgba.B) / 255, 1}
	}
	return out, nil
}

func (c *GenerationConfig) Sizes() map[string]float64 {
	if len(c.Palette.Sizes) > 0 {
		return c.Palette.Sizes
	}
	return DefaultSizes
}

// Meshes returns the configured mesh names, or the .blend files of the
// shape directory when one is set.
func (c *GenerationConfig) Meshes() ([]string, error) {
	if c.Assets.ShapeDir != "" {
		return scanBlendFiles(c.Assets.ShapeDir)
	}
	return c.Assets.Meshes, nil
}

func (c *GenerationConfig) Materials() ([]string, error) {
	if c.Assets.MaterialDir != "" {
		return scanBlendFiles(c.Assets.MaterialDir)
	}
	return c.Assets.Materials, nil
}

func scanBlendFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scan assets: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".blend" {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".blend"))
	}
	sort.Strings(names)
	return names, nil
}

// SeedValue returns the configured seed, or a time-derived one when unset.
// The result should be recorded so the run can be reproduced.
func (c *GenerationConfig) SeedValue() int64 {
	if c.Seed != nil {
		return *c.Seed
	}
	seed := time.Now().UnixNano() & 0xffffffff
	c.Seed = &seed
	return seed
}

// Params converts the configuration into scene generation parameters.
func (c *GenerationConfig) Params() (scene.Params, error) {
	colors, err := c.Colors()
	if err != nil {
		return scene.Params{}, err
	}
	meshes, err := c.Meshes()
	if err != nil {
		return scene.Params{}, err
	}
	materials, err := c.Materials()
	if err != nil {
		return scene.Params{}, err
	}

	p := scene.Params{
		Split:    c.Output.Split,
		FPS:      c.Video.FPS,
		Duration: c.Video.Duration,
		Bounds: scene.Bounds{
			MinX: c.Bounds.MinX, MaxX: c.Bounds.MaxX,
			MinY: c.Bounds.MinY, MaxY: c.Bounds.MaxY,
		},
		MinimumDistance:       c.MinimumDistance,
		RelationshipThreshold: c.RelationshipThreshold,
		MaxOrbitRadius:        c.MaxOrbitRadius,
		MaxTries:              c.MaxTries,
		MaxRestarts:           c.MaxRestarts,
		ForceGeneration:       c.ForceGeneration,
		CyclicLights:          c.CyclicLights,
		MinPrimeFactors:       c.PrimeFactors.Min,
		MaxPrimeFactors:       c.PrimeFactors.Max,
		Clutter:               scene.Range(c.Clutter),
		Cycles:                make(map[scene.Kind]scene.Range, len(c.Cycles)),
		Colors:                colors,
		Sizes:                 c.Sizes(),
		Meshes:                meshes,
		Materials:             materials,
		Directions:            c.Directions,
	}
	if c.Seed != nil {
		p.Seed = *c.Seed
	}
	for name, r := range c.Cycles {
		p.Cycles[scene.Kind(name)] = scene.Range(r)
	}
	for _, o := range c.Predetermined {
		spec := scene.ObjectSpec{
			Mesh:     o.Mesh,
			Material: o.Material,
			Size:     o.Size,
			Color:    o.Color,
			Angle:    o.Angle,
		}
		if o.Location != nil {
			spec.Location = &scene.Location{X: o.Location.X, Y: o.Location.Y, Z: o.Location.Z}
		}
		for _, k := range o.Cycles {
			spec.Cycles = append(spec.Cycles, scene.Kind(k))
		}
		p.Predetermined = append(p.Predetermined, spec)
	}
	return p, nil
}

func knownKind(name string) bool {
	for _, k := range scene.ApplicationOrder {
		if string(k) == name {
			return true
		}
	}
	return false
}
