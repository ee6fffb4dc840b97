package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AaronLay10/cyclist/internal/scene"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestParseGenerationConfig(t *testing.T) {
	src := `
version: 1
output:
  split: val
seed: 42
video:
  fps: 8
  duration: 4
prime_factors:
  min: 1
  max: 3
cycles:
  orbit: {min: 1, max: 1}
  recolor: {count: 2}
palette:
  colors:
    red: [255, 0, 0]
  color_names: [blue]
  sizes:
    small: 0.3
predetermined_objects:
  - mesh: Cube
    color: red
    location: {x: 1, y: 2}
    cycles: [rotate]
`
	cfg, err := ParseGenerationConfig([]byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Output.Split != "val" || cfg.Video.FPS != 8 {
		t.Errorf("unexpected values: split=%q fps=%d", cfg.Output.Split, cfg.Video.FPS)
	}
	if cfg.MaxTries != 100 {
		t.Errorf("default max tries not kept, got %d", cfg.MaxTries)
	}

	p, err := cfg.Params()
	if err != nil {
		t.Fatalf("params: %v", err)
	}
	if p.Seed != 42 || p.Split != "val" {
		t.Errorf("seed=%d split=%q", p.Seed, p.Split)
	}
	if got := p.Colors["red"]; len(got) != 4 || got[0] != 1 || got[3] != 1 {
		t.Errorf("red = %v, want [1 0 0 1]", got)
	}
	if got := p.Colors["blue"]; len(got) != 4 || got[2] != 1 {
		t.Errorf("blue = %v", got)
	}
	if p.Sizes["small"] != 0.3 {
		t.Errorf("sizes = %v", p.Sizes)
	}
	if r := p.Cycles[scene.KindRecolor]; r.Count == nil || *r.Count != 2 {
		t.Errorf("recolor range = %+v", r)
	}
	if len(p.Predetermined) != 1 {
		t.Fatalf("predetermined = %d", len(p.Predetermined))
	}
	pre := p.Predetermined[0]
	if pre.Location == nil || pre.Location.Y != 2 || len(pre.Cycles) != 1 || pre.Cycles[0] != scene.KindRotate {
		t.Errorf("predetermined = %+v", pre)
	}
}

func TestParseGenerationConfigRejects(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"version", "version: 2", "unsupported generation.yaml version"},
		{"cycle kind", "version: 1\ncycles:\n  teleport: {min: 1, max: 1}", "unknown cycle kind"},
		{"color channels", "version: 1\npalette:\n  colors:\n    red: [1, 2]", "want 3 channels"},
		{"color name", "version: 1\npalette:\n  color_names: [notacolor]", "unknown color name"},
		{"workers", "version: 1\nworkers: 0", "workers must be at least 1"},
		{"timeout", "version: 1\nmqtt:\n  render_timeout: soon", "render_timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseGenerationConfig([]byte(tt.src))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("got %v, want error containing %q", err, tt.want)
			}
		})
	}
}

func TestMalformedPeriodConfigSurfacesAtLoad(t *testing.T) {
	_, err := ParseGenerationConfig([]byte("version: 1\nprime_factors:\n  min: 4\n  max: 2\n"))
	if !errors.Is(err, scene.ErrMalformedPeriodConfig) {
		t.Fatalf("got %v, want ErrMalformedPeriodConfig", err)
	}
}

func TestAssetDirectoryScan(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"Torus.blend", "Cone.blend", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}
	cfg := Default()
	cfg.Assets.ShapeDir = dir

	meshes, err := cfg.Meshes()
	if err != nil {
		t.Fatalf("meshes: %v", err)
	}
	if len(meshes) != 2 || meshes[0] != "Cone" || meshes[1] != "Torus" {
		t.Errorf("meshes = %v", meshes)
	}
}

func TestLoadEnvIgnoresMissingFile(t *testing.T) {
	if err := LoadEnv(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("CYCLIST_TEST_FROM_DOTENV=yes\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CYCLIST_TEST_FROM_DOTENV", "")
	os.Unsetenv("CYCLIST_TEST_FROM_DOTENV")
	if err := LoadEnv(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := os.Getenv("CYCLIST_TEST_FROM_DOTENV"); got != "yes" {
		t.Errorf("got %q", got)
	}
}

func TestSeedValueIsStable(t *testing.T) {
	cfg := Default()
	first := cfg.SeedValue()
	if cfg.SeedValue() != first {
		t.Error("seed changed between calls")
	}
}
