package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
database:
  url: "postgres://localhost/privacy_chat"
detector:
  url: "http://localhost:8001"
face_matcher:
  url: "http://localhost:8002"
  faces_dir: "faces"
validation:
  confidence_threshold: 0.5
  face_tolerance: 0.6
  violating_objects: ["cell phone"]
  require_single_default: true
  workers: 8
server:
  port: ":9000"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/privacy_chat", cfg.Database.URL)
	assert.Equal(t, "http://localhost:8001", cfg.Detector.URL)
	assert.Equal(t, "faces", cfg.FaceMatcher.FacesDir)
	assert.Equal(t, 0.5, cfg.Validation.ConfidenceThreshold)
	assert.Equal(t, 0.6, cfg.Validation.FaceTolerance)
	assert.Equal(t, []string{"cell phone"}, cfg.Validation.ViolatingObjects)
	assert.True(t, cfg.Validation.RequireSingleDefault)
	assert.Equal(t, 8, cfg.Validation.Workers)
	assert.Equal(t, ":9000", cfg.Server.Port)
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, `
database:
  url: "postgres://localhost/privacy_chat"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 0.4, cfg.Validation.ConfidenceThreshold)
	assert.Equal(t, 0.45, cfg.Validation.FaceTolerance)
	assert.Equal(t, []string{"cell phone", "camera", "laptop", "tv", "monitor"}, cfg.Validation.ViolatingObjects)
	assert.Equal(t, 4, cfg.Validation.Workers)
	assert.Equal(t, ":8000", cfg.Server.Port)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}
