package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, root, name, content string) {
	t.Helper()
	dir := filepath.Join(root, ".grafema")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, warnings := Load(t.TempDir())
	assert.Empty(t, warnings)
	assert.Equal(t, Default(), cfg)
}

func TestLoadYAML(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "config.yaml", `
plugins:
  analysis: [js-analysis, custom-analysis]
include:
  - "src/**"
services:
  - name: api
    path: services/api
    entryPoint: server.ts
`)

	cfg, warnings := Load(root)
	assert.Empty(t, warnings)
	assert.Equal(t, []string{"js-analysis", "custom-analysis"}, cfg.Plugins.Analysis)
	assert.Equal(t, []string{"src/**"}, cfg.Include)
	require.Len(t, cfg.Services, 1)
	assert.Equal(t, "api", cfg.Services[0].Name)

	// Sections absent from the file inherit defaults.
	assert.Equal(t, Default().Plugins.Discovery, cfg.Plugins.Discovery)
	assert.Equal(t, Default().Exclude, cfg.Exclude)
}

func TestLoadLegacyJSONWarnsDeprecation(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "config.json", `{"include": ["lib/**"]}`)

	cfg, warnings := Load(root)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, "deprecated")
	assert.Equal(t, []string{"lib/**"}, cfg.Include)
}

func TestLoadPrefersYAMLOverJSON(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "config.yaml", `include: ["src/**"]`)
	writeConfig(t, root, "config.json", `{"include": ["lib/**"]}`)

	cfg, warnings := Load(root)
	assert.Empty(t, warnings)
	assert.Equal(t, []string{"src/**"}, cfg.Include)
}

func TestLoadParseErrorFallsBackToDefaults(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "config.yaml", "plugins: [not, a, mapping")

	cfg, warnings := Load(root)
	require.NotEmpty(t, warnings)
	assert.Equal(t, Default(), cfg)
}

func TestLoadInvalidServiceEntryFallsBack(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "config.yaml", `
services:
  - name: api
`)

	cfg, warnings := Load(root)
	require.NotEmpty(t, warnings, "service without path fails validation")
	assert.Equal(t, Default(), cfg)
}

func TestPhasePlugins(t *testing.T) {
	cfg := Default()
	assert.Equal(t, cfg.Plugins.Analysis, cfg.PhasePlugins("analysis"))
	assert.Nil(t, cfg.PhasePlugins("bogus"))
}
