// Package config loads the project configuration from
// .grafema/config.yaml (legacy .grafema/config.json accepted with a
// deprecation warning). Missing sections inherit defaults; a parse error
// is reported as a warning and the defaults are used.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Plugins lists the plugin names enabled for each phase, in user
// preference order. The orchestrator still topo-sorts within a phase.
type Plugins struct {
	Discovery  []string `yaml:"discovery" json:"discovery"`
	Indexing   []string `yaml:"indexing" json:"indexing"`
	Analysis   []string `yaml:"analysis" json:"analysis"`
	Enrichment []string `yaml:"enrichment" json:"enrichment"`
	Validation []string `yaml:"validation" json:"validation"`
}

// ServiceEntry pins a service explicitly instead of relying on workspace
// detection.
type ServiceEntry struct {
	Name       string `yaml:"name" json:"name" validate:"required"`
	Path       string `yaml:"path" json:"path" validate:"required"`
	EntryPoint string `yaml:"entryPoint,omitempty" json:"entryPoint,omitempty"`
}

// Workspace overrides workspace detection with explicit roots.
type Workspace struct {
	Roots []string `yaml:"roots" json:"roots"`
}

// Config is the full configuration shape.
type Config struct {
	Plugins   Plugins        `yaml:"plugins" json:"plugins"`
	Include   []string       `yaml:"include" json:"include"`
	Exclude   []string       `yaml:"exclude" json:"exclude"`
	Services  []ServiceEntry `yaml:"services" json:"services" validate:"dive"`
	Workspace Workspace      `yaml:"workspace" json:"workspace"`
}

// Default returns the configuration used when no file is present or the
// present one cannot be parsed.
func Default() *Config {
	return &Config{
		Plugins: Plugins{
			Discovery:  []string{"workspace-discovery"},
			Indexing:   []string{"module-indexer"},
			Analysis:   []string{"js-analysis"},
			Enrichment: []string{"callback-enrichment"},
			Validation: []string{"graph-validation"},
		},
		Exclude: []string{"**/node_modules/**", "**/dist/**"},
	}
}

// Warning is a non-fatal load problem the caller should surface.
type Warning struct {
	Path    string
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Path, w.Message)
}

var validate = validator.New()

// Load reads the configuration for projectPath. It never fails hard: any
// problem falls back to Default() with a Warning describing it.
func Load(projectPath string) (*Config, []Warning) {
	var warnings []Warning

	yamlPath := filepath.Join(projectPath, ".grafema", "config.yaml")
	if data, err := os.ReadFile(yamlPath); err == nil {
		cfg, err := parse(data, yaml.Unmarshal)
		if err != nil {
			return Default(), append(warnings, Warning{Path: yamlPath, Message: err.Error()})
		}
		return cfg, warnings
	}

	jsonPath := filepath.Join(projectPath, ".grafema", "config.json")
	if data, err := os.ReadFile(jsonPath); err == nil {
		warnings = append(warnings, Warning{
			Path:    jsonPath,
			Message: "config.json is deprecated; rename to config.yaml",
		})
		cfg, err := parse(data, json.Unmarshal)
		if err != nil {
			return Default(), append(warnings, Warning{Path: jsonPath, Message: err.Error()})
		}
		return cfg, warnings
	}

	return Default(), warnings
}

// parse unmarshals into a copy of the defaults so that missing sections
// inherit, then validates the result.
func parse(data []byte, unmarshal func([]byte, any) error) (*Config, error) {
	cfg := Default()
	if err := unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// PhasePlugins returns the configured plugin names for a phase key
// ("discovery", "indexing", "analysis", "enrichment", "validation").
func (c *Config) PhasePlugins(phase string) []string {
	switch phase {
	case "discovery":
		return c.Plugins.Discovery
	case "indexing":
		return c.Plugins.Indexing
	case "analysis":
		return c.Plugins.Analysis
	case "enrichment":
		return c.Plugins.Enrichment
	case "validation":
		return c.Plugins.Validation
	}
	return nil
}
