package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/grafema-go/grafema/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default .grafema/config.yaml",
	RunE: func(cmd *cobra.Command, args []string) error {
		projectPath, err := filepath.Abs(flagProject)
		if err != nil {
			return err
		}
		dir := filepath.Join(projectPath, ".grafema")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		target := filepath.Join(dir, "config.yaml")
		if _, err := os.Stat(target); err == nil {
			return fmt.Errorf("%s already exists", target)
		}
		data, err := yaml.Marshal(config.Default())
		if err != nil {
			return err
		}
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return err
		}
		fmt.Println("wrote", target)
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Convert a legacy .grafema/config.json to config.yaml",
	RunE: func(cmd *cobra.Command, args []string) error {
		projectPath, err := filepath.Abs(flagProject)
		if err != nil {
			return err
		}
		jsonPath := filepath.Join(projectPath, ".grafema", "config.json")
		data, err := os.ReadFile(jsonPath)
		if err != nil {
			return fmt.Errorf("no legacy config to migrate: %w", err)
		}

		cfg := config.Default()
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse %s: %w", jsonPath, err)
		}
		out, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		yamlPath := filepath.Join(projectPath, ".grafema", "config.yaml")
		if err := os.WriteFile(yamlPath, out, 0o644); err != nil {
			return err
		}
		if err := os.Remove(jsonPath); err != nil {
			return err
		}
		fmt.Println("migrated", jsonPath, "->", yamlPath)
		return nil
	},
}
