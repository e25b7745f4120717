package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/grafema-go/grafema/diag"
)

var flagIssueTitle string

var reportIssueCmd = &cobra.Command{
	Use:   "report-issue",
	Short: "Build an issue payload from the last run's diagnostics",
	Long:  "Reads .grafema/diagnostics.log, assembles a tracker-ready issue payload, and prints it. Requires GITHUB_TOKEN so the external reporter integration can authenticate.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if os.Getenv("GITHUB_TOKEN") == "" {
			return fmt.Errorf("GITHUB_TOKEN is not set")
		}
		projectPath, err := filepath.Abs(flagProject)
		if err != nil {
			return err
		}
		diagnostics, err := diag.ReadLog(filepath.Join(projectPath, ".grafema", "diagnostics.log"))
		if err != nil {
			return fmt.Errorf("no diagnostics to report (run analyze first): %w", err)
		}

		payload := diag.BuildIssuePayload(flagIssueTitle, diagnostics)
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	},
}

func init() {
	reportIssueCmd.Flags().StringVar(&flagIssueTitle, "title", "grafema analysis findings", "issue title")
}
