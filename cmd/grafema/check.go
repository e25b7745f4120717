package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/grafema-go/grafema/config"
	"github.com/grafema-go/grafema/diag"
	"github.com/grafema-go/grafema/plugin"
)

var flagCheckFormat string

var checkCmd = &cobra.Command{
	Use:   "check <category>",
	Short: "Run the pipeline and report findings for one diagnostic category",
	Long:  "Runs the analysis pipeline and reports diagnostics in the given category (connectivity, calls, dataflow, imports). Exits nonzero when the category has findings of severity error.",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&flagCheckFormat, "format", "text", "output format: text, json, or csv")
}

func runCheck(cmd *cobra.Command, args []string) error {
	category := diag.Category(args[0])
	switch category {
	case diag.CategoryConnectivity, diag.CategoryCalls, diag.CategoryDataflow, diag.CategoryImports:
	default:
		return fmt.Errorf("unknown category %q", args[0])
	}

	projectPath, err := filepath.Abs(flagProject)
	if err != nil {
		return err
	}
	cfg, warnings := config.Load(projectPath)
	for _, w := range warnings {
		logger.Warn("config", zap.String("detail", w.String()))
	}

	backend, closeBackend, err := openBackend(projectPath)
	if err != nil {
		return err
	}
	defer closeBackend()

	orch, err := buildPipeline(backend, projectPath, cfg)
	if err != nil {
		return err
	}
	report, runErr := orch.Run(cmd.Context(), projectPath, plugin.RunOptions{
		Include: cfg.Include,
		Exclude: cfg.Exclude,
	})
	if runErr != nil {
		return runErr
	}

	var matched []diag.Diagnostic
	failing := false
	for _, d := range report.Diagnostics {
		if d.Category() != category {
			continue
		}
		matched = append(matched, d)
		if d.Kind == diag.KindError {
			failing = true
		}
	}

	reporter := diag.NewReporter(diag.Format(flagCheckFormat))
	if err := reporter.Write(os.Stdout, matched); err != nil {
		return err
	}
	if failing {
		return fmt.Errorf("%d %s finding(s)", len(matched), category)
	}
	return nil
}
