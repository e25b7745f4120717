// Command grafema is the CLI front-end: it loads the project config,
// assembles the plugin pipeline, and runs it against a graph backend.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	_ "github.com/grafema-go/grafema/plugin/analysis"
	_ "github.com/grafema-go/grafema/plugin/discovery"
	_ "github.com/grafema-go/grafema/plugin/enrichment"
	_ "github.com/grafema-go/grafema/plugin/indexing"
	_ "github.com/grafema-go/grafema/plugin/validation"
)

var (
	logger *zap.Logger

	flagProject string
	flagEngine  string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:           "grafema",
	Short:         "Static code-graph analyzer",
	Long:          "grafema ingests a source tree, builds a typed property graph of its entities and relationships, and answers queries over it.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		if flagVerbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return err
		}
		if flagEngine != "" && flagEngine != "v2" {
			return fmt.Errorf("unknown engine %q (supported: v2)", flagEngine)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func main() {
	rootCmd.PersistentFlags().StringVar(&flagProject, "project", ".", "project path to analyze")
	rootCmd.PersistentFlags().StringVar(&flagEngine, "engine", "v2", "analysis engine")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(analyzeCmd, checkCmd, initCmd, migrateCmd, reportIssueCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "grafema:", err)
		os.Exit(1)
	}
}
