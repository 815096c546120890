package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"ats-aggregator/internal/config"
	"ats-aggregator/internal/errors"
	"ats-aggregator/internal/logging"
)

var (
	configPath string
	logLevel   string

	// set by PersistentPreRunE
	cfg    *config.Config
	logger logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "jobsearch",
	Short: "Search public ATS job boards from the command line",
	Long: `jobsearch runs the aggregator in-process against the configured job boards.

Available commands:
  search   - Search every enabled board and print the merged postings
  query    - Print the query strings a search form would send
  sources  - List job boards and whether they are ready

Examples:
  jobsearch search "golang engineer" --platforms greenhouse,lever
  jobsearch query --titles "backend engineer,sre" --locations berlin --date-range 7
  jobsearch sources`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return errors.Wrap(err, "load configuration")
		}
		if logLevel != "" {
			loaded.Logging.Level = logLevel
		}
		// stdout carries command output, so logs go to stderr
		if len(loaded.Logging.Adapters) == 0 {
			loaded.Logging.Adapters = []config.LogAdapterConfig{{
				Name:    "stderr",
				Type:    "stderr",
				Enabled: true,
				Options: map[string]interface{}{"format": "text", "colorized": true},
			}}
		}
		if err := logging.InitializeLogging(loaded); err != nil {
			return errors.Wrap(err, "initialize logging")
		}
		cfg = loaded
		logger = logging.GetGlobalLogger()
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return logging.CloseLogging()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "configs/config.yaml", "Path to the YAML configuration")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(sourcesCmd)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
