// Command course-agent serves and drives the course assistant.
//
//	course-agent seed testdata/course.yaml
//	course-agent serve -config config.yaml
//	course-agent chat -course c1 -user u-teach
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configFile string
	verbose    bool

	cfg    *Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "course-agent",
	Short: "Conversational assistant for course data",
	Long: `course-agent answers questions about a course and proposes changes that
the user confirms before anything is saved.

Settings come from the file named by --config, then from the environment
(a .env file in the working directory is loaded first).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)

		if err := godotenv.Load(); err != nil {
			logger.Debug("no .env file found, using environment variables")
		}

		loaded, err := LoadConfig(configFile, os.Getenv)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "path to a JSON or YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug events")

	rootCmd.AddCommand(serveCmd, chatCmd, seedCmd, watchCmd, auditCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
