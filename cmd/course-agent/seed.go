package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tailored-agentic-units/course-agent/store/sqlite"
)

var seedCmd = &cobra.Command{
	Use:   "seed FILE...",
	Short: "Load course data files into the database",
	Long: `Reads each JSON or YAML course file and replaces that course in the
database with its contents. Every record in a file needs an id.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSeed,
}

func runSeed(cmd *cobra.Command, args []string) error {
	store, err := sqlite.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	for _, path := range args {
		data, err := sqlite.ReadSeed(path)
		if err != nil {
			return err
		}
		if err := store.Seed(cmd.Context(), data); err != nil {
			return fmt.Errorf("seed %s: %w", path, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seeded %s (%s): %d assignments, %d modules, %d enrollments\n",
			data.Info.ID, data.Info.Name, len(data.AssignmentList), len(data.ModuleList), len(data.EnrollmentList))
	}
	return nil
}
