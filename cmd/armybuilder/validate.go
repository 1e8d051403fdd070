package main

import (
	"fmt"

	"armybuilder/internal/api"
	"armybuilder/internal/dataset"
	"armybuilder/internal/reference"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check every dataset unit against the editor rules",
	Long: `Loads the datasets and the enum catalogs and reports every unit that
the editor would refuse to save. Exits non-zero when issues are found.`,
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	datasets, err := dataset.LoadAll(cfg.DatasetsDir)
	if err != nil {
		return fmt.Errorf("load datasets: %w", err)
	}
	if _, err := reference.LoadEnumCatalog(cfg.EnumsDir); err != nil {
		return fmt.Errorf("load enum catalog: %w", err)
	}

	issues := api.LintDatasets(datasets)
	out := cmd.OutOrStdout()
	for _, is := range issues {
		fmt.Fprintf(out, "%s/%s/%s %s: %s (%s)\n", is.Army, is.Category, is.Unit, is.Field, is.Message, is.Code)
	}
	fmt.Fprintf(out, "%d datasets, %d issues\n", len(datasets), len(issues))
	if len(issues) > 0 {
		return fmt.Errorf("%d dataset issues", len(issues))
	}
	return nil
}
