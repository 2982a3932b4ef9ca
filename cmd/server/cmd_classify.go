package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/safereport/backend/internal/config"
	"github.com/safereport/backend/internal/models"
	"github.com/safereport/backend/internal/registry"
	"github.com/safereport/backend/internal/triage"
)

var (
	classifySector   string
	classifyCategory string
)

var classifyCmd = &cobra.Command{
	Use:   "classify <description>",
	Short: "Run the triage classifier on a description without saving anything",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		reg, err := registry.Load(cfg.RegistryPath)
		if err != nil {
			return err
		}
		classifier, err := loadClassifier(cfg, reg)
		if err != nil {
			return err
		}
		res := classifier.Classify(triage.Input{
			Sector:      models.SectorID(classifySector),
			Category:    classifyCategory,
			Description: args[0],
		})
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}

func init() {
	classifyCmd.Flags().StringVar(&classifySector, "sector", "", "sector id")
	classifyCmd.Flags().StringVar(&classifyCategory, "category", "", "category id")
}
