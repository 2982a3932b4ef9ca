package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/safereport/backend/internal/registry"
)

var sectorsJSON bool

var sectorsCmd = &cobra.Command{
	Use:   "sectors [registry.yaml]",
	Short: "Validate a sector catalog and print its contents",
	Long:  "Loads the catalog at the given path, or the built-in one, and fails if it\nis malformed. Useful as a CI check before deploying a catalog change.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		}
		reg, err := registry.Load(path)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if sectorsJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{"version": reg.Version(), "sectors": reg.Sectors()})
		}
		fmt.Fprintf(out, "catalog version %s\n", reg.Version())
		for _, s := range reg.Sectors() {
			fmt.Fprintf(out, "%-14s %s (%d categories, %d fields)\n", s.ID, s.Label, len(s.Categories), len(s.Fields))
		}
		return nil
	},
}

func init() {
	sectorsCmd.Flags().BoolVar(&sectorsJSON, "json", false, "print the full catalog as JSON")
}
