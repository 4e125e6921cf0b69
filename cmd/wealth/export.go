package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export data as JSON or CSV",
		Long: `Export the full state as JSON, or transactions only as CSV.

Writes to stdout unless --output is given.`,
		RunE: runExport,
	}
	cmd.Flags().String("format", "json", "export format (json, csv)")
	cmd.Flags().StringP("output", "o", "", "output file (default: stdout)")
	return cmd
}

func runExport(cmd *cobra.Command, _ []string) error {
	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")

	facade, err := openFacade(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = facade.Close() }()

	data, err := facade.ExportData(cmd.Context(), format)
	if err != nil {
		return err
	}

	if output == "" {
		cmd.Print(string(data))
		return nil
	}
	if err := os.WriteFile(output, data, 0600); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	cmd.Printf("Exported %d bytes to %s\n", len(data), output)
	return nil
}
