package main

import (
	"github.com/spf13/cobra"
)

func cleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Remove old transactions and stale cache entries",
		Long: `Delete transactions older than the retention window (3 months) and
sweep expired analytics cache entries. The app also runs this weekly in
the background; this command runs it once, now.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			facade, err := openFacade(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = facade.Close() }()

			if err := facade.CleanupOldData(cmd.Context()); err != nil {
				return err
			}
			cmd.Println("Cleanup finished")
			return nil
		},
	}
}
