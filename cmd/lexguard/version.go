package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyndhavamahesh345/LexGuard/internal/domain"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "lexguard %s\n", Version)
			fmt.Fprintf(out, "  commit:  %s\n", Commit)
			fmt.Fprintf(out, "  built:   %s\n", BuildDate)
			fmt.Fprintf(out, "  engine:  %s\n", domain.EngineVersion)
			return nil
		},
	}
}
