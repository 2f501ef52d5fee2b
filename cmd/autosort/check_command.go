package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"autosort/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check [source]",
		Short: "Verify directories and the captioning model are usable",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			// A missing source is reported as a failed check, not an error.
			source, _ := ctx.sourceDir(cfg, args)

			results := preflight.RunAll(cmd.Context(), cfg, source)
			out := cmd.OutOrStdout()
			for _, r := range results {
				status := "ok"
				if !r.Passed {
					status = "FAIL"
				}
				fmt.Fprintf(out, "%-4s  %-18s %s\n", status, r.Name, r.Detail)
			}
			if !preflight.Passed(results) {
				return errors.New("one or more checks failed")
			}
			return nil
		},
	}
}
