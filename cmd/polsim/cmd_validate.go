package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/uva-target/polsim/internal/script"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <script>",
		Short: "Check a run script's grammar without executing it",
		Long: `Check a run script's grammar without executing it.

This command applies the same rules the interpreter enforces at run time:
initializer-block nesting, init-only command placement, argument types,
and the serial preamble. It reports every problem found and exits non-zero
if the script has any.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening script: %w", err)
			}
			defer f.Close()

			issues := script.Check(script.NewReader(f))
			if len(issues) == 0 {
				fmt.Printf("%s: OK\n", args[0])
				return nil
			}

			for _, issue := range issues {
				fmt.Fprintf(os.Stderr, "%s: %s\n", args[0], issue)
			}
			return fmt.Errorf("%d problem(s) found", len(issues))
		},
	}
}
