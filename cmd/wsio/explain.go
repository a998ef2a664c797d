package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/wsio/internal/errors"
)

func explainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "explain [code]",
		Short: "Describe wsio error codes",
		Long: `Describe a wsio error code, or list every code when none is given.

Examples:
  wsio explain
  wsio explain W200`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				for _, code := range errors.Codes() {
					t, _ := errors.GetTemplate(code)
					fmt.Fprintf(out, "%s  %-10s %s\n", code, t.Category, t.Message)
				}
				return nil
			}

			code := strings.ToUpper(strings.TrimSpace(args[0]))
			t, ok := errors.GetTemplate(code)
			if !ok {
				return errors.Newf(errors.CategoryCLI, "Unknown error code %q", args[0]).
					WithSuggestion("Run 'wsio explain' to list every code")
			}
			fmt.Fprintf(out, "%s (%s): %s\n\n%s\n", code, t.Category, t.Message, t.Detail)
			return nil
		},
	}
}
