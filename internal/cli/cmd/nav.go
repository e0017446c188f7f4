package cmd

import (
	"fmt"

	"github.com/nookcoder/clinic-console/internal/app"
	"github.com/nookcoder/clinic-console/internal/router"
	"github.com/spf13/cobra"
)

func newNavCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "nav <full-path>",
		Short: "Show what the route guard decides for a console path",
		Args:  cobra.ExactArgs(1),
		RunE: opts.run(func(cmd *cobra.Command, args []string, a *app.App) error {
			target, decision, err := a.Guard.Navigate(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			route := target.Name
			if route == "" {
				route = "(none)"
			}
			fmt.Fprintf(out, "route: %s\n", route)
			fmt.Fprintf(out, "outcome: %s\n", decision.Outcome)
			if decision.Outcome != router.OutcomeProceed && decision.Redirect != nil {
				fmt.Fprintf(out, "redirect: %s\n", decision.Redirect.String())
			}
			return nil
		}),
	}
}
