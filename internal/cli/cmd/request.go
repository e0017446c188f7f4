package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/nookcoder/clinic-console/internal/app"
	"github.com/nookcoder/clinic-console/internal/httpclient"
	"github.com/spf13/cobra"
)

func newRequestCmd(opts *rootOptions) *cobra.Command {
	var data string

	cmd := &cobra.Command{
		Use:   "request <METHOD> <path>",
		Short: "Call the clinic API with the current session",
		Long:  `Send a request to the clinic API with the persisted bearer token and print the unwrapped JSON reply.`,
		Args:  cobra.ExactArgs(2),
		RunE: opts.run(func(cmd *cobra.Command, args []string, a *app.App) error {
			method := strings.ToUpper(args[0])
			path := args[1]

			var body any
			if data != "" {
				if !json.Valid([]byte(data)) {
					return errors.New("--data must be valid JSON")
				}
				body = json.RawMessage(data)
			}

			resp, err := a.Client.Do(cmd.Context(), method, path, nil, body)
			if err != nil {
				if httpclient.IsUnauthorized(err) {
					return errors.New("session expired or missing; run 'clinic login'")
				}
				return err
			}

			out := cmd.OutOrStdout()
			var prettyJSON bytes.Buffer
			if err := json.Indent(&prettyJSON, resp.Data(), "", "  "); err == nil {
				fmt.Fprintln(out, prettyJSON.String())
			} else {
				fmt.Fprintln(out, string(resp.Body))
			}
			return nil
		}),
	}

	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON request body")
	return cmd
}
