package commands

import (
	"context"

	"github.com/fivetwenty-io/pve-client/internal/constants"
	"github.com/fivetwenty-io/pve-client/pkg/pve"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewRequestCommand creates the raw request command
func NewRequestCommand() *cobra.Command {
	var (
		data        []string
		suppressErr bool
	)

	cmd := &cobra.Command{
		Use:   "request VERB PATH",
		Short: "Issue a raw API request",
		Long: `Issue a request against an arbitrary API path.

The verb is one of get, post, put or delete. Parameters are passed as
repeated --data key=value flags; for GET they become the query string,
for POST and PUT the JSON body.

Examples:
  pve request get nodes/pve1/qemu
  pve request post nodes/pve1/qemu/100/status/start
  pve request delete nodes/pve1/qemu/100 --try`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			params, err := parseDataFlags(data)
			if err != nil {
				return err
			}

			client, err := CreateClient(ctx)
			if err != nil {
				return err
			}

			verb := args[0]
			if suppressErr {
				verb += pve.SuppressMarker
			}

			result, err := client.Index(args[1]).Do(ctx, verb, params)
			if err != nil {
				return err
			}

			if result == nil {
				return nil
			}

			if viper.GetString("output") == constants.FormatYAML {
				return StandardYAMLRenderer(result)
			}

			return StandardJSONRenderer(result)
		},
	}

	cmd.Flags().StringArrayVarP(&data, "data", "d", nil, "request parameter as key=value (repeatable)")
	cmd.Flags().BoolVar(&suppressErr, "try", false, "return empty output instead of failing on API errors")

	return cmd
}
