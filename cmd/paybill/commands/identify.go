package commands

import (
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// NewIdentifyCommand creates the identify command
func NewIdentifyCommand() *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:   "identify",
		Short: "Check the configured credentials",
		Long: `Exchange the configured client id and secret for an access token.

The secret is read from the config file, the PAYBILL_SECRET environment
variable or, when neither is set, from the terminal. With --save the
credentials are written to the config file once the exchange succeeds.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			started := time.Now()

			config := loadConfig()

			client, err := identifyWith(cmd, config)
			if err != nil {
				return err
			}

			defer func() { _ = client.Close() }()

			if save {
				err = saveConfigStruct(config)
				if err != nil {
					return err
				}
			}

			result := map[string]string{
				"client_id":   config.ClientID,
				"environment": formatValue(config.Environment),
				"state":       string(client.State()),
				"elapsed":     time.Since(started).Round(time.Millisecond).String(),
			}

			return render(cmd, result, []string{"Property", "Value"}, func(table *tablewriter.Table) {
				_ = table.Append([]string{"Client ID", result["client_id"]})
				_ = table.Append([]string{"Environment", result["environment"]})
				_ = table.Append([]string{"State", result["state"]})
				_ = table.Append([]string{"Elapsed", result["elapsed"]})
			})
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "save the credentials to the config file")

	return cmd
}
