package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fivetwenty-io/pve-client/internal/constants"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// NewVersionCommand creates the version command
func NewVersionCommand(version, commit, date string) *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		Long:  "Display CLI version information, optionally including the server version",
		RunE: func(cmd *cobra.Command, args []string) error {
			type VersionInfo struct {
				Version string `json:"version"           yaml:"version"`
				Commit  string `json:"commit"            yaml:"commit"`
				Built   string `json:"built"             yaml:"built"`
				Server  string `json:"server,omitempty"  yaml:"server,omitempty"`
				Release string `json:"release,omitempty" yaml:"release,omitempty"`
			}

			versionInfo := VersionInfo{
				Version: version,
				Commit:  commit,
				Built:   date,
			}

			if remote {
				client, err := CreateClient(context.Background())
				if err != nil {
					return err
				}

				server, err := client.Version(context.Background())
				if err != nil {
					return fmt.Errorf("fetching server version: %w", err)
				}

				versionInfo.Server = server.Version
				versionInfo.Release = server.Release
			}

			output := viper.GetString("output")
			switch output {
			case constants.FormatJSON:
				encoder := json.NewEncoder(os.Stdout)
				encoder.SetIndent("", "  ")

				return encoder.Encode(versionInfo)
			case constants.FormatYAML:
				encoder := yaml.NewEncoder(os.Stdout)

				return encoder.Encode(versionInfo)
			default:
				table := tablewriter.NewWriter(os.Stdout)
				table.Header("Property", "Value")
				_ = table.Append("Version", version)
				_ = table.Append("Commit", commit)
				_ = table.Append("Built", date)

				if versionInfo.Server != "" {
					_ = table.Append("Server", versionInfo.Server)
					_ = table.Append("Release", versionInfo.Release)
				}

				if err := table.Render(); err != nil {
					return fmt.Errorf("failed to render table: %w", err)
				}
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&remote, "remote", false, "also fetch the server version")

	return cmd
}
