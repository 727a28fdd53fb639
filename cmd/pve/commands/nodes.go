package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/fivetwenty-io/pve-client/internal/constants"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewNodesCommand creates the nodes command group
func NewNodesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nodes",
		Short: "Manage cluster nodes",
		Long:  "List cluster nodes and inspect their status",
	}

	cmd.AddCommand(newNodesListCommand())
	cmd.AddCommand(newNodesStatusCommand())

	return cmd
}

func newNodesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cluster nodes",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := CreateClient(ctx)
			if err != nil {
				return err
			}

			nodes, err := client.Nodes().List(ctx)
			if err != nil {
				return err
			}

			output := viper.GetString("output")
			switch output {
			case constants.FormatJSON:
				return StandardJSONRenderer(nodes)
			case constants.FormatYAML:
				return StandardYAMLRenderer(nodes)
			default:
				table := tablewriter.NewWriter(os.Stdout)
				table.Header("Node", "Status", "Uptime", "CPU", "Max Mem")

				for _, node := range nodes {
					_ = table.Append(
						node.Node,
						node.Status,
						formatUptime(node.Uptime),
						fmt.Sprintf("%.1f%%", node.CPU*100),
						formatBytes(node.MaxMem),
					)
				}

				if err := table.Render(); err != nil {
					return fmt.Errorf("failed to render table: %w", err)
				}
			}

			return nil
		},
	}
}

func newNodesStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status NODE",
		Short: "Show status of a node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := CreateClient(ctx)
			if err != nil {
				return err
			}

			status, err := client.Nodes().Status(ctx, args[0])
			if err != nil {
				return err
			}

			output := viper.GetString("output")
			switch output {
			case constants.FormatJSON:
				return StandardJSONRenderer(status)
			case constants.FormatYAML:
				return StandardYAMLRenderer(status)
			default:
				table := tablewriter.NewWriter(os.Stdout)
				table.Header("Property", "Value")

				_ = table.Append("Uptime", formatUptime(status.Uptime))
				_ = table.Append("CPU", fmt.Sprintf("%.1f%%", status.CPU*100))
				_ = table.Append("Memory Used", formatBytes(status.Memory.Used))
				_ = table.Append("Memory Total", formatBytes(status.Memory.Total))
				_ = table.Append("Kernel", status.KVersion)
				_ = table.Append("PVE Version", status.PVEVersion)

				if err := table.Render(); err != nil {
					return fmt.Errorf("failed to render table: %w", err)
				}
			}

			return nil
		},
	}
}

// formatUptime renders seconds as a compact d/h/m string.
func formatUptime(seconds int64) string {
	if seconds <= 0 {
		return constants.NotAvailable
	}

	days := seconds / 86400
	hours := (seconds % 86400) / 3600
	minutes := (seconds % 3600) / 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh", days, hours)
	}

	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}

	return fmt.Sprintf("%dm", minutes)
}

// formatBytes renders a byte count with a binary unit suffix.
func formatBytes(count int64) string {
	if count <= 0 {
		return constants.NotAvailable
	}

	const unit = 1024

	if count < unit {
		return fmt.Sprintf("%d B", count)
	}

	div, exp := int64(unit), 0
	for n := count / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %ciB", float64(count)/float64(div), "KMGTPE"[exp])
}
