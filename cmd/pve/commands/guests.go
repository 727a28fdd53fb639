package commands

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/fivetwenty-io/pve-client/internal/constants"
	"github.com/fivetwenty-io/pve-client/pkg/pve"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewGuestsCommand creates the guests command group
func NewGuestsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "guests",
		Short: "Manage virtual machines and containers",
		Long:  "List, inspect and control QEMU virtual machines and LXC containers",
	}

	cmd.AddCommand(newGuestsListCommand())
	cmd.AddCommand(newGuestsStatusCommand())
	cmd.AddCommand(newGuestActionCommand("start", "Start a guest"))
	cmd.AddCommand(newGuestActionCommand("stop", "Stop a guest immediately"))
	cmd.AddCommand(newGuestActionCommand("shutdown", "Shut a guest down cleanly"))

	return cmd
}

// guestTypeFlag resolves the --type flag into a GuestType.
func guestTypeFlag(value string) (pve.GuestType, error) {
	switch value {
	case "qemu", "":
		return pve.GuestTypeQEMU, nil
	case "lxc":
		return pve.GuestTypeLXC, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownGuestType, value)
	}
}

func newGuestsListCommand() *cobra.Command {
	var guestType string

	cmd := &cobra.Command{
		Use:   "list NODE",
		Short: "List guests on a node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			typed, err := guestTypeFlag(guestType)
			if err != nil {
				return err
			}

			client, err := CreateClient(ctx)
			if err != nil {
				return err
			}

			guests, err := client.Guests().List(ctx, args[0], typed)
			if err != nil {
				return err
			}

			output := viper.GetString("output")
			switch output {
			case constants.FormatJSON:
				return StandardJSONRenderer(guests)
			case constants.FormatYAML:
				return StandardYAMLRenderer(guests)
			default:
				table := tablewriter.NewWriter(os.Stdout)
				table.Header("VMID", "Name", "Status", "Uptime", "Mem")

				for _, guest := range guests {
					_ = table.Append(
						strconv.Itoa(guest.VMID),
						guest.Name,
						guest.Status,
						formatUptime(guest.Uptime),
						formatBytes(guest.Mem),
					)
				}

				if err := table.Render(); err != nil {
					return fmt.Errorf("failed to render table: %w", err)
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&guestType, "type", "t", "qemu", "guest type (qemu or lxc)")

	return cmd
}

func newGuestsStatusCommand() *cobra.Command {
	var guestType string

	cmd := &cobra.Command{
		Use:   "status NODE VMID",
		Short: "Show current status of a guest",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			typed, err := guestTypeFlag(guestType)
			if err != nil {
				return err
			}

			vmid, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("parsing VMID %q: %w", args[1], err)
			}

			client, err := CreateClient(ctx)
			if err != nil {
				return err
			}

			status, err := client.Guests().CurrentStatus(ctx, args[0], typed, vmid)
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

				_ = table.Append("VMID", strconv.Itoa(status.VMID))
				_ = table.Append("Name", status.Name)
				_ = table.Append("Status", status.Status)
				_ = table.Append("Uptime", formatUptime(status.Uptime))
				_ = table.Append("CPUs", strconv.Itoa(status.CPUs))
				_ = table.Append("Memory", formatBytes(status.Mem))
				_ = table.Append("Max Memory", formatBytes(status.MaxMem))

				if err := table.Render(); err != nil {
					return fmt.Errorf("failed to render table: %w", err)
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&guestType, "type", "t", "qemu", "guest type (qemu or lxc)")

	return cmd
}

// newGuestActionCommand builds one of the power commands. All three
// post the action, then optionally wait for the spawned task.
func newGuestActionCommand(action, short string) *cobra.Command {
	var (
		guestType string
		wait      bool
	)

	cmd := &cobra.Command{
		Use:   action + " NODE VMID",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			typed, err := guestTypeFlag(guestType)
			if err != nil {
				return err
			}

			vmid, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("parsing VMID %q: %w", args[1], err)
			}

			client, err := CreateClient(ctx)
			if err != nil {
				return err
			}

			node := args[0]

			var upid string

			switch action {
			case "start":
				upid, err = client.Guests().Start(ctx, node, typed, vmid)
			case "stop":
				upid, err = client.Guests().Stop(ctx, node, typed, vmid)
			case "shutdown":
				upid, err = client.Guests().Shutdown(ctx, node, typed, vmid)
			}

			if err != nil {
				return err
			}

			fmt.Printf("Task started: %s\n", upid)

			if wait {
				waitCtx, cancel := context.WithTimeout(ctx, constants.DefaultTaskPollTimeout)
				defer cancel()

				task, err := client.Tasks().Wait(waitCtx, node, upid, constants.DefaultTaskPollInterval)
				if err != nil {
					return err
				}

				if task.ExitStatus != constants.TaskExitStatusOK {
					fmt.Printf("Task finished: %s\n", task.ExitStatus)

					return nil
				}

				fmt.Println("Task finished: OK")
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&guestType, "type", "t", "qemu", "guest type (qemu or lxc)")
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "wait for the task to finish")

	return cmd
}
