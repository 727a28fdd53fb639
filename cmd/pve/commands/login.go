package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/fivetwenty-io/pve-client/pkg/pve"
	"github.com/fivetwenty-io/pve-client/pkg/pveclient"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

// NewLoginCommand creates the login command
func NewLoginCommand() *cobra.Command {
	var (
		host     string
		username string
		password string
		realm    string
		otp      string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Login to Proxmox VE",
		Long:  "Authenticate against a Proxmox VE API endpoint and verify the credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			if host == "" {
				host = viper.GetString("host")
			}

			if host == "" {
				reader := bufio.NewReader(os.Stdin)
				fmt.Print("Host: ")
				host, _ = reader.ReadString('\n')
				host = strings.TrimSpace(host)
			}

			if host == "" {
				return ErrHostNotConfigured
			}

			if username == "" {
				username = viper.GetString("username")
			}

			if username == "" {
				reader := bufio.NewReader(os.Stdin)
				fmt.Print("Username: ")
				username, _ = reader.ReadString('\n')
				username = strings.TrimSpace(username)
			}

			if password == "" {
				fmt.Print("Password: ")

				passwordBytes, err := term.ReadPassword(syscall.Stdin)

				fmt.Println()

				if err != nil {
					return fmt.Errorf("reading password: %w", err)
				}

				password = string(passwordBytes)
			}

			if realm == "" {
				realm = viper.GetString("realm")
			}

			config := &pve.Config{
				Host:     host,
				Port:     viper.GetInt("port"),
				Username: username,
				Password: password,
				Realm:    realm,
				OTP:      otp,
			}

			if viper.GetBool("skip_ssl_validation") {
				verify := false
				config.VerifySSL = &verify
			}

			ctx := context.Background()

			client, err := pveclient.New(ctx, config)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}

			version, err := client.Version(ctx)
			if err != nil {
				return fmt.Errorf("verifying session: %w", err)
			}

			// Persist the working connection settings for later commands.
			viper.Set("host", host)
			viper.Set("username", username)

			if realm != "" {
				viper.Set("realm", realm)
			}

			if err := viper.WriteConfig(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: could not save config: %v\n", err)
			}

			session := client.Session()
			if session != nil {
				fmt.Printf("Logged in as %s\n", session.Username)
			}

			fmt.Printf("Proxmox VE %s\n", version.Version)

			return nil
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Proxmox VE host")
	cmd.Flags().StringVarP(&username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted if not given)")
	cmd.Flags().StringVar(&realm, "realm", "", "authentication realm (e.g. pam, pve)")
	cmd.Flags().StringVar(&otp, "otp", "", "one-time password for two-factor auth")

	return cmd
}
