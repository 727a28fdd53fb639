package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fivetwenty-io/pve-client/internal/constants"
	"github.com/fivetwenty-io/pve-client/pkg/pve"
	"github.com/fivetwenty-io/pve-client/pkg/pveclient"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Common static errors used throughout the commands package.
var (
	ErrHostNotConfigured = errors.New("no host configured (use --host, PVE_HOST, or 'pve config set host ...')")
	ErrCredentialsNeeded = errors.New("no credentials configured (run 'pve login' or set a token)")
	ErrUnknownConfigKey  = errors.New("unknown configuration key")
	ErrUnknownGuestType  = errors.New("unknown guest type (expected qemu or lxc)")
	ErrInvalidDataFormat = errors.New("invalid data format, expected key=value")
)

// CreateClient builds an authenticated client from the effective viper
// configuration (flags, environment, config file).
func CreateClient(ctx context.Context) (pve.Client, error) {
	host := viper.GetString("host")
	if host == "" {
		return nil, ErrHostNotConfigured
	}

	config := &pve.Config{
		Host:     host,
		Port:     viper.GetInt("port"),
		Username: viper.GetString("username"),
		Password: viper.GetString("password"),
		Realm:    viper.GetString("realm"),
		TokenID:  viper.GetString("token_id"),
		Secret:   viper.GetString("token_secret"),
		CAFile:   viper.GetString("ca_file"),
		CAPath:   viper.GetString("ca_path"),
	}

	if viper.IsSet("verify_ssl") {
		verify := viper.GetBool("verify_ssl")
		config.VerifySSL = &verify
	}

	if viper.GetBool("skip_ssl_validation") {
		verify := false
		config.VerifySSL = &verify
	}

	tokenMode := config.TokenID != "" && config.Secret != ""
	if !tokenMode && config.Username == "" {
		return nil, ErrCredentialsNeeded
	}

	client, err := pveclient.New(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("creating client: %w", err)
	}

	return client, nil
}

// StandardJSONRenderer creates a standard JSON encoder.
func StandardJSONRenderer[T any](data T) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", strings.Repeat(" ", constants.JSONIndentSize))

	err := encoder.Encode(data)
	if err != nil {
		return fmt.Errorf("encoding data to JSON: %w", err)
	}

	return nil
}

// StandardYAMLRenderer creates a standard YAML encoder.
func StandardYAMLRenderer[T any](data T) error {
	encoder := yaml.NewEncoder(os.Stdout)
	encoder.SetIndent(constants.JSONIndentSize)

	err := encoder.Encode(data)
	if err != nil {
		return fmt.Errorf("encoding data to YAML: %w", err)
	}

	return nil
}

// parseDataFlags turns repeated key=value flags into request parameters.
func parseDataFlags(pairs []string) (pve.Params, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	params := pve.Params{}

	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidDataFormat, pair)
		}

		params[key] = value
	}

	return params, nil
}
