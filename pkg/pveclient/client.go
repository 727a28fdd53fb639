package pveclient

import (
	"context"
	"strconv"
	"strings"

	"github.com/fivetwenty-io/pve-client/internal/client"
	"github.com/fivetwenty-io/pve-client/pkg/pve"
)

// New creates a new Proxmox VE API client with the provided
// configuration. The host may be given bare ("pve.example.com"), with a
// scheme, or with an embedded port; the port in the host wins only when
// Config.Port is unset. In ticket mode the login happens here, so an
// authentication failure surfaces from New rather than from the first
// request.
func New(ctx context.Context, config *pve.Config) (pve.Client, error) {
	if config == nil {
		return nil, pve.ErrConfigRequired
	}

	if config.Host == "" {
		return nil, pve.ErrHostRequired
	}

	normalized := *config
	normalized.Host, normalized.Port = normalizeHost(config.Host, config.Port)

	return client.New(ctx, &normalized)
}

// normalizeHost reduces the configured host to a bare hostname and
// lifts an embedded port into the port field when none was set.
func normalizeHost(host string, port int) (string, int) {
	host = strings.TrimPrefix(host, "https://")
	host = strings.TrimPrefix(host, "http://")
	host = strings.TrimSuffix(host, "/")

	if idx := strings.LastIndex(host, ":"); idx != -1 && !strings.Contains(host, "]") {
		if parsed, err := strconv.Atoi(host[idx+1:]); err == nil {
			host = host[:idx]

			if port == 0 {
				port = parsed
			}
		}
	}

	return host, port
}
