package client

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/pve-client/pkg/pve"
)

// ClusterClient implements the pve.ClusterClient interface.
type ClusterClient struct {
	client *Client
}

// NewClusterClient creates a new cluster client.
func NewClusterClient(client *Client) *ClusterClient {
	return &ClusterClient{client: client}
}

// Resources implements pve.ClusterClient.Resources. An empty
// resourceType lists every resource kind.
func (cc *ClusterClient) Resources(ctx context.Context, resourceType string) ([]pve.ClusterResource, error) {
	var query pve.Params
	if resourceType != "" {
		query = pve.Params{"type": resourceType}
	}

	var resources []pve.ClusterResource
	if err := cc.client.getJSON(ctx, "cluster/resources", query, &resources); err != nil {
		return nil, fmt.Errorf("listing cluster resources: %w", err)
	}

	return resources, nil
}
