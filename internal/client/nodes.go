package client

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/pve-client/pkg/pve"
)

// NodesClient implements the pve.NodesClient interface.
type NodesClient struct {
	client *Client
}

// NewNodesClient creates a new nodes client.
func NewNodesClient(client *Client) *NodesClient {
	return &NodesClient{client: client}
}

// List implements pve.NodesClient.List.
func (nc *NodesClient) List(ctx context.Context) ([]pve.Node, error) {
	var nodes []pve.Node
	if err := nc.client.getJSON(ctx, "nodes", nil, &nodes); err != nil {
		return nil, fmt.Errorf("listing nodes: %w", err)
	}

	return nodes, nil
}

// Status implements pve.NodesClient.Status.
func (nc *NodesClient) Status(ctx context.Context, node string) (*pve.NodeStatus, error) {
	var status pve.NodeStatus
	if err := nc.client.getJSON(ctx, fmt.Sprintf("nodes/%s/status", node), nil, &status); err != nil {
		return nil, fmt.Errorf("getting status for node %s: %w", node, err)
	}

	return &status, nil
}
