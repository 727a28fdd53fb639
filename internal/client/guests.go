package client

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/pve-client/pkg/pve"
)

// GuestsClient implements the pve.GuestsClient interface for both QEMU
// virtual machines and LXC containers; the guest type selects the
// resource collection under the node.
type GuestsClient struct {
	client *Client
}

// NewGuestsClient creates a new guests client.
func NewGuestsClient(client *Client) *GuestsClient {
	return &GuestsClient{client: client}
}

// List implements pve.GuestsClient.List.
func (gc *GuestsClient) List(ctx context.Context, node string, guestType pve.GuestType) ([]pve.Guest, error) {
	var guests []pve.Guest

	path := fmt.Sprintf("nodes/%s/%s", node, guestType)
	if err := gc.client.getJSON(ctx, path, nil, &guests); err != nil {
		return nil, fmt.Errorf("listing %s guests on node %s: %w", guestType, node, err)
	}

	for i := range guests {
		guests[i].Type = guestType
	}

	return guests, nil
}

// CurrentStatus implements pve.GuestsClient.CurrentStatus.
func (gc *GuestsClient) CurrentStatus(ctx context.Context, node string, guestType pve.GuestType, vmid int) (*pve.GuestStatus, error) {
	var status pve.GuestStatus

	path := fmt.Sprintf("nodes/%s/%s/%d/status/current", node, guestType, vmid)
	if err := gc.client.getJSON(ctx, path, nil, &status); err != nil {
		return nil, fmt.Errorf("getting status for guest %d on node %s: %w", vmid, node, err)
	}

	return &status, nil
}

// Start implements pve.GuestsClient.Start.
func (gc *GuestsClient) Start(ctx context.Context, node string, guestType pve.GuestType, vmid int) (string, error) {
	return gc.lifecycleAction(ctx, node, guestType, vmid, "start")
}

// Stop implements pve.GuestsClient.Stop.
func (gc *GuestsClient) Stop(ctx context.Context, node string, guestType pve.GuestType, vmid int) (string, error) {
	return gc.lifecycleAction(ctx, node, guestType, vmid, "stop")
}

// Shutdown implements pve.GuestsClient.Shutdown.
func (gc *GuestsClient) Shutdown(ctx context.Context, node string, guestType pve.GuestType, vmid int) (string, error) {
	return gc.lifecycleAction(ctx, node, guestType, vmid, "shutdown")
}

// lifecycleAction posts a power action and returns the UPID of the task
// the server spawned for it.
func (gc *GuestsClient) lifecycleAction(ctx context.Context, node string, guestType pve.GuestType, vmid int, action string) (string, error) {
	var upid string

	path := fmt.Sprintf("nodes/%s/%s/%d/status/%s", node, guestType, vmid, action)
	if err := gc.client.postJSON(ctx, path, nil, &upid); err != nil {
		return "", fmt.Errorf("running %s for guest %d on node %s: %w", action, vmid, node, err)
	}

	return upid, nil
}
