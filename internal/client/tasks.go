package client

import (
	"context"
	"fmt"
	"time"

	"github.com/fivetwenty-io/pve-client/internal/constants"
	"github.com/fivetwenty-io/pve-client/pkg/pve"
)

// TasksClient implements the pve.TasksClient interface.
type TasksClient struct {
	client *Client
}

// NewTasksClient creates a new tasks client.
func NewTasksClient(client *Client) *TasksClient {
	return &TasksClient{client: client}
}

// Status implements pve.TasksClient.Status.
func (tc *TasksClient) Status(ctx context.Context, node, upid string) (*pve.Task, error) {
	var task pve.Task

	path := fmt.Sprintf("nodes/%s/tasks/%s/status", node, upid)
	if err := tc.client.getJSON(ctx, path, nil, &task); err != nil {
		return nil, fmt.Errorf("getting status for task %s on node %s: %w", upid, node, err)
	}

	return &task, nil
}

// Wait implements pve.TasksClient.Wait. It polls until the task reaches
// the stopped state or the context is done; the final task state is
// returned either way it stops.
func (tc *TasksClient) Wait(ctx context.Context, node, upid string, interval time.Duration) (*pve.Task, error) {
	if interval <= 0 {
		interval = constants.DefaultTaskPollInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		task, err := tc.Status(ctx, node, upid)
		if err != nil {
			return nil, err
		}

		if task.Status == constants.TaskStatusStopped {
			return task, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for task %s: %w", upid, ctx.Err())
		case <-ticker.C:
		}
	}
}
