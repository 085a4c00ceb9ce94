package eventbus

import (
	"context"
	"fmt"

	temporalclient "go.temporal.io/sdk/client"
)

// DeploymentRequestedWorkflow is the workflow type the provisioning worker
// registers on its task queue.
const DeploymentRequestedWorkflow = "DeploymentRequestedWorkflow"

// TemporalPublisher hands each event to Temporal by starting one workflow per
// deployment. The workflow ID is derived from the deployment ID and a start
// for a deployment whose workflow is already running fails instead of
// silently returning the existing run.
type TemporalPublisher struct {
	client    temporalclient.Client
	taskQueue string
}

func NewTemporalPublisher(client temporalclient.Client, taskQueue string) *TemporalPublisher {
	return &TemporalPublisher{client: client, taskQueue: taskQueue}
}

func (p *TemporalPublisher) Publish(ctx context.Context, event Event) error {
	_, err := p.client.ExecuteWorkflow(ctx, temporalclient.StartWorkflowOptions{
		ID:                                       workflowID(event.Detail.ID),
		TaskQueue:                                p.taskQueue,
		WorkflowExecutionErrorWhenAlreadyStarted: true,
		Memo: map[string]any{
			"source":      event.Source,
			"detail_type": event.DetailType,
		},
	}, DeploymentRequestedWorkflow, event.Detail)
	if err != nil {
		return fmt.Errorf("start %s: %w", DeploymentRequestedWorkflow, err)
	}
	return nil
}

func workflowID(deploymentID string) string {
	return fmt.Sprintf("deployment-%s", deploymentID)
}
