// Package eventbus announces accepted deployment requests to the asynchronous
// channel watched by the provisioning worker.
package eventbus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/edvin/labdeploy/internal/model"
)

// Event is a single "deployment requested" announcement. Source and
// DetailType tag the event; Detail is the payload the worker consumes.
type Event struct {
	Source     string
	DetailType string
	Detail     model.DeploymentRequested
}

// DetailJSON encodes the payload exactly as the worker expects it.
func (e Event) DetailJSON() ([]byte, error) {
	b, err := json.Marshal(e.Detail)
	if err != nil {
		return nil, fmt.Errorf("encode event detail: %w", err)
	}
	return b, nil
}

// Publisher sends one event. Implementations must be safe for concurrent use
// and must honor ctx cancellation and deadlines.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
