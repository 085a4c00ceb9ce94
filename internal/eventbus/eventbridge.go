package eventbus

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	ebtypes "github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/aws/smithy-go"
)

// PutEventsAPI is the part of *eventbridge.Client used by the publisher.
type PutEventsAPI interface {
	PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

type EventBridgeOptions struct {
	Region string
	// Endpoint overrides the service endpoint (e.g. LocalStack).
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// NewEventBridgeClient builds a client from static credentials when given,
// otherwise from the default AWS credential chain.
func NewEventBridgeClient(ctx context.Context, opts EventBridgeOptions) (*eventbridge.Client, error) {
	if opts.AccessKeyID != "" {
		o := eventbridge.Options{
			Region:      opts.Region,
			Credentials: credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		}
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		return eventbridge.New(o), nil
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(opts.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return eventbridge.NewFromConfig(cfg, func(o *eventbridge.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	}), nil
}

// EventBridgePublisher puts events on an EventBridge bus.
type EventBridgePublisher struct {
	client  PutEventsAPI
	busName string
}

func NewEventBridgePublisher(client PutEventsAPI, busName string) *EventBridgePublisher {
	return &EventBridgePublisher{client: client, busName: busName}
}

func (p *EventBridgePublisher) Publish(ctx context.Context, event Event) error {
	detail, err := event.DetailJSON()
	if err != nil {
		return err
	}

	out, err := p.client.PutEvents(ctx, &eventbridge.PutEventsInput{
		Entries: []ebtypes.PutEventsRequestEntry{{
			EventBusName: aws.String(p.busName),
			Source:       aws.String(event.Source),
			DetailType:   aws.String(event.DetailType),
			Detail:       aws.String(string(detail)),
			Time:         aws.Time(event.Detail.RequestedAt),
		}},
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			return fmt.Errorf("put events (%s): %w", apiErr.ErrorCode(), err)
		}
		return fmt.Errorf("put events: %w", err)
	}

	// PutEvents succeeds at the HTTP level even when individual entries are
	// rejected.
	if out.FailedEntryCount > 0 {
		code, msg := "unknown", ""
		if len(out.Entries) > 0 {
			code = aws.ToString(out.Entries[0].ErrorCode)
			msg = aws.ToString(out.Entries[0].ErrorMessage)
		}
		return fmt.Errorf("put events: entry rejected: %s: %s", code, msg)
	}
	return nil
}
