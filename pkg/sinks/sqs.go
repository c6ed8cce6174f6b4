package sinks

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

type sqsAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// sqsSink enqueues lobby events. On a FIFO queue each operation is its own
// message group and the event id deduplicates retries.
type sqsSink struct {
	id       string
	queueURL string
	fifo     bool
	api      sqsAPI
	log      Logger
}

func openSQS(ctx context.Context, cfg Config, log Logger) (Sink, error) {
	awsCfg, err := awscfg.LoadDefaultConfig(ctx, awscfg.WithRegion(cfg.SQS.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &sqsSink{
		id:       cfg.ID,
		queueURL: cfg.SQS.QueueURL,
		fifo:     strings.HasSuffix(cfg.SQS.QueueURL, ".fifo"),
		api:      sqs.NewFromConfig(awsCfg),
		log:      log,
	}, nil
}

func (s *sqsSink) ID() string { return s.id }

func (s *sqsSink) Publish(ctx context.Context, evt Event) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", evt.Op, err)
	}

	attrs := make(map[string]types.MessageAttributeValue)
	for k, v := range evt.Attributes() {
		attrs[k] = types.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String(v)}
	}
	in := &sqs.SendMessageInput{
		QueueUrl:          aws.String(s.queueURL),
		MessageBody:       aws.String(string(body)),
		MessageAttributes: attrs,
	}
	if s.fifo {
		in.MessageGroupId = aws.String(evt.Op)
		in.MessageDeduplicationId = aws.String(evt.ID)
	}

	out, err := s.api.SendMessage(ctx, in)
	if err != nil {
		s.log.ErrorObj("sqs enqueue failed", "sink_error", map[string]any{
			"sink_id": s.id,
			"op":      evt.Op,
			"error":   err.Error(),
		})
		return fmt.Errorf("enqueue %s event: %w", evt.Op, err)
	}
	s.log.DebugObj("sqs accepted lobby event", "sink_delivery", map[string]any{
		"sink_id":    s.id,
		"op":         evt.Op,
		"message_id": aws.ToString(out.MessageId),
	})
	return nil
}
