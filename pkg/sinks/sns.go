package sinks

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

type snsAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// snsSink broadcasts lobby events so subscribers can filter on the op attribute.
type snsSink struct {
	id       string
	topicARN string
	fifo     bool
	api      snsAPI
	log      Logger
}

func openSNS(ctx context.Context, cfg Config, log Logger) (Sink, error) {
	awsCfg, err := awscfg.LoadDefaultConfig(ctx, awscfg.WithRegion(cfg.SNS.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &snsSink{
		id:       cfg.ID,
		topicARN: cfg.SNS.TopicARN,
		fifo:     strings.HasSuffix(cfg.SNS.TopicARN, ".fifo"),
		api:      sns.NewFromConfig(awsCfg),
		log:      log,
	}, nil
}

func (s *snsSink) ID() string { return s.id }

func (s *snsSink) Publish(ctx context.Context, evt Event) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", evt.Op, err)
	}

	attrs := make(map[string]types.MessageAttributeValue)
	for k, v := range evt.Attributes() {
		attrs[k] = types.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String(v)}
	}
	in := &sns.PublishInput{
		TopicArn:          aws.String(s.topicARN),
		Subject:           aws.String("lobby " + evt.Op),
		Message:           aws.String(string(body)),
		MessageAttributes: attrs,
	}
	if s.fifo {
		in.MessageGroupId = aws.String(evt.Op)
		in.MessageDeduplicationId = aws.String(evt.ID)
	}

	out, err := s.api.Publish(ctx, in)
	if err != nil {
		s.log.ErrorObj("sns publish failed", "sink_error", map[string]any{
			"sink_id": s.id,
			"op":      evt.Op,
			"error":   err.Error(),
		})
		return fmt.Errorf("publish %s event: %w", evt.Op, err)
	}
	s.log.DebugObj("sns accepted lobby event", "sink_delivery", map[string]any{
		"sink_id":    s.id,
		"op":         evt.Op,
		"message_id": aws.ToString(out.MessageId),
	})
	return nil
}
