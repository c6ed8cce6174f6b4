package sinks

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/samvad-hq/lobby-status-client/pkg/statusclient"
	"gopkg.in/yaml.v3"
)

// Sink types accepted in the sinks file.
const (
	TypeHTTP   = "http"
	TypeSQS    = "sqs"
	TypeSNS    = "sns"
	TypePubSub = "pubsub"
)

// Config declares one sink. Ops restricts the lobby operations it receives.
type Config struct {
	ID       string        `json:"id" yaml:"id"`
	Type     string        `json:"type" yaml:"type"`
	Disabled bool          `json:"disabled" yaml:"disabled"`
	Ops      []string      `json:"ops" yaml:"ops"`
	HTTP     *HTTPConfig   `json:"http" yaml:"http"`
	SQS      *SQSConfig    `json:"sqs" yaml:"sqs"`
	SNS      *SNSConfig    `json:"sns" yaml:"sns"`
	PubSub   *PubSubConfig `json:"pubsub" yaml:"pubsub"`
}

// HTTPConfig points at a webhook. Method defaults to POST, timeout to 5s.
type HTTPConfig struct {
	URL            string            `json:"url" yaml:"url"`
	Method         string            `json:"method" yaml:"method"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// SQSConfig names a queue. FIFO queues get one message group per operation.
type SQSConfig struct {
	QueueURL string `json:"queue_url" yaml:"queue_url"`
	Region   string `json:"region" yaml:"region"`
}

// SNSConfig names a topic. FIFO topics get one message group per operation.
type SNSConfig struct {
	TopicARN string `json:"topic_arn" yaml:"topic_arn"`
	Region   string `json:"region" yaml:"region"`
}

// PubSubConfig names a topic. Endpoint overrides the Google API host.
type PubSubConfig struct {
	ProjectID string `json:"project_id" yaml:"project_id"`
	Topic     string `json:"topic" yaml:"topic"`
	Endpoint  string `json:"endpoint" yaml:"endpoint"`
}

// LoadFile reads a YAML or JSON sinks file and returns the enabled sinks.
func LoadFile(path string) ([]Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sinks file: %w", err)
	}

	var file struct {
		Sinks []Config `json:"sinks" yaml:"sinks"`
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(raw, &file)
	case ".yaml", ".yml", "":
		err = yaml.Unmarshal(raw, &file)
	default:
		return nil, fmt.Errorf("sinks file %q: unsupported extension %q", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("decode sinks file: %w", err)
	}

	seen := make(map[string]bool, len(file.Sinks))
	var enabled []Config
	for i := range file.Sinks {
		cfg := file.Sinks[i]
		if err := cfg.check(); err != nil {
			return nil, fmt.Errorf("sinks[%d]: %w", i, err)
		}
		if seen[cfg.ID] {
			return nil, fmt.Errorf("sinks[%d]: duplicate id %q", i, cfg.ID)
		}
		seen[cfg.ID] = true
		if !cfg.Disabled {
			enabled = append(enabled, cfg)
		}
	}
	return enabled, nil
}

func (c *Config) check() error {
	c.Type = strings.ToLower(c.Type)
	if c.ID == "" {
		return errors.New("id is required")
	}
	for _, op := range c.Ops {
		if !slices.Contains(statusclient.Ops(), op) {
			return fmt.Errorf("sink %q: unknown op %q", c.ID, op)
		}
	}

	switch c.Type {
	case TypeHTTP:
		if c.HTTP == nil || c.HTTP.URL == "" {
			return fmt.Errorf("sink %q: http.url is required", c.ID)
		}
	case TypeSQS:
		if c.SQS == nil || c.SQS.QueueURL == "" || c.SQS.Region == "" {
			return fmt.Errorf("sink %q: sqs.queue_url and sqs.region are required", c.ID)
		}
	case TypeSNS:
		if c.SNS == nil || c.SNS.TopicARN == "" || c.SNS.Region == "" {
			return fmt.Errorf("sink %q: sns.topic_arn and sns.region are required", c.ID)
		}
	case TypePubSub:
		if c.PubSub == nil || c.PubSub.ProjectID == "" || c.PubSub.Topic == "" {
			return fmt.Errorf("sink %q: pubsub.project_id and pubsub.topic are required", c.ID)
		}
	default:
		return fmt.Errorf("sink %q: unsupported type %q", c.ID, c.Type)
	}
	return nil
}
