// Package kafka streams audit entries to a Kafka topic for downstream
// consumers (SIEM, reporting). It is a sink only; queries go to the primary store.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "avd/pkg/platform/audit"
)

// Sink produces one record per entry, keyed by resource so a resource's
// history stays ordered within its partition.
type Sink struct {
	client *kgo.Client
	topic  string
}

// Config describes the cluster and topic.
type Config struct {
	Brokers           []string
	Topic             string
	Partitions        int32
	ReplicationFactor int16
}

// New connects a producer. The topic is not created; call EnsureTopic for that.
func New(cfg Config) (*Sink, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka topic is required")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Sink{client: client, topic: cfg.Topic}, nil
}

// EnsureTopic creates the audit topic if it does not exist yet.
func (s *Sink) EnsureTopic(ctx context.Context, partitions int32, replicationFactor int16) error {
	if partitions <= 0 {
		partitions = 1
	}
	if replicationFactor <= 0 {
		replicationFactor = 1
	}
	admin := kadm.NewClient(s.client)
	resp, err := admin.CreateTopics(ctx, partitions, replicationFactor, nil, s.topic)
	if err != nil {
		return fmt.Errorf("create audit topic: %w", err)
	}
	for _, t := range resp {
		if t.Err != nil && !errors.Is(t.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create audit topic %s: %w", t.Topic, t.Err)
		}
	}
	return nil
}

// Append produces the entry synchronously and waits for the broker ack.
func (s *Sink) Append(ctx context.Context, entry audit.Entry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}
	record := &kgo.Record{
		Key:   []byte(RecordKey(entry)),
		Value: payload,
		Headers: []kgo.RecordHeader{
			{Key: "action", Value: []byte(entry.Action)},
			{Key: "digest", Value: []byte(entry.Digest)},
		},
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit entry: %w", err)
	}
	return nil
}

// Close flushes and closes the producer.
func (s *Sink) Close() {
	s.client.Close()
}

// RecordKey partitions by resource and id.
func RecordKey(entry audit.Entry) string {
	if entry.ResourceID == "" {
		return entry.Resource
	}
	return entry.Resource + "/" + entry.ResourceID
}
