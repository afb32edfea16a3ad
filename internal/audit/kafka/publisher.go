// Package kafka mirrors the audit trail onto a Kafka topic so downstream
// compliance consumers (retention tooling, SIEM) get the same event stream
// the durable store holds. The store remains the source of truth; the mirror
// is at-least-once from the channel's point of view and lossy under backlog.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	"tutela/internal/domain"
)

// Publisher produces audit events to a topic, keyed by data subject id so
// per-subject ordering is preserved within a partition.
type Publisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// New connects to the brokers and ensures the topic exists.
func New(brokers []string, topic string, logger *slog.Logger) (*Publisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := ensureTopic(ctx, client, topic); err != nil {
		client.Close()
		return nil, err
	}

	return &Publisher{client: client, topic: topic, logger: logger}, nil
}

func ensureTopic(ctx context.Context, client *kgo.Client, topic string) error {
	adm := kadm.NewClient(client)
	existing, err := adm.ListTopics(ctx, topic)
	if err != nil {
		return fmt.Errorf("list topics: %w", err)
	}
	if existing.Has(topic) {
		return nil
	}
	if _, err := adm.CreateTopic(ctx, 3, 1, nil, topic); err != nil {
		return fmt.Errorf("create topic %s: %w", topic, err)
	}
	return nil
}

// payload is the wire shape published to Kafka.
type payload struct {
	ID             string         `json:"id"`
	Seq            uint64         `json:"seq"`
	DataSubjectID  string         `json:"data_subject_id"`
	Action         string         `json:"action"`
	Purpose        string         `json:"purpose,omitempty"`
	LegalBasis     string         `json:"legal_basis,omitempty"`
	DataCategories []string       `json:"data_categories,omitempty"`
	Actor          string         `json:"actor"`
	Timestamp      string         `json:"timestamp"`
	IPAddress      string         `json:"ip_address,omitempty"`
	UserAgent      string         `json:"user_agent,omitempty"`
	Result         string         `json:"result"`
	Details        map[string]any `json:"details,omitempty"`
}

// Publish produces one event synchronously.
func (p *Publisher) Publish(ctx context.Context, event domain.AuditEvent) error {
	value, err := json.Marshal(payload{
		ID:             event.ID,
		Seq:            event.Seq,
		DataSubjectID:  event.DataSubjectID,
		Action:         event.Action,
		Purpose:        event.Purpose,
		LegalBasis:     string(event.LegalBasis),
		DataCategories: event.DataCategories,
		Actor:          event.Actor,
		Timestamp:      event.Timestamp.Format(time.RFC3339Nano),
		IPAddress:      event.IPAddress,
		UserAgent:      event.UserAgent,
		Result:         string(event.Result),
		Details:        event.Details,
	})
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.DataSubjectID),
		Value: value,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

// Run consumes events from inbox until the context ends, publishing each.
// Publish failures are logged and the event is dropped from the mirror; the
// durable store already holds it.
func (p *Publisher) Run(ctx context.Context, inbox <-chan domain.AuditEvent) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-inbox:
			if err := p.Publish(ctx, event); err != nil {
				p.logger.ErrorContext(ctx, "audit mirror publish failed",
					"event_id", event.ID,
					"error", err.Error(),
				)
			}
		}
	}
}

// Close flushes and closes the underlying client.
func (p *Publisher) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = p.client.Flush(ctx)
	p.client.Close()
}
