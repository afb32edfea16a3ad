//go:build integration

package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"tutela/internal/domain"
	"tutela/pkg/testutil/containers"
)

func TestPublisher_Integration(t *testing.T) {
	broker := containers.NewRedpandaContainer(t).Broker
	const topic = "tutela.audit.test"

	publisher, err := New([]string{broker}, topic, slog.Default())
	require.NoError(t, err)
	t.Cleanup(publisher.Close)

	event := domain.AuditEvent{
		ID:            "evt-1",
		Seq:           7,
		DataSubjectID: "subj-1",
		Action:        domain.ActionRegisterConsent,
		Purpose:       "marketing",
		LegalBasis:    domain.BasisConsent,
		Actor:         "system",
		Timestamp:     time.Now().UTC(),
		Result:        domain.ResultSuccess,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, publisher.Publish(ctx, event))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	t.Cleanup(consumer.Close)

	fetches := consumer.PollFetches(ctx)
	require.NoError(t, fetches.Err())
	records := fetches.Records()
	require.Len(t, records, 1)
	assert.Equal(t, []byte("subj-1"), records[0].Key)

	var got map[string]any
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	assert.Equal(t, "evt-1", got["id"])
	assert.Equal(t, domain.ActionRegisterConsent, got["action"])
	assert.Equal(t, float64(7), got["seq"])
}
