//go:build integration

package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"avd/pkg/domain"
	audit "avd/pkg/platform/audit"
	"avd/pkg/testutil/containers"
)

func TestSinkProducesEntries(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := containers.NewRedpandaContainer(t)
	sink, err := New(Config{Brokers: []string{broker.Broker}, Topic: "audit-entries"})
	require.NoError(t, err)
	defer sink.Close()
	require.NoError(t, sink.EnsureTopic(ctx, 1, 1))
	require.NoError(t, sink.EnsureTopic(ctx, 1, 1), "second call tolerates an existing topic")

	e := audit.NewEntry(audit.NewContext(&domain.Actor{ID: 2, Role: domain.RoleHR}, "cycles.create", "5"), time.Now())
	e.Success = true
	e.Seal()
	require.NoError(t, sink.Append(ctx, e))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(broker.Broker),
		kgo.ConsumeTopics("audit-entries"),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	require.NoError(t, fetches.Err())
	records := fetches.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "cycles/5", string(records[0].Key))

	var got audit.Entry
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	assert.Equal(t, e.ID, got.ID)
	assert.True(t, got.Verify())
}
