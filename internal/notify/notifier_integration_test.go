//go:build integration

package notify_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"audittrail/internal/notify"
	"audittrail/pkg/platform/audit"
	"audittrail/pkg/testutil/containers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
)

func TestKafkaNotifier_DeliversToBroker(t *testing.T) {
	rp := containers.NewRedpandaContainer(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	const topic = "audit.events.it"
	producer, err := notify.NewClient([]string{rp.Broker}, topic)
	require.NoError(t, err)
	defer producer.Close()
	require.NoError(t, notify.EnsureTopic(ctx, producer, topic, 1, 1))
	require.NoError(t, notify.EnsureTopic(ctx, producer, topic, 1, 1), "existing topic is not an error")

	n, err := notify.New(producer, topic, notify.WithFlushInterval(50*time.Millisecond))
	require.NoError(t, err)
	runCtx, stop := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- n.Run(runCtx) }()

	n.Announce(ctx, audit.EventRecord{ID: 7, SensorID: audit.SensorThemeSwitch, ObjectType: audit.ObjectTheme, ObjectID: "twentyfive"})

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(rp.Broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	var got *kgo.Record
	for got == nil {
		fetches := consumer.PollFetches(ctx)
		require.NoError(t, ctx.Err())
		fetches.EachRecord(func(r *kgo.Record) {
			if got == nil {
				got = r
			}
		})
	}

	assert.Equal(t, "7", string(got.Key))
	var ev audit.EventRecord
	require.NoError(t, json.Unmarshal(got.Value, &ev))
	assert.Equal(t, "twentyfive", ev.ObjectID)
	headers := map[string]string{}
	for _, h := range got.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "29", headers[notify.HeaderSensorID])
	assert.NotEmpty(t, headers[notify.HeaderMessageID])

	stop()
	require.NoError(t, <-done)
	assert.Zero(t, n.Pending())
}
