//go:build integration

package events_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"govnet/internal/governance/events"
	"govnet/internal/platform/config"
	"govnet/internal/platform/kafka"
	id "govnet/pkg/domain"
	"govnet/pkg/testutil/containers"
)

const topic = "governance.events.test"

type KafkaSinkSuite struct {
	suite.Suite
	redpanda *containers.RedpandaContainer
	producer *kgo.Client
}

func TestKafkaSinkSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(KafkaSinkSuite))
}

func (s *KafkaSinkSuite) SetupSuite() {
	s.redpanda = containers.GetManager().GetRedpanda(s.T())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	producer, err := kafka.NewProducer(ctx, config.KafkaConfig{Brokers: s.redpanda.Brokers, Topic: topic})
	s.Require().NoError(err)
	s.Require().NotNil(producer)
	s.producer = producer
}

func (s *KafkaSinkSuite) TearDownSuite() {
	if s.producer != nil {
		s.producer.Close()
	}
}

func (s *KafkaSinkSuite) TestEnsureTopicIsIdempotent() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.NoError(kafka.EnsureTopic(ctx, s.producer, topic))
}

// TestPublishKeyedByClient verifies events round-trip as JSON keyed by client id.
func (s *KafkaSinkSuite) TestPublishKeyedByClient() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	clientID := id.NewClientID()
	publisher := events.NewPublisher(events.WithSink(events.NewKafkaSink(s.producer, topic)))
	s.Require().NoError(publisher.Emit(ctx, events.Event{
		Type:     events.ClientApproved,
		ClientID: clientID,
		Outcome:  "approved",
		Trigger:  "vote",
	}))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.redpanda.Brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	for ctx.Err() == nil {
		fetches := consumer.PollFetches(ctx)
		s.Require().NoError(ctx.Err(), "event never arrived")
		var found *kgo.Record
		fetches.EachRecord(func(r *kgo.Record) {
			if string(r.Key) == clientID.String() {
				found = r
			}
		})
		if found == nil {
			continue
		}

		var got events.Event
		s.Require().NoError(json.Unmarshal(found.Value, &got))
		s.Equal(events.ClientApproved, got.Type)
		s.Equal(clientID, got.ClientID)
		s.Equal("approved", got.Outcome)
		s.False(got.Timestamp.IsZero())
		s.Require().Len(found.Headers, 1)
		s.Equal(string(events.ClientApproved), string(found.Headers[0].Value))
		return
	}
	s.Fail("event never arrived")
}
