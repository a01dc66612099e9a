package mq

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 指向不可达的 broker，消息只会进入本地队列，不会收到 ack
func newUnreachableProducer(t *testing.T) *kafka.Producer {
	t.Helper()
	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":   "127.0.0.1:1",
		"client.id":           "sniper-test",
		"delivery.timeout.ms": 60000,
		"log_level":           0,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		producer.Purge(kafka.PurgeQueue | kafka.PurgeInFlight)
		producer.Close()
	})
	return producer
}

func TestSendKafkaJobs_Timeout(t *testing.T) {
	producer := newUnreachableProducer(t)
	jobs := []*KafkaJob{
		{Topic: "sniper-test", Partition: kafka.PartitionAny, Value: []byte("a")},
		{Topic: "sniper-test", Partition: kafka.PartitionAny, Value: []byte("b")},
	}

	start := time.Now()
	ok, failed := SendKafkaJobs(context.Background(), producer, jobs, 100*time.Millisecond)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Empty(t, ok)
	require.Len(t, failed, 2)
	assert.Contains(t, failed[0].Err.Error(), "delivery timeout")
}

func TestSendKafkaJobs_ContextCancelled(t *testing.T) {
	producer := newUnreachableProducer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, failed := SendKafkaJobs(ctx, producer, []*KafkaJob{{Topic: "sniper-test", Partition: kafka.PartitionAny, Value: []byte("x")}}, time.Minute)
	require.Len(t, failed, 1)
	assert.ErrorIs(t, failed[0].Err, context.Canceled)
}

func TestSendKafkaJobs_RealKafka(t *testing.T) {
	brokers := os.Getenv("KAFKA_BROKERS")
	if brokers == "" {
		t.Skip("KAFKA_BROKERS not set")
	}

	producer, err := NewKafkaProducer(KafkaProducerOption{
		Brokers: brokers,
		Topics:  []TopicSpec{{Topic: "sniper-test", Partitions: 1}},
	})
	require.NoError(t, err)
	defer producer.Close()

	ok, failed := SendKafkaJobs(context.Background(), producer, []*KafkaJob{
		{Topic: "sniper-test", Partition: kafka.PartitionAny, Value: []byte("hello")},
	}, 5*time.Second)
	assert.Empty(t, failed)
	assert.Len(t, ok, 1)
}
