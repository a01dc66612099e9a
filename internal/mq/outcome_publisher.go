package mq

import (
	"context"
	"fmt"
	"time"

	"dex-sniper-sol/internal/consts"
	"dex-sniper-sol/internal/logic/core"
	"dex-sniper-sol/internal/utils"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"google.golang.org/protobuf/types/known/structpb"
)

// EventTypeReaction 消息前缀中的事件类型
const EventTypeReaction uint32 = 1

const defaultSendTimeout = 3 * time.Second

// OutcomePublisher 把每次反应的结果推送到 Kafka，按池子地址分区
type OutcomePublisher struct {
	producer   *kafka.Producer
	topic      string
	partitions uint32
	timeout    time.Duration
}

func NewOutcomePublisher(producer *kafka.Producer, topic string, partitions int, timeout time.Duration) *OutcomePublisher {
	if partitions <= 0 {
		partitions = 1
	}
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	return &OutcomePublisher{
		producer:   producer,
		topic:      topic,
		partitions: uint32(partitions),
		timeout:    timeout,
	}
}

func (p *OutcomePublisher) Name() string { return "kafka" }

// Record 同步等待 ack，超时返回错误
func (p *OutcomePublisher) Record(ctx context.Context, r *core.Reaction) error {
	job, err := p.buildJob(r)
	if err != nil {
		return err
	}
	_, failed := SendKafkaJobs(ctx, p.producer, []*KafkaJob{job}, p.timeout)
	if len(failed) > 0 {
		return fmt.Errorf("publish outcome: %w", failed[0].Err)
	}
	return nil
}

func (p *OutcomePublisher) buildJob(r *core.Reaction) (*KafkaJob, error) {
	value, err := EncodeReaction(r)
	if err != nil {
		return nil, err
	}
	return &KafkaJob{
		Topic:     p.topic,
		Partition: int32(utils.PartitionHashBytes(r.Event.Pool[:], p.partitions)),
		Value:     value,
	}, nil
}

// EncodeReaction 4 字节事件类型 + structpb 序列化结果
func EncodeReaction(r *core.Reaction) ([]byte, error) {
	msg, err := reactionStruct(r)
	if err != nil {
		return nil, err
	}
	return utils.EncodeEvent(EventTypeReaction, msg)
}

func reactionStruct(r *core.Reaction) (*structpb.Struct, error) {
	if r == nil || r.Event == nil {
		return nil, fmt.Errorf("encode reaction: missing event")
	}
	ev := r.Event

	outcomes := make([]any, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		outcomes = append(outcomes, map[string]any{
			"backend":    o.Backend,
			"kind":       o.Kind.String(),
			"id":         o.ID,
			"error":      o.ErrString(),
			"latency_ms": float64(o.Latency.Milliseconds()),
		})
	}

	fields := map[string]any{
		"dex":           consts.DexName(ev.Dex),
		"instruction":   ev.Instruction,
		"pool":          ev.Pool.String(),
		"target_mint":   ev.TargetMint().String(),
		"token_a":       float64(ev.TokenAAmount),
		"token_b":       float64(ev.TokenBAmount),
		"slot":          float64(ev.Slot),
		"signature":     ev.Signature,
		"dedup_key":     r.DedupKey,
		"started_at_ms": float64(r.StartedAt.UnixMilli()),
		"success_count": float64(r.SuccessCount()),
		"outcomes":      outcomes,
	}
	msg, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("encode reaction: %w", err)
	}
	return msg, nil
}
