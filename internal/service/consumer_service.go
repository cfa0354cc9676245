package service

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"sermon-agent-be/internal/constant"
	"sermon-agent-be/internal/pkg/logger"
	"sermon-agent-be/pkg/events"
	pkgNats "sermon-agent-be/pkg/nats"
)

// IConsumerService drains the in-process event bus and forwards events to
// JetStream so other systems (analytics, moderation) can subscribe.
type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	natsPub   *pkgNats.Publisher
	logger    logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	natsPub *pkgNats.Publisher,
	sysLogger logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:    pubSub,
		topicName: topicName,
		natsPub:   natsPub,
		logger:    sysLogger,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var envelope busEnvelope
	if err := json.Unmarshal(msg.Payload, &envelope); err != nil {
		cs.logger.Error(constant.ModuleConsumer, "dropping malformed bus message", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack() // malformed messages never become valid on redelivery
		return
	}

	if cs.natsPub == nil {
		// NATS is optional in dev; the event was still observable on the bus.
		msg.Ack()
		return
	}

	event := events.BaseEvent{
		Type:       envelope.EventType,
		Data:       envelope.Payload,
		OccurredAt: envelope.OccurredAt,
	}
	if err := cs.natsPub.Publish(ctx, event); err != nil {
		cs.logger.Error(constant.ModuleConsumer, "failed to forward event to NATS", map[string]interface{}{
			"event_type": envelope.EventType,
			"error":      err.Error(),
		})
		msg.Nack()
		return
	}

	msg.Ack()
}
