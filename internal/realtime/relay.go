package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/abdulhamidalthaljy/CareConnect/internal/model"
	"github.com/abdulhamidalthaljy/CareConnect/internal/service/chat"
	"github.com/abdulhamidalthaljy/CareConnect/pkg/messaging"
	"github.com/abdulhamidalthaljy/CareConnect/pkg/metrics"
)

// Relay persists outgoing messages and fans published ones out to the hub.
type Relay struct {
	chat    *chat.Service
	broker  messaging.Broker
	hub     *Hub
	topic   string
	metrics *metrics.Metrics
}

func NewRelay(chatSvc *chat.Service, broker messaging.Broker, hub *Hub, topic string, m *metrics.Metrics) *Relay {
	return &Relay{chat: chatSvc, broker: broker, hub: hub, topic: topic, metrics: m}
}

func (r *Relay) Hub() *Hub { return r.hub }

// Send stores the message and publishes it. The message is returned even
// when publishing fails since it is already in history.
func (r *Relay) Send(ctx context.Context, senderID, receiverID int64, text string) (*model.ChatMessage, error) {
	msg, err := r.chat.Send(ctx, senderID, receiverID, text)
	if err != nil {
		return nil, err
	}
	if err := r.broker.Publish(ctx, r.topic, msg); err != nil {
		log.Error().Err(err).Int64("message_id", msg.ID).Msg("failed to publish chat message")
		return msg, fmt.Errorf("publish message: %w", err)
	}
	return msg, nil
}

// Start subscribes to the broker and delivers messages until ctx ends.
// The subscription is in place when Start returns.
func (r *Relay) Start(ctx context.Context) error {
	payloads, err := r.broker.Subscribe(ctx, r.topic)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", r.topic, err)
	}

	go func() {
		for payload := range payloads {
			r.dispatch(payload)
		}
		log.Debug().Str("topic", r.topic).Msg("relay subscription closed")
	}()
	return nil
}

func (r *Relay) dispatch(payload []byte) {
	var msg model.ChatMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		log.Warn().Err(err).Msg("dropping malformed relay payload")
		return
	}
	frame, err := encode(EventNewMessage, &msg)
	if err != nil {
		log.Error().Err(err).Int64("message_id", msg.ID).Msg("failed to encode frame")
		return
	}

	n := r.hub.Deliver(ChannelFor(msg.ReceiverID), frame)
	if msg.SenderID != msg.ReceiverID {
		n += r.hub.Deliver(ChannelFor(msg.SenderID), frame)
	}
	r.metrics.MessagesRelayed.Add(float64(n))
}
