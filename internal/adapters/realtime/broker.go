// Package realtime fans out change notifications to open views.
//
// Two independent streams exist per scoreboard: metadata changes and
// entry changes. Consumers subscribe to each with separate callbacks so
// a style edit never forces an entry refetch. Notifications carry no
// payload deltas; consumers refetch full current state.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/okian/tally/pkg/logger"
	"github.com/okian/tally/pkg/metrics"
)

// Stream names.
const (
	StreamMeta    = "meta"
	StreamEntries = "entries"
)

const defaultBuffer = 64

// Notification tells a consumer that a scoreboard changed. It carries no
// data; the consumer refetches.
type Notification struct {
	ScoreboardID string    `json:"scoreboard_id"`
	Stream       string    `json:"stream"`
	At           time.Time `json:"at"`
}

// Broker publishes and subscribes change notifications over an
// in-process watermill Pub/Sub.
type Broker struct {
	pubsub *gochannel.GoChannel
	buffer int64
	log    logger.Logger
}

// NewBroker creates a Broker with configuration options.
func NewBroker(opts ...Option) *Broker {
	b := &Broker{
		buffer: defaultBuffer,
		log:    logger.Get().Named("realtime"),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.pubsub = gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: b.buffer},
		watermillAdapter{log: b.log},
	)
	return b
}

// Close shuts down the underlying Pub/Sub and closes all subscriber
// channels.
func (b *Broker) Close() error {
	if err := b.pubsub.Close(); err != nil {
		return fmt.Errorf("close pubsub: %w", err)
	}
	return nil
}

func topic(stream, scoreboardID string) string {
	return "scoreboard." + stream + "." + scoreboardID
}

// PublishMetaChanged notifies metadata subscribers of scoreboardID.
func (b *Broker) PublishMetaChanged(ctx context.Context, scoreboardID string) {
	b.publish(ctx, StreamMeta, scoreboardID)
}

// PublishEntriesChanged notifies entry subscribers of scoreboardID.
func (b *Broker) PublishEntriesChanged(ctx context.Context, scoreboardID string) {
	b.publish(ctx, StreamEntries, scoreboardID)
}

func (b *Broker) publish(ctx context.Context, stream, scoreboardID string) {
	n := Notification{ScoreboardID: scoreboardID, Stream: stream, At: time.Now().UTC()}
	payload, err := json.Marshal(n)
	if err != nil {
		b.log.Error(ctx, "marshal notification", logger.Error(err))
		return
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := b.pubsub.Publish(topic(stream, scoreboardID), msg); err != nil {
		// Notifications are advisory; a failed publish is logged, not
		// surfaced to the write path.
		b.log.Error(ctx, "publish notification",
			logger.String("stream", stream),
			logger.String("scoreboard_id", scoreboardID),
			logger.Error(err))
		return
	}
	metrics.RecordRealtimePublished(stream)
}

// SubscribeMeta delivers metadata-changed notifications for scoreboardID
// until ctx is cancelled.
func (b *Broker) SubscribeMeta(ctx context.Context, scoreboardID string) (<-chan Notification, error) {
	return b.subscribe(ctx, StreamMeta, scoreboardID)
}

// SubscribeEntries delivers entries-changed notifications for
// scoreboardID until ctx is cancelled.
func (b *Broker) SubscribeEntries(ctx context.Context, scoreboardID string) (<-chan Notification, error) {
	return b.subscribe(ctx, StreamEntries, scoreboardID)
}

func (b *Broker) subscribe(ctx context.Context, stream, scoreboardID string) (<-chan Notification, error) {
	msgs, err := b.pubsub.Subscribe(ctx, topic(stream, scoreboardID))
	if err != nil {
		return nil, fmt.Errorf("subscribe %s/%s: %w", stream, scoreboardID, err)
	}

	out := make(chan Notification, b.buffer)
	go func() {
		defer close(out)
		for msg := range msgs {
			var n Notification
			if err := json.Unmarshal(msg.Payload, &n); err != nil {
				b.log.Warn(ctx, "drop malformed notification", logger.Error(err))
				msg.Ack()
				continue
			}
			select {
			case out <- n:
			case <-ctx.Done():
				msg.Ack()
				return
			}
			msg.Ack()
		}
	}()
	return out, nil
}
