// Package notifications fans post events out to live feed websocket clients.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"sync"

	"postboard/internal/middleware"
	"postboard/internal/observability"

	"github.com/redis/go-redis/v9"
)

// PostsChannel is the Redis pub/sub channel carrying post events.
const PostsChannel = "posts:events"

// Notifier publishes post events into Redis. Without Redis it delivers
// events in-process to the subscriber registered on this instance.
type Notifier struct {
	rdb *redis.Client

	mu    sync.RWMutex
	local func(payload string)
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishPostEvent marshals ev and publishes it on PostsChannel.
func (n *Notifier) PublishPostEvent(ctx context.Context, ev PostEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal post event: %w", err)
	}
	observability.PostEvents.WithLabelValues(ev.Type).Inc()

	if n.rdb == nil {
		n.mu.RLock()
		deliver := n.local
		n.mu.RUnlock()
		if deliver != nil {
			deliver(string(payload))
		}
		return nil
	}
	return n.rdb.Publish(ctx, PostsChannel, payload).Err()
}

// StartPostSubscriber subscribes to PostsChannel and calls onMessage for each
// payload until ctx is cancelled.
func (n *Notifier) StartPostSubscriber(ctx context.Context, onMessage func(payload string)) error {
	if n.rdb == nil {
		n.mu.Lock()
		n.local = onMessage
		n.mu.Unlock()
		return nil
	}

	sub := n.rdb.Subscribe(ctx, PostsChannel)
	// Wait for the subscription to be confirmed so no early publish is lost.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", PostsChannel, err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("panic in post subscriber", "panic", r, "stack", string(debug.Stack()))
						}
					}()
					onMessage(msg.Payload)
				}()
			}
		}
	}()

	return nil
}
