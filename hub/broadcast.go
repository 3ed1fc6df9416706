// Package main provides a WebSocket broadcaster for real-time clipboard sync.
//
// WHY WebSocket instead of polling:
// Polling has inherent latency (up to one full poll interval) before an agent
// discovers new clipboard content. WebSocket gives us true push delivery:
// the hub sends events the instant they arrive, so paste-on-another-device
// feels instantaneous. It also eliminates wasted HTTP requests when there
// are no new events, reducing network and CPU overhead on both sides.
package main

import (
	"sync"

	"github.com/clipharbor/hub/shared/models"
	log "github.com/sirupsen/logrus"
)

// broadcastCapacity bounds each subscriber's pending-message buffer.
// WHY 32: a subscriber slower than 32 messages behind is treated as
// lagged rather than let the hub block or buffer unboundedly for it.
const broadcastCapacity = 32

// subscription is one device's view onto the broadcaster. Messages land in
// ch; once ch fills, the subscriber has lagged — terminal, since a
// clipboard sync stream can't meaningfully "catch up" by discarding
// history. A lagged subscription's channel is closed and it is dropped
// from subs; the owning session sees the close and disconnects.
type subscription struct {
	ch chan *models.ClipboardMessage
}

// Broadcaster manages a set of active subscriptions and fans out clipboard
// messages to every connected device in real time, except the device that
// originated the message.
//
// WHY a dedicated struct:
// Isolates connection lifecycle management (subscribe/unsubscribe/publish)
// from HTTP routing (server.go) and indexing (hub/index). This separation
// makes it easy to test broadcasting without spinning up a full HTTP server.
type Broadcaster struct {
	// mu protects subs from concurrent access.
	// WHY a mutex: Go maps are NOT safe for concurrent reads and writes.
	// Multiple goroutines hit Subscribe, Unsubscribe, and Publish
	// simultaneously (one per WebSocket session), so every map access must
	// be serialized to prevent data races and panics.
	mu sync.Mutex

	// subs maps a device ID to its active subscription.
	// WHY map[string]*subscription: keyed by device ID so a reconnecting
	// device's old subscription can be found and closed before a new one
	// replaces it, preventing stale duplicate deliveries.
	subs map[string]*subscription
}

// NewBroadcaster creates a ready-to-use Broadcaster with no subscribers.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subs: make(map[string]*subscription),
	}
}

// Subscribe registers deviceID and returns a channel of incoming broadcast
// messages for it, replacing any existing subscription for the same
// device (a reconnect after a network blip should seamlessly take over).
func (b *Broadcaster) Subscribe(deviceID string) <-chan *models.ClipboardMessage {
	b.mu.Lock()
	defer b.mu.Unlock()

	if existing, ok := b.subs[deviceID]; ok {
		log.WithField("device", deviceID).Info("replacing existing broadcast subscription")
		close(existing.ch)
	}

	sub := &subscription{
		ch: make(chan *models.ClipboardMessage, broadcastCapacity),
	}
	b.subs[deviceID] = sub
	log.WithFields(log.Fields{"device": deviceID, "total": len(b.subs)}).Info("broadcast subscriber added")
	return sub.ch
}

// Unsubscribe removes deviceID's subscription and closes its channel, if
// it is still the one currently registered (a newer Subscribe call for the
// same device must not be torn down by an older session's cleanup).
func (b *Broadcaster) Unsubscribe(deviceID string, ch <-chan *models.ClipboardMessage) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if sub, ok := b.subs[deviceID]; ok && sub.ch == ch {
		close(sub.ch)
		delete(b.subs, deviceID)
		log.WithFields(log.Fields{"device": deviceID, "total": len(b.subs)}).Info("broadcast subscriber removed")
	}
}

// Publish sends msg to every subscribed device EXCEPT sourceDeviceID.
//
// WHY skip the source device:
// If we sent the message back to the originator, the agent would see "new"
// clipboard content, write it to the local clipboard, detect THAT write as
// a change, and push it to the hub again — creating an infinite sync loop.
// Skipping the source breaks this cycle.
//
// WHY close instead of drop-silently on a full channel:
// A full channel means that subscriber's reader has stopped keeping up.
// Rather than silently discarding the message and leaving the subscriber
// in an inconsistent state, its channel is closed immediately so the
// owning session's next receive sees the close and disconnects.
func (b *Broadcaster) Publish(msg *models.ClipboardMessage, sourceDeviceID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sent := 0
	for deviceID, sub := range b.subs {
		if deviceID == sourceDeviceID {
			continue
		}
		select {
		case sub.ch <- msg:
			sent++
		default:
			log.WithField("device", deviceID).Warn("broadcast subscriber lagged, disconnecting")
			close(sub.ch)
			delete(b.subs, deviceID)
		}
	}

	if sent > 0 {
		log.WithFields(log.Fields{"recipients": sent, "source": sourceDeviceID}).Debug("broadcast published")
	}
}

// SubscriberCount returns the number of currently active subscriptions.
// WHY: Useful for health checks and monitoring — operators can see how many
// devices are actively connected to the hub.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
