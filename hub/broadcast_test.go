package main

import (
	"testing"
	"time"

	"github.com/clipharbor/hub/shared/models"
)

func recvOrTimeout(t *testing.T, ch <-chan *models.ClipboardMessage) (*models.ClipboardMessage, bool) {
	t.Helper()
	select {
	case msg, ok := <-ch:
		return msg, ok
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for broadcast message")
		return nil, false
	}
}

func TestPublishSkipsSourceDevice(t *testing.T) {
	b := NewBroadcaster()
	a := b.Subscribe("device-a")
	c := b.Subscribe("device-c")

	msg := &models.ClipboardMessage{Entry: models.ClipboardRecord{Source: "device-a", Text: "hi"}}
	b.Publish(msg, "device-a")

	got, ok := recvOrTimeout(t, c)
	if !ok || got != msg {
		t.Fatalf("device-c should have received the published message")
	}

	select {
	case _, ok := <-a:
		if ok {
			t.Fatalf("source device should never receive its own broadcast")
		}
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubscribeReplacesExisting(t *testing.T) {
	b := NewBroadcaster()
	first := b.Subscribe("device-a")
	second := b.Subscribe("device-a")

	if _, ok := <-first; ok {
		t.Fatalf("old subscription channel should be closed on replacement")
	}

	msg := &models.ClipboardMessage{Entry: models.ClipboardRecord{Source: "device-b", Text: "hi"}}
	b.Publish(msg, "device-b")
	got, ok := recvOrTimeout(t, second)
	if !ok || got != msg {
		t.Fatalf("new subscription should receive published messages")
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := NewBroadcaster()
	ch := b.Subscribe("device-a")
	b.Unsubscribe("device-a", ch)

	if _, ok := <-ch; ok {
		t.Fatalf("channel should be closed after Unsubscribe")
	}
	if b.SubscriberCount() != 0 {
		t.Fatalf("SubscriberCount = %d, want 0", b.SubscriberCount())
	}
}

func TestUnsubscribeIgnoresStaleChannel(t *testing.T) {
	b := NewBroadcaster()
	old := b.Subscribe("device-a")
	b.Subscribe("device-a")

	b.Unsubscribe("device-a", old)
	if b.SubscriberCount() != 1 {
		t.Fatalf("stale Unsubscribe should not remove the current subscription")
	}
}

func TestPublishClosesLaggedSubscriber(t *testing.T) {
	b := NewBroadcaster()
	ch := b.Subscribe("device-a")

	msg := &models.ClipboardMessage{Entry: models.ClipboardRecord{Source: "device-b", Text: "hi"}}
	for i := 0; i < broadcastCapacity; i++ {
		b.Publish(msg, "device-b")
	}
	if b.SubscriberCount() != 1 {
		t.Fatalf("subscriber should still be registered while under capacity")
	}

	// One more publish overflows the buffer and must close the channel.
	b.Publish(msg, "device-b")
	if b.SubscriberCount() != 0 {
		t.Fatalf("lagged subscriber should be dropped")
	}

	for i := 0; i < broadcastCapacity; i++ {
		if _, ok := <-ch; !ok {
			t.Fatalf("expected %d buffered messages before the close", broadcastCapacity)
		}
	}
	if _, ok := <-ch; ok {
		t.Fatalf("channel should be closed after lag")
	}
}

func TestSubscriberCount(t *testing.T) {
	b := NewBroadcaster()
	if b.SubscriberCount() != 0 {
		t.Fatalf("new broadcaster should have 0 subscribers")
	}
	b.Subscribe("device-a")
	b.Subscribe("device-b")
	if b.SubscriberCount() != 2 {
		t.Fatalf("SubscriberCount = %d, want 2", b.SubscriberCount())
	}
}
