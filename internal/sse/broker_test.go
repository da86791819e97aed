package sse

import (
	"strings"
	"testing"
	"time"
)

func recv(t *testing.T, ch chan []byte) string {
	t.Helper()
	select {
	case msg, ok := <-ch:
		if !ok {
			t.Fatal("channel closed")
		}
		return string(msg)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return ""
	}
}

func TestSubscribeAndPublish(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()

	ch := b.Subscribe()
	if n := b.ClientCount(); n != 1 {
		t.Fatalf("client count = %d, want 1", n)
	}

	b.Publish(Event{Type: "ping", Data: map[string]string{"x": "1"}})
	msg := recv(t, ch)
	if !strings.Contains(msg, "event: ping") || !strings.Contains(msg, `"x":"1"`) {
		t.Errorf("message = %q", msg)
	}

	b.Unsubscribe(ch)
	if n := b.ClientCount(); n != 0 {
		t.Errorf("client count after unsubscribe = %d, want 0", n)
	}
}

func TestSchemaEventDelivery(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()

	ch := b.Subscribe()
	b.PublishSchemaEvent("contenttype.changed", "11111111-1111-1111-1111-111111111111")

	msg := recv(t, ch)
	if !strings.Contains(msg, "event: schema.contenttype.changed") {
		t.Errorf("first message = %q", msg)
	}
	if !strings.Contains(msg, "11111111-1111-1111-1111-111111111111") {
		t.Errorf("message missing key: %q", msg)
	}

	// First schema event also triggers the aggregate reload event.
	msg = recv(t, ch)
	if !strings.Contains(msg, "event: schema.reloaded") {
		t.Errorf("second message = %q", msg)
	}
}

func TestReloadThrottle(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()

	ch := b.Subscribe()

	b.PublishSchemaEvent("datatype.changed", "a")
	b.PublishSchemaEvent("datatype.changed", "b")

	var reloads int
	for i := 0; i < 3; i++ {
		msg := recv(t, ch)
		if strings.Contains(msg, "schema.reloaded") {
			reloads++
		}
	}
	if reloads != 1 {
		t.Errorf("reload events = %d, want 1 (throttled)", reloads)
	}
}

func TestCloseShutsDownClients(t *testing.T) {
	b := NewBroker(time.Hour)
	ch := b.Subscribe()

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected channel close, got message")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("client channel not closed on broker shutdown")
	}

	// Operations after close are no-ops.
	b.Publish(Event{Type: "late"})
	b.PublishSchemaEvent("contenttype.changed", "x")
	if n := b.ClientCount(); n != 0 {
		t.Errorf("client count after close = %d, want 0", n)
	}
	if ch := b.Subscribe(); ch == nil {
		t.Error("subscribe after close should return a closed channel, not nil")
	}
}
