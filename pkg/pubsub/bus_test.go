package pubsub

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"
)

func recvEvent(t *testing.T, sub *Subscription) Event {
	t.Helper()
	select {
	case ev, ok := <-sub.Events():
		if !ok {
			t.Fatal("Events channel closed unexpectedly")
		}
		return ev
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for event")
	}
	return Event{}
}

func expectSilence(t *testing.T, sub *Subscription) {
	t.Helper()
	select {
	case ev := <-sub.Events():
		t.Errorf("Received unexpected event seq %d", ev.Seq)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestReplayAll(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	bus.ConfigureTopic("test", TopicConfig{BufferSize: 3, ReplayAll: true})

	for i := 1; i <= 5; i++ {
		if err := bus.Publish("test", "tick", map[string]int{"num": i}); err != nil {
			t.Fatalf("Failed to publish event %d: %v", i, err)
		}
	}

	sub, err := bus.Subscribe(context.Background(), "test")
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	defer sub.Close()

	// Buffer holds 3 of the 5 published events, so replay starts at seq 3.
	for want := 3; want <= 5; want++ {
		ev := recvEvent(t, sub)
		if ev.Seq != want {
			t.Errorf("Expected seq %d, got %d", want, ev.Seq)
		}
	}
	expectSilence(t, sub)
}

func TestReplayLatestOnly(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	bus.ConfigureTopic("test", TopicConfig{BufferSize: 5, ReplayAll: false})

	for i := 1; i <= 3; i++ {
		if err := bus.Publish("test", "tick", map[string]int{"num": i}); err != nil {
			t.Fatalf("Failed to publish event %d: %v", i, err)
		}
	}

	sub, err := bus.Subscribe(context.Background(), "test")
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	defer sub.Close()

	ev := recvEvent(t, sub)
	if ev.Seq != 3 {
		t.Errorf("Expected seq 3, got %d", ev.Seq)
	}
	expectSilence(t, sub)
}

func TestNoHistory(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	for i := 1; i <= 3; i++ {
		if err := bus.Publish("test", "tick", map[string]int{"num": i}); err != nil {
			t.Fatalf("Failed to publish event %d: %v", i, err)
		}
	}

	sub, err := bus.Subscribe(context.Background(), "test")
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	defer sub.Close()

	// Unconfigured topics keep no history.
	expectSilence(t, sub)

	if err := bus.Publish("test", "tick", map[string]int{"num": 4}); err != nil {
		t.Fatalf("Failed to publish live event: %v", err)
	}
	ev := recvEvent(t, sub)
	if ev.Seq != 4 {
		t.Errorf("Expected seq 4, got %d", ev.Seq)
	}
}

func TestLiveOrdering(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	sub, err := bus.Subscribe(context.Background(), "test")
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	defer sub.Close()

	types := []string{"first", "second", "third"}
	for _, typ := range types {
		if err := bus.Publish("test", typ, nil); err != nil {
			t.Fatalf("Failed to publish %s: %v", typ, err)
		}
	}

	for i, want := range types {
		ev := recvEvent(t, sub)
		if ev.Type != want {
			t.Errorf("Event %d: expected type %q, got %q", i, want, ev.Type)
		}
		if ev.Seq != i+1 {
			t.Errorf("Event %d: expected seq %d, got %d", i, i+1, ev.Seq)
		}
	}
}

func TestStatusPayloadRoundTrip(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	sub, err := bus.Subscribe(context.Background(), TopicStatus)
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	defer sub.Close()

	sent := StatusUpdate{State: "loading", Message: "reading deps.txt", Step: 1, Total: 3}
	if err := bus.Publish(TopicStatus, "progress", sent); err != nil {
		t.Fatalf("Failed to publish: %v", err)
	}

	ev := recvEvent(t, sub)
	var got StatusUpdate
	if err := json.Unmarshal(ev.Data, &got); err != nil {
		t.Fatalf("Failed to unmarshal payload: %v", err)
	}
	if got != sent {
		t.Errorf("Expected payload %+v, got %+v", sent, got)
	}
}

func TestSeqIsPerTopic(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	bus.ConfigureTopic("a", TopicConfig{BufferSize: 2, ReplayAll: true})
	bus.ConfigureTopic("b", TopicConfig{BufferSize: 2, ReplayAll: true})

	bus.Publish("a", "tick", nil)
	bus.Publish("a", "tick", nil)
	bus.Publish("b", "tick", nil)

	subA, err := bus.Subscribe(context.Background(), "a")
	if err != nil {
		t.Fatalf("Failed to subscribe to a: %v", err)
	}
	defer subA.Close()
	subB, err := bus.Subscribe(context.Background(), "b")
	if err != nil {
		t.Fatalf("Failed to subscribe to b: %v", err)
	}
	defer subB.Close()

	if ev := recvEvent(t, subA); ev.Seq != 1 {
		t.Errorf("Expected first seq 1 on topic a, got %d", ev.Seq)
	}
	if ev := recvEvent(t, subA); ev.Seq != 2 {
		t.Errorf("Expected second seq 2 on topic a, got %d", ev.Seq)
	}
	if ev := recvEvent(t, subB); ev.Seq != 1 {
		t.Errorf("Expected seq 1 on topic b, got %d", ev.Seq)
	}
}

func TestSubscriptionCloseClosesChannel(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	sub, err := bus.Subscribe(context.Background(), "test")
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}

	if err := sub.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := sub.Close(); err != nil {
		t.Fatalf("Second Close failed: %v", err)
	}

	select {
	case _, ok := <-sub.Events():
		if ok {
			t.Error("Expected closed channel, got an event")
		}
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for channel close")
	}
}

func TestContextCancelDetaches(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := bus.Subscribe(ctx, "test")
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	cancel()

	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-sub.Events():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("Subscription not closed after context cancellation")
		}
	}
}

func TestBusClose(t *testing.T) {
	bus := NewBus()

	sub, err := bus.Subscribe(context.Background(), "test")
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}

	if err := bus.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := bus.Close(); err != nil {
		t.Fatalf("Second Close failed: %v", err)
	}

	select {
	case _, ok := <-sub.Events():
		if ok {
			t.Error("Expected closed channel after bus Close")
		}
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for channel close")
	}

	if err := bus.Publish("test", "tick", nil); err != ErrClosed {
		t.Errorf("Expected ErrClosed from Publish, got %v", err)
	}
	if _, err := bus.Subscribe(context.Background(), "test"); err != ErrClosed {
		t.Errorf("Expected ErrClosed from Subscribe, got %v", err)
	}
}

func TestPublishRejectsUnsupportedPayload(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	if err := bus.Publish("test", "tick", func() {}); err == nil {
		t.Error("Expected marshal error for func payload")
	}
}

func TestWriteSSE(t *testing.T) {
	var buf bytes.Buffer
	ev := Event{Topic: "report", Type: "done", Data: json.RawMessage(`{"n":1}`), Seq: 7}

	if err := WriteSSE(&buf, ev); err != nil {
		t.Fatalf("WriteSSE failed: %v", err)
	}

	want := "id: 7\ndata: {\"topic\":\"report\",\"type\":\"done\",\"data\":{\"n\":1},\"seq\":7}\n\n"
	if got := buf.String(); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}
