package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ritzau/scc-analyzer/pkg/logging"
)

// ErrClosed is returned by Publish and Subscribe after the bus shut down.
var ErrClosed = errors.New("pubsub: bus closed")

// subscriberBuffer is each subscription's channel capacity. Slow clients
// drop events rather than stall the publisher.
const subscriberBuffer = 100

// Bus is an in-process publisher with per-topic replay buffers.
type Bus struct {
	mu     sync.Mutex
	subs   map[string]map[*Subscription]bool
	seq    map[string]int
	replay map[string][]Event
	config map[string]TopicConfig
	closed bool
	log    *slog.Logger
}

// NewBus returns an empty bus. Configure replay per topic before
// subscribers connect.
func NewBus() *Bus {
	return &Bus{
		subs:   make(map[string]map[*Subscription]bool),
		seq:    make(map[string]int),
		replay: make(map[string][]Event),
		config: make(map[string]TopicConfig),
		log:    logging.New("pubsub"),
	}
}

// ConfigureTopic sets the replay behavior for one topic.
func (b *Bus) ConfigureTopic(topic string, cfg TopicConfig) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.config[topic] = cfg
}

// Subscribe registers a listener on topic. Buffered history is queued into
// the subscription before it becomes visible to Publish, so a concurrent
// publish cannot jump ahead of the replay. The subscription detaches when
// ctx is done or Close is called; its Events channel is closed once no
// more events can arrive.
func (b *Bus) Subscribe(ctx context.Context, topic string) (*Subscription, error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrClosed
	}

	sub := &Subscription{
		topic: topic,
		ch:    make(chan Event, subscriberBuffer),
		bus:   b,
	}

	history := b.replay[topic]
	if len(history) > 0 && !b.config[topic].ReplayAll {
		history = history[len(history)-1:]
	}
	for _, ev := range history {
		select {
		case sub.ch <- ev:
		default:
			b.log.Warn("replay overflow, dropping event", "topic", topic, "seq", ev.Seq)
		}
	}

	if b.subs[topic] == nil {
		b.subs[topic] = make(map[*Subscription]bool)
	}
	b.subs[topic][sub] = true
	b.mu.Unlock()

	if len(history) > 0 {
		b.log.Debug("replayed history to new subscriber", "topic", topic, "count", len(history))
	}

	go func() {
		<-ctx.Done()
		sub.Close()
	}()

	return sub, nil
}

// Publish encodes payload and delivers it to every subscriber of topic.
// Subscribers whose channels are full miss the event.
func (b *Bus) Publish(topic, eventType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", topic, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}

	b.seq[topic]++
	ev := Event{Topic: topic, Type: eventType, Data: data, Seq: b.seq[topic]}

	if cfg := b.config[topic]; cfg.BufferSize > 0 {
		buf := append(b.replay[topic], ev)
		if len(buf) > cfg.BufferSize {
			buf = buf[len(buf)-cfg.BufferSize:]
		}
		b.replay[topic] = buf
	}

	for sub := range b.subs[topic] {
		select {
		case sub.ch <- ev:
		default:
			b.log.Warn("dropping event for slow subscriber", "topic", topic, "seq", ev.Seq)
		}
	}
	return nil
}

// Close shuts the bus down. Every subscription channel is closed; further
// Publish and Subscribe calls fail with ErrClosed.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for _, subs := range b.subs {
		for sub := range subs {
			close(sub.ch)
		}
	}
	clear(b.subs)
	return nil
}

// unsubscribe detaches sub and closes its channel. Membership in the subs
// map decides who closes the channel, so repeated calls and races with
// Close stay safe.
func (b *Bus) unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[sub.topic]
	if subs == nil || !subs[sub] {
		return
	}
	delete(subs, sub)
	if len(subs) == 0 {
		delete(b.subs, sub.topic)
	}
	close(sub.ch)
}

// Subscription receives events for a single topic.
type Subscription struct {
	topic string
	ch    chan Event
	bus   *Bus
}

// Topic returns the subscribed topic.
func (s *Subscription) Topic() string { return s.topic }

// Events returns the receive channel. It is closed when the subscription
// or the bus shuts down.
func (s *Subscription) Events() <-chan Event { return s.ch }

// Close detaches from the bus. Safe to call more than once.
func (s *Subscription) Close() error {
	s.bus.unsubscribe(s)
	return nil
}
