package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/ritzau/graphcompare/pkg/logging"
)

var logger = logging.New("pubsub")

// ErrClosed is returned when publishing to or subscribing on a closed publisher
var ErrClosed = errors.New("publisher is closed")

// subscriberBuffer bounds each subscription channel so a slow client never
// blocks Publish
const subscriberBuffer = 100

// TopicConfig configures buffering behavior for a topic
type TopicConfig struct {
	BufferSize int  // Number of events to buffer (0 = no buffering)
	ReplayAll  bool // If true, replay all buffered events; if false, only replay last event
}

// SSEPublisher implements Publisher using Server-Sent Events
type SSEPublisher struct {
	mu            sync.RWMutex
	subscriptions map[string]map[*sseSubscription]struct{} // topic -> set of subscriptions
	version       map[string]int                           // topic -> version counter
	eventBuffer   map[string][]Event                       // topic -> most recent events
	topicConfig   map[string]TopicConfig                   // topic -> configuration
	closed        bool
}

// NewSSEPublisher creates a new SSE-based publisher
func NewSSEPublisher() *SSEPublisher {
	return &SSEPublisher{
		subscriptions: make(map[string]map[*sseSubscription]struct{}),
		version:       make(map[string]int),
		eventBuffer:   make(map[string][]Event),
		topicConfig:   make(map[string]TopicConfig),
	}
}

// ConfigureTopic sets buffering configuration for a topic
func (p *SSEPublisher) ConfigureTopic(topic string, config TopicConfig) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topicConfig[topic] = config
	if buffer := p.eventBuffer[topic]; len(buffer) > config.BufferSize {
		p.eventBuffer[topic] = buffer[len(buffer)-config.BufferSize:]
	}
}

// Subscribe creates a new subscription to a topic and replays buffered events
func (p *SSEPublisher) Subscribe(ctx context.Context, topic string) (Subscription, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrClosed
	}

	sub := &sseSubscription{
		topic:     topic,
		events:    make(chan Event, subscriberBuffer),
		publisher: p,
		finished:  make(chan struct{}),
	}
	if p.subscriptions[topic] == nil {
		p.subscriptions[topic] = make(map[*sseSubscription]struct{})
	}
	p.subscriptions[topic][sub] = struct{}{}

	// Replay under the lock so a concurrent Publish cannot interleave
	// with the backlog.
	replay := p.eventBuffer[topic]
	if !p.topicConfig[topic].ReplayAll && len(replay) > 0 {
		replay = replay[len(replay)-1:]
	}
	for _, event := range replay {
		select {
		case sub.events <- event:
		default:
			logger.Warn("could not replay event to new subscriber", "topic", topic, "version", event.Version)
		}
	}
	if len(replay) > 0 {
		logger.Debug("replayed events to new subscriber", "topic", topic, "count", len(replay))
	}

	go func() {
		select {
		case <-ctx.Done():
			sub.Close()
		case <-sub.finished:
		}
	}()

	return sub, nil
}

// Publish sends an event to all subscribers of a topic
func (p *SSEPublisher) Publish(topic string, eventType string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}

	p.version[topic]++
	event := Event{
		ID:      ulid.Make().String(),
		Topic:   topic,
		Type:    eventType,
		Data:    jsonData,
		Version: p.version[topic],
	}

	if config := p.topicConfig[topic]; config.BufferSize > 0 {
		buffer := append(p.eventBuffer[topic], event)
		if len(buffer) > config.BufferSize {
			buffer = buffer[len(buffer)-config.BufferSize:]
		}
		p.eventBuffer[topic] = buffer
	}

	for sub := range p.subscriptions[topic] {
		select {
		case sub.events <- event:
		default:
			logger.Warn("subscription channel full, dropping event", "topic", topic, "version", event.Version)
		}
	}

	return nil
}

// Subscribers reports how many subscriptions a topic has
func (p *SSEPublisher) Subscribers(topic string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.subscriptions[topic])
}

// Close shuts down the publisher and all subscriptions
func (p *SSEPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	for _, subs := range p.subscriptions {
		for sub := range subs {
			sub.finish()
		}
	}
	p.subscriptions = make(map[string]map[*sseSubscription]struct{})

	return nil
}

// unsubscribe removes a subscription (called by subscription.Close())
func (p *SSEPublisher) unsubscribe(sub *sseSubscription) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if subs := p.subscriptions[sub.topic]; subs != nil {
		if _, ok := subs[sub]; ok {
			delete(subs, sub)
			sub.finish()
		}
		if len(subs) == 0 {
			delete(p.subscriptions, sub.topic)
		}
	}
}

// sseSubscription implements Subscription. The events channel is closed
// exactly once, with the publisher lock held, when the subscription ends.
type sseSubscription struct {
	topic     string
	events    chan Event
	publisher *SSEPublisher

	once     sync.Once
	finished chan struct{}
}

func (s *sseSubscription) Topic() string {
	return s.topic
}

func (s *sseSubscription) Events() <-chan Event {
	return s.events
}

// Close ends the subscription; its Events channel is closed
func (s *sseSubscription) Close() error {
	s.publisher.unsubscribe(s)
	return nil
}

// finish must be called with the publisher lock held
func (s *sseSubscription) finish() {
	s.once.Do(func() {
		close(s.events)
		close(s.finished)
	})
}

// WriteSSE writes an event in text/event-stream framing:
// "id: <ulid>\nevent: <topic>\ndata: {json}\n\n"
func WriteSSE(w io.Writer, event Event) error {
	jsonData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	_, err = fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", event.ID, event.Topic, jsonData)
	return err
}
