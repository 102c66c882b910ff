package pubsub

import (
	"context"
	"encoding/json"
)

// Topics published by the comparison runner
const (
	TopicStatus = "comparison_status"
	TopicReport = "comparison_report"
)

// Event represents a pub/sub event
type Event struct {
	ID      string          `json:"id"`      // ULID, sortable by publish time
	Topic   string          `json:"topic"`   // Subscription topic (e.g., "comparison_status")
	Type    string          `json:"type"`    // Event type (e.g., "loading", "comparing", "ready")
	Data    json.RawMessage `json:"data"`    // Event payload
	Version int             `json:"version"` // Per-topic counter for ordering
}

// Subscription represents a client subscription to a topic
type Subscription interface {
	// Topic returns the subscription topic
	Topic() string

	// Events returns a channel for receiving events
	Events() <-chan Event

	// Close closes the subscription
	Close() error
}

// Publisher manages pub/sub subscriptions and event publishing
type Publisher interface {
	// Subscribe creates a new subscription to a topic.
	// Context cancellation closes the subscription.
	Subscribe(ctx context.Context, topic string) (Subscription, error)

	// Publish sends an event to all subscribers of a topic
	Publish(topic string, eventType string, data any) error

	// Close shuts down the publisher and all subscriptions
	Close() error
}

// ComparisonStatus is the payload of TopicStatus events
type ComparisonStatus struct {
	State    string `json:"state"`    // loading, comparing, ready, failed
	Message  string `json:"message"`  // Human-readable status message
	Revision string `json:"revision"` // Report revision the status belongs to
	Step     int    `json:"step"`     // Pairs processed so far
	Total    int    `json:"total"`    // Pairs in this run
}

// ReportSummary is the payload of TopicReport events
type ReportSummary struct {
	Revision  string `json:"revision"`
	Pairs     int    `json:"pairs"`
	Equal     int    `json:"equal"`
	Different int    `json:"different"`
	Failed    int    `json:"failed"`
}
