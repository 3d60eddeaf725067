// Package pubsub fans analysis events out to interested clients.
//
// The analysis runner publishes to named topics; the web layer subscribes
// and forwards events over Server-Sent Events. Topics can keep a bounded
// history so late subscribers catch up on what they missed.
package pubsub

import (
	"encoding/json"
	"fmt"
	"io"
)

// Topics published by the analysis runner.
const (
	// TopicStatus carries progress updates while an analysis runs.
	TopicStatus = "status"
	// TopicReport carries the full report after each completed analysis.
	TopicReport = "report"
)

// Event is one message on a topic. Data holds the JSON-encoded payload;
// Seq orders events within a topic, starting at 1.
type Event struct {
	Topic string          `json:"topic"`
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data"`
	Seq   int             `json:"seq"`
}

// Publisher is the side of the bus the analysis runner sees.
type Publisher interface {
	Publish(topic, eventType string, payload any) error
}

// TopicConfig controls how much history a topic keeps for late subscribers.
type TopicConfig struct {
	BufferSize int  // events kept for replay; 0 keeps none
	ReplayAll  bool // replay the whole buffer instead of just the newest event
}

// StatusUpdate is the payload on TopicStatus.
type StatusUpdate struct {
	State   string `json:"state"`   // loading, analyzing, ready, failed
	Message string `json:"message"` // human-readable progress line
	Step    int    `json:"step"`    // current step, 1-based
	Total   int    `json:"total"`   // total steps in a run
}

// WriteSSE frames one event for a text/event-stream response. The event
// sequence number doubles as the SSE id so reconnecting clients can tell
// where they left off.
func WriteSSE(w io.Writer, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	_, err = fmt.Fprintf(w, "id: %d\ndata: %s\n\n", ev.Seq, data)
	return err
}
