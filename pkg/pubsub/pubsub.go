package pubsub

import (
	"context"
	"encoding/json"
)

// Topics published by the pipeline
const (
	TopicPipelineStatus = "pipeline_status"
	TopicScores         = "scores"
)

// Event is a single message on a topic
type Event struct {
	Topic   string          `json:"topic"`
	Type    string          `json:"type"` // e.g. "loading", "aggregating", "ready", "error"
	Data    json.RawMessage `json:"data"`
	Version int             `json:"version"` // per topic, increasing
}

// Subscription receives the events of one topic
type Subscription interface {
	Topic() string
	Events() <-chan Event
	Close() error
}

// Publisher manages subscriptions and event publishing.
// Subscriptions are closed when their context is cancelled.
type Publisher interface {
	Subscribe(ctx context.Context, topic string) (Subscription, error)
	Publish(topic string, eventType string, data interface{}) error
	Close() error
}

// PipelineStatus is the payload of TopicPipelineStatus events
type PipelineStatus struct {
	State   string `json:"state"` // loading, building, aggregating, scoring, ready, error
	Message string `json:"message"`
	Step    int    `json:"step"`  // 1-based
	Total   int    `json:"total"` // number of steps
	Reason  string `json:"reason,omitempty"`
}

// ScoresData is the payload of TopicScores events
type ScoresData struct {
	Terms       int     `json:"terms"`
	Diseases    int     `json:"diseases"`
	Unannotated int     `json:"unannotated"`
	MeanIC      float64 `json:"mean_ic"`
	MaxIC       float64 `json:"max_ic"`
	Added       int     `json:"added"` // terms added since the previous run
	Removed     int     `json:"removed"`
	Changed     int     `json:"changed"`
}
