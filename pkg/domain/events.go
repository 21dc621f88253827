package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventQueryStart EventType = "query_start"
	EventQueryDone  EventType = "query_done"
	EventRender     EventType = "render"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Container string    `json:"container"`
}

// QueryEvent reports one remote dataset request.
type QueryEvent struct {
	EventBase
	Key      string        `json:"key"`
	URL      string        `json:"url"`
	Features int           `json:"features,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
	Err      error         `json:"-"`
}

// RenderEvent reports a render call.
type RenderEvent struct {
	EventBase
	ChartType string        `json:"chart_type"`
	Rows      int           `json:"rows"`
	Duration  time.Duration `json:"duration"`
	Err       error         `json:"-"`
}

// LifecycleHooks defines callbacks for chart observability.
// Any hook may be nil.
type LifecycleHooks struct {
	OnQueryStart func(context.Context, *QueryEvent)
	OnQueryDone  func(context.Context, *QueryEvent)
	OnRender     func(context.Context, *RenderEvent)
}
