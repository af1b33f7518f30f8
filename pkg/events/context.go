package events

import (
	"context"

	"github.com/rs/zerolog/log"
)

// EventSink is a destination for events: a watermill publisher, a test
// capture, a log forwarder.
type EventSink interface {
	PublishEvent(event Event) error
}

type ctxKey int

const ctxKeyEventSinks ctxKey = iota

// WithEventSinks attaches sinks to the context so downstream code can publish
// without access to wiring configuration.
func WithEventSinks(ctx context.Context, sinks ...EventSink) context.Context {
	if len(sinks) == 0 {
		return ctx
	}
	combined := append([]EventSink{}, GetEventSinks(ctx)...)
	combined = append(combined, sinks...)
	return context.WithValue(ctx, ctxKeyEventSinks, combined)
}

// GetEventSinks returns the sinks attached to ctx, if any.
func GetEventSinks(ctx context.Context) []EventSink {
	if v := ctx.Value(ctxKeyEventSinks); v != nil {
		if sinks, ok := v.([]EventSink); ok {
			return sinks
		}
	}
	return nil
}

// PublishEventToContext publishes event to every sink in the context.
// Best-effort: individual sink errors never disrupt the caller.
func PublishEventToContext(ctx context.Context, event Event) {
	sinks := GetEventSinks(ctx)
	if len(sinks) == 0 {
		return
	}
	for _, sink := range sinks {
		if err := sink.PublishEvent(event); err != nil {
			log.Warn().Err(err).Str("event_type", string(event.Type())).Msg("events: sink publish failed")
		}
	}
}
