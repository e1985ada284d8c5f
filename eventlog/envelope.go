// Package eventlog publishes domain events to an append-only log. Each event is wrapped
// in an Envelope and appended to the stream chosen by its kind.
package eventlog

import (
	"encoding/json"
	"time"

	"github.com/fastygo/portfolio/domain"
)

// Envelope is the wire form of one published event. The log assigns its own entry id;
// consumers deduplicate on EventID.
type Envelope struct {
	EventID     string           `json:"eventId"`
	OccurredAt  time.Time        `json:"occurredAt"`
	PublishedAt time.Time        `json:"publishedAt"`
	Kind        domain.EventKind `json:"kind"`
	Payload     json.RawMessage  `json:"payload"`
}

// Encode wraps ev. PublishedAt is left zero; it is stamped when the append happens.
func Encode(ev domain.Event) (Envelope, error) {
	payload, err := json.Marshal(ev.Payload())
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventID:    ev.EventID(),
		OccurredAt: ev.OccurredAt().UTC(),
		Kind:       ev.Kind(),
		Payload:    payload,
	}, nil
}

// Fields flattens the envelope into string fields for stores with field/value entries.
func (e Envelope) Fields() map[string]interface{} {
	return map[string]interface{}{
		"eventId":     e.EventID,
		"occurredAt":  e.OccurredAt.UTC().Format(time.RFC3339Nano),
		"publishedAt": e.PublishedAt.UTC().Format(time.RFC3339Nano),
		"kind":        string(e.Kind),
		"payload":     string(e.Payload),
	}
}

// Stamped returns a copy carrying the given publish instant.
func (e Envelope) Stamped(at time.Time) Envelope {
	e.PublishedAt = at.UTC()
	return e
}
