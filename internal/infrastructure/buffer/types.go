package buffer

import (
	"time"

	"github.com/fastygo/portfolio/eventlog"
)

// Item is an event envelope that could not be appended to its stream and waits to be
// republished.
type Item struct {
	ID         string            `json:"id"`
	Stream     string            `json:"stream"`
	Envelope   eventlog.Envelope `json:"envelope"`
	Cause      string            `json:"cause,omitempty"`
	Retries    int               `json:"retries"`
	ParkedAt   time.Time         `json:"parked_at"`
	EnqueuedAt time.Time         `json:"enqueued_at"`

	bucketKey []byte
}

func (i *Item) normalize(now time.Time) {
	if i.ID == "" {
		i.ID = i.Envelope.EventID
	}
	if i.ParkedAt.IsZero() {
		i.ParkedAt = now
	}
	if i.EnqueuedAt.IsZero() {
		i.EnqueuedAt = now
	}
}
