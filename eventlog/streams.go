package eventlog

import (
	"fmt"
	"strings"

	"github.com/fastygo/portfolio/domain"
)

const DefaultPrefix = "transactions"

// Streams names the destination stream for every known event kind.
type Streams struct {
	Created       string
	Updated       string
	Deleted       string
	CreationError string
}

// NewStreams derives stream names from prefix, e.g. "transactions.created".
func NewStreams(prefix string) Streams {
	prefix = strings.TrimSuffix(strings.TrimSpace(prefix), ".")
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return Streams{
		Created:       prefix + ".created",
		Updated:       prefix + ".updated",
		Deleted:       prefix + ".deleted",
		CreationError: prefix + ".creation-errors",
	}
}

// For returns the stream for kind. Unknown kinds are an error, never dropped.
func (s Streams) For(kind domain.EventKind) (string, error) {
	var stream string
	switch kind {
	case domain.EventTransactionCreated:
		stream = s.Created
	case domain.EventTransactionUpdated:
		stream = s.Updated
	case domain.EventTransactionDeleted:
		stream = s.Deleted
	case domain.EventTransactionCreationError:
		stream = s.CreationError
	}
	if stream == "" {
		return "", domain.WrapError(domain.ErrCodePublish, "no stream for event", fmt.Errorf("%w: %q", domain.ErrUnknownEventKind, kind))
	}
	return stream, nil
}

// All lists every configured stream, used by health checks and tooling.
func (s Streams) All() []string {
	return []string{s.Created, s.Updated, s.Deleted, s.CreationError}
}
