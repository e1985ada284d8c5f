package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventKind tags the runtime kind of a domain event.
type EventKind string

const (
	EventTransactionCreated       EventKind = "TransactionCreated"
	EventTransactionUpdated       EventKind = "TransactionUpdated"
	EventTransactionDeleted       EventKind = "TransactionDeleted"
	EventTransactionCreationError EventKind = "TransactionCreationError"
)

// Event is an immutable fact about a transaction state change.
type Event interface {
	EventID() string
	OccurredAt() time.Time
	Kind() EventKind
	// Payload returns the JSON-encodable body of the event.
	Payload() any
}

// EventMeta carries the identity and creation instant shared by every event.
type EventMeta struct {
	ID string    `json:"eventId"`
	At time.Time `json:"occurredAt"`
}

func newEventMeta() EventMeta {
	return EventMeta{ID: uuid.NewString(), At: time.Now()}
}

func (m EventMeta) EventID() string       { return m.ID }
func (m EventMeta) OccurredAt() time.Time { return m.At }

// TransactionCreated is buffered by NewTransaction.
type TransactionCreated struct {
	EventMeta
	Transaction TransactionState
}

func (TransactionCreated) Kind() EventKind { return EventTransactionCreated }
func (e TransactionCreated) Payload() any  { return e.Transaction }

// TransactionChange is the before/after pair carried by TransactionUpdated.
type TransactionChange struct {
	Before TransactionState `json:"before"`
	After  TransactionState `json:"after"`
}

// TransactionUpdated is buffered once per Transaction.Update call.
type TransactionUpdated struct {
	EventMeta
	Change TransactionChange
}

func (TransactionUpdated) Kind() EventKind { return EventTransactionUpdated }
func (e TransactionUpdated) Payload() any  { return e.Change }

// TransactionDeleted is built by the caller from the snapshot it removed.
type TransactionDeleted struct {
	EventMeta
	Transaction TransactionState
}

// NewTransactionDeleted records the removal of the given snapshot.
func NewTransactionDeleted(snapshot TransactionState) TransactionDeleted {
	return TransactionDeleted{EventMeta: newEventMeta(), Transaction: snapshot}
}

func (TransactionDeleted) Kind() EventKind { return EventTransactionDeleted }
func (e TransactionDeleted) Payload() any  { return e.Transaction }

// CreationFailure summarises a create attempt that never committed, so it has no id.
type CreationFailure struct {
	Ticker   string          `json:"ticker"`
	Kind     TransactionKind `json:"kind"`
	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Date     time.Time       `json:"date"`
	Reason   string          `json:"reason,omitempty"`
}

// TransactionCreationError is published best-effort when a create write fails.
type TransactionCreationError struct {
	EventMeta
	Failure CreationFailure
}

// NewTransactionCreationError builds the failure event from the attempted fields.
func NewTransactionCreationError(fields TransactionFields, cause error) TransactionCreationError {
	failure := CreationFailure{
		Ticker:   fields.Ticker,
		Kind:     fields.Kind,
		Quantity: fields.Quantity,
		Price:    fields.Price,
		Date:     fields.Date,
	}
	if cause != nil {
		failure.Reason = cause.Error()
	}
	return TransactionCreationError{EventMeta: newEventMeta(), Failure: failure}
}

func (TransactionCreationError) Kind() EventKind { return EventTransactionCreationError }
func (e TransactionCreationError) Payload() any  { return e.Failure }
