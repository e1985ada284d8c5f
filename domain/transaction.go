package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind classifies a portfolio transaction.
type TransactionKind string

const (
	KindBuy      TransactionKind = "BUY"
	KindSell     TransactionKind = "SELL"
	KindDividend TransactionKind = "DIVIDEND"
)

func (k TransactionKind) Valid() bool {
	switch k {
	case KindBuy, KindSell, KindDividend:
		return true
	default:
		return false
	}
}

// TransactionFields holds every value field of a transaction except its identity.
type TransactionFields struct {
	Ticker               string           `json:"ticker"`
	Kind                 TransactionKind  `json:"kind"`
	Quantity             decimal.Decimal  `json:"quantity"`
	Price                decimal.Decimal  `json:"price"`
	Fees                 *decimal.Decimal `json:"fees,omitempty"`
	Currency             string           `json:"currency"`
	Date                 time.Time        `json:"date"`
	Notes                string           `json:"notes,omitempty"`
	Active               bool             `json:"active"`
	Fractional           bool             `json:"fractional"`
	FractionalMultiplier *decimal.Decimal `json:"fractionalMultiplier,omitempty"`
	CommissionCurrency   string           `json:"commissionCurrency,omitempty"`
	Exchange             string           `json:"exchange,omitempty"`
	Country              string           `json:"country,omitempty"`
	CompanyName          string           `json:"companyName,omitempty"`
}

// TransactionState is an event-free snapshot of a transaction. It is the payload of
// created, updated and deleted events.
type TransactionState struct {
	ID string `json:"id,omitempty"`
	TransactionFields
	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// TotalValue is quantity × price.
func (s TransactionState) TotalValue() decimal.Decimal {
	return s.Quantity.Mul(s.Price)
}

// TotalCost is TotalValue plus fees; missing fees count as zero.
func (s TransactionState) TotalCost() decimal.Decimal {
	if s.Fees == nil {
		return s.TotalValue()
	}
	return s.TotalValue().Add(*s.Fees)
}

// TransactionPatch describes a partial update; nil fields are left unchanged.
type TransactionPatch struct {
	Ticker               *string
	Kind                 *TransactionKind
	Quantity             *decimal.Decimal
	Price                *decimal.Decimal
	Fees                 *decimal.Decimal
	Currency             *string
	Date                 *time.Time
	Notes                *string
	Active               *bool
	Fractional           *bool
	FractionalMultiplier *decimal.Decimal
	CommissionCurrency   *string
	Exchange             *string
	Country              *string
	CompanyName          *string
}

// Transaction is the aggregate root. It owns its uncommitted events and is the only
// place they are produced.
type Transaction struct {
	state  TransactionState
	events []Event
}

// NewTransaction creates an unpersisted transaction and buffers its TransactionCreated event.
func NewTransaction(fields TransactionFields) *Transaction {
	t := &Transaction{state: TransactionState{TransactionFields: copyFields(fields)}}
	t.events = append(t.events, TransactionCreated{EventMeta: newEventMeta(), Transaction: t.Snapshot()})
	return t
}

// ReconstructTransaction rehydrates a stored transaction. It never seeds events; the
// provided list is usually empty.
func ReconstructTransaction(state TransactionState, events []Event) *Transaction {
	t := &Transaction{state: state}
	t.state.TransactionFields = copyFields(state.TransactionFields)
	if len(events) > 0 {
		t.events = append([]Event(nil), events...)
	}
	return t
}

func (t *Transaction) ID() string { return t.state.ID }

// Snapshot returns a copy of the current state without events.
func (t *Transaction) Snapshot() TransactionState {
	s := t.state
	s.TransactionFields = copyFields(t.state.TransactionFields)
	return s
}

// AssignID records the identity given by the store. Buffered created events are
// refreshed so they describe the transaction as persisted.
func (t *Transaction) AssignID(id string, createdAt, updatedAt time.Time) {
	t.state.ID = id
	t.state.CreatedAt = createdAt
	t.state.UpdatedAt = updatedAt
	for i, ev := range t.events {
		if created, ok := ev.(TransactionCreated); ok {
			created.Transaction = t.Snapshot()
			t.events[i] = created
		}
	}
}

// Touch records the store's modification time without emitting an event.
func (t *Transaction) Touch(updatedAt time.Time) {
	t.state.UpdatedAt = updatedAt
}

// Update merges the non-nil patch fields and buffers exactly one TransactionUpdated
// event, even when nothing changed. The buffered event is also returned.
func (t *Transaction) Update(patch TransactionPatch) TransactionUpdated {
	before := t.Snapshot()

	f := &t.state.TransactionFields
	if patch.Ticker != nil {
		f.Ticker = *patch.Ticker
	}
	if patch.Kind != nil {
		f.Kind = *patch.Kind
	}
	if patch.Quantity != nil {
		f.Quantity = *patch.Quantity
	}
	if patch.Price != nil {
		f.Price = *patch.Price
	}
	if patch.Fees != nil {
		f.Fees = decimalPtr(*patch.Fees)
	}
	if patch.Currency != nil {
		f.Currency = *patch.Currency
	}
	if patch.Date != nil {
		f.Date = *patch.Date
	}
	if patch.Notes != nil {
		f.Notes = *patch.Notes
	}
	if patch.Active != nil {
		f.Active = *patch.Active
	}
	if patch.Fractional != nil {
		f.Fractional = *patch.Fractional
	}
	if patch.FractionalMultiplier != nil {
		f.FractionalMultiplier = decimalPtr(*patch.FractionalMultiplier)
	}
	if patch.CommissionCurrency != nil {
		f.CommissionCurrency = *patch.CommissionCurrency
	}
	if patch.Exchange != nil {
		f.Exchange = *patch.Exchange
	}
	if patch.Country != nil {
		f.Country = *patch.Country
	}
	if patch.CompanyName != nil {
		f.CompanyName = *patch.CompanyName
	}

	ev := TransactionUpdated{
		EventMeta: newEventMeta(),
		Change:    TransactionChange{Before: before, After: t.Snapshot()},
	}
	t.events = append(t.events, ev)
	return ev
}

// PopEvents hands the buffered events to the caller and clears the buffer.
func (t *Transaction) PopEvents() []Event {
	events := t.events
	t.events = nil
	if events == nil {
		return []Event{}
	}
	return events
}

// Events returns a copy of the buffered events.
func (t *Transaction) Events() []Event {
	return append([]Event{}, t.events...)
}

func (t *Transaction) TotalValue() decimal.Decimal { return t.state.TotalValue() }
func (t *Transaction) TotalCost() decimal.Decimal  { return t.state.TotalCost() }

func copyFields(f TransactionFields) TransactionFields {
	if f.Fees != nil {
		f.Fees = decimalPtr(*f.Fees)
	}
	if f.FractionalMultiplier != nil {
		f.FractionalMultiplier = decimalPtr(*f.FractionalMultiplier)
	}
	return f
}

func decimalPtr(d decimal.Decimal) *decimal.Decimal {
	return &d
}
