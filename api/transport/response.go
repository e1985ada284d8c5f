package transport

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fastygo/portfolio/domain"
)

// Envelope is the standard API response wrapper used for both success and error payloads.
type Envelope struct {
	Status string      `json:"status"`
	Code   string      `json:"code,omitempty"`
	Data   interface{} `json:"data,omitempty"`
	Error  interface{} `json:"error,omitempty"`
	Meta   interface{} `json:"meta,omitempty"`
}

func NewSuccess(data interface{}, meta interface{}) Envelope {
	return Envelope{
		Status: "success",
		Data:   data,
		Meta:   meta,
	}
}

func NewError(code string, err interface{}, meta interface{}) Envelope {
	return Envelope{
		Status: "error",
		Code:   code,
		Error:  err,
		Meta:   meta,
	}
}

// String returns the JSON representation (best-effort) for logging purposes.
func (e Envelope) String() string {
	out, err := json.Marshal(e)
	if err != nil {
		return "{}"
	}
	return string(out)
}

// TransactionResponse is a transaction snapshot plus its derived totals.
type TransactionResponse struct {
	domain.TransactionState
	TotalValue decimal.Decimal `json:"totalValue"`
	TotalCost  decimal.Decimal `json:"totalCost"`
}

func NewTransactionResponse(s domain.TransactionState) TransactionResponse {
	return TransactionResponse{
		TransactionState: s,
		TotalValue:       s.TotalValue(),
		TotalCost:        s.TotalCost(),
	}
}

func NewTransactionList(items []domain.TransactionState) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(items))
	for _, s := range items {
		out = append(out, NewTransactionResponse(s))
	}
	return out
}

// PublishWarning is attached as meta when the change was stored but some events were
// not accepted by the event log.
type PublishWarning struct {
	Warning     string   `json:"warning"`
	Unpublished []string `json:"unpublishedEvents"`
}

func NewPublishWarning(cause error, unpublished []domain.Event) PublishWarning {
	ids := make([]string, 0, len(unpublished))
	for _, ev := range unpublished {
		if ev != nil {
			ids = append(ids, ev.EventID())
		}
	}
	msg := "event publication failed"
	if cause != nil {
		msg = cause.Error()
	}
	return PublishWarning{Warning: msg, Unpublished: ids}
}

// ListMeta echoes the paging applied to a list response.
type ListMeta struct {
	Count  int `json:"count"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// Date formats a transaction date the way requests accept it.
func Date(t time.Time) string {
	return t.UTC().Format(dateLayout)
}
