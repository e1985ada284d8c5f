package mcp

import (
	"time"

	"github.com/fastygo/portfolio/domain"
	txUC "github.com/fastygo/portfolio/usecase/transaction"
)

// Decimal amounts travel as strings so no precision is lost in JSON numbers.

// TransactionCreateInput represents the MCP tool input for recording a transaction.
type TransactionCreateInput struct {
	Ticker               string `json:"ticker" jsonschema:"instrument ticker, e.g. AAPL"`
	Kind                 string `json:"kind" jsonschema:"transaction kind (BUY, SELL, DIVIDEND)"`
	Quantity             string `json:"quantity" jsonschema:"positive decimal quantity"`
	Price                string `json:"price" jsonschema:"non-negative decimal unit price"`
	Fees                 string `json:"fees,omitempty" jsonschema:"optional decimal fees"`
	Currency             string `json:"currency" jsonschema:"ISO currency code"`
	Date                 string `json:"date" jsonschema:"transaction date, YYYY-MM-DD or RFC3339"`
	Notes                string `json:"notes,omitempty" jsonschema:"free-form notes"`
	Active               *bool  `json:"active,omitempty" jsonschema:"whether the transaction counts towards holdings (default true)"`
	Fractional           bool   `json:"fractional,omitempty" jsonschema:"fractional share purchase"`
	FractionalMultiplier string `json:"fractional_multiplier,omitempty" jsonschema:"decimal multiplier for fractional shares"`
	CommissionCurrency   string `json:"commission_currency,omitempty" jsonschema:"currency the fees were charged in"`
	Exchange             string `json:"exchange,omitempty" jsonschema:"listing exchange"`
	Country              string `json:"country,omitempty" jsonschema:"issuer country"`
	CompanyName          string `json:"company_name,omitempty" jsonschema:"issuer name"`
}

// TransactionUpdateInput represents the MCP tool input for a partial update.
type TransactionUpdateInput struct {
	ID                   string  `json:"id" jsonschema:"transaction identifier"`
	Ticker               *string `json:"ticker,omitempty" jsonschema:"new ticker"`
	Kind                 *string `json:"kind,omitempty" jsonschema:"new kind (BUY, SELL, DIVIDEND)"`
	Quantity             *string `json:"quantity,omitempty" jsonschema:"new decimal quantity"`
	Price                *string `json:"price,omitempty" jsonschema:"new decimal unit price"`
	Fees                 *string `json:"fees,omitempty" jsonschema:"new decimal fees"`
	Currency             *string `json:"currency,omitempty" jsonschema:"new currency code"`
	Date                 *string `json:"date,omitempty" jsonschema:"new date, YYYY-MM-DD or RFC3339"`
	Notes                *string `json:"notes,omitempty" jsonschema:"new notes"`
	Active               *bool   `json:"active,omitempty" jsonschema:"new active flag"`
	Fractional           *bool   `json:"fractional,omitempty" jsonschema:"new fractional flag"`
	FractionalMultiplier *string `json:"fractional_multiplier,omitempty" jsonschema:"new fractional multiplier"`
	CommissionCurrency   *string `json:"commission_currency,omitempty" jsonschema:"new commission currency"`
	Exchange             *string `json:"exchange,omitempty" jsonschema:"new exchange"`
	Country              *string `json:"country,omitempty" jsonschema:"new country"`
	CompanyName          *string `json:"company_name,omitempty" jsonschema:"new company name"`
}

// TransactionIDInput identifies one transaction.
type TransactionIDInput struct {
	ID string `json:"id" jsonschema:"transaction identifier"`
}

// TransactionListInput filters the transaction listing.
type TransactionListInput struct {
	Ticker string `json:"ticker,omitempty" jsonschema:"only this ticker"`
	Kind   string `json:"kind,omitempty" jsonschema:"only this kind"`
	Limit  int    `json:"limit,omitempty" jsonschema:"page size (default 50, max 100)"`
	Offset int    `json:"offset,omitempty" jsonschema:"rows to skip"`
}

// TransactionOutput represents one transaction in tool results.
type TransactionOutput struct {
	ID                   string `json:"id" jsonschema:"transaction identifier"`
	Ticker               string `json:"ticker" jsonschema:"instrument ticker"`
	Kind                 string `json:"kind" jsonschema:"transaction kind"`
	Quantity             string `json:"quantity" jsonschema:"decimal quantity"`
	Price                string `json:"price" jsonschema:"decimal unit price"`
	Fees                 string `json:"fees,omitempty" jsonschema:"decimal fees"`
	Currency             string `json:"currency" jsonschema:"currency code"`
	Date                 string `json:"date" jsonschema:"RFC3339 transaction date"`
	Notes                string `json:"notes,omitempty" jsonschema:"notes"`
	Active               bool   `json:"active" jsonschema:"active flag"`
	Fractional           bool   `json:"fractional" jsonschema:"fractional flag"`
	FractionalMultiplier string `json:"fractional_multiplier,omitempty" jsonschema:"fractional multiplier"`
	CommissionCurrency   string `json:"commission_currency,omitempty" jsonschema:"commission currency"`
	Exchange             string `json:"exchange,omitempty" jsonschema:"exchange"`
	Country              string `json:"country,omitempty" jsonschema:"country"`
	CompanyName          string `json:"company_name,omitempty" jsonschema:"company name"`
	TotalValue           string `json:"total_value" jsonschema:"quantity times price"`
	TotalCost            string `json:"total_cost" jsonschema:"total value plus fees"`
	CreatedAt            string `json:"created_at,omitempty" jsonschema:"RFC3339 timestamp when stored"`
	UpdatedAt            string `json:"updated_at,omitempty" jsonschema:"RFC3339 timestamp of the last change"`
}

// TransactionWriteResult represents the MCP tool output for create, update and delete.
type TransactionWriteResult struct {
	Outcome     string             `json:"outcome" jsonschema:"SUCCESS or PUBLISH_ERROR"`
	Transaction *TransactionOutput `json:"transaction,omitempty" jsonschema:"the stored transaction"`
	Warning     string             `json:"warning,omitempty" jsonschema:"why events were not published"`
	Unpublished []string           `json:"unpublished_events,omitempty" jsonschema:"ids of events the log did not accept"`
}

// TransactionListResult represents the MCP tool output for listings.
type TransactionListResult struct {
	Transactions []TransactionOutput `json:"transactions" jsonschema:"matching transactions, newest first"`
}

func toOutput(s domain.TransactionState) TransactionOutput {
	out := TransactionOutput{
		ID:                 s.ID,
		Ticker:             s.Ticker,
		Kind:               string(s.Kind),
		Quantity:           s.Quantity.String(),
		Price:              s.Price.String(),
		Currency:           s.Currency,
		Date:               formatTime(s.Date),
		Notes:              s.Notes,
		Active:             s.Active,
		Fractional:         s.Fractional,
		CommissionCurrency: s.CommissionCurrency,
		Exchange:           s.Exchange,
		Country:            s.Country,
		CompanyName:        s.CompanyName,
		TotalValue:         s.TotalValue().String(),
		TotalCost:          s.TotalCost().String(),
		CreatedAt:          formatTime(s.CreatedAt),
		UpdatedAt:          formatTime(s.UpdatedAt),
	}
	if s.Fees != nil {
		out.Fees = s.Fees.String()
	}
	if s.FractionalMultiplier != nil {
		out.FractionalMultiplier = s.FractionalMultiplier.String()
	}
	return out
}

func success(tx *domain.Transaction) TransactionWriteResult {
	res := TransactionWriteResult{Outcome: string(txUC.OutcomeSuccess)}
	if tx != nil {
		out := toOutput(tx.Snapshot())
		res.Transaction = &out
	}
	return res
}

func publishFailed(res txUC.PublishError) TransactionWriteResult {
	out := success(res.Transaction)
	out.Outcome = string(res.Outcome())
	if res.Cause != nil {
		out.Warning = res.Cause.Error()
	}
	for _, ev := range res.Unpublished {
		out.Unpublished = append(out.Unpublished, ev.EventID())
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
