package transport

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fastygo/portfolio/domain"
)

const dateLayout = "2006-01-02"

// TransactionRequest is the body of POST /api/v1/transactions. Decimals accept JSON
// numbers or strings.
type TransactionRequest struct {
	Ticker               string           `json:"ticker"`
	Kind                 string           `json:"kind"`
	Quantity             decimal.Decimal  `json:"quantity"`
	Price                decimal.Decimal  `json:"price"`
	Fees                 *decimal.Decimal `json:"fees"`
	Currency             string           `json:"currency"`
	Date                 string           `json:"date"`
	Notes                string           `json:"notes"`
	Active               *bool            `json:"active"`
	Fractional           bool             `json:"fractional"`
	FractionalMultiplier *decimal.Decimal `json:"fractionalMultiplier"`
	CommissionCurrency   string           `json:"commissionCurrency"`
	Exchange             string           `json:"exchange"`
	Country              string           `json:"country"`
	CompanyName          string           `json:"companyName"`
}

// TransactionPatchRequest is the body of PUT /api/v1/transactions/{id}. Absent fields
// are left unchanged.
type TransactionPatchRequest struct {
	Ticker               *string          `json:"ticker"`
	Kind                 *string          `json:"kind"`
	Quantity             *decimal.Decimal `json:"quantity"`
	Price                *decimal.Decimal `json:"price"`
	Fees                 *decimal.Decimal `json:"fees"`
	Currency             *string          `json:"currency"`
	Date                 *string          `json:"date"`
	Notes                *string          `json:"notes"`
	Active               *bool            `json:"active"`
	Fractional           *bool            `json:"fractional"`
	FractionalMultiplier *decimal.Decimal `json:"fractionalMultiplier"`
	CommissionCurrency   *string          `json:"commissionCurrency"`
	Exchange             *string          `json:"exchange"`
	Country              *string          `json:"country"`
	CompanyName          *string          `json:"companyName"`
}

type problems []string

func (p *problems) add(msg string) { *p = append(*p, msg) }

func (p problems) err() error {
	if len(p) == 0 {
		return nil
	}
	return domain.NewError(domain.ErrCodeInvalid, strings.Join(p, "; "))
}

// Fields validates the request and converts it to domain fields. Active defaults to true.
func (r TransactionRequest) Fields() (domain.TransactionFields, error) {
	var errs problems

	ticker := normalizeTicker(r.Ticker)
	if ticker == "" {
		errs.add("ticker is required")
	}
	kind := domain.TransactionKind(strings.ToUpper(strings.TrimSpace(r.Kind)))
	if !kind.Valid() {
		errs.add("kind must be one of BUY, SELL, DIVIDEND")
	}
	if !r.Quantity.IsPositive() {
		errs.add("quantity must be greater than zero")
	}
	if r.Price.IsNegative() {
		errs.add("price must not be negative")
	}
	if r.Fees != nil && r.Fees.IsNegative() {
		errs.add("fees must not be negative")
	}
	if r.FractionalMultiplier != nil && !r.FractionalMultiplier.IsPositive() {
		errs.add("fractionalMultiplier must be greater than zero")
	}
	currency := strings.ToUpper(strings.TrimSpace(r.Currency))
	if currency == "" {
		errs.add("currency is required")
	}
	date, err := ParseDate(r.Date)
	if err != nil {
		errs.add(err.Error())
	}
	if err := errs.err(); err != nil {
		return domain.TransactionFields{}, err
	}

	active := true
	if r.Active != nil {
		active = *r.Active
	}

	return domain.TransactionFields{
		Ticker:               ticker,
		Kind:                 kind,
		Quantity:             r.Quantity,
		Price:                r.Price,
		Fees:                 r.Fees,
		Currency:             currency,
		Date:                 date,
		Notes:                strings.TrimSpace(r.Notes),
		Active:               active,
		Fractional:           r.Fractional,
		FractionalMultiplier: r.FractionalMultiplier,
		CommissionCurrency:   strings.ToUpper(strings.TrimSpace(r.CommissionCurrency)),
		Exchange:             strings.TrimSpace(r.Exchange),
		Country:              strings.TrimSpace(r.Country),
		CompanyName:          strings.TrimSpace(r.CompanyName),
	}, nil
}

// Patch validates the present fields and converts them to a domain patch.
func (r TransactionPatchRequest) Patch() (domain.TransactionPatch, error) {
	var (
		errs  problems
		patch domain.TransactionPatch
	)

	if r.Ticker != nil {
		ticker := normalizeTicker(*r.Ticker)
		if ticker == "" {
			errs.add("ticker must not be empty")
		}
		patch.Ticker = &ticker
	}
	if r.Kind != nil {
		kind := domain.TransactionKind(strings.ToUpper(strings.TrimSpace(*r.Kind)))
		if !kind.Valid() {
			errs.add("kind must be one of BUY, SELL, DIVIDEND")
		}
		patch.Kind = &kind
	}
	if r.Quantity != nil && !r.Quantity.IsPositive() {
		errs.add("quantity must be greater than zero")
	}
	if r.Price != nil && r.Price.IsNegative() {
		errs.add("price must not be negative")
	}
	if r.Fees != nil && r.Fees.IsNegative() {
		errs.add("fees must not be negative")
	}
	if r.FractionalMultiplier != nil && !r.FractionalMultiplier.IsPositive() {
		errs.add("fractionalMultiplier must be greater than zero")
	}
	if r.Currency != nil {
		currency := strings.ToUpper(strings.TrimSpace(*r.Currency))
		if currency == "" {
			errs.add("currency must not be empty")
		}
		patch.Currency = &currency
	}
	if r.Date != nil {
		date, err := ParseDate(*r.Date)
		if err != nil {
			errs.add(err.Error())
		}
		patch.Date = &date
	}
	if err := errs.err(); err != nil {
		return domain.TransactionPatch{}, err
	}

	patch.Quantity = r.Quantity
	patch.Price = r.Price
	patch.Fees = r.Fees
	patch.Notes = r.Notes
	patch.Active = r.Active
	patch.Fractional = r.Fractional
	patch.FractionalMultiplier = r.FractionalMultiplier
	patch.CommissionCurrency = r.CommissionCurrency
	patch.Exchange = r.Exchange
	patch.Country = r.Country
	patch.CompanyName = r.CompanyName
	return patch, nil
}

// ParseDate accepts YYYY-MM-DD or RFC3339 and returns the instant in UTC.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, domain.NewError(domain.ErrCodeInvalid, "date is required")
	}
	if t, err := time.Parse(dateLayout, value); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, domain.NewError(domain.ErrCodeInvalid, "date must be YYYY-MM-DD or RFC3339")
}

func normalizeTicker(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
