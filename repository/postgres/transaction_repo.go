package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/fastygo/portfolio/domain"
	"github.com/fastygo/portfolio/repository"
)

const selectColumns = `
	id::text, ticker, kind, quantity::text, price::text, fees::text, currency, transaction_date,
	notes, active, fractional, fractional_multiplier::text, commission_currency, exchange,
	country, company_name, created_at, updated_at
`

type transactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository returns a Postgres-backed implementation of TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) repository.TransactionRepository {
	return &transactionRepository{pool: pool}
}

// Save inserts the aggregate and returns the same instance with its store-assigned
// identity. Buffered events are left for the caller to drain.
func (r *transactionRepository) Save(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	if tx == nil {
		return nil, domain.ErrInvalidPayload
	}
	id := tx.ID()
	if id == "" {
		id = uuid.NewString()
	}
	s := tx.Snapshot()

	const query = `
	INSERT INTO transactions (
		id, ticker, kind, quantity, price, fees, currency, transaction_date, notes, active,
		fractional, fractional_multiplier, commission_currency, exchange, country, company_name
	)
	VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6::numeric, $7, $8, $9, $10, $11, $12::numeric, $13, $14, $15, $16)
	RETURNING created_at, updated_at
	`

	var createdAt, updatedAt time.Time
	if err := r.pool.QueryRow(ctx, query,
		id,
		s.Ticker,
		string(s.Kind),
		s.Quantity.String(),
		s.Price.String(),
		nullDecimal(s.Fees),
		s.Currency,
		s.Date,
		s.Notes,
		s.Active,
		s.Fractional,
		nullDecimal(s.FractionalMultiplier),
		s.CommissionCurrency,
		s.Exchange,
		s.Country,
		s.CompanyName,
	).Scan(&createdAt, &updatedAt); err != nil {
		return nil, classify(err)
	}

	tx.AssignID(id, createdAt, updatedAt)
	return tx, nil
}

func (r *transactionRepository) FindByID(ctx context.Context, id string) (*domain.Transaction, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrTransactionNotFound
	}
	query := `SELECT ` + selectColumns + ` FROM transactions WHERE id = $1`
	row := r.pool.QueryRow(ctx, query, id)
	return scanTransaction(row)
}

func (r *transactionRepository) Update(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	if tx == nil || tx.ID() == "" {
		return nil, domain.ErrInvalidPayload
	}
	s := tx.Snapshot()

	const query = `
	UPDATE transactions
	SET ticker = $2,
		kind = $3,
		quantity = $4::numeric,
		price = $5::numeric,
		fees = $6::numeric,
		currency = $7,
		transaction_date = $8,
		notes = $9,
		active = $10,
		fractional = $11,
		fractional_multiplier = $12::numeric,
		commission_currency = $13,
		exchange = $14,
		country = $15,
		company_name = $16,
		updated_at = NOW()
	WHERE id = $1
	RETURNING updated_at
	`

	var updatedAt time.Time
	if err := r.pool.QueryRow(ctx, query,
		s.ID,
		s.Ticker,
		string(s.Kind),
		s.Quantity.String(),
		s.Price.String(),
		nullDecimal(s.Fees),
		s.Currency,
		s.Date,
		s.Notes,
		s.Active,
		s.Fractional,
		nullDecimal(s.FractionalMultiplier),
		s.CommissionCurrency,
		s.Exchange,
		s.Country,
		s.CompanyName,
	).Scan(&updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, classify(err)
	}

	tx.Touch(updatedAt)
	return tx, nil
}

func (r *transactionRepository) DeleteByID(ctx context.Context, id string) (bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return false, nil
	}
	const query = `DELETE FROM transactions WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *transactionRepository) List(ctx context.Context, filter repository.TransactionFilter) ([]*domain.Transaction, error) {
	query := `SELECT ` + selectColumns + `
	FROM transactions
	WHERE ($1 = '' OR ticker = $1)
	  AND ($2 = '' OR kind = $2)
	  AND ($3::boolean IS NULL OR active = $3)
	ORDER BY transaction_date DESC, created_at DESC
	LIMIT $4 OFFSET $5
	`
	rows, err := r.pool.Query(ctx, query, filter.Ticker, string(filter.Kind), filter.Active, clampLimit(filter.Limit), clampOffset(filter.Offset))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func scanTransaction(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Transaction, error) {
	var (
		s                domain.TransactionState
		kind             string
		quantity, price  string
		fees, multiplier *string
	)

	if err := row.Scan(
		&s.ID,
		&s.Ticker,
		&kind,
		&quantity,
		&price,
		&fees,
		&s.Currency,
		&s.Date,
		&s.Notes,
		&s.Active,
		&s.Fractional,
		&multiplier,
		&s.CommissionCurrency,
		&s.Exchange,
		&s.Country,
		&s.CompanyName,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}

	var err error
	s.Kind = domain.TransactionKind(kind)
	if s.Quantity, err = decimal.NewFromString(quantity); err != nil {
		return nil, err
	}
	if s.Price, err = decimal.NewFromString(price); err != nil {
		return nil, err
	}
	if s.Fees, err = parseNullDecimal(fees); err != nil {
		return nil, err
	}
	if s.FractionalMultiplier, err = parseNullDecimal(multiplier); err != nil {
		return nil, err
	}

	return domain.ReconstructTransaction(s, nil), nil
}
