package repository

import (
	"context"

	"github.com/fastygo/portfolio/domain"
)

// Paging bounds shared by every adapter. Stores never return more than MaxListLimit rows.
const (
	DefaultListLimit = 50
	MaxListLimit     = 100
)

type TransactionFilter struct {
	Ticker string
	Kind   domain.TransactionKind
	Active *bool
	Limit  int
	Offset int
}

// Paged returns f with Limit defaulted and capped to MaxListLimit and a negative
// Offset reset to zero.
func (f TransactionFilter) Paged() TransactionFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// TransactionRepository persists aggregate state. Implementations never publish events.
// FindByID reports absence with domain.ErrTransactionNotFound.
type TransactionRepository interface {
	Save(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error)
	FindByID(ctx context.Context, id string) (*domain.Transaction, error)
	Update(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error)
	DeleteByID(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, filter TransactionFilter) ([]*domain.Transaction, error)
}
