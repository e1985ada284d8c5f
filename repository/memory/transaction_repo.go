// Package memory keeps transactions in process memory. It backs local runs
// (REPOSITORY_DRIVER=memory) and adapter tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fastygo/portfolio/domain"
	"github.com/fastygo/portfolio/repository"
)

type TransactionRepository struct {
	mu    sync.RWMutex
	rows  map[string]domain.TransactionState
	clock func() time.Time
}

// NewTransactionRepository returns an empty in-memory repository.
func NewTransactionRepository() *TransactionRepository {
	return &TransactionRepository{
		rows:  make(map[string]domain.TransactionState),
		clock: time.Now,
	}
}

// Save stores a snapshot and returns the same aggregate with its new identity.
func (r *TransactionRepository) Save(_ context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	if tx == nil {
		return nil, domain.ErrInvalidPayload
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	id := tx.ID()
	if id == "" {
		id = uuid.NewString()
	}
	if _, exists := r.rows[id]; exists {
		return nil, domain.NewError(domain.ErrCodeConflict, "transaction already exists")
	}
	now := r.clock()
	tx.AssignID(id, now, now)
	r.rows[id] = tx.Snapshot()
	return tx, nil
}

func (r *TransactionRepository) FindByID(_ context.Context, id string) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	state, ok := r.rows[id]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}
	return domain.ReconstructTransaction(state, nil), nil
}

func (r *TransactionRepository) Update(_ context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	if tx == nil || tx.ID() == "" {
		return nil, domain.ErrInvalidPayload
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[tx.ID()]; !ok {
		return nil, domain.ErrTransactionNotFound
	}
	tx.Touch(r.clock())
	r.rows[tx.ID()] = tx.Snapshot()
	return tx, nil
}

func (r *TransactionRepository) DeleteByID(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return false, nil
	}
	delete(r.rows, id)
	return true, nil
}

func (r *TransactionRepository) List(_ context.Context, filter repository.TransactionFilter) ([]*domain.Transaction, error) {
	r.mu.RLock()
	states := make([]domain.TransactionState, 0, len(r.rows))
	for _, s := range r.rows {
		if filter.Ticker != "" && !strings.EqualFold(filter.Ticker, s.Ticker) {
			continue
		}
		if filter.Kind != "" && filter.Kind != s.Kind {
			continue
		}
		if filter.Active != nil && *filter.Active != s.Active {
			continue
		}
		states = append(states, s)
	}
	r.mu.RUnlock()

	sort.Slice(states, func(i, j int) bool {
		if !states[i].Date.Equal(states[j].Date) {
			return states[i].Date.After(states[j].Date)
		}
		return states[i].CreatedAt.After(states[j].CreatedAt)
	})

	start := filter.Offset
	if start < 0 {
		start = 0
	}
	if start > len(states) {
		start = len(states)
	}
	end := len(states)
	if filter.Limit > 0 && start+filter.Limit < end {
		end = start + filter.Limit
	}

	out := make([]*domain.Transaction, 0, end-start)
	for _, s := range states[start:end] {
		out = append(out, domain.ReconstructTransaction(s, nil))
	}
	return out, nil
}

var _ repository.TransactionRepository = (*TransactionRepository)(nil)
