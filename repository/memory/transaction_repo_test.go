package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/portfolio/domain"
	"github.com/fastygo/portfolio/repository"
)

func fields(ticker string, day int) domain.TransactionFields {
	return domain.TransactionFields{
		Ticker:   ticker,
		Kind:     domain.KindBuy,
		Quantity: decimal.NewFromInt(1),
		Price:    decimal.NewFromInt(100),
		Currency: "USD",
		Date:     time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC),
		Active:   true,
	}
}

func TestTransactionRepository_SaveKeepsEventsAndAssignsID(t *testing.T) {
	repo := NewTransactionRepository()
	tx := domain.NewTransaction(fields("AAPL", 1))

	saved, err := repo.Save(context.Background(), tx)
	require.NoError(t, err)
	assert.Same(t, tx, saved)
	assert.NotEmpty(t, saved.ID())

	events := saved.PopEvents()
	require.Len(t, events, 1)
	assert.Equal(t, saved.ID(), events[0].(domain.TransactionCreated).Transaction.ID)
}

func TestTransactionRepository_FindReturnsEventFreeCopy(t *testing.T) {
	repo := NewTransactionRepository()
	ctx := context.Background()
	saved, err := repo.Save(ctx, domain.NewTransaction(fields("MSFT", 2)))
	require.NoError(t, err)

	found, err := repo.FindByID(ctx, saved.ID())
	require.NoError(t, err)
	assert.NotSame(t, saved, found)
	assert.Empty(t, found.Events())
	assert.Equal(t, "MSFT", found.Snapshot().Ticker)

	_, err = repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrTransactionNotFound)
}

func TestTransactionRepository_UpdateAndDelete(t *testing.T) {
	repo := NewTransactionRepository()
	ctx := context.Background()
	saved, err := repo.Save(ctx, domain.NewTransaction(fields("NVDA", 3)))
	require.NoError(t, err)

	notes := "split adjusted"
	found, err := repo.FindByID(ctx, saved.ID())
	require.NoError(t, err)
	found.Update(domain.TransactionPatch{Notes: &notes})
	_, err = repo.Update(ctx, found)
	require.NoError(t, err)

	reloaded, err := repo.FindByID(ctx, saved.ID())
	require.NoError(t, err)
	assert.Equal(t, notes, reloaded.Snapshot().Notes)

	deleted, err := repo.DeleteByID(ctx, saved.ID())
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.DeleteByID(ctx, saved.ID())
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = repo.Update(ctx, reloaded)
	assert.ErrorIs(t, err, domain.ErrTransactionNotFound)
}

func TestTransactionRepository_List(t *testing.T) {
	repo := NewTransactionRepository()
	ctx := context.Background()
	for i, ticker := range []string{"AAPL", "MSFT", "AAPL"} {
		_, err := repo.Save(ctx, domain.NewTransaction(fields(ticker, i+1)))
		require.NoError(t, err)
	}

	all, err := repo.List(ctx, repository.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].Snapshot().Date.After(all[1].Snapshot().Date))

	apple, err := repo.List(ctx, repository.TransactionFilter{Ticker: "aapl"})
	require.NoError(t, err)
	assert.Len(t, apple, 2)

	page, err := repo.List(ctx, repository.TransactionFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "MSFT", page[0].Snapshot().Ticker)

	inactive := false
	none, err := repo.List(ctx, repository.TransactionFilter{Active: &inactive})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestTransactionRepository_ListNegativeOffset(t *testing.T) {
	repo := NewTransactionRepository()
	ctx := context.Background()
	_, err := repo.Save(ctx, domain.NewTransaction(fields("AAPL", 1)))
	require.NoError(t, err)

	var page []*domain.Transaction
	assert.NotPanics(t, func() {
		page, err = repo.List(ctx, repository.TransactionFilter{Offset: -1, Limit: 10})
	})
	require.NoError(t, err)
	assert.Len(t, page, 1)
}
