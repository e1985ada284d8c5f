package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/portfolio/domain"
	"github.com/fastygo/portfolio/eventlog"
	"github.com/fastygo/portfolio/internal/infrastructure/buffer"
)

type appendCall struct {
	stream string
	env    eventlog.Envelope
}

type fakeAppender struct {
	mu    sync.Mutex
	calls []appendCall
	err   error
}

func (f *fakeAppender) Append(_ context.Context, stream string, env eventlog.Envelope) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, appendCall{stream: stream, env: env})
	return f.err
}

type offline struct{}

func (offline) IsOnline() bool { return false }

type oddEvent struct{ domain.EventMeta }

func (oddEvent) Kind() domain.EventKind { return "TransactionRenamed" }
func (oddEvent) Payload() any           { return nil }

func openStore(t *testing.T) *buffer.Store {
	t.Helper()
	s, err := buffer.Open(filepath.Join(t.TempDir(), "buffer.db"), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func createdEvents(t *testing.T, n int) []domain.Event {
	t.Helper()
	var events []domain.Event
	for i := 0; i < n; i++ {
		tx := domain.NewTransaction(domain.TransactionFields{
			Ticker:   "MSFT",
			Kind:     domain.KindBuy,
			Quantity: decimal.NewFromInt(int64(i + 1)),
			Price:    decimal.RequireFromString("410.20"),
			Currency: "USD",
			Date:     time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		})
		tx.AssignID("tx", time.Now(), time.Now())
		events = append(events, tx.PopEvents()...)
	}
	return events
}

func TestEventParker_ParksRoutableEvents(t *testing.T) {
	store := openStore(t)
	parker := NewEventParker(store, eventlog.NewStreams(""), nil)

	events := createdEvents(t, 2)
	events = append(events, oddEvent{EventMeta: domain.EventMeta{ID: "odd"}})

	err := parker.Park(context.Background(), events, errors.New("redis down"))
	assert.ErrorIs(t, err, domain.ErrUnknownEventKind)

	items, err := store.GetBatch(10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	var parked []string
	for _, it := range items {
		parked = append(parked, it.ID)
		assert.Equal(t, "transactions.created", it.Stream)
		assert.Equal(t, "redis down", it.Cause)
	}
	assert.ElementsMatch(t, []string{events[0].EventID(), events[1].EventID()}, parked)
}

func TestEventParker_RequiresStore(t *testing.T) {
	parker := NewEventParker(nil, eventlog.NewStreams(""), nil)
	err := parker.Park(context.Background(), createdEvents(t, 1), nil)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInternal))
}

func TestRepublisher_DrainPublishesAndPurges(t *testing.T) {
	store := openStore(t)
	require.NoError(t, NewEventParker(store, eventlog.NewStreams("ledger"), nil).
		Park(context.Background(), createdEvents(t, 3), nil))

	app := &fakeAppender{}
	r := NewRepublisher(store, app, nil, nil, RepublisherConfig{Interval: time.Minute})

	report, err := r.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DrainReport{Published: 3}, report)
	require.Len(t, app.calls, 3)
	assert.Equal(t, "ledger.created", app.calls[0].stream)
	assert.Zero(t, r.Size())
}

func TestRepublisher_RetriesThenDrops(t *testing.T) {
	store := openStore(t)
	require.NoError(t, NewEventParker(store, eventlog.NewStreams(""), nil).
		Park(context.Background(), createdEvents(t, 1), nil))

	app := &fakeAppender{err: errors.New("still down")}
	r := NewRepublisher(store, app, nil, nil, RepublisherConfig{Interval: time.Minute, MaxRetries: 2})

	report, err := r.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DrainReport{Requeued: 1}, report)
	assert.Equal(t, 1, r.Size())

	items, err := store.GetBatch(1)
	require.NoError(t, err)
	assert.Equal(t, 1, items[0].Retries)
	assert.Equal(t, "still down", items[0].Cause)

	report, err = r.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DrainReport{Dropped: 1}, report)
	assert.Zero(t, r.Size())
}

func TestRepublisher_SkipsWhileOfflineButExpires(t *testing.T) {
	store := openStore(t)
	env, err := eventlog.Encode(createdEvents(t, 1)[0])
	require.NoError(t, err)
	require.NoError(t, store.Enqueue(buffer.Item{
		Stream:   "transactions.created",
		Envelope: env,
		ParkedAt: time.Now().Add(-72 * time.Hour),
	}))
	fresh, err := eventlog.Encode(createdEvents(t, 1)[0])
	require.NoError(t, err)
	require.NoError(t, store.Enqueue(buffer.Item{Stream: "transactions.created", Envelope: fresh}))

	app := &fakeAppender{}
	r := NewRepublisher(store, app, offline{}, nil, RepublisherConfig{Interval: time.Minute, Retention: 24 * time.Hour})

	report, err := r.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DrainReport{Expired: 1}, report)
	assert.Empty(t, app.calls)
	assert.Equal(t, 1, r.Size())
}

func TestRepublisher_StartStop(t *testing.T) {
	r := NewRepublisher(openStore(t), &fakeAppender{}, nil, nil, RepublisherConfig{})
	r.Start()
	require.NoError(t, r.Stop(context.Background()))
}

func TestRepublisher_KeepsSubSecondInterval(t *testing.T) {
	r := NewRepublisher(openStore(t), &fakeAppender{}, nil, nil, RepublisherConfig{Interval: 1500 * time.Millisecond})

	entries := r.cron.Entries()
	require.Len(t, entries, 1)
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, from.Add(1500*time.Millisecond), entries[0].Schedule.Next(from))
}
