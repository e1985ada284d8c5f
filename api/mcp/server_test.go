package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/portfolio/domain"
	"github.com/fastygo/portfolio/repository/memory"
	txUC "github.com/fastygo/portfolio/usecase/transaction"
)

type recordingPublisher struct {
	mu     sync.Mutex
	kinds  []domain.EventKind
	failOn domain.EventKind
}

func (p *recordingPublisher) Publish(_ context.Context, ev domain.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ev.Kind() == p.failOn {
		return errors.New("log unavailable")
	}
	p.kinds = append(p.kinds, ev.Kind())
	return nil
}

func newUseCase(pub *recordingPublisher) *txUC.UseCase {
	return txUC.New(memory.NewTransactionRepository(), pub, nil, nil)
}

func connect(t *testing.T, uc *txUC.UseCase) *sdk.ClientSession {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	serverTransport, clientTransport := sdk.NewInMemoryTransports()
	server := NewServer(uc, "test", nil)
	go func() { _ = Serve(ctx, server, serverTransport, nil) }()

	client := sdk.NewClient(&sdk.Implementation{Name: "client", Version: "v0.0.1"}, nil)
	connectCtx, connectCancel := context.WithTimeout(ctx, 2*time.Second)
	defer connectCancel()
	session, err := client.Connect(connectCtx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func decode[T any](t *testing.T, value any) T {
	t.Helper()
	data, err := json.Marshal(value)
	require.NoError(t, err)
	var out T
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

var createArgs = map[string]any{
	"ticker":   "nvda",
	"kind":     "BUY",
	"quantity": "4",
	"price":    "120.25",
	"fees":     "1",
	"currency": "USD",
	"date":     "2024-08-01",
}

func TestServer_ListsTools(t *testing.T) {
	session := connect(t, newUseCase(&recordingPublisher{}))

	res, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{
		"create_transaction", "update_transaction", "delete_transaction", "get_transaction", "list_transactions",
	}, names)
}

func TestServer_TransactionLifecycle(t *testing.T) {
	pub := &recordingPublisher{}
	session := connect(t, newUseCase(pub))
	ctx := context.Background()

	created, err := session.CallTool(ctx, &sdk.CallToolParams{Name: "create_transaction", Arguments: createArgs})
	require.NoError(t, err)
	require.False(t, created.IsError, "%+v", created)
	out := decode[TransactionWriteResult](t, created.StructuredContent)
	require.NotNil(t, out.Transaction)
	assert.Equal(t, "SUCCESS", out.Outcome)
	assert.Equal(t, "NVDA", out.Transaction.Ticker)
	assert.Equal(t, "481", out.Transaction.TotalValue)
	assert.Equal(t, "482", out.Transaction.TotalCost)
	id := out.Transaction.ID

	updated, err := session.CallTool(ctx, &sdk.CallToolParams{Name: "update_transaction", Arguments: map[string]any{
		"id":    id,
		"notes": "earnings dip",
	}})
	require.NoError(t, err)
	require.False(t, updated.IsError, "%+v", updated)
	assert.Equal(t, "earnings dip", decode[TransactionWriteResult](t, updated.StructuredContent).Transaction.Notes)

	got, err := session.CallTool(ctx, &sdk.CallToolParams{Name: "get_transaction", Arguments: map[string]any{"id": id}})
	require.NoError(t, err)
	require.False(t, got.IsError)
	assert.Equal(t, "2024-08-01T00:00:00Z", decode[TransactionOutput](t, got.StructuredContent).Date)

	deleted, err := session.CallTool(ctx, &sdk.CallToolParams{Name: "delete_transaction", Arguments: map[string]any{"id": id}})
	require.NoError(t, err)
	require.False(t, deleted.IsError)

	again, err := session.CallTool(ctx, &sdk.CallToolParams{Name: "delete_transaction", Arguments: map[string]any{"id": id}})
	require.NoError(t, err)
	assert.True(t, again.IsError)

	assert.Equal(t, []domain.EventKind{
		domain.EventTransactionCreated, domain.EventTransactionUpdated, domain.EventTransactionDeleted,
	}, pub.kinds)
}

func TestServer_PublishFailureIsReportedNotFailed(t *testing.T) {
	session := connect(t, newUseCase(&recordingPublisher{failOn: domain.EventTransactionCreated}))

	res, err := session.CallTool(context.Background(), &sdk.CallToolParams{Name: "create_transaction", Arguments: createArgs})
	require.NoError(t, err)
	require.False(t, res.IsError)

	out := decode[TransactionWriteResult](t, res.StructuredContent)
	assert.Equal(t, "PUBLISH_ERROR", out.Outcome)
	assert.Equal(t, "log unavailable", out.Warning)
	assert.Len(t, out.Unpublished, 1)
	assert.NotEmpty(t, out.Transaction.ID)
}

func TestCreateTransactionHandler_Validation(t *testing.T) {
	handler := CreateTransactionHandler(newUseCase(&recordingPublisher{}))

	_, _, err := handler(context.Background(), nil, TransactionCreateInput{
		Ticker: "X", Kind: "BUY", Quantity: "lots", Price: "1", Currency: "USD", Date: "2024-01-01",
	})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
	assert.Contains(t, err.Error(), "quantity")

	_, _, err = handler(context.Background(), nil, TransactionCreateInput{
		Ticker: "X", Kind: "HOLD", Quantity: "1", Price: "1", Currency: "USD", Date: "2024-01-01",
	})
	assert.Contains(t, err.Error(), "kind")
}

func TestUpdateTransactionHandler_RequiresID(t *testing.T) {
	handler := UpdateTransactionHandler(newUseCase(&recordingPublisher{}))
	_, _, err := handler(context.Background(), nil, TransactionUpdateInput{})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
}

func TestListTransactionsHandler_ClampsPaging(t *testing.T) {
	uc := newUseCase(&recordingPublisher{})
	create := CreateTransactionHandler(uc)
	for i := 0; i < 2; i++ {
		_, _, err := create(context.Background(), nil, TransactionCreateInput{
			Ticker: "NVDA", Kind: "BUY", Quantity: "1", Price: "100", Currency: "USD", Date: "2024-08-01",
		})
		require.NoError(t, err)
	}

	list := ListTransactionsHandler(uc)
	var (
		out TransactionListResult
		err error
	)
	assert.NotPanics(t, func() {
		_, out, err = list(context.Background(), nil, TransactionListInput{Offset: -1, Limit: 10_000})
	})
	require.NoError(t, err)
	assert.Len(t, out.Transactions, 2)
}
