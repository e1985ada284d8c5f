package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/fastygo/portfolio/domain"
	"github.com/fastygo/portfolio/repository/memory"
	txUC "github.com/fastygo/portfolio/usecase/transaction"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev domain.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

type response struct {
	Status string          `json:"status"`
	Code   string          `json:"code"`
	Data   json.RawMessage `json:"data"`
	Error  string          `json:"error"`
	Meta   json.RawMessage `json:"meta"`
}

type fixture struct {
	handler   *TransactionHandler
	publisher *recordingPublisher
}

func newFixture() fixture {
	pub := &recordingPublisher{}
	uc := txUC.New(memory.NewTransactionRepository(), pub, nil, nil)
	return fixture{handler: NewTransactionHandler(uc, nil, nil), publisher: pub}
}

func call(h fasthttp.RequestHandler, method, body, id string) (*fasthttp.RequestCtx, response) {
	var rc fasthttp.RequestCtx
	rc.Request.Header.SetMethod(method)
	rc.Request.SetBodyString(body)
	if id != "" {
		rc.SetUserValue("id", id)
	}
	h(&rc)

	var out response
	_ = json.Unmarshal(rc.Response.Body(), &out)
	return &rc, out
}

const validBody = `{"ticker":" aapl ","kind":"buy","quantity":"10","price":150.5,"fees":"9.99","currency":"usd","date":"2024-01-15"}`

func TestCreate_Success(t *testing.T) {
	f := newFixture()

	rc, out := call(f.handler.Create, http.MethodPost, validBody, "")

	require.Equal(t, http.StatusCreated, rc.Response.StatusCode())
	var data map[string]any
	require.NoError(t, json.Unmarshal(out.Data, &data))
	assert.NotEmpty(t, data["id"])
	assert.Equal(t, "AAPL", data["ticker"])
	assert.Equal(t, "BUY", data["kind"])
	assert.Equal(t, "1505", data["totalValue"])
	assert.Equal(t, "1514.99", data["totalCost"])

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, domain.EventTransactionCreated, f.publisher.events[0].Kind())
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture()

	rc, out := call(f.handler.Create, http.MethodPost, `{"kind":"hold","quantity":0,"price":-1,"date":"15/01/2024"}`, "")

	assert.Equal(t, http.StatusBadRequest, rc.Response.StatusCode())
	assert.Equal(t, "INVALID", out.Code)
	for _, msg := range []string{"ticker", "kind", "quantity", "price", "currency", "date"} {
		assert.Contains(t, out.Error, msg)
	}
	assert.Empty(t, f.publisher.events)

	rc, out = call(f.handler.Create, http.MethodPost, `{`, "")
	assert.Equal(t, http.StatusBadRequest, rc.Response.StatusCode())
	assert.Equal(t, "invalid payload", out.Error)
}

func TestCreate_PublishFailureIsAccepted(t *testing.T) {
	f := newFixture()
	f.publisher.err = errors.New("stream unavailable")

	rc, out := call(f.handler.Create, http.MethodPost, validBody, "")

	assert.Equal(t, http.StatusAccepted, rc.Response.StatusCode())
	var meta map[string]any
	require.NoError(t, json.Unmarshal(out.Meta, &meta))
	assert.Contains(t, meta["warning"], "stream unavailable")
	assert.Len(t, meta["unpublishedEvents"], 1)
}

func createOne(t *testing.T, f fixture) string {
	t.Helper()
	_, out := call(f.handler.Create, http.MethodPost, validBody, "")
	var data struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(out.Data, &data))
	require.NotEmpty(t, data.ID)
	return data.ID
}

func TestUpdate(t *testing.T) {
	f := newFixture()
	id := createOne(t, f)

	rc, out := call(f.handler.Update, http.MethodPut, `{"price":"155","notes":"averaged up"}`, id)
	require.Equal(t, http.StatusOK, rc.Response.StatusCode())

	var data map[string]any
	require.NoError(t, json.Unmarshal(out.Data, &data))
	assert.Equal(t, "155", data["price"])
	assert.Equal(t, "averaged up", data["notes"])
	assert.Equal(t, "AAPL", data["ticker"])

	require.Len(t, f.publisher.events, 2)
	assert.Equal(t, domain.EventTransactionUpdated, f.publisher.events[1].Kind())

	rc, out = call(f.handler.Update, http.MethodPut, `{"price":"1"}`, "00000000-0000-0000-0000-000000000000")
	assert.Equal(t, http.StatusNotFound, rc.Response.StatusCode())
	assert.Equal(t, "NOT_FOUND", out.Code)

	rc, _ = call(f.handler.Update, http.MethodPut, `{"quantity":"-2"}`, id)
	assert.Equal(t, http.StatusBadRequest, rc.Response.StatusCode())
}

func TestDelete(t *testing.T) {
	f := newFixture()
	id := createOne(t, f)

	rc, _ := call(f.handler.Delete, http.MethodDelete, "", id)
	assert.Equal(t, http.StatusNoContent, rc.Response.StatusCode())
	require.Len(t, f.publisher.events, 2)
	assert.Equal(t, domain.EventTransactionDeleted, f.publisher.events[1].Kind())

	rc, out := call(f.handler.Delete, http.MethodDelete, "", id)
	assert.Equal(t, http.StatusNotFound, rc.Response.StatusCode())
	assert.Equal(t, "NOT_FOUND", out.Code)

	rc, _ = call(f.handler.Delete, http.MethodDelete, "", "")
	assert.Equal(t, http.StatusBadRequest, rc.Response.StatusCode())
}

func TestGetAndList(t *testing.T) {
	f := newFixture()
	id := createOne(t, f)
	createOne(t, f)

	rc, out := call(f.handler.Get, http.MethodGet, "", id)
	require.Equal(t, http.StatusOK, rc.Response.StatusCode())
	assert.Contains(t, string(out.Data), id)

	var list fasthttp.RequestCtx
	list.Request.SetRequestURI("/api/v1/transactions?ticker=aapl&kind=BUY&limit=1")
	f.handler.List(&list)
	require.Equal(t, http.StatusOK, list.Response.StatusCode())

	var listed response
	require.NoError(t, json.Unmarshal(list.Response.Body(), &listed))
	var items []map[string]any
	require.NoError(t, json.Unmarshal(listed.Data, &items))
	assert.Len(t, items, 1)
	assert.JSONEq(t, `{"count":1,"limit":1,"offset":0}`, string(listed.Meta))

	var wide fasthttp.RequestCtx
	wide.Request.SetRequestURI("/api/v1/transactions?limit=1000&offset=-3")
	f.handler.List(&wide)
	require.Equal(t, http.StatusOK, wide.Response.StatusCode())
	var widened response
	require.NoError(t, json.Unmarshal(wide.Response.Body(), &widened))
	assert.JSONEq(t, `{"count":2,"limit":100,"offset":0}`, string(widened.Meta))

	var bad fasthttp.RequestCtx
	bad.Request.SetRequestURI("/api/v1/transactions?active=maybe")
	f.handler.List(&bad)
	assert.Equal(t, http.StatusBadRequest, bad.Response.StatusCode())
}

func TestMapError(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{domain.ErrTransactionNotFound, http.StatusNotFound},
		{domain.ErrInvalidPayload, http.StatusBadRequest},
		{domain.ErrUnauthorized, http.StatusUnauthorized},
		{domain.NewError(domain.ErrCodeConflict, "dup"), http.StatusConflict},
		{domain.NewError(domain.ErrCodePersistence, "db"), http.StatusServiceUnavailable},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		status, _ := mapError(c.err)
		assert.Equal(t, c.status, status, c.err.Error())
	}
}
