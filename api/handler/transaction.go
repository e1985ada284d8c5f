package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/portfolio/api/transport"
	"github.com/fastygo/portfolio/domain"
	"github.com/fastygo/portfolio/pkg/httpcontext"
	"github.com/fastygo/portfolio/pkg/logger"
	"github.com/fastygo/portfolio/repository"
	txUC "github.com/fastygo/portfolio/usecase/transaction"
)

type TransactionHandler struct {
	baseHandler
	uc *txUC.UseCase
}

func NewTransactionHandler(uc *txUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *TransactionHandler {
	return &TransactionHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List transactions
// @Tags transactions
// @Router /api/v1/transactions [get]
func (h *TransactionHandler) List(ctx *fasthttp.RequestCtx) {
	args := ctx.QueryArgs()
	filter := repository.TransactionFilter{
		Ticker: strings.ToUpper(strings.TrimSpace(string(args.Peek("ticker")))),
		Limit:  parseInt(string(args.Peek("limit")), repository.DefaultListLimit),
		Offset: parseInt(string(args.Peek("offset")), 0),
	}
	if kind := strings.TrimSpace(string(args.Peek("kind"))); kind != "" {
		filter.Kind = domain.TransactionKind(strings.ToUpper(kind))
		if !filter.Kind.Valid() {
			h.respondCode(ctx, domain.ErrCodeInvalid, "kind must be one of BUY, SELL, DIVIDEND")
			return
		}
	}
	if active := string(args.Peek("active")); active != "" {
		v, err := strconv.ParseBool(active)
		if err != nil {
			h.respondCode(ctx, domain.ErrCodeInvalid, "active must be a boolean")
			return
		}
		filter.Active = &v
	}
	filter = filter.Paged()

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	txs, err := h.uc.List(stdCtx, filter)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	states := make([]domain.TransactionState, 0, len(txs))
	for _, tx := range txs {
		states = append(states, tx.Snapshot())
	}
	h.respondSuccess(ctx, http.StatusOK, transport.NewTransactionList(states),
		transport.ListMeta{Count: len(states), Limit: filter.Limit, Offset: filter.Offset})
}

// @Summary Get transaction
// @Tags transactions
// @Router /api/v1/transactions/{id} [get]
func (h *TransactionHandler) Get(ctx *fasthttp.RequestCtx) {
	id, ok := h.pathID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	tx, err := h.uc.Get(stdCtx, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, transport.NewTransactionResponse(tx.Snapshot()), nil)
}

// @Summary Create transaction
// @Tags transactions
// @Router /api/v1/transactions [post]
func (h *TransactionHandler) Create(ctx *fasthttp.RequestCtx) {
	var req transport.TransactionRequest
	if !h.decode(ctx, &req) {
		return
	}
	fields, err := req.Fields()
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	switch res := h.uc.Create(stdCtx, txUC.CreateCommand{Fields: fields}).(type) {
	case txUC.Success:
		h.respondSuccess(ctx, http.StatusCreated, transport.NewTransactionResponse(res.Transaction.Snapshot()), nil)
	case txUC.PublishError:
		h.respondPublishError(ctx, res)
	case txUC.CreateError:
		h.respondError(ctx, domain.WrapError(res.Code, "create transaction", res.Cause))
	default:
		h.respondUnexpected(stdCtx, ctx, res)
	}
}

// @Summary Update transaction
// @Tags transactions
// @Router /api/v1/transactions/{id} [put]
func (h *TransactionHandler) Update(ctx *fasthttp.RequestCtx) {
	id, ok := h.pathID(ctx)
	if !ok {
		return
	}
	var req transport.TransactionPatchRequest
	if !h.decode(ctx, &req) {
		return
	}
	patch, err := req.Patch()
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	switch res := h.uc.Update(stdCtx, txUC.UpdateCommand{ID: id, Patch: patch}).(type) {
	case txUC.Success:
		h.respondSuccess(ctx, http.StatusOK, transport.NewTransactionResponse(res.Transaction.Snapshot()), nil)
	case txUC.NotFound:
		h.respondError(ctx, domain.ErrTransactionNotFound)
	case txUC.PublishError:
		h.respondPublishError(ctx, res)
	case txUC.UpdateError:
		h.respondError(ctx, domain.WrapError(res.Code, "update transaction", res.Cause))
	default:
		h.respondUnexpected(stdCtx, ctx, res)
	}
}

// @Summary Delete transaction
// @Tags transactions
// @Router /api/v1/transactions/{id} [delete]
func (h *TransactionHandler) Delete(ctx *fasthttp.RequestCtx) {
	id, ok := h.pathID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	switch res := h.uc.Delete(stdCtx, txUC.DeleteCommand{ID: id}).(type) {
	case txUC.Success:
		ctx.SetStatusCode(http.StatusNoContent)
	case txUC.NotFound:
		h.respondError(ctx, domain.ErrTransactionNotFound)
	case txUC.PublishError:
		h.respondPublishError(ctx, res)
	case txUC.DeleteError:
		h.respondError(ctx, domain.WrapError(res.Code, "delete transaction", res.Cause))
	default:
		h.respondUnexpected(stdCtx, ctx, res)
	}
}

// respondPublishError answers 202: the change is stored, its events are not all in the log.
func (h *TransactionHandler) respondPublishError(ctx *fasthttp.RequestCtx, res txUC.PublishError) {
	var data interface{}
	if res.Transaction != nil {
		data = transport.NewTransactionResponse(res.Transaction.Snapshot())
	}
	h.respondSuccess(ctx, http.StatusAccepted, data, transport.NewPublishWarning(res.Cause, res.Unpublished))
}

func (h *TransactionHandler) respondUnexpected(stdCtx context.Context, ctx *fasthttp.RequestCtx, res interface{}) {
	logger.WithRequestID(stdCtx, h.logger).Error("unhandled use case result", zap.String("type", fmt.Sprintf("%T", res)))
	h.respondCode(ctx, domain.ErrCodeInternal, "unexpected result")
}

func (h *TransactionHandler) decode(ctx *fasthttp.RequestCtx, dst interface{}) bool {
	if err := json.Unmarshal(ctx.PostBody(), dst); err != nil {
		h.respondCode(ctx, domain.ErrCodeInvalid, "invalid payload")
		return false
	}
	return true
}

func (h *TransactionHandler) pathID(ctx *fasthttp.RequestCtx) (string, bool) {
	id, _ := ctx.UserValue("id").(string)
	if strings.TrimSpace(id) == "" {
		h.respondCode(ctx, domain.ErrCodeInvalid, "missing transaction id")
		return "", false
	}
	return id, true
}

func parseInt(value string, fallback int) int {
	if v, err := strconv.Atoi(value); err == nil {
		return v
	}
	return fallback
}
