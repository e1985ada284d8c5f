package mcp

import (
	"context"
	"fmt"
	"strings"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/shopspring/decimal"

	"github.com/fastygo/portfolio/api/transport"
	"github.com/fastygo/portfolio/domain"
	"github.com/fastygo/portfolio/repository"
	txUC "github.com/fastygo/portfolio/usecase/transaction"
)

func CreateTransactionTool() *sdk.Tool {
	return &sdk.Tool{
		Name:        "create_transaction",
		Description: "Records a portfolio transaction and publishes TransactionCreated",
	}
}

func UpdateTransactionTool() *sdk.Tool {
	return &sdk.Tool{
		Name:        "update_transaction",
		Description: "Applies a partial update to a transaction and publishes TransactionUpdated",
	}
}

func DeleteTransactionTool() *sdk.Tool {
	return &sdk.Tool{
		Name:        "delete_transaction",
		Description: "Deletes a transaction and publishes TransactionDeleted",
	}
}

func GetTransactionTool() *sdk.Tool {
	return &sdk.Tool{
		Name:        "get_transaction",
		Description: "Returns one transaction with its derived totals",
	}
}

func ListTransactionsTool() *sdk.Tool {
	return &sdk.Tool{
		Name:        "list_transactions",
		Description: "Lists transactions, newest first",
	}
}

// CreateTransactionHandler records a transaction. A stored transaction whose event was
// not published is still a successful call; the outcome field reports PUBLISH_ERROR.
func CreateTransactionHandler(uc *txUC.UseCase) sdk.ToolHandlerFor[TransactionCreateInput, TransactionWriteResult] {
	return func(ctx context.Context, _ *sdk.CallToolRequest, input TransactionCreateInput) (*sdk.CallToolResult, TransactionWriteResult, error) {
		fields, err := input.fields()
		if err != nil {
			return nil, TransactionWriteResult{}, err
		}
		switch res := uc.Create(ctx, txUC.CreateCommand{Fields: fields}).(type) {
		case txUC.Success:
			return nil, success(res.Transaction), nil
		case txUC.PublishError:
			return nil, publishFailed(res), nil
		case txUC.CreateError:
			return nil, TransactionWriteResult{}, fmt.Errorf("create transaction failed (%s): %w", res.Code, res.Cause)
		default:
			return nil, TransactionWriteResult{}, fmt.Errorf("create transaction: unexpected result %T", res)
		}
	}
}

func UpdateTransactionHandler(uc *txUC.UseCase) sdk.ToolHandlerFor[TransactionUpdateInput, TransactionWriteResult] {
	return func(ctx context.Context, _ *sdk.CallToolRequest, input TransactionUpdateInput) (*sdk.CallToolResult, TransactionWriteResult, error) {
		id, err := requireID(input.ID)
		if err != nil {
			return nil, TransactionWriteResult{}, err
		}
		patch, err := input.patch()
		if err != nil {
			return nil, TransactionWriteResult{}, err
		}
		switch res := uc.Update(ctx, txUC.UpdateCommand{ID: id, Patch: patch}).(type) {
		case txUC.Success:
			return nil, success(res.Transaction), nil
		case txUC.NotFound:
			return nil, TransactionWriteResult{}, fmt.Errorf("transaction %s not found", res.ID)
		case txUC.PublishError:
			return nil, publishFailed(res), nil
		case txUC.UpdateError:
			return nil, TransactionWriteResult{}, fmt.Errorf("update transaction failed (%s): %w", res.Code, res.Cause)
		default:
			return nil, TransactionWriteResult{}, fmt.Errorf("update transaction: unexpected result %T", res)
		}
	}
}

func DeleteTransactionHandler(uc *txUC.UseCase) sdk.ToolHandlerFor[TransactionIDInput, TransactionWriteResult] {
	return func(ctx context.Context, _ *sdk.CallToolRequest, input TransactionIDInput) (*sdk.CallToolResult, TransactionWriteResult, error) {
		id, err := requireID(input.ID)
		if err != nil {
			return nil, TransactionWriteResult{}, err
		}
		switch res := uc.Delete(ctx, txUC.DeleteCommand{ID: id}).(type) {
		case txUC.Success:
			return nil, success(res.Transaction), nil
		case txUC.NotFound:
			return nil, TransactionWriteResult{}, fmt.Errorf("transaction %s not found", res.ID)
		case txUC.PublishError:
			return nil, publishFailed(res), nil
		case txUC.DeleteError:
			return nil, TransactionWriteResult{}, fmt.Errorf("delete transaction failed (%s): %w", res.Code, res.Cause)
		default:
			return nil, TransactionWriteResult{}, fmt.Errorf("delete transaction: unexpected result %T", res)
		}
	}
}

func GetTransactionHandler(uc *txUC.UseCase) sdk.ToolHandlerFor[TransactionIDInput, TransactionOutput] {
	return func(ctx context.Context, _ *sdk.CallToolRequest, input TransactionIDInput) (*sdk.CallToolResult, TransactionOutput, error) {
		id, err := requireID(input.ID)
		if err != nil {
			return nil, TransactionOutput{}, err
		}
		tx, err := uc.Get(ctx, id)
		if err != nil {
			return nil, TransactionOutput{}, fmt.Errorf("get transaction: %w", err)
		}
		return nil, toOutput(tx.Snapshot()), nil
	}
}

func ListTransactionsHandler(uc *txUC.UseCase) sdk.ToolHandlerFor[TransactionListInput, TransactionListResult] {
	return func(ctx context.Context, _ *sdk.CallToolRequest, input TransactionListInput) (*sdk.CallToolResult, TransactionListResult, error) {
		filter := repository.TransactionFilter{
			Ticker: strings.ToUpper(strings.TrimSpace(input.Ticker)),
			Kind:   domain.TransactionKind(strings.ToUpper(strings.TrimSpace(input.Kind))),
			Limit:  input.Limit,
			Offset: input.Offset,
		}
		if filter.Kind != "" && !filter.Kind.Valid() {
			return nil, TransactionListResult{}, fmt.Errorf("kind must be one of BUY, SELL, DIVIDEND")
		}
		filter = filter.Paged()
		txs, err := uc.List(ctx, filter)
		if err != nil {
			return nil, TransactionListResult{}, fmt.Errorf("list transactions: %w", err)
		}
		out := TransactionListResult{Transactions: make([]TransactionOutput, 0, len(txs))}
		for _, tx := range txs {
			out.Transactions = append(out.Transactions, toOutput(tx.Snapshot()))
		}
		return nil, out, nil
	}
}

func (in TransactionCreateInput) fields() (domain.TransactionFields, error) {
	var errs []string
	req := transport.TransactionRequest{
		Ticker:             in.Ticker,
		Kind:               in.Kind,
		Currency:           in.Currency,
		Date:               in.Date,
		Notes:              in.Notes,
		Active:             in.Active,
		Fractional:         in.Fractional,
		CommissionCurrency: in.CommissionCurrency,
		Exchange:           in.Exchange,
		Country:            in.Country,
		CompanyName:        in.CompanyName,
	}
	if d, err := decimal.NewFromString(strings.TrimSpace(in.Quantity)); err == nil {
		req.Quantity = d
	} else {
		errs = append(errs, "quantity must be a decimal")
	}
	if d, err := decimal.NewFromString(strings.TrimSpace(in.Price)); err == nil {
		req.Price = d
	} else {
		errs = append(errs, "price must be a decimal")
	}
	req.Fees = optionalDecimal(in.Fees, "fees", &errs)
	req.FractionalMultiplier = optionalDecimal(in.FractionalMultiplier, "fractional_multiplier", &errs)
	if len(errs) > 0 {
		return domain.TransactionFields{}, domain.NewError(domain.ErrCodeInvalid, strings.Join(errs, "; "))
	}
	return req.Fields()
}

func (in TransactionUpdateInput) patch() (domain.TransactionPatch, error) {
	var errs []string
	req := transport.TransactionPatchRequest{
		Ticker:             in.Ticker,
		Kind:               in.Kind,
		Currency:           in.Currency,
		Date:               in.Date,
		Notes:              in.Notes,
		Active:             in.Active,
		Fractional:         in.Fractional,
		CommissionCurrency: in.CommissionCurrency,
		Exchange:           in.Exchange,
		Country:            in.Country,
		CompanyName:        in.CompanyName,
	}
	if in.Quantity != nil {
		req.Quantity = optionalDecimal(*in.Quantity, "quantity", &errs)
	}
	if in.Price != nil {
		req.Price = optionalDecimal(*in.Price, "price", &errs)
	}
	if in.Fees != nil {
		req.Fees = optionalDecimal(*in.Fees, "fees", &errs)
	}
	if in.FractionalMultiplier != nil {
		req.FractionalMultiplier = optionalDecimal(*in.FractionalMultiplier, "fractional_multiplier", &errs)
	}
	if len(errs) > 0 {
		return domain.TransactionPatch{}, domain.NewError(domain.ErrCodeInvalid, strings.Join(errs, "; "))
	}
	return req.Patch()
}

func optionalDecimal(value, name string, errs *[]string) *decimal.Decimal {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		*errs = append(*errs, name+" must be a decimal")
		return nil
	}
	return &d
}

func requireID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", domain.NewError(domain.ErrCodeInvalid, "id is required")
	}
	return id, nil
}
