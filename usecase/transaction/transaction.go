package transaction

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fastygo/portfolio/domain"
	"github.com/fastygo/portfolio/pkg/logger"
	"github.com/fastygo/portfolio/repository"
	"github.com/fastygo/portfolio/usecase"
)

type CreateCommand struct {
	Fields domain.TransactionFields
}

type UpdateCommand struct {
	ID    string
	Patch domain.TransactionPatch
}

type DeleteCommand struct {
	ID string
}

// UseCase orchestrates transaction writes: persist first, then publish the events the
// write produced. The two steps are not atomic and the result says which one failed.
type UseCase struct {
	transactions repository.TransactionRepository
	publisher    usecase.EventPublisher
	buffer       usecase.EventBuffer
	logger       *zap.Logger
}

// New wires the use case. buffer may be nil, in which case unpublished events are only
// reported through PublishError.
func New(transactions repository.TransactionRepository, publisher usecase.EventPublisher, buffer usecase.EventBuffer, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		transactions: transactions,
		publisher:    publisher,
		buffer:       buffer,
		logger:       logger,
	}
}

func (uc *UseCase) Get(ctx context.Context, id string) (*domain.Transaction, error) {
	return uc.transactions.FindByID(ctx, id)
}

func (uc *UseCase) List(ctx context.Context, filter repository.TransactionFilter) ([]*domain.Transaction, error) {
	return uc.transactions.List(ctx, filter)
}

func (uc *UseCase) Create(ctx context.Context, cmd CreateCommand) CreateResult {
	log := logger.WithRequestID(ctx, uc.logger)

	tx := domain.NewTransaction(cmd.Fields)
	saved, err := uc.transactions.Save(ctx, tx)
	if err != nil {
		code := classify(err)
		log.Error("transaction insert failed",
			zap.String("ticker", cmd.Fields.Ticker),
			zap.String("code", string(code)),
			zap.Error(err))
		uc.reportCreationFailure(ctx, log, cmd, err)
		return CreateError{Code: code, Command: cmd, Cause: err}
	}
	if saved == nil {
		saved = tx
	}

	if failed := uc.publishAll(ctx, log, saved.PopEvents()); failed != nil {
		return failed.result(saved)
	}
	return Success{Transaction: saved}
}

func (uc *UseCase) Update(ctx context.Context, cmd UpdateCommand) UpdateResult {
	log := logger.WithRequestID(ctx, uc.logger).With(zap.String("transaction_id", cmd.ID))

	tx, err := uc.load(ctx, cmd.ID)
	if err != nil {
		if errors.Is(err, domain.ErrTransactionNotFound) {
			return NotFound{ID: cmd.ID}
		}
		log.Error("transaction lookup failed", zap.Error(err))
		return UpdateError{Code: classify(err), Command: cmd, Cause: err}
	}

	tx.Update(cmd.Patch)
	updated, err := uc.transactions.Update(ctx, tx)
	if err != nil {
		code := classify(err)
		log.Error("transaction update failed", zap.String("code", string(code)), zap.Error(err))
		return UpdateError{Code: code, Command: cmd, Cause: err}
	}
	if updated == nil {
		updated = tx
	}

	if failed := uc.publishAll(ctx, log, updated.PopEvents()); failed != nil {
		return failed.result(updated)
	}
	return Success{Transaction: updated}
}

// Delete removes the transaction and publishes a TransactionDeleted built from the
// snapshot it loaded. The loaded aggregate's own buffer is not involved.
func (uc *UseCase) Delete(ctx context.Context, cmd DeleteCommand) DeleteResult {
	log := logger.WithRequestID(ctx, uc.logger).With(zap.String("transaction_id", cmd.ID))

	tx, err := uc.load(ctx, cmd.ID)
	if err != nil {
		if errors.Is(err, domain.ErrTransactionNotFound) {
			return NotFound{ID: cmd.ID}
		}
		log.Error("transaction lookup failed", zap.Error(err))
		return DeleteError{Code: classify(err), Command: cmd, Cause: err}
	}

	deleted, err := uc.transactions.DeleteByID(ctx, cmd.ID)
	if err != nil {
		code := classify(err)
		log.Error("transaction delete failed", zap.String("code", string(code)), zap.Error(err))
		return DeleteError{Code: code, Command: cmd, Cause: err}
	}
	if !deleted {
		return NotFound{ID: cmd.ID}
	}

	events := []domain.Event{domain.NewTransactionDeleted(tx.Snapshot())}
	if failed := uc.publishAll(ctx, log, events); failed != nil {
		return failed.result(tx)
	}
	return Success{Transaction: tx}
}

func (uc *UseCase) load(ctx context.Context, id string) (*domain.Transaction, error) {
	tx, err := uc.transactions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, domain.ErrTransactionNotFound
	}
	return tx, nil
}

// reportCreationFailure publishes the creation-error notice. Its outcome never changes
// the already decided result.
func (uc *UseCase) reportCreationFailure(ctx context.Context, log *zap.Logger, cmd CreateCommand, cause error) {
	event := domain.NewTransactionCreationError(cmd.Fields, cause)
	if err := uc.publisher.Publish(ctx, event); err != nil {
		log.Warn("creation error event not published",
			zap.String("event_id", event.EventID()),
			zap.Error(err))
	}
}

type publishFailure struct {
	cause       error
	unpublished []domain.Event
}

func (f *publishFailure) result(tx *domain.Transaction) PublishError {
	return PublishError{Transaction: tx, Cause: f.cause, Unpublished: f.unpublished}
}

// publishAll fans the events out concurrently and waits for every attempt. It returns
// nil when nothing was published or everything was accepted. The reported cause is the
// first failure in event order.
func (uc *UseCase) publishAll(ctx context.Context, log *zap.Logger, events []domain.Event) *publishFailure {
	if len(events) == 0 {
		return nil
	}

	errs := make([]error, len(events))
	var g errgroup.Group
	for i, ev := range events {
		g.Go(func() error {
			errs[i] = uc.publisher.Publish(ctx, ev)
			return errs[i]
		})
	}
	_ = g.Wait()

	var failure *publishFailure
	for i, err := range errs {
		if err == nil {
			continue
		}
		if failure == nil {
			failure = &publishFailure{cause: err}
		}
		failure.unpublished = append(failure.unpublished, events[i])
		log.Warn("event not published",
			zap.String("event_id", events[i].EventID()),
			zap.String("kind", string(events[i].Kind())),
			zap.Error(err))
	}
	if failure == nil {
		return nil
	}

	if uc.buffer != nil {
		if err := uc.buffer.Park(ctx, failure.unpublished, failure.cause); err != nil {
			log.Error("failed to park unpublished events", zap.Int("count", len(failure.unpublished)), zap.Error(err))
		}
	}
	return failure
}

// classify maps a write failure to exactly one error code.
func classify(err error) domain.ErrorCode {
	return domain.CodeOf(err, domain.ErrCodePersistence)
}
