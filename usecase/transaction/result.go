package transaction

import (
	"github.com/fastygo/portfolio/domain"
)

// Outcome discriminates the result variants shared by every transaction use case.
type Outcome string

const (
	OutcomeSuccess      Outcome = "SUCCESS"
	OutcomeNotFound     Outcome = "NOT_FOUND"
	OutcomePublishError Outcome = "PUBLISH_ERROR"
	OutcomeError        Outcome = "ERROR"
)

// CreateResult is one of Success, PublishError or CreateError.
type CreateResult interface {
	Outcome() Outcome
	isCreateResult()
}

// UpdateResult is one of Success, NotFound, PublishError or UpdateError.
type UpdateResult interface {
	Outcome() Outcome
	isUpdateResult()
}

// DeleteResult is one of Success, NotFound, PublishError or DeleteError.
type DeleteResult interface {
	Outcome() Outcome
	isDeleteResult()
}

// Success means the write committed and every event was accepted by the log.
type Success struct {
	Transaction *domain.Transaction
}

func (Success) Outcome() Outcome { return OutcomeSuccess }
func (Success) isCreateResult()  {}
func (Success) isUpdateResult()  {}
func (Success) isDeleteResult()  {}

// NotFound means the target transaction does not exist; nothing was written.
type NotFound struct {
	ID string
}

func (NotFound) Outcome() Outcome { return OutcomeNotFound }
func (NotFound) isUpdateResult()  {}
func (NotFound) isDeleteResult()  {}

// PublishError means the write committed but the log did not accept every event.
// Retrying must target publication only; rerunning the use case repeats the write.
type PublishError struct {
	Transaction *domain.Transaction
	Cause       error
	Unpublished []domain.Event
}

func (PublishError) Outcome() Outcome { return OutcomePublishError }
func (PublishError) isCreateResult()  {}
func (PublishError) isUpdateResult()  {}
func (PublishError) isDeleteResult()  {}

// CreateError means the insert did not commit and no event other than the
// creation-error notice was published.
type CreateError struct {
	Code    domain.ErrorCode
	Command CreateCommand
	Cause   error
}

func (CreateError) Outcome() Outcome { return OutcomeError }
func (CreateError) isCreateResult()  {}

type UpdateError struct {
	Code    domain.ErrorCode
	Command UpdateCommand
	Cause   error
}

func (UpdateError) Outcome() Outcome { return OutcomeError }
func (UpdateError) isUpdateResult()  {}

type DeleteError struct {
	Code    domain.ErrorCode
	Command DeleteCommand
	Cause   error
}

func (DeleteError) Outcome() Outcome { return OutcomeError }
func (DeleteError) isDeleteResult()  {}
