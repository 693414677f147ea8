package domain

import "fmt"

// AppError is the base domain error type.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// Standard domain error constructors.

func ErrNotFound(entity, id string) *AppError {
	return &AppError{Code: "NOT_FOUND", Message: fmt.Sprintf("%s %s not found", entity, id), Status: 404}
}

func ErrConflict(msg string) *AppError {
	return &AppError{Code: "CONFLICT", Message: msg, Status: 409}
}

func ErrValidation(msg string) *AppError {
	return &AppError{Code: "VALIDATION_ERROR", Message: msg, Status: 400}
}

// ErrWrongState signals an operation attempted in an illegal draw or payout state.
func ErrWrongState(msg string) *AppError {
	return &AppError{Code: "WRONG_STATE", Message: msg, Status: 409}
}

// ErrInsufficientPool signals a debit that would drive a fund pool negative.
func ErrInsufficientPool(pool PoolName, available, requested int64) *AppError {
	return &AppError{
		Code:    "INSUFFICIENT_POOL",
		Message: fmt.Sprintf("%s has %d, requested %d", pool, available, requested),
		Status:  409,
	}
}

// ErrInsufficientReserve signals that the reserve cannot cover fixed-tier payouts.
func ErrInsufficientReserve(available, required int64) *AppError {
	return &AppError{
		Code:    "INSUFFICIENT_RESERVE",
		Message: fmt.Sprintf("reserve pool has %d, match1 payouts require %d", available, required),
		Status:  409,
	}
}

// ErrTransactionUsed signals a deposit hash already claimed by another ticket.
func ErrTransactionUsed(txHash string) *AppError {
	return &AppError{Code: "TRANSACTION_USED", Message: fmt.Sprintf("transaction already used: %s", txHash), Status: 409}
}

// ErrChainUnavailable signals a transient blockchain RPC failure after the
// retry budget is exhausted.
func ErrChainUnavailable(msg string, cause error) *AppError {
	return &AppError{Code: "CHAIN_UNAVAILABLE", Message: msg, Status: 503, Cause: cause}
}

// ErrIntegrity signals a fatal invariant violation (seed hash mismatch,
// snapshot that does not reconstruct). Mutation for the affected lottery
// must halt until an operator intervenes.
func ErrIntegrity(msg string) *AppError {
	return &AppError{Code: "INTEGRITY_VIOLATION", Message: msg, Status: 500}
}

func ErrInternal(msg string, cause error) *AppError {
	return &AppError{Code: "INTERNAL_ERROR", Message: msg, Status: 500, Cause: cause}
}
