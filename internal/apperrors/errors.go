package apperrors

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrConflict indicates the request conflicts with the current state of a resource.
var ErrConflict = errors.New("conflict")

// ErrConcurrency indicates the store aborted the unit of work because of a concurrent writer.
// The whole operation can be retried once.
var ErrConcurrency = errors.New("concurrent modification detected")

// ErrAmountMismatch indicates that scheduled amounts do not add up to the expected total.
var ErrAmountMismatch = errors.New("amount mismatch")

// ErrInternal indicates an unexpected failure.
var ErrInternal = errors.New("internal error")

// ValidationError names the rule an input failed. It unwraps to ErrValidation.
type ValidationError struct {
	Rule    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Rule, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError builds a ValidationError for the given rule.
func NewValidationError(rule, format string, args ...any) error {
	return &ValidationError{Rule: rule, Message: fmt.Sprintf(format, args...)}
}

// AmountMismatchError reports the expected and actual totals of a schedule.
type AmountMismatchError struct {
	Expected decimal.Decimal
	Actual   decimal.Decimal
}

func (e *AmountMismatchError) Error() string {
	return fmt.Sprintf("amount mismatch: expected total %s, got %s", e.Expected.StringFixed(2), e.Actual.StringFixed(2))
}

func (e *AmountMismatchError) Unwrap() error { return ErrAmountMismatch }

// AppError carries a status-like code alongside the wrapped cause.
type AppError struct {
	Code    int
	Message string
	Err     error
}

// NewAppError creates an AppError. Storage adapters use it to wrap driver failures.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// Rule names used by ValidationError across the core.
const (
	RuleMinLines          = "min_lines"
	RuleAccountExists     = "account_exists"
	RuleAccountActive     = "account_active"
	RuleDebitXorCredit    = "debit_xor_credit"
	RuleBalanced          = "balanced"
	RuleNonPositiveAmount = "non_positive_amount"
	RuleInvalidMethod     = "invalid_method"
	RuleInvalidCategory   = "invalid_category"
	RuleRequired          = "required"
	RuleClientMismatch    = "client_mismatch"
	RuleSchedule          = "schedule"
)
