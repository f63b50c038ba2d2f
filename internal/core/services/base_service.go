package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/SscSPs/estate_ledger_core/internal/apperrors"
	portsrepo "github.com/SscSPs/estate_ledger_core/internal/core/ports/repositories"
	"github.com/SscSPs/estate_ledger_core/internal/middleware"
	"github.com/SscSPs/estate_ledger_core/internal/platform/metrics"
)

// Default reference code prefixes.
const (
	DefaultJournalRefPrefix = "JE"
	DefaultReceiptRefPrefix = "RCP"
)

// serviceOptions collects the optional collaborators of the services.
type serviceOptions struct {
	clock            func() time.Time
	balanceCache     portsrepo.BalanceCache
	journalRefPrefix string
	receiptRefPrefix string
	receiptPosting   *ReceiptPosting
}

// ServiceOption is a functional option for configuring the services
type ServiceOption func(*serviceOptions)

// WithClock replaces time.Now, mostly for tests.
func WithClock(clock func() time.Time) ServiceOption {
	return func(o *serviceOptions) {
		o.clock = clock
	}
}

// WithBalanceCache makes balance reads go through cache and postings invalidate it.
func WithBalanceCache(cache portsrepo.BalanceCache) ServiceOption {
	return func(o *serviceOptions) {
		o.balanceCache = cache
	}
}

// WithJournalRefPrefix sets the prefix of journal reference codes.
func WithJournalRefPrefix(prefix string) ServiceOption {
	return func(o *serviceOptions) {
		o.journalRefPrefix = prefix
	}
}

// WithReceiptRefPrefix sets the prefix of receipt reference codes.
func WithReceiptRefPrefix(prefix string) ServiceOption {
	return func(o *serviceOptions) {
		o.receiptRefPrefix = prefix
	}
}

// WithReceiptPosting books every receipt into the journal.
func WithReceiptPosting(posting ReceiptPosting) ServiceOption {
	return func(o *serviceOptions) {
		o.receiptPosting = &posting
	}
}

func applyOptions(options []ServiceOption) serviceOptions {
	o := serviceOptions{
		clock:            time.Now,
		journalRefPrefix: DefaultJournalRefPrefix,
		receiptRefPrefix: DefaultReceiptRefPrefix,
	}
	for _, opt := range options {
		opt(&o)
	}
	return o
}

// BaseService provides common functionality for all services
type BaseService struct {
	clock        func() time.Time
	balanceCache portsrepo.BalanceCache
}

func newBaseService(o serviceOptions) BaseService {
	return BaseService{clock: o.clock, balanceCache: o.balanceCache}
}

// Now returns the current time in UTC.
func (s *BaseService) Now() time.Time {
	if s.clock == nil {
		return time.Now().UTC()
	}
	return s.clock().UTC()
}

// GetLogger gets the logger from context or returns a default one
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	return middleware.GetLoggerFromCtx(ctx)
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	args := make([]any, 0, len(keyvals)+1)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	logger.Error(msg, args...)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Info(msg, keyvals...)
}

// LogDebug logs a debug message with consistent formatting
func (s *BaseService) LogDebug(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Debug(msg, keyvals...)
}

// LogWarn logs a warning with consistent formatting
func (s *BaseService) LogWarn(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Warn(msg, keyvals...)
}

// retryOnConcurrency runs fn and, when the store reports a concurrency
// conflict, runs it exactly once more. fn must redo all of its reads.
func (s *BaseService) retryOnConcurrency(ctx context.Context, operation string, fn func() error) error {
	err := fn()
	if !errors.Is(err, apperrors.ErrConcurrency) {
		return err
	}
	metrics.ConcurrencyRetries.WithLabelValues(operation).Inc()
	s.LogWarn(ctx, "Retrying after concurrency conflict", slog.String("operation", operation), slog.String("error", err.Error()))
	return fn()
}

// logUnlessExpected logs err at error level unless it is a caller-side failure.
func (s *BaseService) logUnlessExpected(ctx context.Context, err error, msg string, keyvals ...any) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound),
		errors.Is(err, apperrors.ErrValidation),
		errors.Is(err, apperrors.ErrConflict),
		errors.Is(err, apperrors.ErrDuplicate),
		errors.Is(err, apperrors.ErrAmountMismatch):
		s.LogWarn(ctx, msg, append([]any{slog.String("error", err.Error())}, keyvals...)...)
	default:
		s.LogError(ctx, err, msg, keyvals...)
	}
}

// invalidateBalances drops cached balances. Failures only make reads staler, so they are logged.
func (s *BaseService) invalidateBalances(ctx context.Context, accountIDs ...string) {
	if s.balanceCache == nil || len(accountIDs) == 0 {
		return
	}
	if err := s.balanceCache.Invalidate(ctx, accountIDs...); err != nil {
		s.LogWarn(ctx, "Failed to invalidate cached balances", slog.String("error", err.Error()), slog.Any("account_ids", accountIDs))
	}
}
