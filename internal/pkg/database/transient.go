package database

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrTransient marks store failures worth retrying: timeouts, dropped
// connections and serialization conflicts.
var ErrTransient = errors.New("transient store error")

// SQLSTATE classes treated as transient.
var transientCodes = map[string]bool{
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
	"57P01": true, // admin_shutdown
	"57014": true, // query_canceled (statement_timeout)
	"08000": true,
	"08003": true,
	"08006": true,
}

// IsTransient reports whether err is a timeout or connectivity failure.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTransient) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if pgconn.Timeout(err) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return transientCodes[pgErr.Code]
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// Classify wraps transient failures with ErrTransient and leaves others untouched.
func Classify(err error) error {
	if err == nil || errors.Is(err, ErrTransient) {
		return err
	}
	if IsTransient(err) {
		return fmt.Errorf("%w: %w", ErrTransient, err)
	}
	return err
}

// RetryPolicy bounds retries of idempotent reads.
type RetryPolicy struct {
	Attempts  int
	BaseDelay time.Duration
}

// DefaultRetry is three attempts with 50ms, 100ms backoff.
var DefaultRetry = RetryPolicy{Attempts: 3, BaseDelay: 50 * time.Millisecond}

type inTxKey struct{}

// MarkInTx records on ctx that a transaction is open. Transactors call it
// for the ctx they hand to fn.
func MarkInTx(ctx context.Context) context.Context {
	return context.WithValue(ctx, inTxKey{}, true)
}

// InTx reports whether ctx runs inside a transaction.
func InTx(ctx context.Context) bool {
	v, _ := ctx.Value(inTxKey{}).(bool)
	return v
}

// Retry runs fn until it succeeds, returns a non-transient error, or the
// attempts run out. Only use it for reads. Inside a transaction fn runs
// once: a failed statement aborts the transaction.
func Retry(ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) error) error {
	attempts := policy.Attempts
	if attempts < 1 || InTx(ctx) {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(ctx); err == nil || !IsTransient(err) {
			return err
		}
		if i == attempts-1 {
			break
		}
		delay := policy.BaseDelay << i
		select {
		case <-ctx.Done():
			return Classify(ctx.Err())
		case <-time.After(delay):
		}
	}
	return Classify(err)
}
