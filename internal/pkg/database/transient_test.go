package database

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("boom"), false},
		{"deadline", context.DeadlineExceeded, true},
		{"wrapped deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), true},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, true},
		{"unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"already marked", fmt.Errorf("x: %w", ErrTransient), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestClassify(t *testing.T) {
	assert.Nil(t, Classify(nil))

	plain := errors.New("boom")
	assert.Same(t, plain, Classify(plain))

	err := Classify(context.DeadlineExceeded)
	assert.ErrorIs(t, err, ErrTransient)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRetry(t *testing.T) {
	policy := RetryPolicy{Attempts: 3, BaseDelay: time.Millisecond}

	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := Retry(context.Background(), policy, func(ctx context.Context) error {
			calls++
			if calls < 3 {
				return context.DeadlineExceeded
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up and marks transient", func(t *testing.T) {
		calls := 0
		err := Retry(context.Background(), policy, func(ctx context.Context) error {
			calls++
			return &pgconn.PgError{Code: "40P01"}
		})
		assert.ErrorIs(t, err, ErrTransient)
		assert.Equal(t, 3, calls)
	})

	t.Run("does not retry permanent errors", func(t *testing.T) {
		calls := 0
		permanent := errors.New("not found")
		err := Retry(context.Background(), policy, func(ctx context.Context) error {
			calls++
			return permanent
		})
		assert.ErrorIs(t, err, permanent)
		assert.Equal(t, 1, calls)
	})

	t.Run("runs once inside a transaction", func(t *testing.T) {
		calls := 0
		err := Retry(MarkInTx(context.Background()), policy, func(ctx context.Context) error {
			calls++
			return context.DeadlineExceeded
		})
		assert.ErrorIs(t, err, ErrTransient)
		assert.Equal(t, 1, calls)
	})
}

func TestInTx(t *testing.T) {
	assert.False(t, InTx(context.Background()))
	assert.True(t, InTx(MarkInTx(context.Background())))
}
