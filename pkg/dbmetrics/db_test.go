package dbmetrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOperationName(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"SELECT id FROM bookings", "select"},
		{"  insert INTO bookings (id) VALUES ($1)", "insert"},
		{"UPDATE availability_windows SET current_bookings = current_bookings + 1", "update"},
		{"DELETE FROM bookings", "delete"},
		{"VACUUM", "other"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, operationName(tt.query), tt.query)
	}
}

func TestGetExecutor_NoTransaction(t *testing.T) {
	db := Wrap(nil, nil)

	assert.False(t, IsInTransaction(context.Background()))
	assert.Same(t, db, GetExecutor(context.Background(), db))
}

func TestGetExecutor_PrefersTransaction(t *testing.T) {
	db := Wrap(nil, nil)
	tx := &Tx{parent: db}
	ctx := WithTx(context.Background(), tx)

	assert.True(t, IsInTransaction(ctx))
	assert.Same(t, tx, GetExecutor(ctx, db))
}
