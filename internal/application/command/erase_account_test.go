package command_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wellness-hub/rewards-engine/internal/application/command"
	"github.com/wellness-hub/rewards-engine/internal/domain/ledger"
	"github.com/wellness-hub/rewards-engine/internal/domain/shared"
	"github.com/wellness-hub/rewards-engine/pkg/keylock"
)

func TestEraseAccount(t *testing.T) {
	f := newCommandFixture(t)
	ctx := context.Background()
	f.seedAccount(t, "user-1")

	record := command.NewRecordActivityHandler(f.store, f.tracker, f.engine)
	_, err := record.Handle(ctx, command.RecordActivityCommand{
		UserID:   "user-1",
		Category: string(ledger.CategoryDailyCheckin),
		Mood:     9,
	})
	require.NoError(t, err)

	before, err := f.mem.Ledger().ListByUser(ctx, "user-1", 0)
	require.NoError(t, err)
	require.NotEmpty(t, before)

	handler := command.NewEraseAccountHandler(f.mem.Accounts(), f.mem.Ledger(), f.mem.Streaks(), keylock.New(), nil)
	result, err := handler.Handle(ctx, command.EraseAccountCommand{UserID: "user-1"})
	require.NoError(t, err)
	assert.Equal(t, len(before), result.RedactedTransactions)

	_, err = f.mem.Accounts().Get(ctx, "user-1")
	assert.Error(t, err, "the account itself is gone")

	streaks, err := f.mem.Streaks().ListByUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, streaks)

	// Journal rows survive for auditability, stripped of personal content.
	after, err := f.mem.Ledger().ListByUser(ctx, "user-1", 0)
	require.NoError(t, err)
	require.Len(t, after, len(before))
	for _, tx := range after {
		assert.Empty(t, tx.Description)
		assert.Nil(t, tx.Metadata)
		assert.NotZero(t, tx.Amount, "amounts are kept")
	}
}

func TestEraseAccount_MissingAccount(t *testing.T) {
	f := newCommandFixture(t)

	handler := command.NewEraseAccountHandler(f.mem.Accounts(), f.mem.Ledger(), f.mem.Streaks(), keylock.New(), nil)
	_, err := handler.Handle(context.Background(), command.EraseAccountCommand{UserID: "ghost"})
	assert.ErrorIs(t, err, shared.ErrAccountNotFound)
}
