package state_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"commitgood/internal/state"
	"commitgood/internal/state/memory"
)

func TestCodecMissingKeysReadAsZero(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()

	b, err := state.GetBool(ctx, backend, "missing")
	require.NoError(t, err)
	assert.False(t, b)

	u, err := state.GetUint256(ctx, backend, "missing")
	require.NoError(t, err)
	assert.True(t, u.IsZero())

	i, err := state.GetBigInt(ctx, backend, "missing")
	require.NoError(t, err)
	assert.Equal(t, 0, i.Sign())

	found, err := state.GetJSON(ctx, backend, "missing", &struct{}{})
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCodecRoundTripThroughCommit(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()
	exec, err := state.NewExecutor(ctx, backend)
	require.NoError(t, err)

	max := new(uint256.Int).SetAllOne()
	rate := big.NewInt(-42)

	_, err = exec.Execute(ctx, "codec", func(_ context.Context, txn *state.Txn) error {
		state.PutBool(txn, "flag", true)
		state.PutUint256(txn, "amount", max)
		state.PutBigInt(txn, "rate", rate)
		state.PutByte(txn, "status", 2)
		return state.PutJSON(txn, "record", map[string]string{"a": "b"})
	})
	require.NoError(t, err)

	flag, err := state.GetBool(ctx, backend, "flag")
	require.NoError(t, err)
	assert.True(t, flag)

	amount, err := state.GetUint256(ctx, backend, "amount")
	require.NoError(t, err)
	assert.Equal(t, max.Dec(), amount.Dec())

	gotRate, err := state.GetBigInt(ctx, backend, "rate")
	require.NoError(t, err)
	assert.Equal(t, 0, rate.Cmp(gotRate))

	status, err := state.GetByte(ctx, backend, "status")
	require.NoError(t, err)
	assert.Equal(t, byte(2), status)

	var record map[string]string
	found, err := state.GetJSON(ctx, backend, "record", &record)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "b", record["a"])
}
