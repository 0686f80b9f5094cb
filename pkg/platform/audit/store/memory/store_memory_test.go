package memory

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "commitgood/pkg/platform/audit"
)

func seqLog(seq uint64, emitter common.Address) audit.Log {
	return audit.Log{Seq: seq, Emitter: emitter, Name: "Transfer"}
}

func TestInMemoryStore_EvictsOldest(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore(3)
	emitter := common.HexToAddress("0x01")

	for i := uint64(1); i <= 5; i++ {
		require.NoError(t, store.Append(ctx, seqLog(i, emitter)))
	}

	all, err := store.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, uint64(3), all[0].Seq)
	assert.Equal(t, uint64(5), all[2].Seq)
}

func TestInMemoryStore_Queries(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore(0)
	ledger := common.HexToAddress("0x0a")
	registry := common.HexToAddress("0x0b")

	require.NoError(t, store.Append(ctx, seqLog(1, registry), seqLog(2, ledger), seqLog(3, ledger)))

	recent, err := store.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, uint64(2), recent[0].Seq)

	byLedger, err := store.ListByEmitter(ctx, ledger)
	require.NoError(t, err)
	assert.Len(t, byLedger, 2)

	store.Clear()
	all, err := store.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
