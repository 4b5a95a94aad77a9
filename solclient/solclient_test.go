package solclient

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	keyA    = solana.MustPublicKeyFromBase58("5Q544fKrFoe6tsEbD7S8EmxGTJYAKtTVhAW5Q5pge4j1")
	keyB    = solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	keyC    = solana.MustPublicKeyFromBase58("9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM")
	loadedW = solana.MustPublicKeyFromBase58("7YttLkHDoNj9wyDur5pM1ejNaAvT9X4eqaYcHQqtj2G5")
	loadedR = solana.MustPublicKeyFromBase58("GThUX1Atko4tqhN2NaiTazWSeFWMuiUvfFnyJyUghFMJ")
)

func TestNormalize(t *testing.T) {
	parsed := &solana.Transaction{
		Message: solana.Message{
			AccountKeys: []solana.PublicKey{keyA, keyB, keyC},
			Instructions: []solana.CompiledInstruction{
				{
					ProgramIDIndex: 2,
					Accounts:       []uint16{0, 1, 3},
					Data:           solana.Base58([]byte{27, 5, 1, 0, 0, 0, 0, 0, 0, 0}),
				},
			},
		},
	}
	blockTime := solana.UnixTimeSeconds(1700000000)
	res := &rpc.GetTransactionResult{
		Slot:      4242,
		BlockTime: &blockTime,
		Meta: &rpc.TransactionMeta{
			LoadedAddresses: rpc.LoadedAddresses{
				Writable: []solana.PublicKey{loadedW},
				ReadOnly: []solana.PublicKey{loadedR},
			},
			PostTokenBalances: []rpc.TokenBalance{
				{
					AccountIndex: 0,
					Mint:         keyB,
					Owner:        &keyC,
					UiTokenAmount: &rpc.UiTokenAmount{
						Amount:   "1000",
						Decimals: 6,
					},
				},
			},
		},
	}

	tx := normalize(res, parsed)
	require.NotNil(t, tx)
	assert.Equal(t, uint64(4242), tx.Slot)
	require.NotNil(t, tx.BlockTime)
	assert.Equal(t, int64(1700000000), *tx.BlockTime)
	assert.False(t, tx.Failed)

	// loaded addresses extend the static key list, writable first
	require.Len(t, tx.AccountKeys, 5)
	assert.Equal(t, keyA.String(), tx.AccountKeys[0])
	assert.Equal(t, loadedW.String(), tx.AccountKeys[3])
	assert.Equal(t, loadedR.String(), tx.AccountKeys[4])

	require.Len(t, tx.Instructions, 1)
	ix := tx.Instructions[0]
	assert.Equal(t, 2, ix.ProgramIDIndex)
	assert.Equal(t, []int{0, 1, 3}, ix.AccountIndices)
	assert.Equal(t, []byte{27, 5, 1, 0, 0, 0, 0, 0, 0, 0}, ix.Data)

	require.Len(t, tx.PostTokenBalances, 1)
	tb := tx.PostTokenBalances[0]
	assert.Equal(t, 0, tb.AccountIndex)
	assert.Equal(t, keyB.String(), tb.Mint)
	assert.Equal(t, keyC.String(), tb.Owner)
	assert.Equal(t, uint8(6), tb.Decimals)
}

func TestNormalizeFailedTransaction(t *testing.T) {
	parsed := &solana.Transaction{
		Message: solana.Message{AccountKeys: []solana.PublicKey{keyA}},
	}
	res := &rpc.GetTransactionResult{
		Slot: 1,
		Meta: &rpc.TransactionMeta{
			Err: map[string]interface{}{"InstructionError": []interface{}{0, "Custom"}},
		},
	}

	tx := normalize(res, parsed)
	require.NotNil(t, tx)
	assert.True(t, tx.Failed)
}

func TestNormalizeNilMeta(t *testing.T) {
	parsed := &solana.Transaction{
		Message: solana.Message{AccountKeys: []solana.PublicKey{keyA, keyB}},
	}
	res := &rpc.GetTransactionResult{Slot: 9}

	tx := normalize(res, parsed)
	require.NotNil(t, tx)
	assert.False(t, tx.Failed)
	assert.Nil(t, tx.BlockTime)
	assert.Len(t, tx.AccountKeys, 2)
	assert.Empty(t, tx.PreTokenBalances)
}

func TestNewRejectsInvalidProgramAddress(t *testing.T) {
	log := newTestLogger()
	_, err := New("http://localhost:8899", "not-base58!", log)
	require.Error(t, err)

	client, err := New("http://localhost:8899", keyA.String(), log)
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func newTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	return log
}
