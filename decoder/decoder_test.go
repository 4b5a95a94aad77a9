package decoder

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	acctSource = "5Q544fKrFoe6tsEbD7S8EmxGTJYAKtTVhAW5Q5pge4j1"
	acctMint   = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	acctDest   = "7YttLkHDoNj9wyDur5pM1ejNaAvT9X4eqaYcHQqtj2G5"
	acctOwner  = "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"
	acctExtra  = "GThUX1Atko4tqhN2NaiTazWSeFWMuiUvfFnyJyUghFMJ"
)

func ixData(sub byte, totalLen int) []byte {
	data := make([]byte, totalLen)
	data[0] = ExtensionDiscriminator
	data[1] = sub
	return data
}

func TestDecodeNotApplicable(t *testing.T) {
	accounts := []string{acctSource, acctMint, acctDest, acctOwner}

	// wrong program
	assert.Nil(t, Decode("11111111111111111111111111111111", ixData(7, 130), accounts))

	// wrong extension discriminator, regardless of program
	bad := ixData(7, 130)
	bad[0] = 26
	assert.Nil(t, Decode(TokenExtensionProgramID, bad, accounts))

	// too short to carry a discriminator pair
	assert.Nil(t, Decode(TokenExtensionProgramID, []byte{ExtensionDiscriminator}, accounts))
	assert.Nil(t, Decode(TokenExtensionProgramID, nil, accounts))
}

func TestDecodeUnknownTypeFallback(t *testing.T) {
	dec := Decode(TokenExtensionProgramID, ixData(99, 2), nil)
	require.NotNil(t, dec)
	assert.Equal(t, TypeUnknown, dec.Type)
	assert.Empty(t, dec.PublicAmount)
	assert.Nil(t, dec.CiphertextLo)
}

func TestDecodeUnknownBestEffortAccounts(t *testing.T) {
	dec := Decode(TokenExtensionProgramID, ixData(99, 2), []string{acctSource, acctMint})
	require.NotNil(t, dec)
	assert.Equal(t, acctSource, dec.SourceTokenAccount)
	assert.Equal(t, acctMint, dec.Mint)
	assert.Empty(t, dec.SourceOwner)

	dec = Decode(TokenExtensionProgramID, ixData(99, 2), []string{acctSource, acctMint, acctOwner})
	require.NotNil(t, dec)
	assert.Equal(t, acctOwner, dec.SourceOwner)
}

func TestDecodeTransferCiphertextBoundary(t *testing.T) {
	accounts := []string{acctSource, acctMint, acctDest, acctOwner}

	// one byte short of the full layout: ciphertexts stay absent
	dec := Decode(TokenExtensionProgramID, ixData(7, 129), accounts)
	require.NotNil(t, dec)
	assert.Equal(t, TypeTransfer, dec.Type)
	assert.Nil(t, dec.CiphertextLo)
	assert.Nil(t, dec.CiphertextHi)

	// exact length: two distinct 64-byte halves from offsets [2,66) and [66,130)
	data := ixData(7, 130)
	for i := 2; i < 66; i++ {
		data[i] = 0xAA
	}
	for i := 66; i < 130; i++ {
		data[i] = 0xBB
	}
	dec = Decode(TokenExtensionProgramID, data, accounts)
	require.NotNil(t, dec)
	require.Len(t, dec.CiphertextLo, 64)
	require.Len(t, dec.CiphertextHi, 64)
	assert.Equal(t, byte(0xAA), dec.CiphertextLo[0])
	assert.Equal(t, byte(0xAA), dec.CiphertextLo[63])
	assert.Equal(t, byte(0xBB), dec.CiphertextHi[0])
	assert.Equal(t, byte(0xBB), dec.CiphertextHi[63])
	assert.Empty(t, dec.PublicAmount)
}

func TestDecodeTransferAccountRoles(t *testing.T) {
	// proof-context variant: owner at index 7
	eight := []string{acctSource, acctMint, acctDest, acctExtra, acctExtra, acctExtra, acctExtra, acctOwner}
	dec := Decode(TokenExtensionProgramID, ixData(7, 130), eight)
	require.NotNil(t, dec)
	assert.Equal(t, acctSource, dec.SourceTokenAccount)
	assert.Equal(t, acctMint, dec.Mint)
	assert.Equal(t, acctDest, dec.DestTokenAccount)
	assert.Equal(t, acctOwner, dec.SourceOwner)

	// short variant: owner at index 3
	four := []string{acctSource, acctMint, acctDest, acctOwner}
	dec = Decode(TokenExtensionProgramID, ixData(13, 130), four)
	require.NotNil(t, dec)
	assert.Equal(t, TypeTransferWithFee, dec.Type)
	assert.Equal(t, acctOwner, dec.SourceOwner)

	// below every threshold: no fabricated roles
	dec = Decode(TokenExtensionProgramID, ixData(7, 130), []string{acctSource, acctMint, acctDest})
	require.NotNil(t, dec)
	assert.Empty(t, dec.SourceTokenAccount)
	assert.Empty(t, dec.Mint)
	assert.Empty(t, dec.SourceOwner)
}

func TestDecodeDepositPublicAmount(t *testing.T) {
	data := ixData(5, 10)
	binary.LittleEndian.PutUint64(data[2:], 1000)

	dec := Decode(TokenExtensionProgramID, data, []string{acctDest, acctMint, acctOwner})
	require.NotNil(t, dec)
	assert.Equal(t, TypeDeposit, dec.Type)
	assert.Equal(t, "1000", dec.PublicAmount)
	assert.Nil(t, dec.CiphertextLo)

	// deposit credits the destination account; the owner plays both roles
	assert.Equal(t, acctDest, dec.DestTokenAccount)
	assert.Equal(t, acctMint, dec.Mint)
	assert.Equal(t, acctOwner, dec.SourceOwner)
	assert.Equal(t, acctOwner, dec.DestOwner)
	assert.Empty(t, dec.SourceTokenAccount)
}

func TestDecodeDepositShortBuffer(t *testing.T) {
	dec := Decode(TokenExtensionProgramID, ixData(5, 9), nil)
	require.NotNil(t, dec)
	assert.Equal(t, TypeDeposit, dec.Type)
	assert.Empty(t, dec.PublicAmount)
}

func TestDecodeWithdrawAccountRoles(t *testing.T) {
	data := ixData(6, 10)
	binary.LittleEndian.PutUint64(data[2:], 250)

	dec := Decode(TokenExtensionProgramID, data, []string{acctSource, acctMint, acctOwner})
	require.NotNil(t, dec)
	assert.Equal(t, TypeWithdraw, dec.Type)
	assert.Equal(t, "250", dec.PublicAmount)
	assert.Equal(t, acctSource, dec.SourceTokenAccount)
	assert.Empty(t, dec.DestTokenAccount)
	assert.Equal(t, acctOwner, dec.SourceOwner)
	assert.Equal(t, acctOwner, dec.DestOwner)
}

func TestDecodeApplyPendingBalance(t *testing.T) {
	dec := Decode(TokenExtensionProgramID, ixData(8, 2), []string{acctSource, acctOwner})
	require.NotNil(t, dec)
	assert.Equal(t, TypeApplyPendingBalance, dec.Type)
	assert.Equal(t, acctSource, dec.SourceTokenAccount)
	assert.Equal(t, acctSource, dec.DestTokenAccount)
	assert.Equal(t, acctOwner, dec.SourceOwner)
	assert.Equal(t, acctOwner, dec.DestOwner)
	assert.Empty(t, dec.Mint)
	assert.Empty(t, dec.PublicAmount)
}

func TestDecodeAccountConfigOps(t *testing.T) {
	for _, sub := range []byte{2, 3, 4, 9, 10, 11, 12} {
		dec := Decode(TokenExtensionProgramID, ixData(sub, 2), []string{acctSource, acctMint, acctOwner})
		require.NotNil(t, dec)
		assert.NotEqual(t, TypeUnknown, dec.Type)
		assert.Equal(t, acctSource, dec.SourceTokenAccount, "sub %d", sub)
		assert.Equal(t, acctSource, dec.DestTokenAccount, "sub %d", sub)
		assert.Equal(t, acctMint, dec.Mint, "sub %d", sub)
		assert.Equal(t, acctOwner, dec.SourceOwner, "sub %d", sub)
		assert.Equal(t, acctOwner, dec.DestOwner, "sub %d", sub)
	}
}

func TestDecodeMintOps(t *testing.T) {
	dec := Decode(TokenExtensionProgramID, ixData(0, 2), []string{acctMint})
	require.NotNil(t, dec)
	assert.Equal(t, TypeInitializeMint, dec.Type)
	assert.Equal(t, acctMint, dec.Mint)
	assert.Empty(t, dec.SourceTokenAccount)

	dec = Decode(TokenExtensionProgramID, ixData(1, 2), []string{acctMint})
	require.NotNil(t, dec)
	assert.Equal(t, TypeUpdateMint, dec.Type)
	assert.Equal(t, acctMint, dec.Mint)
}

func TestDecodeKeepsRawData(t *testing.T) {
	data := ixData(5, 10)
	binary.LittleEndian.PutUint64(data[2:], 42)
	dec := Decode(TokenExtensionProgramID, data, nil)
	require.NotNil(t, dec)
	assert.Equal(t, data, dec.Data)
}
