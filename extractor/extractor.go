package extractor

import (
	"encoding/base64"

	"github.com/solascan/cttracker/decoder"
	"github.com/solascan/cttracker/models"
)

// Instruction is one top-level instruction with unresolved account indices
type Instruction struct {
	ProgramIDIndex int
	AccountIndices []int
	Data           []byte
}

// TokenBalance is one entry of the pre/post token-balance side channel
type TokenBalance struct {
	AccountIndex int
	Mint         string
	Owner        string
	Decimals     uint8
}

// Transaction is a ledger transaction normalized to what extraction needs.
// AccountKeys already includes lookup-table loaded addresses for versioned
// transactions (writable first, then readonly).
type Transaction struct {
	Slot              uint64
	BlockTime         *int64
	Failed            bool
	AccountKeys       []string
	Instructions      []Instruction
	PreTokenBalances  []TokenBalance
	PostTokenBalances []TokenBalance
}

// Draft is one extracted activity plus side-channel mint metadata for the
// directory upserts
type Draft struct {
	Activity     models.Activity
	MintDecimals *uint8
}

// Extract decodes every top-level confidential-transfer instruction of one
// transaction. Failed transactions yield nothing; inner (CPI) instructions
// are not traversed.
func Extract(tx *Transaction, signature string) []Draft {
	if tx == nil || tx.Failed {
		return nil
	}

	ownerByAccount := make(map[string]string)
	mintByAccount := make(map[string]string)
	decimalsByMint := make(map[string]uint8)

	// Post-state overwrites pre-state on conflict; both describe this transaction
	for _, balances := range [][]TokenBalance{tx.PreTokenBalances, tx.PostTokenBalances} {
		for _, b := range balances {
			if b.AccountIndex < 0 || b.AccountIndex >= len(tx.AccountKeys) {
				continue
			}
			addr := tx.AccountKeys[b.AccountIndex]
			if b.Owner != "" {
				ownerByAccount[addr] = b.Owner
			}
			if b.Mint != "" {
				mintByAccount[addr] = b.Mint
				decimalsByMint[b.Mint] = b.Decimals
			}
		}
	}

	var drafts []Draft
	for i, ix := range tx.Instructions {
		if ix.ProgramIDIndex < 0 || ix.ProgramIDIndex >= len(tx.AccountKeys) {
			continue
		}
		programID := tx.AccountKeys[ix.ProgramIDIndex]

		// Out-of-range indices become empty placeholders so positions hold
		accounts := make([]string, len(ix.AccountIndices))
		for j, idx := range ix.AccountIndices {
			if idx >= 0 && idx < len(tx.AccountKeys) {
				accounts[j] = tx.AccountKeys[idx]
			}
		}

		dec := decoder.Decode(programID, ix.Data, accounts)
		if dec == nil {
			continue
		}

		// Decoder output wins; the balance side channel only fills gaps
		if dec.SourceOwner == "" && dec.SourceTokenAccount != "" {
			dec.SourceOwner = ownerByAccount[dec.SourceTokenAccount]
		}
		if dec.DestOwner == "" && dec.DestTokenAccount != "" {
			dec.DestOwner = ownerByAccount[dec.DestTokenAccount]
		}
		if dec.Mint == "" {
			if m := mintByAccount[dec.SourceTokenAccount]; m != "" {
				dec.Mint = m
			} else if m := mintByAccount[dec.DestTokenAccount]; m != "" {
				dec.Mint = m
			}
		}

		activity := models.Activity{
			Signature:          signature,
			InstructionIndex:   i,
			Slot:               tx.Slot,
			BlockTime:          tx.BlockTime,
			InstructionType:    string(dec.Type),
			Mint:               optional(dec.Mint),
			SourceOwner:        optional(dec.SourceOwner),
			DestOwner:          optional(dec.DestOwner),
			SourceTokenAccount: optional(dec.SourceTokenAccount),
			DestTokenAccount:   optional(dec.DestTokenAccount),
			PublicAmount:       optional(dec.PublicAmount),
			InstructionData:    base64.StdEncoding.EncodeToString(dec.Data),
		}
		if len(dec.CiphertextLo) > 0 && len(dec.CiphertextHi) > 0 {
			lo := base64.StdEncoding.EncodeToString(dec.CiphertextLo)
			hi := base64.StdEncoding.EncodeToString(dec.CiphertextHi)
			activity.CiphertextLo = &lo
			activity.CiphertextHi = &hi
		}

		draft := Draft{Activity: activity}
		if dec.Mint != "" {
			if d, ok := decimalsByMint[dec.Mint]; ok {
				draft.MintDecimals = &d
			}
		}
		drafts = append(drafts, draft)
	}

	return drafts
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
