package solclient

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/sirupsen/logrus"
	"github.com/solascan/cttracker/extractor"
)

// SignatureInfo is one entry of a signature listing, newest-first
type SignatureInfo struct {
	Signature string
	Slot      uint64
	Failed    bool
}

// Client wraps the Solana JSON-RPC client for one tracked program
type Client struct {
	rpc     *rpc.Client
	program solana.PublicKey
	log     *logrus.Entry
}

// New creates a client for the given RPC endpoint and tracked program address
func New(endpoint, programAddress string, log *logrus.Logger) (*Client, error) {
	program, err := solana.PublicKeyFromBase58(programAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid program address %q: %w", programAddress, err)
	}
	return &Client{
		rpc:     rpc.New(endpoint),
		program: program,
		log:     log.WithField("component", "solclient"),
	}, nil
}

// ListSignatures returns up to limit signatures for the tracked program,
// newest first. A non-empty until stops the listing at that signature
// (exclusive), so only signatures newer than it are returned.
func (c *Client) ListSignatures(ctx context.Context, limit int, until string) ([]SignatureInfo, error) {
	opts := &rpc.GetSignaturesForAddressOpts{
		Limit:      &limit,
		Commitment: rpc.CommitmentFinalized,
	}
	if until != "" {
		untilSig, err := solana.SignatureFromBase58(until)
		if err != nil {
			return nil, fmt.Errorf("invalid until signature %q: %w", until, err)
		}
		opts.Until = untilSig
	}

	sigs, err := c.rpc.GetSignaturesForAddressWithOpts(ctx, c.program, opts)
	if err != nil {
		return nil, fmt.Errorf("getSignaturesForAddress: %w", err)
	}

	out := make([]SignatureInfo, 0, len(sigs))
	for _, s := range sigs {
		if s == nil {
			continue
		}
		out = append(out, SignatureInfo{
			Signature: s.Signature.String(),
			Slot:      s.Slot,
			Failed:    s.Err != nil,
		})
	}
	return out, nil
}

// GetTransaction fetches one finalized transaction and normalizes it for
// extraction. Returns nil (no error) when the ledger no longer has it.
func (c *Client) GetTransaction(ctx context.Context, signature string) (*extractor.Transaction, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return nil, fmt.Errorf("invalid signature %q: %w", signature, err)
	}

	var maxTxVersion uint64 = 0
	res, err := c.rpc.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
		Commitment:                     rpc.CommitmentFinalized,
		MaxSupportedTransactionVersion: &maxTxVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("getTransaction %s: %w", signature, err)
	}
	if res == nil || res.Transaction == nil {
		return nil, nil
	}

	parsed, err := res.Transaction.GetTransaction()
	if err != nil {
		return nil, fmt.Errorf("decode transaction %s: %w", signature, err)
	}

	return normalize(res, parsed), nil
}

// normalize flattens the rpc result into the extractor's transaction shape.
// Lookup-table loaded addresses extend the static key list, writable first,
// matching the runtime's combined account ordering.
func normalize(res *rpc.GetTransactionResult, parsed *solana.Transaction) *extractor.Transaction {
	keys := make([]string, 0, len(parsed.Message.AccountKeys))
	for _, k := range parsed.Message.AccountKeys {
		keys = append(keys, k.String())
	}

	tx := &extractor.Transaction{
		Slot: res.Slot,
	}
	if res.BlockTime != nil {
		bt := int64(*res.BlockTime)
		tx.BlockTime = &bt
	}

	if res.Meta != nil {
		tx.Failed = res.Meta.Err != nil
		for _, k := range res.Meta.LoadedAddresses.Writable {
			keys = append(keys, k.String())
		}
		for _, k := range res.Meta.LoadedAddresses.ReadOnly {
			keys = append(keys, k.String())
		}
		tx.PreTokenBalances = normalizeBalances(res.Meta.PreTokenBalances)
		tx.PostTokenBalances = normalizeBalances(res.Meta.PostTokenBalances)
	}
	tx.AccountKeys = keys

	for _, ix := range parsed.Message.Instructions {
		accounts := make([]int, len(ix.Accounts))
		for i, a := range ix.Accounts {
			accounts[i] = int(a)
		}
		tx.Instructions = append(tx.Instructions, extractor.Instruction{
			ProgramIDIndex: int(ix.ProgramIDIndex),
			AccountIndices: accounts,
			Data:           []byte(ix.Data),
		})
	}

	return tx
}

func normalizeBalances(balances []rpc.TokenBalance) []extractor.TokenBalance {
	out := make([]extractor.TokenBalance, 0, len(balances))
	for _, b := range balances {
		tb := extractor.TokenBalance{
			AccountIndex: int(b.AccountIndex),
			Mint:         b.Mint.String(),
		}
		if b.Owner != nil {
			tb.Owner = b.Owner.String()
		}
		if b.UiTokenAmount != nil {
			tb.Decimals = b.UiTokenAmount.Decimals
		}
		out = append(out, tb)
	}
	return out
}
