package indexer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/solascan/cttracker/extractor"
	"github.com/solascan/cttracker/solclient"
	"github.com/solascan/cttracker/store"
)

// State is the orchestrator's lifecycle phase
type State int

const (
	StateIdle State = iota
	StateBackfilling
	StatePolling
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBackfilling:
		return "backfilling"
	case StatePolling:
		return "polling"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

// LedgerClient is the ledger RPC surface the orchestrator depends on
type LedgerClient interface {
	ListSignatures(ctx context.Context, limit int, until string) ([]solclient.SignatureInfo, error)
	GetTransaction(ctx context.Context, signature string) (*extractor.Transaction, error)
}

// Config holds the ingestion tuning knobs
type Config struct {
	// BatchSize is how many signatures are processed per batch
	BatchSize int
	// PollInterval is the sleep between poll ticks
	PollInterval time.Duration
	// BackfillLimit caps how many historical signatures a cold start pulls
	BackfillLimit int
}

// Indexer drives ingestion: one-time backfill on cold start, then a
// continuous poll loop. Single sequential worker; the store is the only
// shared mutable resource.
type Indexer struct {
	client LedgerClient
	store  *store.Store
	cfg    Config
	log    *logrus.Entry

	mu           sync.Mutex
	running      bool
	state        State
	shutdownChan chan struct{}
}

// New creates an indexer over the given client and store
func New(client LedgerClient, st *store.Store, cfg Config, log *logrus.Logger) *Indexer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 25
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 15 * time.Second
	}
	if cfg.BackfillLimit <= 0 {
		cfg.BackfillLimit = 1000
	}
	return &Indexer{
		client:       client,
		store:        st,
		cfg:          cfg,
		log:          log.WithField("component", "indexer"),
		state:        StateIdle,
		shutdownChan: make(chan struct{}),
	}
}

// State returns the current lifecycle phase
func (ix *Indexer) State() State {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.state
}

func (ix *Indexer) setState(s State) {
	ix.mu.Lock()
	ix.state = s
	ix.mu.Unlock()
}

// Stop requests a cooperative shutdown. The loop observes it between
// iterations; the in-flight batch finishes first.
func (ix *Indexer) Stop() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if !ix.running {
		return
	}
	ix.running = false
	close(ix.shutdownChan)
}

func (ix *Indexer) stopRequested() bool {
	select {
	case <-ix.shutdownChan:
		return true
	default:
		return false
	}
}

// Run executes the ingestion state machine until stopped or until storage
// fails. RPC failures are retried in place; storage failures are returned so
// the caller can surface them as a health condition.
func (ix *Indexer) Run(ctx context.Context) error {
	ix.mu.Lock()
	if ix.running {
		ix.mu.Unlock()
		return fmt.Errorf("indexer is already running")
	}
	ix.running = true
	ix.mu.Unlock()
	defer ix.setState(StateStopped)

	state, err := ix.store.Watermark()
	if err != nil {
		return &ProcessError{Kind: KindStorage, Err: err}
	}
	watermark := ""
	if state.LastProcessedSignature != nil {
		watermark = *state.LastProcessedSignature
	}

	if watermark == "" {
		ix.setState(StateBackfilling)
		ix.log.WithField("limit", ix.cfg.BackfillLimit).Info("no watermark found, starting backfill")
		for {
			if ix.stopRequested() || ctx.Err() != nil {
				return nil
			}
			err := ix.backfill(ctx)
			if err == nil {
				break
			}
			var perr *ProcessError
			if errors.As(err, &perr) && perr.Kind == KindRPC {
				ix.log.WithError(err).Warn("backfill listing failed, retrying")
				if !ix.sleep(ctx) {
					return nil
				}
				continue
			}
			return err
		}
		state, err = ix.store.Watermark()
		if err != nil {
			return &ProcessError{Kind: KindStorage, Err: err}
		}
		if state.LastProcessedSignature != nil {
			watermark = *state.LastProcessedSignature
		}
	} else {
		ix.log.WithField("watermark", watermark).Info("resuming from watermark")
	}

	ix.setState(StatePolling)
	for {
		if ix.stopRequested() || ctx.Err() != nil {
			return nil
		}
		next, err := ix.pollTick(ctx, watermark)
		if err != nil {
			return err
		}
		watermark = next
		if !ix.sleep(ctx) {
			return nil
		}
	}
}

// backfill pulls the most recent historical window and processes it
// oldest-first in batches. The watermark is only written after the whole
// window succeeded; an interrupted backfill reruns from scratch, which the
// store's dedup makes harmless.
func (ix *Indexer) backfill(ctx context.Context) error {
	sigs, err := ix.client.ListSignatures(ctx, ix.cfg.BackfillLimit, "")
	if err != nil {
		return &ProcessError{Kind: KindRPC, Err: err}
	}
	if len(sigs) == 0 {
		ix.log.Info("backfill: no signatures for tracked program")
		return nil
	}
	newest := sigs[0].Signature

	ordered := make([]solclient.SignatureInfo, len(sigs))
	for i, s := range sigs {
		ordered[len(sigs)-1-i] = s
	}

	indexed := 0
	for start := 0; start < len(ordered); start += ix.cfg.BatchSize {
		if ix.stopRequested() || ctx.Err() != nil {
			ix.log.Warn("backfill interrupted, watermark not set")
			return nil
		}
		end := start + ix.cfg.BatchSize
		if end > len(ordered) {
			end = len(ordered)
		}
		n, err := ix.processSignatures(ctx, ordered[start:end])
		indexed += n
		if err != nil {
			return err
		}
		ix.log.WithFields(logrus.Fields{
			"processed": end,
			"total":     len(ordered),
			"indexed":   indexed,
		}).Info("backfill batch done")
	}

	if err := ix.store.SetWatermark(newest, uint64(indexed)); err != nil {
		return &ProcessError{Kind: KindStorage, Err: err}
	}
	ix.log.WithFields(logrus.Fields{
		"watermark": newest,
		"indexed":   indexed,
	}).Info("backfill complete")
	return nil
}

// pollTick lists signatures newer than the watermark and processes them.
// The watermark advances to the newest signature of the listing, never the
// last one processed, so re-running never re-polls already-seen ranges.
func (ix *Indexer) pollTick(ctx context.Context, watermark string) (string, error) {
	sigs, err := ix.client.ListSignatures(ctx, ix.cfg.BackfillLimit, watermark)
	if err != nil {
		// Nothing was persisted; retried on the next tick
		ix.log.WithError(err).Warn("poll listing failed")
		return watermark, nil
	}
	if len(sigs) == 0 {
		return watermark, nil
	}
	newest := sigs[0].Signature

	indexed := 0
	for start := 0; start < len(sigs); start += ix.cfg.BatchSize {
		end := start + ix.cfg.BatchSize
		if end > len(sigs) {
			end = len(sigs)
		}
		n, err := ix.processSignatures(ctx, sigs[start:end])
		indexed += n
		if err != nil {
			return watermark, err
		}
	}

	if err := ix.store.SetWatermark(newest, uint64(indexed)); err != nil {
		return watermark, &ProcessError{Kind: KindStorage, Err: err}
	}
	if indexed > 0 {
		ix.log.WithFields(logrus.Fields{
			"signatures": len(sigs),
			"indexed":    indexed,
			"watermark":  newest,
		}).Info("poll tick done")
	}
	return newest, nil
}

// processSignatures handles one batch sequentially. Per-signature RPC
// failures are logged and skipped so a permanently broken transaction cannot
// stall the loop; storage failures abort the batch.
func (ix *Indexer) processSignatures(ctx context.Context, sigs []solclient.SignatureInfo) (int, error) {
	indexed := 0
	for _, si := range sigs {
		exists, err := ix.store.ExistsBySignature(si.Signature)
		if err != nil {
			return indexed, &ProcessError{Kind: KindStorage, Signature: si.Signature, Err: err}
		}
		if exists {
			continue
		}

		tx, err := ix.client.GetTransaction(ctx, si.Signature)
		if err != nil {
			ix.log.WithError(err).WithField("signature", si.Signature).
				Warn("failed to fetch transaction, skipping")
			continue
		}
		if tx == nil {
			continue
		}

		for _, draft := range extractor.Extract(tx, si.Signature) {
			inserted, err := ix.store.InsertActivity(&draft.Activity)
			if err != nil {
				return indexed, &ProcessError{Kind: KindStorage, Signature: si.Signature, Err: err}
			}
			if !inserted {
				continue
			}
			indexed++
			if err := ix.upsertDirectories(&draft); err != nil {
				return indexed, &ProcessError{Kind: KindStorage, Signature: si.Signature, Err: err}
			}
		}
	}
	return indexed, nil
}

// upsertDirectories refreshes the token-account and mint directories from one
// inserted activity
func (ix *Indexer) upsertDirectories(draft *extractor.Draft) error {
	a := &draft.Activity
	mint := deref(a.Mint)

	if addr := deref(a.SourceTokenAccount); addr != "" {
		if err := ix.store.UpsertTokenAccount(addr, mint, deref(a.SourceOwner), a.Slot); err != nil {
			return err
		}
	}
	if addr := deref(a.DestTokenAccount); addr != "" && addr != deref(a.SourceTokenAccount) {
		if err := ix.store.UpsertTokenAccount(addr, mint, deref(a.DestOwner), a.Slot); err != nil {
			return err
		}
	}
	if mint != "" {
		if err := ix.store.UpsertMint(mint, draft.MintDecimals, nil, nil, a.Slot); err != nil {
			return err
		}
	}
	return nil
}

// sleep waits one poll interval; returns false when shutdown or context
// cancellation arrived instead
func (ix *Indexer) sleep(ctx context.Context) bool {
	select {
	case <-ix.shutdownChan:
		return false
	case <-ctx.Done():
		return false
	case <-time.After(ix.cfg.PollInterval):
		return true
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
