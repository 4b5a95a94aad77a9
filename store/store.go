package store

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/solascan/cttracker/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const stateRowID = 1

// Store is the durable activity log plus the derived directories and the
// ingestion watermark. All mutation funnels through it.
type Store struct {
	db  *gorm.DB
	log *logrus.Entry
}

// New creates a store over an open database handle
func New(db *gorm.DB, log *logrus.Logger) *Store {
	return &Store{
		db:  db,
		log: log.WithField("component", "store"),
	}
}

// fingerprint derives the dedup key for one decoded instruction. The ordinal
// keeps two byte-identical instructions within one transaction distinct.
func fingerprint(a *models.Activity) string {
	h := sha256.New()
	h.Write([]byte(a.Signature))
	h.Write([]byte("|"))
	h.Write([]byte(strconv.Itoa(a.InstructionIndex)))
	h.Write([]byte("|"))
	h.Write([]byte(a.InstructionType))
	h.Write([]byte("|"))
	h.Write([]byte(a.InstructionData))
	return hex.EncodeToString(h.Sum(nil))
}

// InsertActivity inserts one activity row. The insert is a silent no-op when
// an identical row (by signature+fingerprint) already exists; re-ingestion of
// an already-seen transaction is safe. Returns whether a row was written.
func (s *Store) InsertActivity(a *models.Activity) (bool, error) {
	a.Fingerprint = fingerprint(a)
	res := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(a)
	if res.Error != nil {
		return false, fmt.Errorf("insert activity %s: %w", a.Signature, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// ExistsBySignature is a cheap probe used to skip re-fetching transactions
// that were already indexed
func (s *Store) ExistsBySignature(signature string) (bool, error) {
	var count int64
	err := s.db.Model(&models.Activity{}).
		Where("signature = ?", signature).
		Limit(1).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("exists by signature: %w", err)
	}
	return count > 0, nil
}

// UpsertTokenAccount records the latest observed owner/mint for a token
// account. LastSeenSlot never decreases; empty mint/owner preserve what is
// already on file.
func (s *Store) UpsertTokenAccount(address, mint, owner string, slot uint64) error {
	if address == "" {
		return nil
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		var existing models.TokenAccount
		err := tx.Where("address = ?", address).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(&models.TokenAccount{
				Address:      address,
				Mint:         mint,
				Owner:        owner,
				LastSeenSlot: slot,
			}).Error
		}
		if err != nil {
			return err
		}
		if mint != "" {
			existing.Mint = mint
		}
		if owner != "" {
			existing.Owner = owner
		}
		if slot > existing.LastSeenSlot {
			existing.LastSeenSlot = slot
		}
		return tx.Save(&existing).Error
	})
}

// UpsertMint records directory metadata for a mint. Decimals are overwritten
// when supplied (assumed immutable in practice, default placeholder 9);
// name/symbol are never overwritten with null; LastSeenSlot takes the max.
func (s *Store) UpsertMint(address string, decimals *uint8, name, symbol *string, slot uint64) error {
	if address == "" {
		return nil
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		var existing models.Mint
		err := tx.Where("address = ?", address).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			row := models.Mint{
				Address:      address,
				Decimals:     models.DefaultMintDecimals,
				Name:         name,
				Symbol:       symbol,
				LastSeenSlot: slot,
			}
			if decimals != nil {
				row.Decimals = *decimals
			}
			return tx.Create(&row).Error
		}
		if err != nil {
			return err
		}
		if decimals != nil {
			existing.Decimals = *decimals
		}
		if name != nil {
			existing.Name = name
		}
		if symbol != nil {
			existing.Symbol = symbol
		}
		if slot > existing.LastSeenSlot {
			existing.LastSeenSlot = slot
		}
		return tx.Save(&existing).Error
	})
}

// Watermark returns the ingestion cursor, creating an empty one on first use
func (s *Store) Watermark() (*models.IndexerState, error) {
	var state models.IndexerState
	err := s.db.Where("id = ?", stateRowID).First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.IndexerState{ID: stateRowID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load watermark: %w", err)
	}
	return &state, nil
}

// SetWatermark durably advances the cursor and the cumulative indexed counter
func (s *Store) SetWatermark(signature string, indexed uint64) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var state models.IndexerState
		err := tx.Where("id = ?", stateRowID).First(&state).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(&models.IndexerState{
				ID:                     stateRowID,
				LastProcessedSignature: &signature,
				TotalActivitiesIndexed: indexed,
			}).Error
		}
		if err != nil {
			return err
		}
		state.LastProcessedSignature = &signature
		state.TotalActivitiesIndexed += indexed
		return tx.Save(&state).Error
	})
}

// CountActivities returns the total number of stored activity rows
func (s *Store) CountActivities() (int64, error) {
	var count int64
	err := s.db.Model(&models.Activity{}).Count(&count).Error
	return count, err
}
