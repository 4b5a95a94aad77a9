package store

import (
	"errors"
	"fmt"

	"github.com/solascan/cttracker/models"
	"gorm.io/gorm"
)

// Page carries cursor-pagination metadata for a reverse-chronological read.
// NextCursor is the id of the last row on the page and is only meaningful
// when HasMore is true.
type Page struct {
	HasMore    bool
	NextCursor uint64
}

// paginate runs a cursor-keyed reverse-chronological query: rows with id
// strictly below the cursor, newest first. One extra row is fetched past the
// page size to compute HasMore, then trimmed.
func paginate(q *gorm.DB, cursor uint64, limit int) ([]models.Activity, Page, error) {
	if limit <= 0 {
		limit = 50
	}
	if cursor > 0 {
		q = q.Where("id < ?", cursor)
	}

	var rows []models.Activity
	if err := q.Order("id DESC").Limit(limit + 1).Find(&rows).Error; err != nil {
		return nil, Page{}, err
	}

	page := Page{}
	if len(rows) > limit {
		rows = rows[:limit]
		page.HasMore = true
		page.NextCursor = rows[len(rows)-1].ID
	}
	return rows, page, nil
}

// Feed returns a page of activities, newest first, optionally filtered by
// instruction type
func (s *Store) Feed(cursor uint64, limit int, instructionType string) ([]models.Activity, Page, error) {
	q := s.db.Model(&models.Activity{})
	if instructionType != "" {
		q = q.Where("instruction_type = ?", instructionType)
	}
	rows, page, err := paginate(q, cursor, limit)
	if err != nil {
		return nil, Page{}, fmt.Errorf("feed: %w", err)
	}
	return rows, page, nil
}

// ByAddress returns activities where the address appears in any of the four
// address roles
func (s *Store) ByAddress(address string, cursor uint64, limit int) ([]models.Activity, Page, error) {
	q := s.db.Model(&models.Activity{}).Where(
		"source_owner = ? OR dest_owner = ? OR source_token_account = ? OR dest_token_account = ?",
		address, address, address, address,
	)
	rows, page, err := paginate(q, cursor, limit)
	if err != nil {
		return nil, Page{}, fmt.Errorf("by address: %w", err)
	}
	return rows, page, nil
}

// BySignature returns every activity row of one transaction, in instruction
// order
func (s *Store) BySignature(signature string) ([]models.Activity, error) {
	var rows []models.Activity
	err := s.db.Where("signature = ?", signature).
		Order("instruction_index ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("by signature: %w", err)
	}
	return rows, nil
}

// Search matches a substring against signature, owner and mint fields,
// newest first, bounded by limit
func (s *Store) Search(query string, limit int) ([]models.Activity, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	pattern := "%" + query + "%"
	var rows []models.Activity
	err := s.db.Where(
		"signature LIKE ? OR source_owner LIKE ? OR dest_owner LIKE ? OR mint LIKE ?",
		pattern, pattern, pattern, pattern,
	).Order("id DESC").Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return rows, nil
}

// ListMints returns known mints, most recently seen first
func (s *Store) ListMints(limit int) ([]models.Mint, error) {
	if limit <= 0 || limit > 500 {
		limit = 500
	}
	var rows []models.Mint
	err := s.db.Order("last_seen_slot DESC").Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list mints: %w", err)
	}
	return rows, nil
}

// GetMint returns one mint directory entry, or nil when unknown
func (s *Store) GetMint(address string) (*models.Mint, error) {
	var row models.Mint
	err := s.db.Where("address = ?", address).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get mint: %w", err)
	}
	return &row, nil
}

// GetTokenAccount returns one token-account directory entry, or nil when
// unknown
func (s *Store) GetTokenAccount(address string) (*models.TokenAccount, error) {
	var row models.TokenAccount
	err := s.db.Where("address = ?", address).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get token account: %w", err)
	}
	return &row, nil
}
