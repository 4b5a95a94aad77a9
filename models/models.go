package models

import "time"

// Activity represents one decoded confidential-transfer instruction occurrence
type Activity struct {
	ID                 uint64  `gorm:"primarykey" json:"id"`
	Signature          string  `json:"signature" gorm:"size:88;not null;index;uniqueIndex:idx_sig_fingerprint,priority:1"`
	Fingerprint        string  `json:"-" gorm:"size:64;not null;uniqueIndex:idx_sig_fingerprint,priority:2"`
	InstructionIndex   int     `json:"instruction_index" gorm:"not null"`
	Slot               uint64  `json:"slot" gorm:"index;not null"`
	BlockTime          *int64  `json:"block_time"`
	InstructionType    string  `json:"instruction_type" gorm:"size:40;index;not null"`
	Mint               *string `json:"mint" gorm:"size:44;index"`
	SourceOwner        *string `json:"source_owner" gorm:"size:44;index"`
	DestOwner          *string `json:"dest_owner" gorm:"size:44;index"`
	SourceTokenAccount *string `json:"source_token_account" gorm:"size:44;index"`
	DestTokenAccount   *string `json:"dest_token_account" gorm:"size:44;index"`
	// Encrypted amount halves, base64, 64 bytes each when present
	CiphertextLo *string `json:"ciphertext_lo" gorm:"size:120"`
	CiphertextHi *string `json:"ciphertext_hi" gorm:"size:120"`
	// Cleartext amount, only for deposit/withdraw
	PublicAmount *string `json:"public_amount" gorm:"size:24"`
	// Raw instruction bytes, base64, kept for re-parsing
	InstructionData string    `json:"instruction_data" gorm:"type:text"`
	CreatedAt       time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName returns the table name for Activity
func (Activity) TableName() string {
	return "activities"
}

// TokenAccount maps an on-chain token account to its owner and mint, as last observed
type TokenAccount struct {
	Address      string    `json:"address" gorm:"primarykey;size:44"`
	Mint         string    `json:"mint" gorm:"size:44;index"`
	Owner        string    `json:"owner" gorm:"size:44;index"`
	LastSeenSlot uint64    `json:"last_seen_slot"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName returns the table name for TokenAccount
func (TokenAccount) TableName() string {
	return "token_accounts"
}

// Mint is a directory entry for a token mint
type Mint struct {
	Address      string    `json:"address" gorm:"primarykey;size:44"`
	Decimals     uint8     `json:"decimals"`
	Name         *string   `json:"name" gorm:"size:100"`
	Symbol       *string   `json:"symbol" gorm:"size:20"`
	LastSeenSlot uint64    `json:"last_seen_slot"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName returns the table name for Mint
func (Mint) TableName() string {
	return "mints"
}

// DefaultMintDecimals is used when the mint's decimals were not observed yet
const DefaultMintDecimals uint8 = 9

// IndexerState is the single-row ingestion progress cursor
type IndexerState struct {
	ID                     uint      `gorm:"primarykey" json:"id"`
	LastProcessedSignature *string   `json:"last_processed_signature" gorm:"size:88"`
	TotalActivitiesIndexed uint64    `json:"total_activities_indexed"`
	UpdatedAt              time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName returns the table name for IndexerState
func (IndexerState) TableName() string {
	return "indexer_state"
}
