package gormstore

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// JournalEntry represents the payment_journal table.
type JournalEntry struct {
	RecordID        string         `gorm:"type:uuid;primaryKey"`
	Operation       string         `gorm:"not null;index:idx_journal_operation_created,priority:1"`
	UserID          string         `gorm:"not null"`
	RecipientID     string         `gorm:"not null;default:''"`
	AmountDecimal   string         `gorm:"type:numeric;not null"`
	Audience        string         `gorm:"not null"`
	FundingSourceID string         `gorm:"not null;default:''"`
	Status          string         `gorm:"not null"`
	Details         datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt       time.Time      `gorm:"not null;index:idx_journal_created;index:idx_journal_operation_created,priority:2"`
}

func (JournalEntry) TableName() string { return "payment_journal" }

func (entry *JournalEntry) BeforeCreate(tx *gorm.DB) error {
	if entry.RecordID == "" {
		entry.RecordID = uuid.NewString()
	}
	return nil
}

// journalDetails is the free-form part of a record kept in the details column.
type journalDetails struct {
	Note  string `json:"note,omitempty"`
	Error string `json:"error,omitempty"`
}
