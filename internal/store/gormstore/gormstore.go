package gormstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/MarkoPoloResearchLab/venmo/internal/journal"
	"github.com/MarkoPoloResearchLab/venmo/pkg/venmo"
	gosqlite "github.com/glebarez/go-sqlite"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	constraintJournalPrimary = "payment_journal_pkey"
	defaultDetailsJSON       = "{}"
	pgUniqueViolationCode    = "23505"
	sqliteConstraintCode     = 19
	errorOperationStore      = "store"
	errorSubjectJournal      = "journal"
	errorCodeDuplicate       = "duplicate"
	errorCodeEncode          = "encode"
	errorCodeInsert          = "insert"
	errorCodeInvalid         = "invalid"
	errorCodeList            = "list"
)

// Store implements journal.Store using GORM.
type Store struct {
	db *gorm.DB
}

// New returns a Store backed by gorm.DB.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// AutoMigrate creates the journal table.
func (store *Store) AutoMigrate() error {
	return store.db.AutoMigrate(&JournalEntry{})
}

func (store *Store) Append(ctx context.Context, record journal.Record) error {
	details, err := json.Marshal(journalDetails{Note: record.Note, Error: record.ErrorMessage})
	if err != nil {
		return wrapStoreError(errorSubjectJournal, errorCodeEncode, err)
	}
	entry := JournalEntry{
		RecordID:        record.RecordID,
		Operation:       record.Operation,
		UserID:          record.UserID,
		RecipientID:     record.RecipientID,
		AmountDecimal:   record.AmountDecimal,
		Audience:        record.Audience,
		FundingSourceID: record.FundingSourceID,
		Status:          record.Status,
		Details:         datatypesJSON(details),
		CreatedAt:       time.Unix(record.CreatedUnixUTC, 0).UTC(),
	}
	if record.CreatedUnixUTC == 0 {
		entry.CreatedAt = time.Now().UTC()
	}
	err = store.db.WithContext(ctx).Create(&entry).Error
	if isDuplicateRecord(err) {
		return wrapStoreError(errorSubjectJournal, errorCodeDuplicate, journal.ErrDuplicateRecord)
	}
	if err != nil {
		return wrapStoreError(errorSubjectJournal, errorCodeInsert, err)
	}
	return nil
}

func (store *Store) List(ctx context.Context, beforeUnixUTC int64, limit int) ([]journal.Record, error) {
	normalizedLimit, err := journal.NormalizeLimit(limit)
	if err != nil {
		return nil, wrapStoreError(errorSubjectJournal, errorCodeInvalid, err)
	}
	before := time.Unix(beforeUnixUTC, 0).UTC()
	if beforeUnixUTC == 0 {
		before = time.Now().UTC().Add(time.Second)
	}

	var rows []JournalEntry
	err = store.db.WithContext(ctx).
		Where("created_at < ?", before).
		Order("created_at DESC").
		Limit(normalizedLimit).
		Find(&rows).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectJournal, errorCodeList, err)
	}

	records := make([]journal.Record, 0, len(rows))
	for _, row := range rows {
		record, err := mapJournalEntry(row)
		if err != nil {
			return nil, wrapStoreError(errorSubjectJournal, errorCodeInvalid, err)
		}
		records = append(records, record)
	}
	return records, nil
}

func wrapStoreError(subject string, code string, err error) error {
	return venmo.WrapError(errorOperationStore, subject, code, err)
}

func mapJournalEntry(row JournalEntry) (journal.Record, error) {
	var details journalDetails
	if len(row.Details) > 0 {
		if err := json.Unmarshal(row.Details, &details); err != nil {
			return journal.Record{}, err
		}
	}
	return journal.Record{
		RecordID:        row.RecordID,
		Operation:       row.Operation,
		UserID:          row.UserID,
		RecipientID:     row.RecipientID,
		AmountDecimal:   row.AmountDecimal,
		Audience:        row.Audience,
		Note:            details.Note,
		FundingSourceID: row.FundingSourceID,
		Status:          row.Status,
		ErrorMessage:    details.Error,
		CreatedUnixUTC:  row.CreatedAt.Unix(),
	}, nil
}

func datatypesJSON(raw []byte) datatypes.JSON {
	if len(raw) == 0 {
		return datatypes.JSON([]byte(defaultDetailsJSON))
	}
	return datatypes.JSON(raw)
}

func isDuplicateRecord(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolationCode && pgErr.ConstraintName == constraintJournalPrimary
	}
	var sqliteErr *gosqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code()&0xFF == sqliteConstraintCode
	}
	return false
}
