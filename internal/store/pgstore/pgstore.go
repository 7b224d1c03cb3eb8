package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/MarkoPoloResearchLab/venmo/internal/journal"
	"github.com/MarkoPoloResearchLab/venmo/pkg/venmo"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	constraintJournalPrimary = "payment_journal_pkey"
	pgUniqueViolationCode    = "23505"
	errorOperationStore      = "store"
	errorSubjectJournal      = "journal"
	errorSubjectSchema       = "schema"
	errorCodeCreate          = "create"
	errorCodeDecode          = "decode"
	errorCodeDuplicate       = "duplicate"
	errorCodeEncode          = "encode"
	errorCodeInsert          = "insert"
	errorCodeInvalid         = "invalid"
	errorCodeList            = "list"

	sqlCreateJournal = `
		create table if not exists payment_journal (
			record_id uuid primary key,
			operation text not null,
			user_id text not null,
			recipient_id text not null default '',
			amount_decimal numeric not null,
			audience text not null,
			funding_source_id text not null default '',
			status text not null,
			details jsonb not null default '{}'::jsonb,
			created_at timestamptz not null
		);
		create index if not exists idx_journal_created on payment_journal(created_at);
		create index if not exists idx_journal_operation_created on payment_journal(operation, created_at);
	`

	sqlInsertRecord = `
		insert into payment_journal(
			record_id, operation, user_id, recipient_id, amount_decimal, audience,
			funding_source_id, status, details, created_at
		)
		values(
			$1, $2, $3, $4, $5::numeric, $6, $7, $8,
			coalesce(nullif($9,''),'{}')::jsonb,
			to_timestamp($10)
		)
	`

	sqlListRecordsBefore = `
		select
			record_id::text,
			operation,
			user_id,
			recipient_id,
			amount_decimal::text,
			audience,
			funding_source_id,
			status,
			details::text,
			extract(epoch from created_at)::bigint
		from payment_journal
		where created_at < to_timestamp($1)
		order by created_at desc
		limit $2
	`
)

type recordDetails struct {
	Note  string `json:"note,omitempty"`
	Error string `json:"error,omitempty"`
}

// Store implements journal.Store using a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
	now  func() int64
}

// New returns a Store backed by a pgx pool. A nil clock uses wall time.
func New(pool *pgxpool.Pool, now func() int64) *Store {
	if now == nil {
		now = func() int64 { return time.Now().UTC().Unix() }
	}
	return &Store{pool: pool, now: now}
}

// EnsureSchema creates the journal table when absent.
func (store *Store) EnsureSchema(ctx context.Context) error {
	if _, err := store.pool.Exec(ctx, sqlCreateJournal); err != nil {
		return wrapStoreError(errorSubjectSchema, errorCodeCreate, err)
	}
	return nil
}

func (store *Store) Append(ctx context.Context, record journal.Record) error {
	recordID := record.RecordID
	if recordID == "" {
		recordID = uuid.NewString()
	}
	details, err := json.Marshal(recordDetails{Note: record.Note, Error: record.ErrorMessage})
	if err != nil {
		return wrapStoreError(errorSubjectJournal, errorCodeEncode, err)
	}
	createdUnixUTC := record.CreatedUnixUTC
	if createdUnixUTC == 0 {
		createdUnixUTC = store.now()
	}
	_, err = store.pool.Exec(ctx, sqlInsertRecord,
		recordID,
		record.Operation,
		record.UserID,
		record.RecipientID,
		record.AmountDecimal,
		record.Audience,
		record.FundingSourceID,
		record.Status,
		string(details),
		createdUnixUTC,
	)
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
	if beforeUnixUTC == 0 {
		beforeUnixUTC = store.now() + 1
	}
	rows, err := store.pool.Query(ctx, sqlListRecordsBefore, beforeUnixUTC, normalizedLimit)
	if err != nil {
		return nil, wrapStoreError(errorSubjectJournal, errorCodeList, err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func scanRecords(rows pgx.Rows) ([]journal.Record, error) {
	var records []journal.Record
	for rows.Next() {
		var (
			record      journal.Record
			detailsJSON string
		)
		if err := rows.Scan(
			&record.RecordID,
			&record.Operation,
			&record.UserID,
			&record.RecipientID,
			&record.AmountDecimal,
			&record.Audience,
			&record.FundingSourceID,
			&record.Status,
			&detailsJSON,
			&record.CreatedUnixUTC,
		); err != nil {
			return nil, wrapStoreError(errorSubjectJournal, errorCodeList, err)
		}
		var details recordDetails
		if err := json.Unmarshal([]byte(detailsJSON), &details); err != nil {
			return nil, wrapStoreError(errorSubjectJournal, errorCodeDecode, err)
		}
		record.Note = details.Note
		record.ErrorMessage = details.Error
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreError(errorSubjectJournal, errorCodeList, err)
	}
	return records, nil
}

func wrapStoreError(subject string, code string, err error) error {
	return venmo.WrapError(errorOperationStore, subject, code, err)
}

func isDuplicateRecord(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgUniqueViolationCode && pgErr.ConstraintName == constraintJournalPrimary
}
