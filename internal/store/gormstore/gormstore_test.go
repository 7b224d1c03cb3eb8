package gormstore

import (
	"context"
	"errors"
	"testing"

	"github.com/MarkoPoloResearchLab/venmo/internal/journal"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func newSQLiteStore(test *testing.T) *Store {
	test.Helper()
	database, err := gorm.Open(sqlite.Open(test.TempDir()+"/journal.db"), &gorm.Config{})
	if err != nil {
		test.Fatalf("sqlite open failed: %v", err)
	}
	store := New(database)
	if err := store.AutoMigrate(); err != nil {
		test.Fatalf("automigrate failed: %v", err)
	}
	return store
}

func TestAppendAndListNewestFirst(test *testing.T) {
	test.Parallel()
	store := newSQLiteStore(test)
	ctx := context.Background()
	records := []journal.Record{
		{Operation: "pay", UserID: "alice", RecipientID: "1", AmountDecimal: "12.5", Audience: "private", Note: "dinner", FundingSourceID: "balance-1", Status: "ok", CreatedUnixUTC: 100},
		{Operation: "request", UserID: "bob", RecipientID: "2", AmountDecimal: "-3", Audience: "friends", Status: "error", ErrorMessage: "venmo: HTTP error occurred: 500", CreatedUnixUTC: 200},
	}
	for _, record := range records {
		if err := store.Append(ctx, record); err != nil {
			test.Fatalf("append: %v", err)
		}
	}

	listed, err := store.List(ctx, 0, 10)
	if err != nil {
		test.Fatalf("list: %v", err)
	}
	if len(listed) != 2 {
		test.Fatalf("expected 2 records, got %d", len(listed))
	}
	if listed[0].Operation != "request" || listed[1].Operation != "pay" {
		test.Fatalf("expected newest first, got %+v", listed)
	}
	if listed[0].ErrorMessage != records[1].ErrorMessage || listed[0].AmountDecimal != "-3" {
		test.Fatalf("unexpected request record: %+v", listed[0])
	}
	if listed[1].Note != "dinner" || listed[1].FundingSourceID != "balance-1" || listed[1].AmountDecimal != "12.5" {
		test.Fatalf("unexpected pay record: %+v", listed[1])
	}
	if listed[1].RecordID == "" {
		test.Fatalf("expected generated record id")
	}

	older, err := store.List(ctx, 150, 10)
	if err != nil {
		test.Fatalf("list before: %v", err)
	}
	if len(older) != 1 || older[0].Operation != "pay" {
		test.Fatalf("expected only the older record, got %+v", older)
	}
}

func TestAppendDuplicateRecordID(test *testing.T) {
	test.Parallel()
	store := newSQLiteStore(test)
	ctx := context.Background()
	record := journal.Record{RecordID: "3f1d2c9e-5b7a-4c1e-9a8b-0d6e4f2a1b3c", Operation: "pay", UserID: "alice", AmountDecimal: "1", Audience: "private", Status: "ok", CreatedUnixUTC: 10}
	if err := store.Append(ctx, record); err != nil {
		test.Fatalf("append: %v", err)
	}
	err := store.Append(ctx, record)
	if !errors.Is(err, journal.ErrDuplicateRecord) {
		test.Fatalf("expected duplicate record, got %v", err)
	}
}

func TestListRejectsOversizedLimit(test *testing.T) {
	test.Parallel()
	store := newSQLiteStore(test)
	_, err := store.List(context.Background(), 0, journal.MaxListLimit+1)
	if !errors.Is(err, journal.ErrInvalidLimit) {
		test.Fatalf("expected invalid limit, got %v", err)
	}
}
