package journal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MarkoPoloResearchLab/venmo/pkg/venmo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type memoryStore struct {
	records   []Record
	appendErr error
}

func (store *memoryStore) Append(ctx context.Context, record Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if store.appendErr != nil {
		return store.appendErr
	}
	store.records = append(store.records, record)
	return nil
}

func (store *memoryStore) List(_ context.Context, _ int64, limit int) ([]Record, error) {
	if limit > len(store.records) {
		limit = len(store.records)
	}
	return store.records[:limit], nil
}

func mustUserID(test *testing.T, raw string) venmo.UserID {
	test.Helper()
	userID, err := venmo.NewUserID(raw)
	if err != nil {
		test.Fatalf("user id: %v", err)
	}
	return userID
}

func TestRecorderAppendsRecord(test *testing.T) {
	test.Parallel()
	store := &memoryStore{}
	recorder := NewRecorder(store, nil, func() int64 { return 1700000000 })

	recorder.LogOperation(context.Background(), venmo.OperationLog{
		Operation:       "pay",
		UserID:          mustUserID(test, "Alan-Lu-16"),
		RecipientID:     "2222",
		Amount:          decimal.RequireFromString("12.50"),
		Audience:        venmo.AudiencePrivate,
		Note:            "dinner",
		FundingSourceID: "balance-1",
		Status:          "ok",
	})
	if len(store.records) != 1 {
		test.Fatalf("expected one record, got %d", len(store.records))
	}
	record := store.records[0]
	if record.Operation != "pay" || record.UserID != "Alan-Lu-16" || record.RecipientID != "2222" {
		test.Fatalf("unexpected record: %+v", record)
	}
	if record.AmountDecimal != "12.5" || record.FundingSourceID != "balance-1" || record.CreatedUnixUTC != 1700000000 {
		test.Fatalf("unexpected record details: %+v", record)
	}
	if record.ErrorMessage != "" {
		test.Fatalf("expected empty error message, got %q", record.ErrorMessage)
	}
}

func TestRecorderAppendsAfterCallerDeadline(test *testing.T) {
	test.Parallel()
	store := &memoryStore{}
	recorder := NewRecorder(store, nil, func() int64 { return 1700000000 })
	expired, cancel := context.WithTimeout(context.Background(), -time.Second)
	defer cancel()

	recorder.LogOperation(expired, venmo.OperationLog{
		Operation: "pay",
		UserID:    mustUserID(test, "Alan-Lu-16"),
		Amount:    decimal.RequireFromString("5"),
		Status:    "error",
		Error:     expired.Err(),
	})
	if len(store.records) != 1 {
		test.Fatalf("expected the timed-out attempt to be recorded, got %d records", len(store.records))
	}
	if store.records[0].Status != "error" || store.records[0].ErrorMessage != context.DeadlineExceeded.Error() {
		test.Fatalf("unexpected record: %+v", store.records[0])
	}
}

func TestRecorderLogsStoreFailure(test *testing.T) {
	test.Parallel()
	core, observed := observer.New(zap.ErrorLevel)
	store := &memoryStore{appendErr: errors.New("disk full")}
	recorder := NewRecorder(store, zap.New(core), nil)

	recorder.LogOperation(context.Background(), venmo.OperationLog{
		Operation: "request",
		UserID:    mustUserID(test, "someone"),
		Status:    "error",
		Error:     venmo.ErrNoFundingSource,
	})
	if observed.FilterMessage("journal append failed").Len() != 1 {
		test.Fatalf("expected store failure to be logged, got %v", observed.All())
	}
}

func TestZapLoggerLevels(test *testing.T) {
	test.Parallel()
	core, observed := observer.New(zap.InfoLevel)
	logger := NewZapLogger(zap.New(core))

	logger.LogOperation(context.Background(), venmo.OperationLog{Operation: "pay", Status: "ok"})
	logger.LogOperation(context.Background(), venmo.OperationLog{Operation: "pay", Status: "error", Error: errors.New("boom")})

	if observed.FilterMessage("payment operation completed").Len() != 1 {
		test.Fatalf("expected one info line")
	}
	failures := observed.FilterMessage("payment operation failed").All()
	if len(failures) != 1 || failures[0].Level != zap.WarnLevel {
		test.Fatalf("expected one warn line, got %v", failures)
	}
}

func TestFanoutSkipsNil(test *testing.T) {
	test.Parallel()
	first := &memoryStore{}
	second := &memoryStore{}
	fanout := Fanout{NewRecorder(first, nil, nil), nil, NewRecorder(second, nil, nil)}
	fanout.LogOperation(context.Background(), venmo.OperationLog{Operation: "pay", Status: "ok"})
	if len(first.records) != 1 || len(second.records) != 1 {
		test.Fatalf("expected both recorders to receive the entry")
	}
}
