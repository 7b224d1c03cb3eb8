package journal

import (
	"context"
	"time"

	"github.com/MarkoPoloResearchLab/venmo/pkg/venmo"
	"go.uber.org/zap"
)

const appendTimeout = 5 * time.Second

// Record is one persisted pay or request attempt.
type Record struct {
	RecordID        string
	Operation       string
	UserID          string
	RecipientID     string
	AmountDecimal   string
	Audience        string
	Note            string
	FundingSourceID string
	Status          string
	ErrorMessage    string
	CreatedUnixUTC  int64
}

// Store is the persistence contract for journal records.
type Store interface {
	Append(ctx context.Context, record Record) error
	List(ctx context.Context, beforeUnixUTC int64, limit int) ([]Record, error)
}

// Recorder persists every operation callback as a Record.
type Recorder struct {
	store  Store
	logger *zap.Logger
	nowFn  func() int64
}

// NewRecorder wires a Recorder. A nil logger discards store failures.
func NewRecorder(store Store, logger *zap.Logger, now func() int64) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = func() int64 { return time.Now().UTC().Unix() }
	}
	return &Recorder{store: store, logger: logger, nowFn: now}
}

// LogOperation implements venmo.OperationLogger. The append outlives the
// caller's cancellation so timed-out attempts are still recorded. Store
// failures are logged and never surface to the payment caller.
func (recorder *Recorder) LogOperation(ctx context.Context, entry venmo.OperationLog) {
	record := NewRecord(entry, recorder.nowFn())
	appendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), appendTimeout)
	defer cancel()
	if err := recorder.store.Append(appendCtx, record); err != nil {
		recorder.logger.Error("journal append failed",
			zap.String("operation", record.Operation),
			zap.String("user_id", record.UserID),
			zap.Error(err))
	}
}

// NewRecord converts an operation callback into a Record.
func NewRecord(entry venmo.OperationLog, createdUnixUTC int64) Record {
	record := Record{
		Operation:       entry.Operation,
		UserID:          entry.UserID.String(),
		RecipientID:     entry.RecipientID,
		AmountDecimal:   entry.Amount.String(),
		Audience:        entry.Audience.String(),
		Note:            entry.Note,
		FundingSourceID: entry.FundingSourceID.String(),
		Status:          entry.Status,
		CreatedUnixUTC:  createdUnixUTC,
	}
	if entry.Error != nil {
		record.ErrorMessage = entry.Error.Error()
	}
	return record
}

// ZapLogger writes operation callbacks as structured log lines.
type ZapLogger struct {
	logger *zap.Logger
}

// NewZapLogger wraps a zap logger.
func NewZapLogger(logger *zap.Logger) *ZapLogger {
	return &ZapLogger{logger: logger}
}

// LogOperation implements venmo.OperationLogger.
func (zapLogger *ZapLogger) LogOperation(_ context.Context, entry venmo.OperationLog) {
	fields := []zap.Field{
		zap.String("operation", entry.Operation),
		zap.String("user_id", entry.UserID.String()),
		zap.String("recipient_id", entry.RecipientID),
		zap.String("amount", entry.Amount.String()),
		zap.String("audience", entry.Audience.String()),
		zap.String("funding_source_id", entry.FundingSourceID.String()),
		zap.String("status", entry.Status),
	}
	if entry.Error != nil {
		zapLogger.logger.Warn("payment operation failed", append(fields, zap.Error(entry.Error))...)
		return
	}
	zapLogger.logger.Info("payment operation completed", fields...)
}

// Fanout forwards each callback to every non-nil logger in order.
type Fanout []venmo.OperationLogger

// LogOperation implements venmo.OperationLogger.
func (fanout Fanout) LogOperation(ctx context.Context, entry venmo.OperationLog) {
	for _, logger := range fanout {
		if logger != nil {
			logger.LogOperation(ctx, entry)
		}
	}
}
