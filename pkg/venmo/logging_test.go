package venmo

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
)

type recorderLogger struct {
	mu      sync.Mutex
	entries []OperationLog
}

func (logger *recorderLogger) LogOperation(_ context.Context, entry OperationLog) {
	logger.mu.Lock()
	defer logger.mu.Unlock()
	logger.entries = append(logger.entries, entry)
}

func TestClientLogsPayOperation(test *testing.T) {
	test.Parallel()
	service := newFakeService(test)
	service.respond(http.MethodGet, "/v1/users/"+recipientHandle, http.StatusOK, userBody)
	service.respond(http.MethodPost, "/graphql", http.StatusOK, walletTwoEntries)
	service.respond(http.MethodPost, "/v1/payments", http.StatusOK, paymentOKBody)
	logger := &recorderLogger{}
	client := service.newClient(test, WithOperationLogger(logger))

	amount := mustAmount(test, "20")
	if err := client.PayUser(context.Background(), PaymentRequest{UserID: mustUserID(test, recipientHandle), Amount: amount, Note: "gift"}); err != nil {
		test.Fatalf("pay user: %v", err)
	}
	if len(logger.entries) != 1 {
		test.Fatalf("expected one log entry, got %d", len(logger.entries))
	}
	entry := logger.entries[0]
	if entry.Operation != operationPay || entry.RecipientID != recipientUserID || !entry.Amount.Equal(amount.Decimal()) {
		test.Fatalf("unexpected log entry: %+v", entry)
	}
	if entry.FundingSourceID != "balance-1" || entry.Audience != AudiencePrivate || entry.Note != "gift" {
		test.Fatalf("unexpected log entry details: %+v", entry)
	}
	if entry.Error != nil || entry.Status != operationStatusOK {
		test.Fatalf("expected successful log entry, got %+v", entry)
	}
}

func TestClientLogsErrorStatus(test *testing.T) {
	test.Parallel()
	service := newFakeService(test)
	service.respond(http.MethodGet, "/v1/users/"+recipientHandle, http.StatusOK, userBody)
	service.respond(http.MethodPost, "/v1/payments", http.StatusInternalServerError, `{}`)
	logger := &recorderLogger{}
	client := service.newClient(test, WithOperationLogger(logger))

	err := client.RequestUser(context.Background(), PaymentRequest{UserID: mustUserID(test, recipientHandle), Amount: mustAmount(test, "3")})
	if !errors.Is(err, ErrAPI) {
		test.Fatalf("expected api error, got %v", err)
	}
	if len(logger.entries) != 1 {
		test.Fatalf("expected one log entry, got %d", len(logger.entries))
	}
	entry := logger.entries[0]
	if entry.Operation != operationRequest || entry.Status != operationStatusError || entry.Error == nil {
		test.Fatalf("expected error log entry, got %+v", entry)
	}
	if entry.Amount.String() != "-3" {
		test.Fatalf("expected signed amount -3, got %s", entry.Amount)
	}
}

func TestRandomUserAgentIsFromKnownSet(test *testing.T) {
	test.Parallel()
	for attempt := 0; attempt < 20; attempt++ {
		userAgent := RandomUserAgent()
		known := false
		for _, candidate := range browserUserAgents {
			if candidate == userAgent {
				known = true
			}
		}
		if !known {
			test.Fatalf("unexpected user agent %q", userAgent)
		}
	}
}
