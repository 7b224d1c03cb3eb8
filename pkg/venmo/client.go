package venmo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

var (
	identityBalancePath = []string{"data", "balance"}
	identityUserIDPath  = []string{"data", "user", "id"}
	userIDPath          = []string{"data", "id"}
)

// Client talks to the private REST and GraphQL endpoints for one account.
type Client struct {
	credentials Credentials
	httpClient  *http.Client
	logger      OperationLogger

	mu           sync.RWMutex
	identity     Document
	transactions Document
}

type paymentBody struct {
	FundingSourceID FundingSourceID `json:"funding_source_id,omitempty"`
	UserID          string          `json:"user_id"`
	Audience        Audience        `json:"audience"`
	Amount          json.Number     `json:"amount"`
	Note            string          `json:"note"`
}

// NewClient wires a Client. It performs no I/O.
func NewClient(token string, options ...ClientOption) (*Client, error) {
	trimmedToken := strings.TrimSpace(token)
	if trimmedToken == "" {
		return nil, fmt.Errorf("%w: token is empty", ErrInvalidClientConfig)
	}
	client := &Client{
		credentials: Credentials{
			Token:       trimmedToken,
			UserAgent:   DefaultUserAgent,
			RESTBaseURL: DefaultRESTBaseURL,
			GraphQLURL:  DefaultGraphQLURL,
		},
		httpClient: http.DefaultClient,
	}
	for _, option := range options {
		if option != nil {
			option(client)
		}
	}
	if client.httpClient == nil {
		return nil, fmt.Errorf("%w: http client is nil", ErrInvalidClientConfig)
	}
	if strings.TrimSpace(client.credentials.UserAgent) == "" {
		client.credentials.UserAgent = DefaultUserAgent
	}
	client.credentials.RESTBaseURL = strings.TrimRight(client.credentials.RESTBaseURL, "/")
	if client.credentials.RESTBaseURL == "" || client.credentials.GraphQLURL == "" {
		return nil, fmt.Errorf("%w: endpoint url is empty", ErrInvalidClientConfig)
	}
	return client, nil
}

// Credentials returns the immutable request settings.
func (client *Client) Credentials() Credentials {
	return client.credentials
}

// Initialize fetches identity and then the transaction history that depends on it.
func (client *Client) Initialize(ctx context.Context) error {
	identity, err := client.Identity(ctx)
	if err != nil {
		return err
	}
	userID, err := SafeGetString(identity, identityUserIDPath, operationInitialize)
	if err != nil {
		return err
	}
	transactions, err := client.fetchTransactions(ctx, userID)
	if err != nil {
		return err
	}
	client.mu.Lock()
	client.identity = identity
	client.transactions = transactions
	client.mu.Unlock()
	return nil
}

// Identity fetches the authenticated account document.
func (client *Client) Identity(ctx context.Context) (Document, error) {
	return client.doJSON(ctx, http.MethodGet, client.credentials.RESTBaseURL+pathAccount, nil)
}

// Balance reads data.balance from the identity cached by Initialize.
func (client *Client) Balance() (decimal.Decimal, error) {
	identity, err := client.cachedIdentity()
	if err != nil {
		return decimal.Decimal{}, err
	}
	balance, err := SafeGetDecimal(identity, identityBalancePath, operationGetBalance)
	if err != nil {
		if errors.Is(err, ErrMissingPath) {
			return decimal.Decimal{}, err
		}
		return decimal.Decimal{}, fmt.Errorf("%w: %v", ErrInvalidBalance, err)
	}
	return balance, nil
}

// PersonalTransactions fetches the story feed for the cached identity's user.
func (client *Client) PersonalTransactions(ctx context.Context) (Document, error) {
	identity, err := client.cachedIdentity()
	if err != nil {
		return nil, err
	}
	userID, err := SafeGetString(identity, identityUserIDPath, operationGetTransactions)
	if err != nil {
		return nil, err
	}
	return client.fetchTransactions(ctx, userID)
}

// TransactionHistory returns the history cached by Initialize.
func (client *Client) TransactionHistory() (Document, error) {
	client.mu.RLock()
	defer client.mu.RUnlock()
	if client.transactions == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotInitialized, operationGetTransactions)
	}
	return client.transactions, nil
}

// Wallet lists the account's funding instruments.
func (client *Client) Wallet(ctx context.Context) ([]WalletEntry, error) {
	document, err := client.doJSON(ctx, http.MethodPost, client.credentials.GraphQLURL, graphQLRequest{Query: walletQuery})
	if err != nil {
		return nil, err
	}
	return ParseWallet(document)
}

// PaymentMethods resolves the funding source for a payment of amount. The
// boolean is false when no instrument qualifies; that is not an error.
func (client *Client) PaymentMethods(ctx context.Context, amount decimal.Decimal) (FundingSourceID, bool, error) {
	entries, err := client.Wallet(ctx)
	if err != nil {
		return "", false, err
	}
	fundingSourceID, found := SelectFundingSource(entries, amount)
	return fundingSourceID, found, nil
}

// User looks up a user by id or username.
func (client *Client) User(ctx context.Context, userID UserID) (Document, error) {
	return client.doJSON(ctx, http.MethodGet, client.credentials.RESTBaseURL+pathUsers+url.PathEscape(userID.String()), nil)
}

// PayUser sends money to request.UserID from the selected funding source.
func (client *Client) PayUser(ctx context.Context, request PaymentRequest) error {
	var fundingSourceID FundingSourceID
	var recipientID string
	operationError := func() error {
		if err := validatePaymentRequest(request); err != nil {
			return err
		}
		var err error
		recipientID, err = client.resolveRecipient(ctx, request.UserID, operationPayUser)
		if err != nil {
			return err
		}
		var found bool
		fundingSourceID, found, err = client.PaymentMethods(ctx, request.Amount.Decimal())
		if err != nil {
			return err
		}
		if !found {
			return &NoFundingSourceError{Amount: request.Amount}
		}
		_, err = client.doJSON(ctx, http.MethodPost, client.credentials.RESTBaseURL+pathPayments, paymentBody{
			FundingSourceID: fundingSourceID,
			UserID:          recipientID,
			Audience:        request.audience(),
			Amount:          json.Number(request.Amount.String()),
			Note:            request.Note,
		})
		return err
	}()
	client.logOperation(ctx, OperationLog{
		Operation:       operationPay,
		UserID:          request.UserID,
		RecipientID:     recipientID,
		Amount:          request.Amount.Decimal(),
		Audience:        request.audience(),
		Note:            request.Note,
		FundingSourceID: fundingSourceID,
		Error:           operationError,
	})
	return operationError
}

// RequestUser asks request.UserID for money. The amount is sent negated and no
// funding source is attached.
func (client *Client) RequestUser(ctx context.Context, request PaymentRequest) error {
	var recipientID string
	operationError := func() error {
		if err := validatePaymentRequest(request); err != nil {
			return err
		}
		var err error
		recipientID, err = client.resolveRecipient(ctx, request.UserID, operationRequestUser)
		if err != nil {
			return err
		}
		_, err = client.doJSON(ctx, http.MethodPost, client.credentials.RESTBaseURL+pathPayments, paymentBody{
			UserID:   recipientID,
			Audience: request.audience(),
			Amount:   json.Number(request.Amount.Negated().String()),
			Note:     request.Note,
		})
		return err
	}()
	client.logOperation(ctx, OperationLog{
		Operation:   operationRequest,
		UserID:      request.UserID,
		RecipientID: recipientID,
		Amount:      request.Amount.Negated(),
		Audience:    request.audience(),
		Note:        request.Note,
		Error:       operationError,
	})
	return operationError
}

func (client *Client) resolveRecipient(ctx context.Context, userID UserID, operation string) (string, error) {
	user, err := client.User(ctx, userID)
	if err != nil {
		return "", err
	}
	return SafeGetString(user, userIDPath, operation)
}

func (client *Client) fetchTransactions(ctx context.Context, userID string) (Document, error) {
	return client.doJSON(ctx, http.MethodGet, client.credentials.RESTBaseURL+pathStoriesActor+url.PathEscape(userID), nil)
}

func (client *Client) cachedIdentity() (Document, error) {
	client.mu.RLock()
	defer client.mu.RUnlock()
	if client.identity == nil {
		return nil, ErrNotInitialized
	}
	return client.identity, nil
}

func (client *Client) logOperation(ctx context.Context, entry OperationLog) {
	if client.logger == nil {
		return
	}
	if entry.Status == "" {
		if entry.Error != nil {
			entry.Status = operationStatusError
		} else {
			entry.Status = operationStatusOK
		}
	}
	client.logger.LogOperation(ctx, entry)
}

func validatePaymentRequest(request PaymentRequest) error {
	if request.UserID.String() == "" {
		return fmt.Errorf("%w: empty value", ErrInvalidUserID)
	}
	if !request.Amount.Decimal().IsPositive() {
		return fmt.Errorf("%w: must be greater than zero", ErrInvalidAmount)
	}
	return nil
}
