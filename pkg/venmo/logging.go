package venmo

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"
)

// ClientOption configures a Client instance.
type ClientOption func(*Client)

// OperationLogger records domain-level events emitted by Client operations.
type OperationLogger interface {
	LogOperation(ctx context.Context, entry OperationLog)
}

// OperationLog describes a state-changing payment operation.
type OperationLog struct {
	Operation       string
	UserID          UserID
	RecipientID     string
	Amount          decimal.Decimal
	Audience        Audience
	Note            string
	FundingSourceID FundingSourceID
	Status          string
	Error           error
}

// WithOperationLogger wires a logger that receives callbacks for every payment operation.
func WithOperationLogger(logger OperationLogger) ClientOption {
	return func(client *Client) {
		client.logger = logger
	}
}

// WithUserAgent overrides DefaultUserAgent.
func WithUserAgent(userAgent string) ClientOption {
	return func(client *Client) {
		client.credentials.UserAgent = userAgent
	}
}

// WithHTTPClient replaces the transport used for every call.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(client *Client) {
		client.httpClient = httpClient
	}
}

// WithRESTBaseURL points REST calls at another root.
func WithRESTBaseURL(baseURL string) ClientOption {
	return func(client *Client) {
		client.credentials.RESTBaseURL = baseURL
	}
}

// WithGraphQLURL points wallet queries at another endpoint.
func WithGraphQLURL(graphQLURL string) ClientOption {
	return func(client *Client) {
		client.credentials.GraphQLURL = graphQLURL
	}
}
