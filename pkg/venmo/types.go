package venmo

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Document is a decoded JSON object returned by the service.
type Document map[string]any

// UserID identifies a service user (numeric id or username).
type UserID struct {
	value string
}

// NewUserID validates and normalizes a user id.
func NewUserID(raw string) (UserID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return UserID{}, fmt.Errorf("%w: empty value", ErrInvalidUserID)
	}
	return UserID{value: trimmed}, nil
}

// String returns the normalized identifier.
func (id UserID) String() string {
	return id.value
}

// Amount is a strictly positive money amount in dollars.
type Amount struct {
	value decimal.Decimal
}

// NewAmount validates an amount and ensures it is strictly positive.
func NewAmount(raw decimal.Decimal) (Amount, error) {
	if !raw.IsPositive() {
		return Amount{}, fmt.Errorf("%w: must be greater than zero", ErrInvalidAmount)
	}
	return Amount{value: raw}, nil
}

// ParseAmount parses a decimal string such as "12.50".
func ParseAmount(raw string) (Amount, error) {
	parsed, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return Amount{}, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	return NewAmount(parsed)
}

// Decimal returns the underlying value.
func (amount Amount) Decimal() decimal.Decimal {
	return amount.value
}

// Negated returns the signed value used for money requests.
func (amount Amount) Negated() decimal.Decimal {
	return amount.value.Neg()
}

func (amount Amount) String() string {
	return amount.value.String()
}

// Audience controls transaction visibility.
type Audience string

const (
	AudiencePrivate Audience = "private"
	AudienceFriends Audience = "friends"
	AudiencePublic  Audience = "public"
)

// NewAudience accepts any non-blank service value; blank means private.
func NewAudience(raw string) (Audience, error) {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" {
		return AudiencePrivate, nil
	}
	if strings.ContainsAny(trimmed, " \t\n") {
		return "", fmt.Errorf("%w: %q", ErrInvalidAudience, raw)
	}
	return Audience(trimmed), nil
}

func (audience Audience) String() string {
	return string(audience)
}

// Role is a funding instrument's merchant-payments designation.
type Role string

const (
	RolePrimary Role = "primary"
	RoleBackup  Role = "backup"
)

// FundingSourceID identifies a wallet instrument.
type FundingSourceID string

func (id FundingSourceID) String() string {
	return string(id)
}

// WalletEntry is one funding instrument from the wallet query.
type WalletEntry struct {
	ID   FundingSourceID
	Role Role
	// AvailableBalance is nil for bank and card instruments.
	AvailableBalance *decimal.Decimal
}

// PaymentRequest describes a pay or request-money call.
type PaymentRequest struct {
	UserID   UserID
	Amount   Amount
	Note     string
	Audience Audience
}

func (request PaymentRequest) audience() Audience {
	if request.Audience == "" {
		return AudiencePrivate
	}
	return request.Audience
}

// Credentials holds what every request is built from.
type Credentials struct {
	Token       string
	UserAgent   string
	RESTBaseURL string
	GraphQLURL  string
}
