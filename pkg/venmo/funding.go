package venmo

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	walletPath          = []string{"data", "profile", "wallet"}
	walletIDPath        = []string{"id"}
	walletRolePath      = []string{"roles", "merchantPayments"}
	walletAvailablePath = []string{"metadata", "availableBalance", "value"}
)

// SelectFundingSource picks the instrument used to fund a payment of amount.
// The last primary and the last backup entry win. A primary is used when its
// available balance is present and covers amount; otherwise the backup is used
// without a balance check. The second return value is false when neither applies.
func SelectFundingSource(entries []WalletEntry, amount decimal.Decimal) (FundingSourceID, bool) {
	var primary, backup *WalletEntry
	for index := range entries {
		switch entries[index].Role {
		case RolePrimary:
			primary = &entries[index]
		case RoleBackup:
			backup = &entries[index]
		}
	}
	if primary != nil && primary.AvailableBalance != nil && primary.AvailableBalance.GreaterThanOrEqual(amount) {
		return primary.ID, true
	}
	if backup != nil {
		return backup.ID, true
	}
	return "", false
}

// ParseWallet extracts wallet entries from a wallet query response.
func ParseWallet(document Document) ([]WalletEntry, error) {
	rawWallet, err := SafeGet(document, walletPath, operationGetPaymentMethods)
	if err != nil {
		return nil, err
	}
	items, ok := rawWallet.([]any)
	if !ok {
		return nil, WrapError(errorOperationClient, errorSubjectResponse, errorCodeUnexpectedType,
			fmt.Errorf("%s: %s holds %T", operationGetPaymentMethods, formatPath(walletPath), rawWallet))
	}
	entries := make([]WalletEntry, 0, len(items))
	for _, item := range items {
		entry, err := parseWalletEntry(item)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func parseWalletEntry(item any) (WalletEntry, error) {
	id, err := SafeGetString(item, walletIDPath, operationGetPaymentMethods)
	if err != nil {
		return WalletEntry{}, err
	}
	entry := WalletEntry{ID: FundingSourceID(id)}

	role, err := SafeGetString(item, walletRolePath, operationGetPaymentMethods)
	switch {
	case err == nil:
		entry.Role = Role(role)
	case !errors.Is(err, ErrMissingPath):
		return WalletEntry{}, err
	}

	balance, err := SafeGetDecimal(item, walletAvailablePath, operationGetPaymentMethods)
	switch {
	case err == nil:
		entry.AvailableBalance = &balance
	case !errors.Is(err, ErrMissingPath):
		return WalletEntry{}, err
	}
	return entry, nil
}
