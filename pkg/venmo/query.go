package venmo

import _ "embed"

// walletQuery lists the authenticated profile's funding instruments. It is
// sent verbatim; only id, roles.merchantPayments and
// metadata.availableBalance.value are read from the response.
//
//go:embed wallet_query.graphql
var walletQuery string

type graphQLRequest struct {
	Query string `json:"query"`
}
