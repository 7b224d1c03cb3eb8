package venmo

const (
	integrationName = "venmo"

	// DefaultRESTBaseURL is the private REST API root.
	DefaultRESTBaseURL = "https://api.venmo.com/v1"
	// DefaultGraphQLURL is the private GraphQL endpoint.
	DefaultGraphQLURL = "https://api.venmo.com/graphql"

	pathAccount      = "/account"
	pathStoriesActor = "/stories/target-or-actor/"
	pathUsers        = "/users/"
	pathPayments     = "/payments"

	headerAuthorization = "Authorization"
	headerContentType   = "Content-Type"
	headerUserAgent     = "User-Agent"
	contentTypeJSON     = "application/json"
	bearerPrefix        = "Bearer "

	messageInvalidToken = "Invalid or expired token"
	messageHTTPError    = "HTTP error occurred: %d"

	operationInitialize        = "initialize"
	operationGetBalance        = "get_balance"
	operationGetTransactions   = "get_personal_transactions"
	operationGetPaymentMethods = "get_payment_methods"
	operationPay               = "pay"
	operationRequest           = "request"
	operationPayUser           = "pay_user"
	operationRequestUser       = "request_user"
	operationStatusOK          = "ok"
	operationStatusError       = "error"
	errorOperationClient       = "client"
	errorSubjectRequest        = "request"
	errorSubjectResponse       = "response"
	errorCodeBuild             = "build"
	errorCodeEncode            = "encode"
	errorCodeTransport         = "transport"
	errorCodeDecode            = "decode"
	errorCodeUnexpectedType    = "unexpected_type"
)
