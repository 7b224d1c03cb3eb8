package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/MarkoPoloResearchLab/venmo/internal/journal"
	"github.com/MarkoPoloResearchLab/venmo/internal/store"
	"github.com/MarkoPoloResearchLab/venmo/pkg/venmo"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/tyemirov/tauth/pkg/sessionvalidator"
	"go.uber.org/zap"
)

const claimsContextKey = "auth_claims"

type paymentService interface {
	Initialize(ctx context.Context) error
	Balance() (decimal.Decimal, error)
	PersonalTransactions(ctx context.Context) (venmo.Document, error)
	Wallet(ctx context.Context) ([]venmo.WalletEntry, error)
	User(ctx context.Context, userID venmo.UserID) (venmo.Document, error)
	PayUser(ctx context.Context, request venmo.PaymentRequest) error
	RequestUser(ctx context.Context, request venmo.PaymentRequest) error
}

type journalLister interface {
	List(ctx context.Context, beforeUnixUTC int64, limit int) ([]journal.Record, error)
}

// Run boots the HTTP façade using the supplied configuration.
func Run(ctx context.Context, cfg Config) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("zap init: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	operationLoggers := journal.Fanout{journal.NewZapLogger(logger)}
	var lister journalLister
	if cfg.DatabaseURL != "" {
		journalStore, cleanup, err := store.OpenJournal(ctx, cfg.DatabaseURL, cfg.JournalBackend)
		if err != nil {
			return fmt.Errorf("journal open: %w", err)
		}
		defer func() { _ = cleanup() }()
		operationLoggers = append(operationLoggers, journal.NewRecorder(journalStore, logger, nil))
		lister = journalStore
	}

	client, err := venmo.NewClient(cfg.Token,
		venmo.WithUserAgent(cfg.UserAgent),
		venmo.WithRESTBaseURL(cfg.RESTBaseURL),
		venmo.WithGraphQLURL(cfg.GraphQLURL),
		venmo.WithHTTPClient(&http.Client{Timeout: cfg.UpstreamTimeout}),
		venmo.WithOperationLogger(operationLoggers),
	)
	if err != nil {
		return fmt.Errorf("venmo client: %w", err)
	}
	initCtx, cancel := context.WithTimeout(ctx, cfg.UpstreamTimeout)
	err = client.Initialize(initCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("venmo initialize: %w", err)
	}

	sessionValidator, err := sessionvalidator.New(sessionvalidator.Config{
		SigningKey: []byte(cfg.SessionSigningKey),
		Issuer:     cfg.SessionIssuer,
		CookieName: cfg.SessionCookieName,
	})
	if err != nil {
		return fmt.Errorf("session validator: %w", err)
	}

	handler := &httpHandler{
		logger:  logger,
		client:  client,
		journal: lister,
		cfg:     cfg,
	}
	router := setupRouter(cfg, handler, sessionValidator)

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("gateway listening", zap.String("addr", cfg.ListenAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Warn("server shutdown error", zap.Error(shutdownErr))
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func setupRouter(cfg Config, handler *httpHandler, validator *sessionvalidator.Validator) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Origin", "Accept"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.Use(validator.GinMiddleware(claimsContextKey))

	api.GET("/balance", handler.handleBalance)
	api.GET("/transactions", handler.handleTransactions)
	api.GET("/wallet", handler.handleWallet)
	api.GET("/users/:id", handler.handleUser)
	api.POST("/payments", handler.handlePayment)
	api.POST("/requests", handler.handleRequest)
	api.GET("/journal", handler.handleJournal)

	return router
}

type httpHandler struct {
	logger  *zap.Logger
	client  paymentService
	journal journalLister
	cfg     Config
}

func (handler *httpHandler) handleBalance(ctx *gin.Context) {
	if getClaims(ctx) == nil {
		ctx.JSON(http.StatusUnauthorized, errorResponse("unauthorized", "missing session"))
		return
	}
	if ctx.Query("refresh") == "true" {
		requestCtx, cancel := handler.upstreamContext(ctx)
		defer cancel()
		if err := handler.client.Initialize(requestCtx); err != nil {
			handler.respondError(ctx, "balance refresh failed", err)
			return
		}
	}
	balance, err := handler.client.Balance()
	if err != nil {
		handler.respondError(ctx, "balance read failed", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"balance": balance.String()})
}

func (handler *httpHandler) handleTransactions(ctx *gin.Context) {
	if getClaims(ctx) == nil {
		ctx.JSON(http.StatusUnauthorized, errorResponse("unauthorized", "missing session"))
		return
	}
	requestCtx, cancel := handler.upstreamContext(ctx)
	defer cancel()
	transactions, err := handler.client.PersonalTransactions(requestCtx)
	if err != nil {
		handler.respondError(ctx, "transactions fetch failed", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"transactions": transactions})
}

func (handler *httpHandler) handleWallet(ctx *gin.Context) {
	if getClaims(ctx) == nil {
		ctx.JSON(http.StatusUnauthorized, errorResponse("unauthorized", "missing session"))
		return
	}
	var amount *venmo.Amount
	if rawAmount := ctx.Query("amount"); rawAmount != "" {
		parsed, err := venmo.ParseAmount(rawAmount)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, errorResponse("invalid_amount", err.Error()))
			return
		}
		amount = &parsed
	}

	requestCtx, cancel := handler.upstreamContext(ctx)
	defer cancel()
	entries, err := handler.client.Wallet(requestCtx)
	if err != nil {
		handler.respondError(ctx, "wallet fetch failed", err)
		return
	}
	response := walletResponse{Entries: make([]walletEntryPayload, 0, len(entries))}
	for _, entry := range entries {
		payload := walletEntryPayload{ID: entry.ID.String(), Role: string(entry.Role)}
		if entry.AvailableBalance != nil {
			balance := entry.AvailableBalance.String()
			payload.AvailableBalance = &balance
		}
		response.Entries = append(response.Entries, payload)
	}
	if amount != nil {
		if fundingSourceID, found := venmo.SelectFundingSource(entries, amount.Decimal()); found {
			selected := fundingSourceID.String()
			response.Selected = &selected
		}
	}
	ctx.JSON(http.StatusOK, response)
}

func (handler *httpHandler) handleUser(ctx *gin.Context) {
	if getClaims(ctx) == nil {
		ctx.JSON(http.StatusUnauthorized, errorResponse("unauthorized", "missing session"))
		return
	}
	userID, err := venmo.NewUserID(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_user_id", err.Error()))
		return
	}
	requestCtx, cancel := handler.upstreamContext(ctx)
	defer cancel()
	user, err := handler.client.User(requestCtx, userID)
	if err != nil {
		handler.respondError(ctx, "user lookup failed", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"user": user})
}

func (handler *httpHandler) handlePayment(ctx *gin.Context) {
	handler.handleTransfer(ctx, "payment", handler.client.PayUser)
}

func (handler *httpHandler) handleRequest(ctx *gin.Context) {
	handler.handleTransfer(ctx, "request", handler.client.RequestUser)
}

func (handler *httpHandler) handleTransfer(ctx *gin.Context, kind string, send func(context.Context, venmo.PaymentRequest) error) {
	claims := getClaims(ctx)
	if claims == nil {
		ctx.JSON(http.StatusUnauthorized, errorResponse("unauthorized", "missing session"))
		return
	}
	var payload transferRequest
	if err := ctx.ShouldBindJSON(&payload); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	request, err := payload.toPaymentRequest()
	if err != nil {
		handler.respondError(ctx, kind+" rejected", err)
		return
	}

	requestCtx, cancel := handler.upstreamContext(ctx)
	defer cancel()
	if err := send(requestCtx, request); err != nil {
		handler.respondError(ctx, kind+" failed", err)
		return
	}
	handler.logger.Info(kind+" sent",
		zap.String("actor", claims.GetUserID()),
		zap.String("user_id", request.UserID.String()),
		zap.String("amount", request.Amount.String()))
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (handler *httpHandler) handleJournal(ctx *gin.Context) {
	if getClaims(ctx) == nil {
		ctx.JSON(http.StatusUnauthorized, errorResponse("unauthorized", "missing session"))
		return
	}
	if handler.journal == nil {
		ctx.JSON(http.StatusNotFound, errorResponse("journal_disabled", "no journal database configured"))
		return
	}
	limit := journal.DefaultListLimit
	if rawLimit := ctx.Query("limit"); rawLimit != "" {
		parsed, err := strconv.Atoi(rawLimit)
		if err != nil || parsed <= 0 {
			ctx.JSON(http.StatusBadRequest, errorResponse("invalid_limit", "limit must be a positive integer"))
			return
		}
		limit = parsed
	}
	var before int64
	if rawBefore := ctx.Query("before"); rawBefore != "" {
		parsed, err := strconv.ParseInt(rawBefore, 10, 64)
		if err != nil || parsed <= 0 {
			ctx.JSON(http.StatusBadRequest, errorResponse("invalid_before", "before must be a positive unix timestamp"))
			return
		}
		before = parsed
	}

	records, err := handler.journal.List(ctx.Request.Context(), before, limit)
	if err != nil {
		if errors.Is(err, journal.ErrInvalidLimit) {
			ctx.JSON(http.StatusBadRequest, errorResponse("invalid_limit", fmt.Sprintf("limit must be at most %d", journal.MaxListLimit)))
			return
		}
		handler.logger.Error("journal list failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, errorResponse("journal_error", "journal unavailable"))
		return
	}
	entries := make([]journalPayload, 0, len(records))
	for _, record := range records {
		entries = append(entries, journalPayload{
			RecordID:        record.RecordID,
			Operation:       record.Operation,
			UserID:          record.UserID,
			RecipientID:     record.RecipientID,
			Amount:          record.AmountDecimal,
			Audience:        record.Audience,
			Note:            record.Note,
			FundingSourceID: record.FundingSourceID,
			Status:          record.Status,
			Error:           record.ErrorMessage,
			CreatedUnixUTC:  record.CreatedUnixUTC,
		})
	}
	ctx.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (handler *httpHandler) upstreamContext(ctx *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx.Request.Context(), handler.cfg.UpstreamTimeout)
}

func (handler *httpHandler) respondError(ctx *gin.Context, message string, err error) {
	status, code := classifyError(err)
	if status >= http.StatusInternalServerError {
		handler.logger.Error(message, zap.Error(err))
	}
	ctx.JSON(status, errorResponse(code, err.Error()))
}

func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, venmo.ErrInvalidUserID), errors.Is(err, venmo.ErrInvalidAmount), errors.Is(err, venmo.ErrInvalidAudience):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, venmo.ErrNoFundingSource):
		return http.StatusConflict, "no_funding_source"
	case errors.Is(err, venmo.ErrUnauthorized):
		return http.StatusBadGateway, "upstream_unauthorized"
	case errors.Is(err, venmo.ErrMissingPath):
		return http.StatusBadGateway, "unexpected_response"
	case errors.Is(err, venmo.ErrNotInitialized):
		return http.StatusServiceUnavailable, "not_initialized"
	default:
		return http.StatusBadGateway, "upstream_error"
	}
}

func getClaims(ctx *gin.Context) *sessionvalidator.Claims {
	claimsValue, ok := ctx.Get(claimsContextKey)
	if !ok {
		return nil
	}
	claims, _ := claimsValue.(*sessionvalidator.Claims)
	return claims
}

func errorResponse(code string, message string) gin.H {
	return gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
}

type transferRequest struct {
	UserID   string      `json:"user_id"`
	Amount   json.Number `json:"amount"`
	Note     string      `json:"note"`
	Audience string      `json:"audience"`
}

func (payload transferRequest) toPaymentRequest() (venmo.PaymentRequest, error) {
	userID, err := venmo.NewUserID(payload.UserID)
	if err != nil {
		return venmo.PaymentRequest{}, err
	}
	amount, err := venmo.ParseAmount(payload.Amount.String())
	if err != nil {
		return venmo.PaymentRequest{}, err
	}
	audience, err := venmo.NewAudience(payload.Audience)
	if err != nil {
		return venmo.PaymentRequest{}, err
	}
	return venmo.PaymentRequest{UserID: userID, Amount: amount, Note: payload.Note, Audience: audience}, nil
}

type walletResponse struct {
	Entries  []walletEntryPayload `json:"entries"`
	Selected *string              `json:"selected"`
}

type walletEntryPayload struct {
	ID               string  `json:"id"`
	Role             string  `json:"role"`
	AvailableBalance *string `json:"available_balance"`
}

type journalPayload struct {
	RecordID        string `json:"record_id"`
	Operation       string `json:"operation"`
	UserID          string `json:"user_id"`
	RecipientID     string `json:"recipient_id,omitempty"`
	Amount          string `json:"amount"`
	Audience        string `json:"audience"`
	Note            string `json:"note,omitempty"`
	FundingSourceID string `json:"funding_source_id,omitempty"`
	Status          string `json:"status"`
	Error           string `json:"error,omitempty"`
	CreatedUnixUTC  int64  `json:"created_unix_utc"`
}
