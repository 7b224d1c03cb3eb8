package main

import (
	"context"
	"fmt"
	"io"

	"github.com/MarkoPoloResearchLab/venmo/internal/journal"
	"github.com/MarkoPoloResearchLab/venmo/pkg/venmo"
	"github.com/spf13/cobra"
)

const (
	flagAmount   = "amount"
	flagNote     = "note"
	flagAudience = "audience"
	flagLimit    = "limit"
	flagBefore   = "before"

	transferPay     = "pay"
	transferRequest = "request"
)

func newBalanceCommand(cfg *runtimeConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Print the account balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithSession(cmd, cfg, true, func(ctx context.Context, opened *session, out io.Writer) error {
				if err := opened.client.Initialize(ctx); err != nil {
					return err
				}
				balance, err := opened.client.Balance()
				if err != nil {
					return err
				}
				return writeJSON(out, map[string]string{"balance": balance.String()})
			})
		},
	}
}

func newTransactionsCommand(cfg *runtimeConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "transactions",
		Short: "Print the personal transaction feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithSession(cmd, cfg, true, func(ctx context.Context, opened *session, out io.Writer) error {
				if err := opened.client.Initialize(ctx); err != nil {
					return err
				}
				history, err := opened.client.TransactionHistory()
				if err != nil {
					return err
				}
				return writeJSON(out, history)
			})
		},
	}
}

func newWalletCommand(cfg *runtimeConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "List funding instruments and, with --amount, the one a payment would use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rawAmount, err := cmd.Flags().GetString(flagAmount)
			if err != nil {
				return err
			}
			var amount *venmo.Amount
			if rawAmount != "" {
				parsed, err := venmo.ParseAmount(rawAmount)
				if err != nil {
					return err
				}
				amount = &parsed
			}
			return runWithSession(cmd, cfg, true, func(ctx context.Context, opened *session, out io.Writer) error {
				entries, err := opened.client.Wallet(ctx)
				if err != nil {
					return err
				}
				return writeJSON(out, walletOutput(entries, amount))
			})
		},
	}
	cmd.Flags().String(flagAmount, "", "payment amount used to pick a funding source")
	return cmd
}

func newUserCommand(cfg *runtimeConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "user <id>",
		Short: "Look up a user by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := venmo.NewUserID(args[0])
			if err != nil {
				return err
			}
			return runWithSession(cmd, cfg, true, func(ctx context.Context, opened *session, out io.Writer) error {
				user, err := opened.client.User(ctx, userID)
				if err != nil {
					return err
				}
				return writeJSON(out, user)
			})
		},
	}
}

func newTransferCommand(cfg *runtimeConfig, kind string) *cobra.Command {
	short := "Send money to a user"
	if kind == transferRequest {
		short = "Request money from a user"
	}
	cmd := &cobra.Command{
		Use:   kind + " <user> <amount>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			request, err := parsePaymentRequest(cmd, args)
			if err != nil {
				return err
			}
			return runWithSession(cmd, cfg, true, func(ctx context.Context, opened *session, out io.Writer) error {
				send := opened.client.PayUser
				if kind == transferRequest {
					send = opened.client.RequestUser
				}
				if err := send(ctx, request); err != nil {
					return err
				}
				return writeJSON(out, map[string]string{
					"status":   "ok",
					"action":   kind,
					"user_id":  request.UserID.String(),
					"amount":   request.Amount.String(),
					"audience": request.Audience.String(),
				})
			})
		},
	}
	cmd.Flags().String(flagNote, "", "note attached to the transaction")
	cmd.Flags().String(flagAudience, string(venmo.AudiencePrivate), "visibility: private, friends or public")
	return cmd
}

func parsePaymentRequest(cmd *cobra.Command, args []string) (venmo.PaymentRequest, error) {
	userID, err := venmo.NewUserID(args[0])
	if err != nil {
		return venmo.PaymentRequest{}, err
	}
	amount, err := venmo.ParseAmount(args[1])
	if err != nil {
		return venmo.PaymentRequest{}, err
	}
	note, err := cmd.Flags().GetString(flagNote)
	if err != nil {
		return venmo.PaymentRequest{}, err
	}
	rawAudience, err := cmd.Flags().GetString(flagAudience)
	if err != nil {
		return venmo.PaymentRequest{}, err
	}
	audience, err := venmo.NewAudience(rawAudience)
	if err != nil {
		return venmo.PaymentRequest{}, err
	}
	return venmo.PaymentRequest{UserID: userID, Amount: amount, Note: note, Audience: audience}, nil
}

func newJournalCommand(cfg *runtimeConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Print recorded pay and request attempts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, err := cmd.Flags().GetInt(flagLimit)
			if err != nil {
				return err
			}
			before, err := cmd.Flags().GetInt64(flagBefore)
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("%s is required for the journal", flagDatabaseURL)
			}
			return runWithSession(cmd, cfg, false, func(ctx context.Context, opened *session, out io.Writer) error {
				records, err := opened.journal.List(ctx, before, limit)
				if err != nil {
					return err
				}
				return writeJSON(out, journalOutput(records))
			})
		},
	}
	cmd.Flags().Int(flagLimit, journal.DefaultListLimit, fmt.Sprintf("maximum records to print (at most %d)", journal.MaxListLimit))
	cmd.Flags().Int64(flagBefore, 0, "only records created before this unix time")
	return cmd
}

type walletEntryOutput struct {
	ID               string  `json:"id"`
	Role             string  `json:"role"`
	AvailableBalance *string `json:"available_balance"`
}

type walletReport struct {
	Entries  []walletEntryOutput `json:"entries"`
	Selected *string             `json:"selected,omitempty"`
}

func walletOutput(entries []venmo.WalletEntry, amount *venmo.Amount) walletReport {
	report := walletReport{Entries: make([]walletEntryOutput, 0, len(entries))}
	for _, entry := range entries {
		output := walletEntryOutput{ID: entry.ID.String(), Role: string(entry.Role)}
		if entry.AvailableBalance != nil {
			balance := entry.AvailableBalance.String()
			output.AvailableBalance = &balance
		}
		report.Entries = append(report.Entries, output)
	}
	if amount != nil {
		if fundingSourceID, found := venmo.SelectFundingSource(entries, amount.Decimal()); found {
			selected := fundingSourceID.String()
			report.Selected = &selected
		}
	}
	return report
}

type journalRecordOutput struct {
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

func journalOutput(records []journal.Record) []journalRecordOutput {
	output := make([]journalRecordOutput, 0, len(records))
	for _, record := range records {
		output = append(output, journalRecordOutput{
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
	return output
}
