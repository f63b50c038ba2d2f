package cli

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/SscSPs/estate_ledger_core/internal/core/services"
	"github.com/SscSPs/estate_ledger_core/internal/dto"
	"github.com/SscSPs/estate_ledger_core/internal/middleware"
	"github.com/SscSPs/estate_ledger_core/internal/platform/config"
)

func init() {
	rootCmd.AddCommand(dealCmd)
	dealCmd.AddCommand(dealAddCmd)

	dealAddCmd.Flags().String("id", "", "Deal ID as known to the CRM")
	dealAddCmd.Flags().String("client", "", "Client ID owning the deal")
	dealAddCmd.Flags().String("amount", "", "Deal amount, e.g. 250000.00")
	dealAddCmd.Flags().String("title", "", "Optional deal title")
	_ = dealAddCmd.MarkFlagRequired("id")
	_ = dealAddCmd.MarkFlagRequired("amount")
}

// cliActor is recorded as the acting user for commands run by an operator.
const cliActor = "cli"

var dealCmd = &cobra.Command{
	Use:   "deal",
	Short: "Manage the deal references payment plans are built on",
	Long: `Deals are owned by the CRM. The ledger keeps only the id, client and
amount it needs to validate payment plans and receipts.`,
}

var dealAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a deal",
	Args:  cobra.NoArgs,
	RunE:  runDealAdd,
}

func runDealAdd(cmd *cobra.Command, _ []string) error {
	id, _ := cmd.Flags().GetString("id")
	clientID, _ := cmd.Flags().GetString("client")
	amountStr, _ := cmd.Flags().GetString("amount")
	title, _ := cmd.Flags().GetString("title")

	amount, err := decimal.NewFromString(strings.TrimSpace(amountStr))
	if err != nil {
		return fmt.Errorf("invalid --amount %q: %w", amountStr, err)
	}
	if !amount.IsPositive() {
		return fmt.Errorf("--amount must be positive, got %s", amount)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := newLogger(cfg)
	if cfg.StoreDriver != config.StoreDriverPostgres {
		return fmt.Errorf("deal add needs STORE_DRIVER=%s, got %q; with the memory store use POST /api/v1/deals on a running server", config.StoreDriverPostgres, cfg.StoreDriver)
	}

	repos, closeStore, err := openStore(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	ctx := middleware.WithLogger(cmd.Context(), logger)
	deals := services.NewDealService(repos.PaymentPlanRepo)
	deal, err := deals.RegisterDeal(ctx, dto.RegisterDealRequest{
		DealID:   id,
		ClientID: clientID,
		Title:    title,
		Amount:   amount,
	}, cliActor)
	if err != nil {
		return fmt.Errorf("failed to register deal %s: %w", id, err)
	}
	logger.Info("Deal saved", slog.String("deal_id", deal.DealID), slog.String("client_id", deal.ClientID), slog.String("amount", deal.Amount.StringFixed(2)))
	return nil
}
