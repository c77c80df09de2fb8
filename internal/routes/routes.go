// Package routes defines the API routing configuration. It wires the service
// graph, groups routes by functionality and applies authentication middleware.
package routes

import (
	"moneta/internal/config"
	"moneta/internal/handlers"
	"moneta/internal/middleware"
	"moneta/internal/repositories"
	"moneta/internal/services/commission"
	"moneta/internal/services/funding"
	"moneta/internal/services/refund"
	"moneta/internal/services/schedule"
	"moneta/internal/services/settlement"
	"moneta/internal/services/sideeffect"
	"moneta/internal/services/statement"
	"moneta/internal/services/wallet"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// Services bundles the long-lived service graph so main can start the
// background workers built from the same instances the handlers use.
type Services struct {
	Wallet     wallet.Service
	Commission commission.Service
	Settlement settlement.Service
	Refund     refund.Service
	Schedule   schedule.Service
	Statement  statement.Service
	Funding    funding.Service
	Dispatcher *sideeffect.Dispatcher
}

// BuildServices constructs the service graph against the global store.
func BuildServices() *Services {
	store := repositories.NewStore(repositories.DB)
	platformWalletID := uint(config.GetUintEnv("PLATFORM_WALLET_ID", 1))

	walletService := wallet.NewService(store, repositories.CacheService, nil)
	commissionService := commission.NewService(store, repositories.CacheService)
	settlementService := settlement.NewService(
		store,
		commissionService,
		walletService,
		repositories.CacheService,
		settlement.Config{PlatformWalletID: platformWalletID},
	)
	refundService := refund.NewService(store, settlementService, walletService)
	scheduleService := schedule.NewService(store, settlementService, schedule.Config{})
	statementService := statement.NewService(store, statement.Config{PlatformWalletID: platformWalletID})
	fundingService := funding.NewService(store, settlementService, walletService, platformWalletID)

	referralBonus := decimal.NewFromInt(int64(config.GetIntEnv("REFERRAL_BONUS", 500)))
	dispatcher := sideeffect.NewDispatcher()
	dispatcher.Register(sideeffect.NewRewardHandler(store))
	dispatcher.Register(sideeffect.NewReferralHandler(store, settlementService, platformWalletID, referralBonus))
	dispatcher.Register(sideeffect.NewStockHandler(store))
	dispatcher.Register(sideeffect.NewNotificationHandler(store, nil))

	return &Services{
		Wallet:     walletService,
		Commission: commissionService,
		Settlement: settlementService,
		Refund:     refundService,
		Schedule:   scheduleService,
		Statement:  statementService,
		Funding:    fundingService,
		Dispatcher: dispatcher,
	}
}

// SetupRoutes configures all application routes.
func SetupRoutes(app *fiber.App, svcs *Services) {
	walletHandler := handlers.NewWalletHandler(svcs.Wallet)
	transferHandler := handlers.NewTransferHandler(svcs.Settlement, svcs.Schedule)
	paymentHandler := handlers.NewPaymentHandler(svcs.Settlement)
	refundHandler := handlers.NewRefundHandler(svcs.Refund)
	statementHandler := handlers.NewStatementHandler(svcs.Statement)
	fundingHandler := handlers.NewFundingHandler(svcs.Funding)
	adminHandler := handlers.NewAdminHandler(svcs.Commission, svcs.Funding, svcs.Wallet)

	app.Get("/health", handlers.HealthCheck)

	api := app.Group("/api")
	authenticated := api.Group("/", middleware.AuthMiddleware)

	w := authenticated.Group("/wallet")
	w.Post("/", walletHandler.CreateWallet)
	w.Get("/", walletHandler.GetWallet)
	w.Get("/balance", walletHandler.GetBalance)
	w.Get("/statement", statementHandler.GetStatement)

	authenticated.Post("/transfer", transferHandler.SendMoney)
	authenticated.Get("/transfer/scheduled/:id", transferHandler.GetScheduledTransfer)
	authenticated.Post("/payment", paymentHandler.Pay)
	authenticated.Post("/refund", refundHandler.Refund)

	authenticated.Post("/withdrawals", fundingHandler.RequestWithdrawal)
	authenticated.Post("/recharges", fundingHandler.RequestRecharge)
	authenticated.Post("/recharges/card", fundingHandler.RequestCardRecharge)

	merchant := authenticated.Group("/merchant")
	merchant.Post("/recharge-debit", fundingHandler.DebitMerchantRecharge)

	admin := authenticated.Group("/admin", middleware.AdminAuthMiddleware)
	admin.Post("/commission-rules", adminHandler.CreateCommissionRule)
	admin.Get("/commission-rules", adminHandler.ListCommissionRules)
	admin.Post("/withdrawals/:id/approve", adminHandler.ApproveWithdrawal)
	admin.Post("/withdrawals/:id/reject", adminHandler.RejectWithdrawal)
	admin.Post("/recharges/:id/approve", adminHandler.ApproveRecharge)
	admin.Post("/recharges/:id/reject", adminHandler.RejectRecharge)
	admin.Post("/wallets/:id/lock", adminHandler.LockWallet)
	admin.Post("/wallets/:id/unlock", adminHandler.UnlockWallet)
}
