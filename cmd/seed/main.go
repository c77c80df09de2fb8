// Package main seeds the minimum state the engine needs to run: the platform
// user and wallet that receive commissions, an operator account and the
// default commission rules.
package main

import (
	"context"
	"errors"
	"log"
	"os"

	"moneta/internal/config"
	"moneta/internal/models"
	"moneta/internal/repositories"
	"moneta/internal/services/commission"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	config.LoadEnv()

	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminEmail == "" || adminPassword == "" {
		log.Fatal("ADMIN_EMAIL and ADMIN_PASSWORD must be set in environment")
	}

	if err := repositories.InitDB(); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer func() {
		if sqlDB, err := repositories.DB.DB(); err == nil {
			sqlDB.Close()
		}
		if repositories.CacheService != nil {
			repositories.CacheService.Close()
		}
	}()

	ctx := context.Background()
	store := repositories.NewStore(repositories.DB)

	platformWallet := seedPlatform(ctx, store)
	seedOperator(adminEmail, adminPassword)
	seedRules(ctx, store)

	log.Printf("Seed complete. Set PLATFORM_WALLET_ID=%d for the server.", platformWallet.ID)
}

func seedPlatform(ctx context.Context, store repositories.Store) *models.Wallet {
	platform := models.User{
		Email:    config.GetEnv("PLATFORM_EMAIL", "platform@moneta.local"),
		Password: "-",
		Role:     models.RoleAdmin,
	}
	if err := repositories.DB.Where("email = ?", platform.Email).FirstOrCreate(&platform).Error; err != nil {
		log.Fatal("Failed to create platform user:", err)
	}

	wallet := &models.Wallet{
		OwnerID: platform.ID,
		Balance: decimal.Zero,
		Status:  models.WalletStatusActive,
	}
	err := store.Wallets().Create(ctx, wallet)
	if errors.Is(err, repositories.ErrWalletExists) {
		wallet, err = store.Wallets().GetByOwner(ctx, platform.ID)
	}
	if err != nil {
		log.Fatal("Failed to create platform wallet:", err)
	}
	return wallet
}

func seedOperator(email, password string) {
	var existing models.User
	if err := repositories.DB.Where("email = ?", email).First(&existing).Error; err == nil {
		log.Println("Operator account already exists")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal("Failed to hash password:", err)
	}

	operator := models.User{
		Email:    email,
		Password: string(hashed),
		Role:     models.RoleAdmin,
	}
	if err := repositories.DB.Create(&operator).Error; err != nil {
		log.Fatal("Failed to create operator account:", err)
	}
	log.Println("Operator account created")
}

func seedRules(ctx context.Context, store repositories.Store) {
	rules := commission.NewService(store, repositories.CacheService)

	defaults := []models.CommissionRule{
		{Action: models.ActionSendMoney, Audience: models.AudienceUser, Kind: models.CommissionPercentage, Value: decimal.NewFromInt(1)},
		{Action: models.ActionQRPayment, Audience: models.AudienceMerchant, Kind: models.CommissionPercentage, Value: decimal.NewFromInt(2)},
		{Action: models.ActionWithdrawal, Audience: models.AudienceUser, Kind: models.CommissionPercentage, Value: decimal.NewFromInt(1)},
		{Action: models.ActionMerchantRecharge, Audience: models.AudienceMerchant, Kind: models.CommissionFixed, Value: decimal.NewFromInt(100)},
	}
	for i := range defaults {
		rule := defaults[i]
		if existing, err := rules.Resolve(ctx, rule.Action, rule.Audience); err == nil && existing != nil {
			continue
		}
		if err := rules.CreateRule(ctx, &rule); err != nil {
			log.Fatalf("Failed to seed rule %s/%s: %v", rule.Action, rule.Audience, err)
		}
	}
	log.Println("Default commission rules in place")
}
