package main

import (
	"fmt"
	"lounge-portal/internal/client"
	"lounge-portal/internal/config"
	"lounge-portal/internal/logger"
	"lounge-portal/internal/realtime"
	"lounge-portal/internal/repository"
	"lounge-portal/internal/server"
	"lounge-portal/internal/service"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type app struct {
	cfg *config.Config
	log *logrus.Logger
	db  *gorm.DB
}

func loadApp() (*app, error) {
	// load .env into os.Environ
	envErr := godotenv.Load()

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	log := logger.New(cfg.Log)
	if envErr != nil {
		log.Debug("no .env file found (ok in prod)")
	}

	db, err := client.InitDBClient(cfg.Database)
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, log: log, db: db}, nil
}

func (a *app) cartService() (service.CartService, error) {
	taxRate, err := decimal.NewFromString(a.cfg.Pricing.CartTaxRate)
	if err != nil {
		return nil, fmt.Errorf("parse CART_TAX_RATE: %w", err)
	}

	return service.NewCartService(a.db, repository.NewCartRepository(a.db), repository.NewMenuRepository(a.db), taxRate, a.log), nil
}

func (a *app) services(hub *realtime.Hub) (*server.Services, error) {
	vatRate, err := decimal.NewFromString(a.cfg.Pricing.CheckoutVATRate)
	if err != nil {
		return nil, fmt.Errorf("parse CHECKOUT_VAT_RATE: %w", err)
	}

	cartService, err := a.cartService()
	if err != nil {
		return nil, err
	}

	stripeClient := client.NewStripeClient(&a.cfg.Stripe)

	cartRepo := repository.NewCartRepository(a.db)
	orderRepo := repository.NewOrderRepository(a.db)
	reservationRepo := repository.NewReservationRepository(a.db)
	savedCardRepo := repository.NewSavedCardRepository(a.db)
	processedRepo := repository.NewProcessedPaymentRepository(a.db)
	notificationRepo := repository.NewNotificationRepository(a.db)
	chatRepo := repository.NewChatRepository(a.db)
	menuRepo := repository.NewMenuRepository(a.db)
	registry := repository.NewPurchasableRegistry(orderRepo, cartRepo)

	notificationService := service.NewNotificationService(a.db, notificationRepo, hub)

	return &server.Services{
		Cart:         cartService,
		Checkout:     service.NewCheckoutService(a.db, stripeClient, registry, a.cfg.BaseURL, a.cfg.Stripe.Currency, vatRate, a.log),
		Payment:      service.NewPaymentService(a.db, stripeClient, registry, processedRepo, savedCardRepo, notificationService, vatRate, a.log),
		Purchase:     service.NewPurchaseService(a.db, cartRepo, orderRepo, reservationRepo, a.log),
		Notification: notificationService,
		Chat:         service.NewChatService(chatRepo, hub),
		Staff:        service.NewStaffService(a.db, orderRepo, notificationService, a.log),
		User:         service.NewUserService(savedCardRepo),
		Menu:         service.NewMenuService(menuRepo),
	}, nil
}

func (a *app) close() {
	if sqlDB, err := a.db.DB(); err == nil {
		sqlDB.Close()
	}
}
