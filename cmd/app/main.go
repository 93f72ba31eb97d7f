package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nyikasafaris/safaribooking/api"
	"github.com/nyikasafaris/safaribooking/config"
	"github.com/nyikasafaris/safaribooking/internal/bootstrap"
	"github.com/nyikasafaris/safaribooking/internal/cache"
	"github.com/nyikasafaris/safaribooking/internal/clock"
	"github.com/nyikasafaris/safaribooking/internal/gateway"
	"github.com/nyikasafaris/safaribooking/internal/kafka"
	"github.com/nyikasafaris/safaribooking/internal/repository"
	"github.com/nyikasafaris/safaribooking/internal/service/booking"
	"github.com/nyikasafaris/safaribooking/internal/service/packages"
	"github.com/nyikasafaris/safaribooking/internal/service/payment"
	"github.com/sirupsen/logrus"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.PackagesCacheTTL)*time.Second)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	gatewayClient := gateway.New(cfg.Gateway, cfg.HTTP.BaseURL)
	clk := clock.NewSystem()

	bookingRepo := repository.NewBookingRepository(pool)
	paymentRepo := repository.NewPaymentRepository(pool)
	packageRepo := repository.NewPackageRepository(pool)

	bookingService := booking.NewBookingService(
		bookingRepo,
		packageRepo,
		producer,
		cfg.Kafka.NotificationsTopic,
		clk,
		logger,
		booking.WithUrgentThresholdDays(cfg.Booking.UrgentThresholdDays),
		booking.WithDefaultCurrency(cfg.Booking.DefaultCurrency),
	)
	paymentService := payment.NewPaymentService(
		paymentRepo,
		bookingRepo,
		gatewayClient,
		producer,
		cfg.Gateway.CallbackURL,
		clk,
		logger,
		payment.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
	)
	packageService := packages.NewPackageService(packageRepo, redisCache)

	handlers := bootstrap.Handlers{
		Bookings: api.NewBookingHandler(bookingService),
		Payments: api.NewPaymentHandler(paymentService, gatewayClient),
		Packages: api.NewPackageHandler(packageService),
	}

	if err := bootstrap.Run(ctx, cfg, logger, handlers); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
