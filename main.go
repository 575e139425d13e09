package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"peelojuice/internal/auth"
	"peelojuice/internal/cart"
	cart_api "peelojuice/internal/cart/api"
	cartdb "peelojuice/internal/cart/db"
	catalog_api "peelojuice/internal/catalog/api"
	catalogdb "peelojuice/internal/catalog/db"
	"peelojuice/internal/checkout"
	checkout_api "peelojuice/internal/checkout/api"
	checkoutdb "peelojuice/internal/checkout/db"
	checkoutredis "peelojuice/internal/checkout/redis"
	"peelojuice/internal/config"
	coupondb "peelojuice/internal/coupon/db"
	"peelojuice/internal/database/migrations"
	"peelojuice/internal/kafka"
	"peelojuice/internal/logger"
	"peelojuice/internal/notify"
	"peelojuice/internal/order"
	order_api "peelojuice/internal/order/api"
	orderdb "peelojuice/internal/order/db"
	"peelojuice/internal/payment"
	payment_api "peelojuice/internal/payment/api"
	paymentdb "peelojuice/internal/payment/db"
	"peelojuice/internal/payment/gateway"
	users_api "peelojuice/internal/users/api"
	usersdb "peelojuice/internal/users/db"
)

func connectDatabase(cfg config.DatabaseConfig, log *logger.Logger) *bun.DB {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Connecting to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", dsn)
		if err == nil {
			err = sqldb.Ping()
		}
		if err == nil {
			break
		}
		log.Error("DATABASE", fmt.Sprintf("PostgreSQL connection failed: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.MaxLifetime)

	log.Info("DATABASE", "PostgreSQL connection successful")
	return bun.NewDB(sqldb, pgdialect.New())
}

func connectRedis(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{Addr: cfg.Addr})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Redis connection error: %v", err))
	}
	log.Info("DATABASE", fmt.Sprintf("Redis connection successful to %s", cfg.Addr))
	return client
}

func main() {
	log := logger.NewLogger()
	defer log.Close()

	log.Info("APP", "Starting juice ordering service")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	ctx := context.Background()

	bunDB := connectDatabase(cfg.Database, log)
	defer bunDB.Close()

	redisClient := connectRedis(ctx, cfg.Redis, log)
	defer redisClient.Close()

	migrator := migrations.NewRunner(bunDB, migrations.DefaultOptions(), log)
	if err := migrator.MigrateUp(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Migrations failed: %v", err))
	}
	defer migrator.Close()

	producer := kafka.NewProducer(cfg.Kafka, log)
	defer producer.Close()

	// Storage layers.
	cartStore := &cartdb.DB{Bun: bunDB}
	catalogStore := &catalogdb.DB{Bun: bunDB}
	couponStore := &coupondb.DB{Bun: bunDB}
	orderStore := &orderdb.DB{Bun: bunDB}
	checkoutStore := &checkoutdb.DB{Bun: bunDB}
	paymentStore := &paymentdb.DB{Bun: bunDB}
	userStore := &usersdb.DB{Bun: bunDB}

	// Outbound collaborators.
	emailSender := notify.NewEmailSender(cfg.Email)
	fcmClient := notify.NewFCMClient(cfg.FCM)
	notifier := notify.NewNotifier(userStore, emailSender, fcmClient, log)
	gatewayClient := gateway.NewClient(cfg.Gateway, log)
	checkoutLock := checkoutredis.NewRedis(redisClient)

	// Services.
	cartService := cart.NewCartService(cartStore, catalogStore, couponStore, log)
	checkoutService := checkout.NewCheckoutService(
		checkoutStore, cartStore, catalogStore, couponStore, userStore,
		checkoutLock, producer, notifier, log)
	orderService := order.NewOrderService(orderStore, paymentStore, producer, log)
	paymentService := payment.NewPaymentService(paymentStore, orderStore, gatewayClient, producer, notifier, log)

	// HTTP handlers.
	cartHandler := cart_api.NewHandler(cartService, log)
	checkoutHandler := checkout_api.NewHandler(checkoutService, log)
	orderHandler := order_api.NewHandler(orderService, log)
	paymentHandler := payment_api.NewHandler(paymentService, log)
	catalogHandler := catalog_api.NewHandler(catalogStore, log)
	addressHandler := users_api.NewHandler(userStore, log)

	log.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", payment_api.GatewaySignatureHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Route("/api/v1", func(r chi.Router) {
		// --- Public routes ---
		r.Get("/catalog/juices", catalogHandler.ListJuices)
		r.Get("/catalog/branches", catalogHandler.ListBranches)
		r.Post("/payments/gateway/webhook", paymentHandler.Webhook)

		// --- Protected routes ---
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware())

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartHandler.GetCart)
				r.Post("/items", cartHandler.AddItem)
				r.Post("/items/update", cartHandler.UpdateItem)
				r.Delete("/items", cartHandler.RemoveItem)
				r.Post("/items/instructions", cartHandler.SetItemInstructions)
				r.Post("/coupon", cartHandler.ApplyCoupon)
				r.Delete("/coupon", cartHandler.RemoveCoupon)
			})

			r.Post("/checkout", checkoutHandler.Checkout)

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", orderHandler.ListMine)
				r.Get("/{orderID}", orderHandler.GetOrder)
				r.Post("/{orderID}/cancel", orderHandler.Cancel)
			})

			r.Route("/staff/orders", func(r chi.Router) {
				r.Get("/", orderHandler.ListForBranch)
				r.Get("/{orderID}", orderHandler.GetForStaff)
				r.Post("/{orderID}/status", orderHandler.SetStatus)
			})

			r.Route("/payments", func(r chi.Router) {
				r.Get("/order/{orderID}", paymentHandler.GetForOrder)
				r.Post("/{paymentID}/confirm-cod", paymentHandler.ConfirmCOD)
				r.Post("/gateway/order", paymentHandler.CreateGatewayOrder)
				r.Post("/gateway/verify", paymentHandler.Verify)
			})

			r.Route("/addresses", func(r chi.Router) {
				r.Get("/", addressHandler.ListAddresses)
				r.Post("/", addressHandler.CreateAddress)
				r.Delete("/{addressID}", addressHandler.DeleteAddress)
			})
		})
	})
	log.Info("ROUTER", "Routes registered under /api/v1")

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("Juice ordering service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server shutdown failed: %v", err))
	}
	log.Info("APP", "Shutdown complete")
}
