package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mdsaddlery/storefront/internal/config"
	"github.com/mdsaddlery/storefront/internal/handler"
	"github.com/mdsaddlery/storefront/internal/mailer"
	"github.com/mdsaddlery/storefront/internal/middleware"
	"github.com/mdsaddlery/storefront/internal/model"
	"github.com/mdsaddlery/storefront/internal/payment"
	"github.com/mdsaddlery/storefront/internal/ratelimit"
	"github.com/mdsaddlery/storefront/internal/repository"
	"github.com/mdsaddlery/storefront/internal/service"
	"github.com/mdsaddlery/storefront/internal/session"
	"github.com/mdsaddlery/storefront/internal/validator"
	"github.com/mdsaddlery/storefront/pkg/database"
)

func main() {
	// Load configuration first
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	initLogger(cfg)

	ctx := context.Background()

	// Initialize database pool with retry
	pool, err := database.NewPool(ctx, cfg.DB.DSN(), 5)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("failed to apply migrations")
	}

	limiter, rdb := initLimiter(cfg)

	mail := mailer.New(cfg.Mail, cfg.Auth.OTPTTL)
	if !mail.Configured() {
		log.Warn().Msg("SMTP not configured, OTP and order emails will fail")
	}

	issuer := session.NewIssuer(cfg.Auth.JWTSecret)
	ttls := service.TokenTTLs{User: cfg.Auth.UserTokenTTL, Admin: cfg.Auth.AdminTokenTTL}

	// Repositories and services
	accountRepo := repository.NewAccountRepository(pool)
	couponRepo := repository.NewCouponRepository(pool)
	productRepo := repository.NewProductRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)

	otpService := service.NewOTPService(accountRepo, mail, issuer, ttls, service.OTPOptions{
		TTL:         cfg.Auth.OTPTTL,
		MaxAttempts: cfg.Auth.OTPMaxAttempts,
	})
	authService := service.NewAuthService(accountRepo, otpService, issuer, ttls)
	couponService := service.NewCouponService(couponRepo)
	productService := service.NewProductService(productRepo)
	checkoutService := service.NewCheckoutService(pool, orderRepo, couponService, mail)

	validate := validator.New()
	authHandler := handler.NewAuthHandler(authService, otpService, validate)
	couponHandler := handler.NewCouponHandler(couponService, validate)
	productHandler := handler.NewProductHandler(productService, validate)
	checkoutHandler := handler.NewCheckoutHandler(checkoutService, validate)
	uploadHandler := handler.NewUploadHandler(cfg.Server.UploadDir)
	paymentHandler := handler.NewPaymentHandler(payment.NewClient(cfg.Payment, nil), validate)
	healthHandler := handler.NewHealthHandler(pool)
	if rdb != nil {
		healthHandler.WithOptional("redis", handler.PingFunc(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}))
	}

	app := fiber.New(fiber.Config{
		AppName:      "Storefront API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		BodyLimit:    cfg.Server.BodyLimitMB * 1024 * 1024, // covers the 5MB upload cap plus multipart overhead
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{AllowOrigins: cfg.Server.CORSOrigins}))

	app.Static("/uploads", cfg.Server.UploadDir)
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.Check)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	requireUser := middleware.RequireRole(issuer, model.RoleUser)
	requireAdmin := middleware.RequireRole(issuer, model.RoleAdmin)

	// User routes
	users := app.Group("/api/users")
	users.Post("/register", middleware.RateLimit(limiter, "register"), authHandler.Register)
	users.Post("/verify-otp", middleware.RateLimit(limiter, "verify-otp"), authHandler.VerifyOTP)
	users.Post("/resend-otp", middleware.RateLimit(limiter, "resend-otp"), authHandler.ResendOTP)
	users.Post("/login", middleware.RateLimit(limiter, "login"), authHandler.Login)
	users.Post("/forgot-password", middleware.RateLimit(limiter, "forgot-password"), authHandler.ForgotPassword)
	users.Post("/reset-password", middleware.RateLimit(limiter, "reset-password"), authHandler.ResetPassword)
	users.Get("/profile", requireUser, authHandler.GetProfile)
	users.Put("/profile", requireUser, authHandler.UpdateProfile)
	users.Delete("/profile", requireUser, authHandler.DeleteProfile)

	// Admin routes
	admin := app.Group("/api/admin")
	admin.Post("/login", middleware.RateLimit(limiter, "admin-login"), authHandler.AdminLogin)
	admin.Get("/products", requireAdmin, productHandler.List)
	admin.Post("/products", requireAdmin, productHandler.Create)
	admin.Put("/products/:id", requireAdmin, productHandler.Update)
	admin.Delete("/products/:id", requireAdmin, productHandler.Delete)
	admin.Post("/coupons/add", requireAdmin, couponHandler.AddCoupon)
	admin.Get("/coupons", requireAdmin, couponHandler.ListCoupons)
	admin.Delete("/coupons/delete/:id", requireAdmin, couponHandler.DeleteCoupon)

	// Storefront routes
	app.Get("/api/products", productHandler.List)
	app.Get("/api/products/:id", productHandler.Get)
	app.Get("/api/coupons", couponHandler.ListPublic)
	app.Post("/api/coupons/apply", couponHandler.ApplyCoupon)
	app.Post("/api/checkout", checkoutHandler.Checkout)
	app.Get("/api/orders/:phone", checkoutHandler.OrdersByPhone)
	app.Post("/api/upload/custom-fit", uploadHandler.CustomFit)
	app.Post("/api/payments/create-order", paymentHandler.CreateOrder)
	app.Post("/api/payments/capture/:orderId", paymentHandler.Capture)

	// Start server with graceful shutdown
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("starting server")
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	log.Info().Int("timeout_seconds", cfg.Server.ShutdownTimeout).Msg("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer shutdownCancel()

	// Shutdown server (waits for in-flight requests)
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	// Close backends AFTER server shutdown (even if shutdown timed out)
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("error closing redis client")
		}
	}
	log.Info().Msg("closing database connections...")
	pool.Close()
	log.Info().Msg("server stopped")
}

// initLimiter builds the auth endpoint limiter. Redis is used when an
// address is configured, with the in-process limiter behind it.
func initLimiter(cfg *config.Config) (ratelimit.Limiter, *redis.Client) {
	local := ratelimit.NewLocalLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	if cfg.Redis.Addr == "" {
		log.Info().Msg("REDIS_ADDR not set, using in-process rate limiter")
		return local, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	log.Info().Str("addr", cfg.Redis.Addr).Msg("using redis rate limiter")
	return ratelimit.NewRedisLimiter(rdb, "", cfg.RateLimit.RPS, cfg.RateLimit.Burst).WithFallback(local), rdb
}

// initLogger configures zerolog based on the application configuration.
func initLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Log.Pretty {
		// Human-readable output for development
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
			With().Timestamp().Logger()
	} else {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
}
