package internal

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	stayhavenHTTP "stayhaven/internal/controller/http"
	"stayhaven/internal/gateway"
	"stayhaven/internal/repo/persistent"
	"stayhaven/internal/usecase"
	"stayhaven/pkg/config"
	"stayhaven/pkg/jwt"
	"stayhaven/pkg/logger"
	"stayhaven/pkg/middleware"
	"stayhaven/pkg/queue"
	"stayhaven/pkg/s3"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "stayhaven/docs" // Swagger docs
)

const sweepInterval = 15 * time.Minute

func Run(cfg *config.Config, log *logger.Logger, db *gorm.DB, s3Client *s3.Client, queueClient *queue.Client, redisClient *redis.Client) {
	jwtService := jwt.NewService(cfg.JWTSecret)

	paymentGateway, err := gateway.New(cfg, log)
	if err != nil {
		log.Error("Failed to initialize payment gateway: %v", err)
		panic(err)
	}

	// Initialize repositories
	walletRepo := persistent.NewWalletRepository(db)
	bookingRepo := persistent.NewBookingRepository(db)
	listingRepo := persistent.NewListingRepository(db)

	// Initialize use cases
	walletUseCase := usecase.NewWalletUseCase(walletRepo, paymentGateway, redisClient, queueClient, cfg, log)
	reconUseCase := usecase.NewReconciliationUseCase(walletRepo, bookingRepo, paymentGateway, s3Client, queueClient, redisClient, cfg, log)
	bookingUseCase := usecase.NewBookingUseCase(bookingRepo, listingRepo, walletRepo, walletUseCase, paymentGateway, cfg, log)
	listingUseCase := usecase.NewListingUseCase(listingRepo, redisClient, log)

	// Initialize HTTP handlers
	walletHandler := stayhavenHTTP.NewWalletHandler(walletUseCase, log)
	webhookHandler := stayhavenHTTP.NewWebhookHandler(reconUseCase, log)
	bookingHandler := stayhavenHTTP.NewBookingHandler(bookingUseCase, log)
	listingHandler := stayhavenHTTP.NewListingHandler(listingUseCase, log)
	adminHandler := stayhavenHTTP.NewAdminHandler(walletUseCase, reconUseCase, log)

	// Setup router
	r := gin.Default()

	// CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://127.0.0.1:3000", "*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * 3600,
	}))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Swagger documentation
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Gateway webhooks authenticate by signature, not JWT
	r.POST("/webhooks/:provider", webhookHandler.HandleGatewayWebhook)

	// Public listing browsing
	public := r.Group("/api/v1")
	{
		public.GET("/listings", listingHandler.SearchListings)
		public.GET("/listings/:id", listingHandler.GetListing)
		public.GET("/listings/:id/reviews", listingHandler.GetReviews)
	}

	api := r.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(jwtService))
	api.Use(middleware.RateLimitMiddleware(redisClient, 100, time.Minute))

	{
		api.GET("/wallet", walletHandler.GetWallet)
		api.POST("/wallet/deposits", walletHandler.InitiateDeposit)
		api.POST("/wallet/withdrawals", walletHandler.Withdraw)
		api.GET("/wallet/transactions", walletHandler.GetTransactions)

		api.POST("/bookings", bookingHandler.CreateBooking)
		api.GET("/bookings", bookingHandler.GetMyBookings)
		api.GET("/bookings/hosting", bookingHandler.GetHostBookings)
		api.GET("/bookings/:id", bookingHandler.GetBooking)
		api.POST("/bookings/:id/pay", bookingHandler.PayForBooking)
		api.POST("/bookings/:id/complete", bookingHandler.CompleteBooking)
		api.POST("/bookings/:id/cancel", bookingHandler.CancelBooking)

		api.POST("/listings", listingHandler.CreateListing)
		api.PUT("/listings/:id", listingHandler.UpdateListing)
		api.DELETE("/listings/:id", listingHandler.DeactivateListing)
		api.GET("/listings/mine", listingHandler.GetMyListings)
		api.POST("/listings/:id/reviews", listingHandler.AddReview)
		api.POST("/listings/:id/favorite", listingHandler.AddFavorite)
		api.DELETE("/listings/:id/favorite", listingHandler.RemoveFavorite)
		api.GET("/favorites", listingHandler.GetFavorites)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.RequireAdmin())
	{
		admin.POST("/wallets/adjust", walletHandler.Adjust)
		admin.GET("/wallets/:user_id/integrity", adminHandler.CheckIntegrity)
		admin.GET("/reconciliation/unmatched", adminHandler.ListUnmatched)
		admin.POST("/reconciliation/transactions/:id/verify", adminHandler.VerifyTransaction)
		admin.POST("/reconciliation/sweep", adminHandler.SweepPending)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// Start server in a goroutine
	go func() {
		log.Info("Stayhaven API starting on port %s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Failed to start server: %v", err)
			panic(err)
		}
	}()

	// Periodically re-verify stale pending transactions with the gateway.
	// Covers webhooks that were lost or never delivered.
	sweepDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
				settled, err := reconUseCase.SweepPending(ctx, 30*time.Minute, 100)
				cancel()
				if err != nil {
					log.Error("Pending sweep failed: %v", err)
				} else if settled > 0 {
					log.Info("Pending sweep settled %d transactions", settled)
				}
			case <-sweepDone:
				return
			}
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down Stayhaven API...")
	close(sweepDone)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Close database connection
	sqlDB, err := db.DB()
	if err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Error("Error closing database: %v", err)
		}
	}

	// Close Redis connection
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error("Error closing Redis: %v", err)
		}
	}

	// Close RabbitMQ connection
	if queueClient != nil {
		if err := queueClient.Close(); err != nil {
			log.Error("Error closing RabbitMQ: %v", err)
		}
	}

	// Shutdown server
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
		panic(err)
	}

	log.Info("Stayhaven API exited")
}
