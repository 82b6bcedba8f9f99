package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/handlers"
	"storefront/internal/logger"
	"storefront/internal/messaging"
	"storefront/internal/middleware"
	"storefront/internal/orderflow"
	"storefront/internal/stats"
)

func main() {
	config.Load()
	cfg := config.AppEnv

	if err := logger.Init(logger.Config{
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
		Output:     cfg.LogOutput,
		File:       cfg.LogFile,
		MaxSize:    cfg.LogMaxSize,
		MaxBackups: cfg.LogMaxBackups,
		MaxAge:     cfg.LogMaxAge,
	}); err != nil {
		logger.L().WithError(err).Warn("logger init failed, using defaults")
	}
	log := logger.For("MAIN")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := database.Connect(cfg.MongoURI)
	if err != nil {
		log.WithError(err).Fatal("mongo connect failed")
	}
	defer func() {
		_ = client.Disconnect(context.Background())
	}()

	db := client.Database(cfg.DBName)
	log.WithField("db", db.Name()).Info("MongoDB connected")

	database.EnsureAll(db)
	if cfg.MigrateLegacyOrders {
		if _, err := database.MigrateLegacy(ctx, db, cfg.Location()); err != nil {
			log.WithError(err).Error("legacy migration failed")
		}
	}

	orderRepo := database.NewOrderRepo(db)
	messageRepo := database.NewMessageRepo(db)
	userRepo := database.NewUserRepo(db)
	reviewRepo := database.NewReviewRepo(db)
	productRepo := database.NewProductRepo(db)
	cartRepo := database.NewCartRepo(db)

	adminIdentity := messaging.AdminIdentity{ID: cfg.AdminID, Aliases: cfg.AdminAliases}

	jwtVerifier := middleware.NewJWTVerifier(cfg.JWTSecret)
	var verifier middleware.TokenVerifier = jwtVerifier
	if cfg.FirebaseProject != "" {
		fbAuth, err := middleware.NewFirebaseAuth(ctx, cfg.FirebaseProject, cfg.FirebaseCreds)
		if err != nil {
			log.WithError(err).Fatal("firebase auth init failed")
		}
		verifier = middleware.ChainVerifier{
			jwtVerifier,
			middleware.NewFirebaseVerifier(fbAuth, adminIdentity.ReceiverIDs()),
		}
		log.WithField("project", cfg.FirebaseProject).Info("firebase ID tokens accepted")
	}

	machine := orderflow.NewMachine(nil)
	collector := stats.NewCollector(orderRepo, cfg.Location(), cfg.BestSellersTopN, nil)
	chat := handlers.Chat{
		Messages:     messageRepo,
		Admin:        adminIdentity,
		PollInterval: cfg.StreamPollInterval,
	}
	pricing := handlers.Pricing{
		ShippingFee: cfg.ShippingFee,
		TaxRate:     cfg.TaxRate,
		Coupons:     cfg.Coupons,
	}
	sendLimit := middleware.RateLimit(middleware.NewRateLimiter(cfg.MessageRatePerMinute, 10*time.Minute))

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger())

	r.GET("/healthz", func(c *gin.Context) {
		if err := database.Ping(c.Request.Context(), db); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/auth/register", handlers.Register(userRepo, jwtVerifier, cfg.AccessTokenTTL))
	r.POST("/auth/login", handlers.Login(userRepo, jwtVerifier, cfg.AccessTokenTTL))
	r.POST("/admin/login", handlers.AdminLogin(userRepo, jwtVerifier, cfg.AccessTokenTTL))

	r.GET("/products", handlers.GetProducts(productRepo))
	r.GET("/products/best-sellers", handlers.GetBestSellers(collector, productRepo))
	r.GET("/products/:id/reviews", handlers.GetProductReviews(reviewRepo))

	user := r.Group("")
	user.Use(middleware.UserAuth(verifier), handlers.SyncProfile(userRepo))
	{
		user.GET("/auth/me", handlers.GetMe(userRepo))
		user.PUT("/auth/me", handlers.UpdateMe(userRepo))

		user.POST("/orders", handlers.CreateOrder(orderRepo, pricing))
		user.GET("/orders/mine", handlers.GetMyOrders(orderRepo))
		user.POST("/orders/:id/reviews", handlers.CreateReview(orderRepo, reviewRepo, nil))
		user.PUT("/reviews/:id", handlers.UpdateReview(reviewRepo))

		user.GET("/messages", handlers.GetMyThread(chat))
		user.POST("/messages", sendLimit, handlers.SendToAdmin(chat))
		user.POST("/messages/read", handlers.MarkMyThreadRead(chat))
		user.GET("/messages/stream", handlers.StreamMyThread(chat))

		user.GET("/favorites", handlers.GetUserFavorites(userRepo, productRepo))
		user.POST("/favorites", handlers.AddUserFavorite(userRepo, productRepo))
		user.DELETE("/favorites/:productId", handlers.DeleteUserFavorite(userRepo, productRepo))

		user.GET("/cart", handlers.GetCart(cartRepo))
		user.POST("/cart", handlers.AddToCart(cartRepo, productRepo))
		user.DELETE("/cart", handlers.ClearCart(cartRepo))
		user.PUT("/cart/:id", handlers.UpdateCartItem(cartRepo))
		user.DELETE("/cart/:id", handlers.DeleteCartItem(cartRepo))
	}

	admin := r.Group("/admin/api")
	admin.Use(middleware.AdminAuth(verifier))
	{
		admin.GET("/me", handlers.GetMe(userRepo))

		admin.GET("/orders", handlers.ListOrders(orderRepo))
		admin.POST("/orders/:id/status", handlers.UpdateOrderStatus(orderRepo, machine))
		admin.POST("/orders/:id/cancel", handlers.CancelOrder(orderRepo, machine))
		admin.POST("/orders/:id/processed", handlers.MarkOrderProcessed(orderRepo, machine))

		admin.GET("/products", handlers.GetAllProducts(productRepo))
		admin.POST("/products", handlers.CreateProduct(productRepo))
		admin.PUT("/products/:id", handlers.UpdateProduct(productRepo))
		admin.DELETE("/products/:id", handlers.DeleteProduct(productRepo))

		admin.GET("/customers", handlers.GetCustomers(userRepo, chat))
		admin.POST("/customers/:id/block", handlers.BlockCustomer(userRepo))
		admin.POST("/customers/:id/unblock", handlers.UnblockCustomer(userRepo))
		admin.GET("/customers/:id/messages", handlers.GetCustomerThread(chat))
		admin.POST("/customers/:id/messages", sendLimit, handlers.SendToCustomer(chat))
		admin.POST("/customers/:id/messages/read", handlers.MarkCustomerThreadRead(chat))
		admin.GET("/customers/:id/messages/stream", handlers.StreamCustomerThread(chat))

		admin.GET("/stats", handlers.GetStats(collector))
		admin.GET("/reviews", handlers.ListReviews(reviewRepo))
		admin.PUT("/reviews/:id/reply", handlers.ReplyToReview(reviewRepo))
	}

	// Request contexts derive from ctx so open message streams end on shutdown.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	go func() {
		log.WithField("port", cfg.Port).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("graceful shutdown failed")
	}
}
