// internal/app/server.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"motormart-service/internal/config"
	"motormart-service/internal/db"
	adHandler "motormart-service/internal/handlers/ad"
	adminHandler "motormart-service/internal/handlers/admin"
	authHandler "motormart-service/internal/handlers/auth"
	boostHandler "motormart-service/internal/handlers/boost"
	discountHandler "motormart-service/internal/handlers/discount"
	favoriteHandler "motormart-service/internal/handlers/favorite"
	moderationHandler "motormart-service/internal/handlers/moderation"
	notifyHandler "motormart-service/internal/handlers/notification"
	paymentHandler "motormart-service/internal/handlers/payment"
	pricingHandler "motormart-service/internal/handlers/pricing"
	reviewHandler "motormart-service/internal/handlers/review"
	taxonomyHandler "motormart-service/internal/handlers/taxonomy"
	wsHandler "motormart-service/internal/handlers/websocket"
	"motormart-service/internal/middleware"
	"motormart-service/internal/pkg/gateway"
	"motormart-service/internal/pkg/jwt"
	"motormart-service/internal/pkg/otp"
	"motormart-service/internal/pkg/session"
	"motormart-service/internal/pkg/socialauth"
	"motormart-service/internal/pkg/storage"
	"motormart-service/internal/pkg/validation"
	"motormart-service/internal/repository/postgres"
	"motormart-service/internal/scheduler"
	adUsecase "motormart-service/internal/service/ad"
	adminUsecase "motormart-service/internal/service/admin"
	authUsecase "motormart-service/internal/service/auth"
	boostUsecase "motormart-service/internal/service/boost"
	discountUsecase "motormart-service/internal/service/discount"
	"motormart-service/internal/service/email"
	"motormart-service/internal/service/entitlement"
	favoriteUsecase "motormart-service/internal/service/favorite"
	moderationUsecase "motormart-service/internal/service/moderation"
	notifyUsecase "motormart-service/internal/service/notification"
	paymentUsecase "motormart-service/internal/service/payment"
	pricingUsecase "motormart-service/internal/service/pricing"
	reviewUsecase "motormart-service/internal/service/review"
	taxonomyUsecase "motormart-service/internal/service/taxonomy"
	"motormart-service/internal/websocket"
	wsHandlers "motormart-service/internal/websocket/handler"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	cfg    config.AppConfig
	logger *zap.Logger

	engine     *gin.Engine
	httpServer *http.Server
	pool       *pgxpool.Pool
	redis      *redis.Client
	scheduler  *scheduler.Scheduler
	cancel     context.CancelFunc
}

func NewServer(cfg config.AppConfig, logger *zap.Logger) *Server {
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	return &Server{cfg: cfg, logger: logger, engine: gin.New()}
}

// Start connects the backing stores, wires every component and serves HTTP
// until Shutdown is called.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	logger := s.logger

	// ----- PostgreSQL -----
	if s.cfg.MigrateOnRun {
		if err := db.Migrate(ctx, s.cfg.DatabaseURL); err != nil {
			return err
		}
		logger.Info("database migrations applied")
	}

	pool, err := db.ConnectDB(ctx, db.PostgresConfig{URL: s.cfg.DatabaseURL, MaxConns: 20})
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	s.pool = pool
	logger.Info("connected to PostgreSQL")

	// ----- Redis -----
	redisClient, err := db.NewRedisClient(db.RedisConfig{
		Addr:     s.cfg.RedisAddr,
		Password: s.cfg.RedisPass,
		DB:       s.cfg.RedisDB,
		PoolSize: 10,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	s.redis = redisClient
	logger.Info("connected to Redis")

	// ----- JWT Manager -----
	jwtManager, err := jwt.LoadAndBuild(s.cfg.JWT)
	if err != nil {
		return fmt.Errorf("failed to load JWT manager: %w", err)
	}

	if err := validation.Register(); err != nil {
		return fmt.Errorf("failed to register validators: %w", err)
	}

	// ----- Infrastructure clients -----
	rateLimiter := session.NewRateLimiter(redisClient)
	blacklist := session.NewBlacklist(redisClient)

	var otpStore otp.Store = otp.NewRedisStore(redisClient)
	if s.cfg.OTPStore == "memory" {
		otpStore = otp.NewMemoryStore()
		logger.Warn("using in-memory OTP store; codes are not shared between instances")
	}

	emailSender := email.NewEmailSender(email.Config{
		Host:     s.cfg.SMTPHost,
		Port:     s.cfg.SMTPPort,
		Username: s.cfg.SMTPUser,
		Password: s.cfg.SMTPPass,
		From:     s.cfg.SMTPFrom,
		FromName: s.cfg.SMTPFromName,
	}, logger)

	var objects *storage.Client
	if s.cfg.S3.Enabled() {
		objects, err = storage.NewClient(ctx, storage.Config{
			Bucket:          s.cfg.S3.Bucket,
			Region:          s.cfg.S3.Region,
			Endpoint:        s.cfg.S3.Endpoint,
			AccessKeyID:     s.cfg.S3.AccessKeyID,
			SecretAccessKey: s.cfg.S3.SecretAccessKey,
			PublicBaseURL:   s.cfg.S3.PublicBaseURL,
			PresignTTL:      s.cfg.S3.PresignTTL,
		})
		if err != nil {
			return fmt.Errorf("failed to build object storage client: %w", err)
		}
	} else {
		logger.Warn("object storage not configured; image uploads disabled")
	}

	var social authUsecase.IdentityVerifier
	if s.cfg.Social.JWKSURL != "" {
		social = socialauth.NewVerifier(socialauth.NewJWKSSource(s.cfg.Social.JWKSURL), s.cfg.Social.Issuer, s.cfg.Social.Audience)
	} else {
		logger.Warn("social identity provider not configured; social login disabled")
	}

	signer := gateway.NewSigner(gateway.Config{
		MerchantID:     s.cfg.Gateway.MerchantID,
		MerchantSecret: s.cfg.Gateway.MerchantSecret,
		Currency:       s.cfg.Gateway.Currency,
		CheckoutURL:    s.cfg.Gateway.CheckoutURL,
		ReturnURL:      s.cfg.Gateway.ReturnURL,
		CancelURL:      s.cfg.Gateway.CancelURL,
		NotifyURL:      s.cfg.Gateway.NotifyURL,
	})

	// ----- Repositories -----
	userRepo := postgres.NewUserRepository(pool)
	tokenRepo := postgres.NewRefreshTokenRepository(pool)
	notifyRepo := postgres.NewNotificationRepository(pool)
	taxonomyRepo := postgres.NewTaxonomyRepository(pool)
	adRepo := postgres.NewAdRepository(pool)
	pricingRepo := postgres.NewPricingRepository(pool)
	subscriptionRepo := postgres.NewSubscriptionRepository(pool)
	usageRepo := postgres.NewUsageRepository(pool)
	discountRepo := postgres.NewDiscountRepository(pool)
	boostRepo := postgres.NewBoostRepository(pool)
	paymentRepo := postgres.NewPaymentRepository(pool)
	reviewRepo := postgres.NewReviewRepository(pool)
	favoriteRepo := postgres.NewFavoriteRepository(pool)
	reportRepo := postgres.NewReportRepository(pool)
	complaintRepo := postgres.NewComplaintRepository(pool)
	adminRepo := postgres.NewAdminRepository(pool)

	// ----- Services (Usecases) -----
	authService := authUsecase.NewAuthService(
		userRepo,
		tokenRepo,
		jwtManager,
		rateLimiter,
		blacklist,
		otpStore,
		s.cfg.OTPTTL,
		social,
		emailSender,
		logger,
	)

	// ----- WebSocket Hub -----
	hub := websocket.NewHub(authService, websocket.NewRelay(redisClient, logger), logger)
	notifService := notifyUsecase.NewNotificationService(notifyRepo, hub, logger)
	hub.RegisterHandler(wsHandlers.NewNotificationHandler(notifService))
	go hub.Run(ctx)

	taxonomyService := taxonomyUsecase.NewTaxonomyService(taxonomyRepo, logger)
	entitlementService := entitlement.NewService(subscriptionRepo, pricingRepo, usageRepo, taxonomyService, logger)
	pricingService := pricingUsecase.NewPricingService(pricingRepo, subscriptionRepo, entitlementService, s.cfg.Gateway.Currency, logger)
	adService := adUsecase.NewAdService(
		adRepo,
		userRepo,
		entitlementService,
		taxonomyService,
		objects,
		notifService,
		adUsecase.Config{
			LifetimeDays:    s.cfg.AdLifetimeDays,
			RequireApproval: s.cfg.AdsRequireApproval,
			Currency:        s.cfg.Gateway.Currency,
		},
		logger,
	)
	discountService := discountUsecase.NewDiscountService(discountRepo, pricingService, logger)
	boostService := boostUsecase.NewBoostService(boostRepo, pricingRepo, adRepo, logger)
	paymentService := paymentUsecase.NewPaymentService(paymentUsecase.Deps{
		Repo:      paymentRepo,
		Prices:    pricingService,
		Discounts: discountService,
		Features:  pricingRepo,
		Ads:       adRepo,
		Users:     userRepo,
		Signer:    signer,
		Notifier:  notifService,
		Pusher:    hub,
		Mailer:    emailSender,
	}, logger)
	reviewService := reviewUsecase.NewReviewService(reviewRepo, userRepo, logger)
	favoriteService := favoriteUsecase.NewFavoriteService(favoriteRepo, adRepo, logger)
	moderationService := moderationUsecase.NewModerationService(moderationUsecase.Deps{
		Reports:    reportRepo,
		Complaints: complaintRepo,
		Ads:        adRepo,
		Rejecter:   adService,
		Users:      userRepo,
		Tokens:     tokenRepo,
		Notifier:   notifService,
		Sessions:   hub,
		Mailer:     emailSender,
	}, logger)
	adminService := adminUsecase.NewAdminService(adminRepo, userRepo, hub, logger)

	// ----- Initialize Super Admin -----
	s.initializeSuperAdmin(ctx, authService)

	// ----- Scheduler -----
	sched, err := scheduler.New(scheduler.Config{Timezone: s.cfg.Timezone}, &scheduler.Jobs{
		Ads:          adService,
		Bans:         moderationService,
		Boosts:       boostService,
		Subscribers:  subscriptionRepo,
		Entitlements: entitlementService,
		Notifier:     notifService,
		Mailer:       emailSender,
		Redis:        redisClient,
		Logger:       logger,
	}, redisClient, logger)
	if err != nil {
		return err
	}
	if err := sched.Register(); err != nil {
		return err
	}
	sched.Start()
	s.scheduler = sched

	// ----- Middlewares -----
	authMiddleware := middleware.NewAuthMiddleware(authService)

	s.engine.Use(
		middleware.RecoveryMiddleware(logger),
		middleware.RequestLogger(logger),
		middleware.CORSMiddleware(s.cfg.AllowedOrigins),
	)

	// ----- Router -----
	SetupRouter(s.engine, &Handlers{
		AuthHandler:       authHandler.NewAuthHandler(authService, logger),
		NotifHandler:      notifyHandler.NewNotificationHandler(notifService),
		TaxonomyHandler:   taxonomyHandler.NewTaxonomyHandler(taxonomyService),
		AdHandler:         adHandler.NewAdHandler(adService, logger),
		PricingHandler:    pricingHandler.NewPricingHandler(pricingService, boostService),
		DiscountHandler:   discountHandler.NewDiscountHandler(discountService),
		BoostHandler:      boostHandler.NewBoostHandler(boostService),
		PaymentHandler:    paymentHandler.NewPaymentHandler(paymentService, logger),
		ReviewHandler:     reviewHandler.NewReviewHandler(reviewService),
		ModerationHandler: moderationHandler.NewModerationHandler(moderationService, logger),
		FavoriteHandler:   favoriteHandler.NewFavoriteHandler(favoriteService),
		AdminHandler:      adminHandler.NewAdminHandler(adminService, logger),
		WSHandler:         wsHandler.NewWebSocketHandler(hub, s.cfg.AllowedOrigins, logger),
		AuthMiddleware:    authMiddleware,
		DB:                postgres.NewDB(pool),
	})

	// ----- Start HTTP -----
	s.httpServer = &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Info("server listening", zap.String("addr", s.cfg.HTTPAddr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown drains HTTP, stops the scheduler and the hub, then closes the stores.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
	}
	if s.scheduler != nil {
		if err := s.scheduler.Shutdown(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.cancel != nil {
		s.cancel()
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close: %w", err))
		}
	}
	if s.pool != nil {
		s.pool.Close()
	}
	return errors.Join(errs...)
}

// initializeSuperAdmin creates the bootstrap super admin when credentials are configured.
func (s *Server) initializeSuperAdmin(ctx context.Context, authService *authUsecase.AuthService) {
	if s.cfg.SuperAdminEmail == "" || s.cfg.SuperAdminPassword == "" {
		s.logger.Warn("SUPER_ADMIN_EMAIL or SUPER_ADMIN_PASSWORD not set, skipping super admin bootstrap")
		return
	}
	if len(s.cfg.SuperAdminPassword) < 8 {
		s.logger.Error("super admin password is too weak (minimum 8 characters)")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := authService.EnsureSuperAdmin(ctx, s.cfg.SuperAdminEmail, s.cfg.SuperAdminPassword, s.cfg.SuperAdminName); err != nil {
		s.logger.Error("failed to initialize super admin", zap.Error(err))
	}
}
