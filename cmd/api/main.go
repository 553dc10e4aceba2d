package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"florist/internal/config"
	"florist/internal/domain/game"
	"florist/internal/handler"
	"florist/internal/infra/cache"
	"florist/internal/infra/db"
	infraRepo "florist/internal/infra/repository"
	"florist/internal/infra/storage"
	"florist/internal/logger"
	"florist/internal/middleware"
	"florist/internal/payment"
	"florist/internal/repository"
	"florist/internal/server"
	"florist/internal/usecase"
	"florist/internal/validator"

	"github.com/joho/godotenv"
)

func main() {
	//.envは無くてもよい（本番は環境変数）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	log := logger.New(cfg.GoEnv)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		return err
	}
	if err := db.Migrate(gormDB); err != nil {
		return err
	}

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	cartItemRepo := infraRepo.NewCartItemGormRepository(gormDB)
	couponRepo := infraRepo.NewCartCouponGormRepository(gormDB)
	sessionRepo := infraRepo.NewCheckoutSessionGormRepository(gormDB)
	reviewRepo := infraRepo.NewReviewGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	//redisは任意。無ければカートはDBのみ、ゲームは使えない
	var cartCache repository.CartCache
	var gameStore repository.GameResultStore
	if cfg.RedisAddr != "" {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		rdb, err := cache.NewClient(pingCtx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		cancel()
		if err != nil {
			log.Warn("redis unavailable, running without cache", "addr", cfg.RedisAddr, "err", err)
		} else {
			defer rdb.Close()
			cartCache = cache.NewCartCache(rdb, cfg.CartCacheTTL)
			gameStore = cache.NewGameStore(rdb)
		}
	}

	//S3も任意。無ければ画像アップロードは503
	var objects repository.ObjectStorage
	if cfg.S3Bucket != "" {
		s3Store, err := storage.NewS3Store(ctx, storage.S3StoreConfig{
			Bucket:        cfg.S3Bucket,
			Region:        cfg.S3Region,
			Endpoint:      cfg.S3Endpoint,
			PublicBaseURL: cfg.S3PublicBaseURL,
		})
		if err != nil {
			log.Warn("object storage unavailable", "bucket", cfg.S3Bucket, "err", err)
		} else {
			objects = s3Store
		}
	}

	//決済：中継APIがあればそちら、無ければRazorpay直
	razorpay := payment.NewRazorpayClient(cfg.RazorpayBaseURL, cfg.RazorpayKeyID, cfg.RazorpayKeySecret)
	var gateway payment.Gateway = razorpay
	if cfg.PaymentRelayURL != "" {
		gateway = payment.NewRelayClient(cfg.PaymentRelayURL)
	}
	adapter := payment.NewAdapter(gateway, sessionRepo, payment.AdapterConfig{
		KeyID:    cfg.RazorpayKeyID,
		Currency: cfg.Currency,
		Fallback: cfg.PaymentFallback,
	}, log)

	//Usecase生成
	cartUC := usecase.NewCartUsecase(cartItemRepo, couponRepo, productRepo, cartCache, log)
	orderUC := usecase.NewOrderUsecase(txm, cartUC, log)
	checkoutUC := usecase.NewCheckoutUsecase(cartUC, orderUC, adapter, sessionRepo, validator.NewCheckoutValidator(), usecase.CheckoutConfig{
		StoreName:  cfg.StoreName,
		ThemeColor: cfg.ThemeColor,
	}, log)
	adapter.SetDefaultCallbacks(checkoutUC.Callbacks())

	productUC := usecase.NewProductUsecase(productRepo, txm, objects, log)
	authUC := usecase.NewAuthUsecase(cfg, userRepo, auditRepo, validator.NewAuthValidator(userRepo))
	reviewUC := usecase.NewReviewUsecase(reviewRepo, productRepo, auditRepo, objects, validator.NewReviewValidator(), log)
	gameUC := usecase.NewGameUsecase(gameStore, game.NewRandomDealer(nil), log)
	relayUC := usecase.NewRelayUsecase(razorpay, cfg.Currency, log)

	//Handler生成
	h := server.Handlers{
		Auth:         handler.NewAuthHandler(authUC),
		Product:      handler.NewProductHandler(productUC),
		AdminProduct: handler.NewAdminProductHandler(productUC),
		Cart:         handler.NewCartHandler(cartUC),
		Checkout:     handler.NewCheckoutHandler(checkoutUC),
		Order:        handler.NewOrderHandler(orderUC),
		AdminOrder:   handler.NewAdminOrderHandler(usecase.NewAdminOrderUsecase(txm)),
		AdminUser:    handler.NewAdminUserHandler(cfg, userRepo, authUC),
		Review:       handler.NewReviewHandler(reviewUC),
		Game:         handler.NewGameHandler(gameUC),
		AuditLog:     handler.NewAuditLogHandler(usecase.NewAuditLogUsecase(auditRepo)),
		Relay:        handler.NewRelayHandler(relayUC),
	}

	limiter := middleware.NewRateLimiter(cfg.RelayRPS, cfg.RelayBurst)
	go limiter.RunCleanup(ctx.Done())

	//Server起動
	addr := cfg.Port
	if addr[0] != ':' {
		addr = ":" + addr
	}
	e := server.New(cfg, log, userRepo, h, limiter)
	return server.Start(ctx, e, addr, log)
}
