package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"os"
	"runtime"
	"time"

	"github.com/Gwonyeong/doll-backend/internal/auth"
	"github.com/Gwonyeong/doll-backend/internal/db"
	"github.com/Gwonyeong/doll-backend/internal/domain/paymentsrepo"
	"github.com/Gwonyeong/doll-backend/internal/domain/storage"
	"github.com/Gwonyeong/doll-backend/internal/domain/unlocks"
	"github.com/Gwonyeong/doll-backend/internal/mailer"
	"github.com/Gwonyeong/doll-backend/internal/notifications"
	"github.com/Gwonyeong/doll-backend/internal/payments"
	"github.com/Gwonyeong/doll-backend/internal/ratelimiter"
	"github.com/Gwonyeong/doll-backend/internal/uploads"

	"github.com/9ssi7/exponent"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger creates a new zap logger with color.
func NewLogger() (*zap.SugaredLogger, error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	consoleEncoder := zapcore.NewConsoleEncoder(encoderCfg)

	level := zapcore.InfoLevel
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		if err := level.Set(lvl); err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", lvl, err)
		}
	}

	core := zapcore.NewCore(consoleEncoder, zapcore.AddSync(os.Stdout), level)

	return zap.New(core).Sugar(), nil
}

var version = "1.0.0"

//	@title			Doll Map API
//	@description	API for Doll Map, a directory of crane-machine arcades with reviews.

//	@contact.name	API Support
//	@contact.email	support@dollmap.kr

//	@BasePath					/v1
//	@securityDefinitions.apikey	ApiKeyAuth
//	@in							header
//	@name						Authorization
//	@description

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg := loadConfig()

	logger, err := NewLogger()
	if err != nil {
		fmt.Println("Error creating logger:", err)
		return
	}
	defer logger.Sync()

	// Database
	pool, err := db.New(cfg.db.addr, int32(cfg.db.maxOpenConns), cfg.db.maxIdleTime)
	if err != nil {
		logger.Fatal(err)
	}
	defer pool.Close()
	logger.Info("database connection pool established")

	store := storage.NewContainer(pool)

	// Redis sits in front of the unlock ledger when configured.
	if cfg.redis.addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.redis.addr,
			Password: cfg.redis.password,
			DB:       cfg.redis.db,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := rdb.Ping(ctx).Err()
		cancel()
		if err != nil {
			logger.Warnw("redis unavailable, unlock cache disabled", "addr", cfg.redis.addr, "error", err)
		} else {
			store.Unlocks = unlocks.NewCachedStore(store.Unlocks, rdb, cfg.redis.ttl, logger)
			defer rdb.Close()
			logger.Info("redis unlock cache enabled")
		}
	}

	//cloudinary
	cld, err := cloudinary.NewFromURL(os.Getenv("CLOUDINARY_URL"))
	if err != nil {
		logger.Fatal(err)
	}

	var mail mailer.Client
	if cfg.mail.smtp.host != "" {
		smtpClient, err := mailer.NewSMTPClient(
			cfg.mail.smtp.host,
			cfg.mail.smtp.port,
			cfg.mail.smtp.username,
			cfg.mail.smtp.password,
			cfg.mail.fromEmail,
		)
		if err != nil {
			logger.Fatal(err)
		}
		mail = smtpClient
	}

	// Rate limiters
	rateLimiter := ratelimiter.NewTokenBucketLimiter(cfg.rateLimiter)
	unlockLimiter := ratelimiter.NewTokenBucketLimiter(cfg.unlockLimiter)
	limiterDone := make(chan struct{})
	defer close(limiterDone)
	go rateLimiter.Run(limiterDone, time.Minute)
	go unlockLimiter.Run(limiterDone, time.Minute)

	// Authenticator
	jwtAuthenticator := auth.NewJWTAuthenticator(
		cfg.auth.token.secret,
		cfg.auth.token.refreshSecret,
		cfg.auth.token.iss,
		cfg.auth.token.iss,
		cfg.auth.token.accessTokenExp,
		cfg.auth.token.refreshTokenExp,
	)

	// Payments
	paymentManager := payments.NewPaymentManager()
	paymentManager.RegisterGateway(payments.ProviderToss, payments.NewTossAdapter(
		cfg.payment.tossClientKey,
		cfg.payment.tossSecretKey,
		cfg.payment.successURL,
		cfg.payment.failURL,
	))
	logger.Infow("payment providers registered", "providers", paymentManager.Providers())

	orderNumbers, err := paymentsrepo.NewOrderNumberGenerator(cfg.payment.orderSecret)
	if err != nil {
		logger.Fatal(err)
	}

	app := &application{
		config:        cfg,
		logger:        logger,
		store:         store,
		images:        uploads.NewCloudinary(cld),
		mailer:        mail,
		authenticator: jwtAuthenticator,
		rateLimiter:   rateLimiter,
		unlockLimiter: unlockLimiter,
		payments:      paymentManager,
		orderNumbers:  orderNumbers,
		slack:         notifications.NewSlackNotifier(cfg.slack.webhookURL),
		push:          notifications.NewExpoAdapter(exponent.NewClient()),
	}

	//Metrics collected http://localhost:8080/v1/debug/vars
	expvar.NewString("version").Set(version)
	expvar.Publish("database", expvar.Func(func() any {
		return pool.Stat().TotalConns()
	}))
	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	mux := app.mount()

	logger.Fatal(app.run(mux))
}
