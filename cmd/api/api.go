package main

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/Gwonyeong/doll-backend/docs" //this is required to generate swagger docs
	"github.com/Gwonyeong/doll-backend/internal/auth"
	"github.com/Gwonyeong/doll-backend/internal/domain/paymentsrepo"
	"github.com/Gwonyeong/doll-backend/internal/domain/storage"
	"github.com/Gwonyeong/doll-backend/internal/mailer"
	"github.com/Gwonyeong/doll-backend/internal/notifications"
	"github.com/Gwonyeong/doll-backend/internal/payments"
	"github.com/Gwonyeong/doll-backend/internal/ratelimiter"
	"github.com/Gwonyeong/doll-backend/internal/uploads"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
)

type application struct {
	config        config
	store         *storage.Container
	logger        *zap.SugaredLogger
	images        uploads.ImageStore
	mailer        mailer.Client
	authenticator auth.Authenticator
	rateLimiter   ratelimiter.Limiter
	unlockLimiter ratelimiter.Limiter
	payments      *payments.PaymentManager
	orderNumbers  *paymentsrepo.OrderNumberGenerator
	slack         notifications.Notifier
	push          notifications.PushSender

	// background tasks started by handlers
	wg sync.WaitGroup
}

type config struct {
	addr          string
	db            dbConfig
	env           string
	apiURL        string
	frontendURL   string
	auth          authConfig
	redis         redisConfig
	slack         slackConfig
	mail          mailConfig
	payment       paymentConfig
	report        reportConfig
	turnstile     turnstileConfig
	rateLimiter   ratelimiter.Config
	unlockLimiter ratelimiter.Config
}

type authConfig struct {
	basic basicConfig
	token tokenConfig
}
type tokenConfig struct {
	refreshSecret   string
	secret          string
	accessTokenExp  time.Duration
	refreshTokenExp time.Duration
	iss             string
}
type basicConfig struct {
	user string
	pass string
}

type redisConfig struct {
	addr     string
	password string
	db       int
	ttl      time.Duration
}

type slackConfig struct {
	webhookURL string
}

type mailConfig struct {
	fromEmail string
	smtp      smtpConfig
}

type smtpConfig struct {
	host     string
	port     int
	username string
	password string
}

type paymentConfig struct {
	tossClientKey string
	tossSecretKey string
	successURL    string
	failURL       string
	orderSecret   string
	adPricePerDay int64
}

type reportConfig struct {
	hour     int
	location string
	email    string
}

type turnstileConfig struct {
	secretKey        string
	expectedHostname string
	verifyURL        string
}

type dbConfig struct {
	addr         string
	maxOpenConns int
	maxIdleTime  string
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	if app.config.rateLimiter.Enabled {
		r.Use(app.RateLimiterMiddleware)
	}

	//Set a timeout value on the request context (ctx), that will signal through ctx.Done() that the request has timed out and further processing should be stopped
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", app.healthCheckHandler)
		docsURL := fmt.Sprintf("%s/swagger/doc.json", app.config.addr)
		r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL(docsURL)))

		r.With(app.BasicAuthMiddleware()).Get("/debug/vars", expvar.Handler().ServeHTTP)

		// Public routes
		r.Route("/authentication", func(r chi.Router) {
			r.Post("/user", app.registerUserHandler)
			r.Post("/token", app.createTokenHandler)
			r.Post("/refresh", app.refreshTokenHandler)
		})

		r.Route("/stores", func(r chi.Router) {
			r.With(app.OptionalAuthMiddleware).Get("/", app.listStoresHandler)

			r.Route("/{storeID}", func(r chi.Router) {
				r.With(app.OptionalAuthMiddleware).Get("/", app.getStoreHandler)

				r.Group(func(r chi.Router) {
					r.Use(app.AuthTokenMiddleware)
					r.Post("/favorite", app.addFavoriteStoreHandler)
					r.Delete("/favorite", app.removeFavoriteStoreHandler)
				})

				r.Route("/reviews", func(r chi.Router) {
					r.With(app.OptionalAuthMiddleware).Get("/", app.listStoreReviewsHandler)
					r.With(app.OptionalAuthMiddleware).Post("/", app.createReviewHandler)

					r.Group(func(r chi.Router) {
						r.Use(app.AuthTokenMiddleware)
						r.With(app.UnlockRateLimitMiddleware).Post("/unlock", app.unlockReviewsHandler)
						r.Patch("/{reviewID}", app.updateReviewHandler)
						r.Delete("/{reviewID}", app.deleteReviewHandler)
					})
				})
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)
			r.Get("/me", app.getCurrentUserHandler)
			r.Get("/me/favorites", app.listFavoriteStoresHandler)
			r.Get("/me/unlocks", app.listUnlocksHandler)
			r.Post("/logout", app.logoutHandler)
			r.Post("/push-tokens", app.addPushTokenHandler)
			r.Delete("/push-tokens", app.removePushTokenHandler)
		})

		r.Route("/ads", func(r chi.Router) {
			r.Get("/active", app.getActiveAdsHandler)
			r.Post("/{adID}/click", app.recordAdClickHandler)
		})

		r.Route("/payments", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)
			r.Post("/ads", app.createAdPaymentHandler)
			r.Post("/confirm", app.confirmPaymentHandler)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(app.BasicAuthMiddleware())

			r.Route("/stores", func(r chi.Router) {
				r.Post("/", app.createStoreHandler)
				r.Patch("/{storeID}", app.updateStoreHandler)
				r.Delete("/{storeID}", app.deleteStoreHandler)
				r.Post("/{storeID}/photos", app.uploadStorePhotoHandler)
				r.Delete("/{storeID}/photos", app.deleteStorePhotoHandler) // ?photo_url={url}
			})

			r.Delete("/reviews/{reviewID}", app.adminDeleteReviewHandler)
			r.Delete("/push-tokens", app.bulkRemovePushTokensHandler)

			r.Route("/ads", func(r chi.Router) {
				r.Get("/", app.listAdsHandler)
				r.Post("/", app.createAdHandler)
				r.Patch("/{adID}", app.updateAdHandler)
				r.Patch("/{adID}/toggle", app.toggleAdHandler)
				r.Delete("/{adID}", app.deleteAdHandler)
			})

			r.Get("/reports/daily", app.dailyReportHandler)
		})
	})

	return r
}

func (app *application) run(mux http.Handler) error {
	// Docs
	docs.SwaggerInfo.Version = version
	docs.SwaggerInfo.Host = app.config.apiURL
	docs.SwaggerInfo.BasePath = "/v1"

	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 30,
		ReadTimeout:  time.Second * 10,
		IdleTimeout:  time.Minute,
	}

	// background jobs live until shutdown
	jobsCtx, stopJobs := context.WithCancel(context.Background())
	defer stopJobs()
	app.startBackgroundJobs(jobsCtx)

	// Implementing graceful shutdown
	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())
		stopJobs()

		err := srv.Shutdown(ctx)
		app.wg.Wait()
		shutdown <- err
	}()

	app.logger.Infow("server has started", "addr", app.config.addr, "env", app.config.env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", app.config.addr, "env", app.config.env)

	return nil
}
