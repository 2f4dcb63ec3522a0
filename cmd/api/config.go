package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Gwonyeong/doll-backend/internal/ratelimiter"
)

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && strings.TrimSpace(val) != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		fmt.Printf("Invalid %s, defaulting to %d\n", key, fallback)
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		fmt.Printf("Invalid %s, defaulting to %t\n", key, fallback)
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		fmt.Printf("Invalid %s, defaulting to %s\n", key, fallback)
		return fallback
	}
	return parsed
}

// LoadRateLimiterConfig retrieves rate limiter settings from environment variables
func LoadRateLimiterConfig() ratelimiter.Config {
	return ratelimiter.Config{
		RequestsPerTimeFrame: getEnvInt("RATELIMITER_REQUESTS_COUNT", 200),
		TimeFrame:            getEnvDuration("RATELIMITER_TIME_FRAME", 5*time.Second),
		Enabled:              getEnvBool("RATE_LIMITER_ENABLED", false),
	}
}

// LoadUnlockLimiterConfig limits unlock calls per user. Always on.
func LoadUnlockLimiterConfig() ratelimiter.Config {
	return ratelimiter.Config{
		RequestsPerTimeFrame: getEnvInt("UNLOCK_LIMIT_COUNT", 10),
		TimeFrame:            getEnvDuration("UNLOCK_LIMIT_TIME_FRAME", time.Minute),
		Enabled:              true,
	}
}

func loadConfig() config {
	return config{
		addr:        getEnv("ADDR", ":8080"),
		env:         getEnv("ENV", "development"),
		frontendURL: os.Getenv("FRONTEND_URL"),
		apiURL:      getEnv("EXTERNAL_URL", "localhost:8080"),
		db: dbConfig{
			addr:         os.Getenv("DB_ADDR"),
			maxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 30),
			maxIdleTime:  getEnv("DB_MAX_IDLE_TIME", "15m"),
		},
		auth: authConfig{
			basic: basicConfig{
				user: os.Getenv("AUTH_BASIC_USER"),
				pass: os.Getenv("AUTH_BASIC_PASS"),
			},
			token: tokenConfig{
				refreshSecret:   os.Getenv("AUTH_TOKEN_REFRESH_SECRET"),
				secret:          os.Getenv("AUTH_TOKEN_SECRET"),
				accessTokenExp:  getEnvDuration("AUTH_ACCESS_TOKEN_EXP", time.Hour*24*3),   // 3 days
				refreshTokenExp: getEnvDuration("AUTH_REFRESH_TOKEN_EXP", time.Hour*24*30), // 30 days
				iss:             "doll-backend",
			},
		},
		redis: redisConfig{
			addr:     os.Getenv("REDIS_ADDR"),
			password: os.Getenv("REDIS_PASSWORD"),
			db:       getEnvInt("REDIS_DB", 0),
			ttl:      getEnvDuration("REDIS_UNLOCK_TTL", 24*time.Hour),
		},
		slack: slackConfig{
			webhookURL: os.Getenv("SLACK_WEBHOOK_URL"),
		},
		mail: mailConfig{
			fromEmail: os.Getenv("MAIL_FROM_EMAIL"),
			smtp: smtpConfig{
				host:     os.Getenv("SMTP_HOST"),
				port:     getEnvInt("SMTP_PORT", 587),
				username: os.Getenv("SMTP_USERNAME"),
				password: os.Getenv("SMTP_PASSWORD"),
			},
		},
		payment: paymentConfig{
			tossClientKey: os.Getenv("TOSS_CLIENT_KEY"),
			tossSecretKey: os.Getenv("TOSS_SECRET_KEY"),
			successURL:    os.Getenv("TOSS_SUCCESS_URL"),
			failURL:       os.Getenv("TOSS_FAIL_URL"),
			orderSecret:   getEnv("ORDER_ID_SECRET", "doll-orders"),
			adPricePerDay: int64(getEnvInt("AD_PRICE_PER_DAY", 1100)),
		},
		report: reportConfig{
			hour:     getEnvInt("REPORT_HOUR", 9),
			location: getEnv("REPORT_TIMEZONE", "Asia/Seoul"),
			email:    os.Getenv("REPORT_EMAIL"),
		},
		turnstile: turnstileConfig{
			secretKey:        os.Getenv("TURNSTILE_SECRET_KEY"),
			expectedHostname: os.Getenv("TURNSTILE_EXPECTED_HOSTNAME"),
		},
		rateLimiter:   LoadRateLimiterConfig(),
		unlockLimiter: LoadUnlockLimiterConfig(),
	}
}
