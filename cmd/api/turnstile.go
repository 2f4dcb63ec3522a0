package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTurnstileVerifyURL = "https://challenges.cloudflare.com/turnstile/v0/siteverify"

var ErrTurnstileFailed = errors.New("turnstile validation failed")

type turnstileVerifyResponse struct {
	Success     bool     `json:"success"`
	ChallengeTS string   `json:"challenge_ts"`
	Hostname    string   `json:"hostname"`
	ErrorCodes  []string `json:"error-codes"`
	Action      string   `json:"action"`
	CData       string   `json:"cdata"`
}

func (app *application) verifyTurnstile(ctx context.Context, token string, remoteIP string) (*turnstileVerifyResponse, error) {
	if token == "" {
		return nil, ErrTurnstileFailed
	}
	if app.config.turnstile.secretKey == "" {
		return nil, errors.New("TURNSTILE_SECRET_KEY is not set")
	}

	form := url.Values{}
	form.Set("secret", app.config.turnstile.secretKey)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	verifyURL := app.config.turnstile.verifyURL
	if verifyURL == "" {
		verifyURL = defaultTurnstileVerifyURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	httpClient := &http.Client{Timeout: 8 * time.Second}
	res, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	var out turnstileVerifyResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, err
	}

	if !out.Success {
		return &out, ErrTurnstileFailed
	}

	if app.config.turnstile.expectedHostname != "" && out.Hostname != app.config.turnstile.expectedHostname {
		return &out, ErrTurnstileFailed
	}

	return &out, nil
}

// checkAnonymousWrite guards writes from visitors without an account: a
// hidden honeypot field must stay empty and, in production or whenever a
// secret is configured, the Turnstile token must verify.
func (app *application) checkAnonymousWrite(r *http.Request) error {
	if strings.TrimSpace(r.FormValue("website")) != "" {
		return errors.New("invalid request")
	}

	ip := clientIP(r)
	token := strings.TrimSpace(r.FormValue("cf_turnstile_response"))

	if app.config.env != "production" && app.config.turnstile.secretKey == "" {
		if token == "" {
			app.logger.Debugw("turnstile skipped (non-production) and token missing", "env", app.config.env, "ip", ip)
		}
		return nil
	}

	if _, err := app.verifyTurnstile(r.Context(), token, ip); err != nil {
		app.logger.Warnw("turnstile rejected anonymous write", "ip", ip, "error", err)
		return errors.New("invalid verification")
	}
	return nil
}
