package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Gwonyeong/doll-backend/internal/ratelimiter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterLoginRefreshLogout(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/v1/authentication/user", "", jsonBody(t, map[string]string{
		"email": " Mina@Example.com ", "nickname": "mina", "password": "clawmachine",
	}))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var registered TokenResponse
	decodeData(t, rr, &registered)
	assert.NotEmpty(t, registered.AccessToken)
	assert.Equal(t, "user", registered.Role)

	rr = env.do(t, http.MethodPost, "/v1/authentication/user", "", jsonBody(t, map[string]string{
		"email": "mina@example.com", "nickname": "other", "password": "clawmachine",
	}))
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = env.do(t, http.MethodPost, "/v1/authentication/token", "", jsonBody(t, map[string]string{
		"email": "mina@example.com", "password": "wrong-password",
	}))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = env.do(t, http.MethodPost, "/v1/authentication/token", "", jsonBody(t, map[string]string{
		"email": "mina@example.com", "password": "clawmachine",
	}))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var login TokenResponse
	decodeData(t, rr, &login)

	rr = env.do(t, http.MethodGet, "/v1/users/me", login.AccessToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"nickname":"mina"`)
	assert.NotContains(t, rr.Body.String(), "clawmachine")

	rr = env.do(t, http.MethodPost, "/v1/authentication/refresh", "", jsonBody(t, map[string]string{
		"refresh_token": login.RefreshToken,
	}))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var refreshed TokenResponse
	decodeData(t, rr, &refreshed)

	rr = env.do(t, http.MethodPost, "/v1/users/logout", refreshed.AccessToken, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = env.do(t, http.MethodPost, "/v1/authentication/refresh", "", jsonBody(t, map[string]string{
		"refresh_token": refreshed.RefreshToken,
	}))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRegister_Validation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body map[string]string
	}{
		{"bad email", map[string]string{"email": "nope", "nickname": "mina", "password": "clawmachine"}},
		{"short password", map[string]string{"email": "a@b.co", "nickname": "mina", "password": "short"}},
		{"short nickname", map[string]string{"email": "a@b.co", "nickname": " m ", "password": "clawmachine"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, http.MethodPost, "/v1/authentication/user", "", jsonBody(t, tt.body))
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}

func TestAuthTokenMiddleware(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.signUp(t, "mina")

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"garbage", "Bearer abc.def.ghi", http.StatusUnauthorized},
		{"valid", "Bearer " + token, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/users/me/unlocks", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			env.mux.ServeHTTP(rr, req)
			assert.Equal(t, tt.want, rr.Code)
		})
	}
}

func TestAuthTokenMiddleware_UnknownUser(t *testing.T) {
	env := newTestEnv(t)

	access, _, err := env.app.authenticator.GenerateTokens(777, "user")
	require.NoError(t, err)

	rr := env.do(t, http.MethodGet, "/v1/users/me", access, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRateLimiterMiddleware(t *testing.T) {
	env := newTestEnv(t)
	env.app.config.rateLimiter = ratelimiter.Config{RequestsPerTimeFrame: 2, TimeFrame: time.Minute, Enabled: true}
	env.app.rateLimiter = ratelimiter.NewTokenBucketLimiter(env.app.config.rateLimiter)
	mux := env.app.mount()

	hit := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
		req.RemoteAddr = remote
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, req)
		return rr
	}

	assert.Equal(t, http.StatusOK, hit("10.0.0.1:1234").Code)
	assert.Equal(t, http.StatusOK, hit("10.0.0.1:5678").Code)

	limited := hit("10.0.0.1:9999")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.NotEmpty(t, limited.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, hit("10.0.0.2:1234").Code)
}

func TestBasicAuthMiddleware_Unconfigured(t *testing.T) {
	env := newTestEnv(t)
	env.app.config.auth.basic = basicConfig{}
	mux := env.app.mount()

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/ads", nil)
	req.SetBasicAuth("", "")
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestValidateReviewTag(t *testing.T) {
	type tagged struct {
		Tags []string `validate:"dive,review_tag"`
	}

	assert.NoError(t, Validate.Struct(tagged{Tags: []string{"strong claw", "인형뽑기 성지"}}))
	assert.Error(t, Validate.Struct(tagged{Tags: []string{"   "}}))
	assert.Error(t, Validate.Struct(tagged{Tags: []string{"this tag is definitely too long"}}))
	assert.NoError(t, Validate.Struct(tagged{Tags: []string{"가나다라마바사아자차카타파하가나다라마바"}}))
}
