package main

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushTokens(t *testing.T) {
	env := newTestEnv(t)
	tokens := env.app.store.PushTokens.(*fakePushTokens)
	user, token := env.signUp(t, "mina")

	rr := env.do(t, http.MethodPost, "/v1/users/push-tokens", token, jsonBody(t, map[string]any{
		"token":       "  ExponentPushToken[abc]  ",
		"device_info": map[string]string{"os": "ios"},
	}))
	require.Equal(t, http.StatusNoContent, rr.Code, rr.Body.String())
	assert.Equal(t, []string{"ExponentPushToken[abc]"}, tokens.tokens[user.ID])

	for _, bad := range []string{" ", "fcm:abc", "ExponentPushToken[]"} {
		rr = env.do(t, http.MethodPost, "/v1/users/push-tokens", token, jsonBody(t, map[string]any{"token": bad}))
		assert.Equal(t, http.StatusBadRequest, rr.Code, bad)
	}

	rr = env.do(t, http.MethodPost, "/v1/users/push-tokens", "", jsonBody(t, map[string]any{"token": "x"}))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = env.do(t, http.MethodDelete, "/v1/users/push-tokens", token, jsonBody(t, map[string]any{
		"token": "ExponentPushToken[abc]",
	}))
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, tokens.tokens[user.ID])
}

func TestBulkRemovePushTokens(t *testing.T) {
	env := newTestEnv(t)
	tokens := env.app.store.PushTokens.(*fakePushTokens)
	a, tokenA := env.signUp(t, "mina")
	b, tokenB := env.signUp(t, "jun")

	for _, tc := range []struct{ bearer, push string }{
		{tokenA, "ExponentPushToken[dead]"},
		{tokenA, "ExponentPushToken[live]"},
		{tokenB, "ExponentPushToken[dead2]"},
	} {
		rr := env.do(t, http.MethodPost, "/v1/users/push-tokens", tc.bearer, jsonBody(t, map[string]any{"token": tc.push}))
		require.Equal(t, http.StatusNoContent, rr.Code)
	}

	body := `{"tokens":["ExponentPushToken[dead]","ExponentPushToken[dead2]"]}`
	rr := adminRequest(env, http.MethodDelete, "/v1/admin/push-tokens", &body)
	require.Equal(t, http.StatusNoContent, rr.Code)

	assert.Equal(t, []string{"ExponentPushToken[live]"}, tokens.tokens[a.ID])
	assert.Empty(t, tokens.tokens[b.ID])

	empty := `{"tokens":[]}`
	rr = adminRequest(env, http.MethodDelete, "/v1/admin/push-tokens", &empty)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
