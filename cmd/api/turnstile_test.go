package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeTurnstile(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "turnstile-secret", r.PostForm.Get("secret"))

		ok := r.PostForm.Get("response") == "human"
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":  ok,
			"hostname": "dollmap.kr",
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCreateReview_AnonymousTurnstile(t *testing.T) {
	env := newTestEnv(t)
	env.app.config.turnstile = turnstileConfig{
		secretKey:        "turnstile-secret",
		expectedHostname: "dollmap.kr",
		verifyURL:        fakeTurnstile(t).URL,
	}
	shop := seedStoreWithReviews(env, 0)

	tests := []struct {
		name   string
		fields map[string][]string
		want   int
	}{
		{
			name:   "missing token",
			fields: map[string][]string{"rating": {"4"}, "content": {"fun arcade"}, "user_name": {"guest"}},
			want:   http.StatusBadRequest,
		},
		{
			name: "rejected token",
			fields: map[string][]string{
				"rating": {"4"}, "content": {"fun arcade"}, "user_name": {"guest"},
				"cf_turnstile_response": {"bot"},
			},
			want: http.StatusBadRequest,
		},
		{
			name: "honeypot filled",
			fields: map[string][]string{
				"rating": {"4"}, "content": {"fun arcade"}, "user_name": {"guest"},
				"cf_turnstile_response": {"human"}, "website": {"http://spam"},
			},
			want: http.StatusBadRequest,
		},
		{
			name: "verified",
			fields: map[string][]string{
				"rating": {"4"}, "content": {"fun arcade"}, "user_name": {"guest"},
				"cf_turnstile_response": {"human"},
			},
			want: http.StatusCreated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ct := newReviewForm(t, tt.fields, 0)
			rr := postReview(env, shop.ID, "", body, ct)
			assert.Equal(t, tt.want, rr.Code, rr.Body.String())
		})
	}
}

func TestCreateReview_SignedInSkipsTurnstile(t *testing.T) {
	env := newTestEnv(t)
	env.app.config.turnstile = turnstileConfig{secretKey: "turnstile-secret", verifyURL: "http://127.0.0.1:1"}
	shop := seedStoreWithReviews(env, 0)
	_, token := env.signUp(t, "mina")

	body, ct := newReviewForm(t, map[string][]string{"rating": {"5"}, "content": {"signed in review"}}, 0)
	rr := postReview(env, shop.ID, token, body, ct)

	assert.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
}
