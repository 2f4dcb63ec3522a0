package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Gwonyeong/doll-backend/internal/auth"
	"github.com/Gwonyeong/doll-backend/internal/domain/ads"
	"github.com/Gwonyeong/doll-backend/internal/domain/paymentsrepo"
	"github.com/Gwonyeong/doll-backend/internal/domain/reports"
	"github.com/Gwonyeong/doll-backend/internal/domain/reviews"
	"github.com/Gwonyeong/doll-backend/internal/domain/storage"
	"github.com/Gwonyeong/doll-backend/internal/domain/stores"
	"github.com/Gwonyeong/doll-backend/internal/domain/unlocks"
	"github.com/Gwonyeong/doll-backend/internal/domain/users"
	"github.com/Gwonyeong/doll-backend/internal/payments"
	"github.com/Gwonyeong/doll-backend/internal/ratelimiter"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// users

type fakeUsers struct {
	mu      sync.Mutex
	byID    map[int64]*users.User
	refresh map[int64]string
	nextID  int64
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: map[int64]*users.User{}, refresh: map[int64]string{}}
}

func (f *fakeUsers) Create(_ context.Context, u *users.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return users.ErrDuplicateEmail
		}
		if existing.Nickname == u.Nickname {
			return users.ErrDuplicateNickname
		}
	}
	f.nextID++
	u.ID = f.nextID
	if u.Role == "" {
		u.Role = users.RoleUser
	}
	f.byID[u.ID] = u
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id int64) (*users.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, users.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*users.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, users.ErrNotFound
}

func (f *fakeUsers) SaveRefreshToken(_ context.Context, id int64, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refresh[id] = token
	return nil
}

func (f *fakeUsers) GetRefreshToken(_ context.Context, id int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refresh[id], nil
}

func (f *fakeUsers) DeleteRefreshToken(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.refresh, id)
	return nil
}

// stores

type fakeStores struct {
	mu        sync.Mutex
	shops     map[int64]*stores.Shop
	favorites map[int64]map[int64]bool // user -> store
	nextID    int64
}

func newFakeStores() *fakeStores {
	return &fakeStores{shops: map[int64]*stores.Shop{}, favorites: map[int64]map[int64]bool{}}
}

func (f *fakeStores) add(s stores.Shop) *stores.Shop {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s.ID == 0 {
		f.nextID++
		s.ID = f.nextID
	}
	if s.ImageURLs == nil {
		s.ImageURLs = []string{}
	}
	f.shops[s.ID] = &s
	return &s
}

func (f *fakeStores) Create(_ context.Context, s *stores.Shop) error {
	created := f.add(*s)
	*s = *created
	return nil
}

func (f *fakeStores) GetByID(_ context.Context, id int64) (*stores.Shop, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.shops[id]
	if !ok {
		return nil, stores.ErrStoreNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStores) sorted(query string) []stores.Shop {
	out := []stores.Shop{}
	for _, s := range f.shops {
		if query != "" && !strings.Contains(s.Name, query) && !strings.Contains(s.Address, query) {
			continue
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeStores) List(_ context.Context, filter stores.ListFilter) ([]stores.Shop, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := f.sorted(filter.Query)
	start := min(filter.Offset, len(all))
	end := min(start+filter.Limit, len(all))
	return all[start:end], len(all), nil
}

func (f *fakeStores) ListAll(_ context.Context, query string) ([]stores.Shop, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sorted(query), nil
}

func (f *fakeStores) Update(ctx context.Context, id int64, in stores.UpdateInput) (*stores.Shop, error) {
	f.mu.Lock()
	s, ok := f.shops[id]
	if !ok {
		f.mu.Unlock()
		return nil, stores.ErrStoreNotFound
	}
	if in.Name != nil {
		s.Name = *in.Name
	}
	if in.Address != nil {
		s.Address = *in.Address
	}
	if in.CoordX != nil {
		s.CoordX = *in.CoordX
	}
	if in.CoordY != nil {
		s.CoordY = *in.CoordY
	}
	f.mu.Unlock()
	return f.GetByID(ctx, id)
}

func (f *fakeStores) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.shops[id]; !ok {
		return stores.ErrStoreNotFound
	}
	delete(f.shops, id)
	return nil
}

func (f *fakeStores) AddPhotoURL(_ context.Context, id int64, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.shops[id]
	if !ok {
		return stores.ErrStoreNotFound
	}
	s.ImageURLs = append(s.ImageURLs, url)
	return nil
}

func (f *fakeStores) RemovePhotoURL(_ context.Context, id int64, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.shops[id]
	if !ok {
		return stores.ErrStoreNotFound
	}
	kept := []string{}
	for _, u := range s.ImageURLs {
		if u != url {
			kept = append(kept, u)
		}
	}
	s.ImageURLs = kept
	return nil
}

func (f *fakeStores) Exists(_ context.Context, name, address string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.shops {
		if s.Name == name && s.Address == address {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStores) AddFavorite(_ context.Context, userID, storeID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.shops[storeID]; !ok {
		return stores.ErrStoreNotFound
	}
	if f.favorites[userID] == nil {
		f.favorites[userID] = map[int64]bool{}
	}
	f.favorites[userID][storeID] = true
	return nil
}

func (f *fakeStores) RemoveFavorite(_ context.Context, userID, storeID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.favorites[userID], storeID)
	return nil
}

func (f *fakeStores) GetFavoritesByUser(_ context.Context, userID int64) ([]stores.Shop, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []stores.Shop{}
	for id := range f.favorites[userID] {
		if s, ok := f.shops[id]; ok {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStores) GetFavoriterIDs(_ context.Context, storeID int64) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []int64{}
	for userID, favs := range f.favorites {
		if favs[storeID] {
			out = append(out, userID)
		}
	}
	return out, nil
}

// reviews

type fakeReviews struct {
	mu     sync.Mutex
	list   []reviews.Review
	nextID int64
}

func (f *fakeReviews) add(r reviews.Review) reviews.Review {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	r.ID = f.nextID
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(r.ID) * time.Minute)
	}
	r.UpdatedAt = r.CreatedAt
	if r.ImageURLs == nil {
		r.ImageURLs = []string{}
	}
	if r.Tags == nil {
		r.Tags = []string{}
	}
	if r.PrizeImageURLs == nil {
		r.PrizeImageURLs = []string{}
	}
	f.list = append(f.list, r)
	return r
}

func (f *fakeReviews) Create(_ context.Context, r *reviews.Review) error {
	*r = f.add(*r)
	return nil
}

func (f *fakeReviews) GetByID(_ context.Context, id int64) (*reviews.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.list {
		if r.ID == id {
			cp := r
			return &cp, nil
		}
	}
	return nil, reviews.ErrNotFound
}

func (f *fakeReviews) ListByStore(_ context.Context, q reviews.ListQuery) ([]reviews.Review, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []reviews.Review{}
	for _, r := range f.list {
		if r.StoreID == q.StoreID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if q.Sort == reviews.SortRating && out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	total := len(out)
	start := min(q.Offset, total)
	end := min(start+q.Limit, total)
	return out[start:end], total, nil
}

func (f *fakeReviews) Update(ctx context.Context, id, userID int64, in reviews.UpdateInput) (*reviews.Review, error) {
	f.mu.Lock()
	var found *reviews.Review
	for i := range f.list {
		if f.list[i].ID == id {
			found = &f.list[i]
		}
	}
	if found == nil {
		f.mu.Unlock()
		return nil, reviews.ErrNotFound
	}
	if !found.IsAuthoredBy(userID) {
		f.mu.Unlock()
		return nil, reviews.ErrNotOwner
	}
	if in.Rating != nil {
		found.Rating = *in.Rating
	}
	if in.Content != nil {
		found.Content = *in.Content
	}
	if in.Tags != nil {
		found.Tags = in.Tags
	}
	f.mu.Unlock()
	return f.GetByID(ctx, id)
}

func (f *fakeReviews) remove(id int64, owner *int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, r := range f.list {
		if r.ID != id {
			continue
		}
		if owner != nil && !r.IsAuthoredBy(*owner) {
			return reviews.ErrNotOwner
		}
		f.list = append(f.list[:i], f.list[i+1:]...)
		return nil
	}
	return reviews.ErrNotFound
}

func (f *fakeReviews) Delete(_ context.Context, id, userID int64) error {
	return f.remove(id, &userID)
}

func (f *fakeReviews) AdminDelete(_ context.Context, id int64) error {
	return f.remove(id, nil)
}

func (f *fakeReviews) GetStats(_ context.Context, storeID int64) (reviews.Stats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var s reviews.Stats
	sum := 0
	for _, r := range f.list {
		if r.StoreID == storeID {
			s.Total++
			sum += r.Rating
		}
	}
	if s.Total > 0 {
		s.Average = float64(sum) / float64(s.Total)
	}
	return s, nil
}

// unlocks

type fakeUnlocks struct {
	mu      sync.Mutex
	records map[[2]int64]unlocks.Record
}

func newFakeUnlocks() *fakeUnlocks {
	return &fakeUnlocks{records: map[[2]int64]unlocks.Record{}}
}

func (f *fakeUnlocks) IsUnlocked(_ context.Context, userID, storeID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.records[[2]int64{userID, storeID}]
	return ok, nil
}

func (f *fakeUnlocks) Unlock(_ context.Context, userID, storeID int64) (unlocks.Record, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := [2]int64{userID, storeID}
	if rec, ok := f.records[key]; ok {
		return rec, false, nil
	}
	rec := unlocks.Record{UserID: userID, StoreID: storeID, UnlockedAt: time.Now().UTC()}
	f.records[key] = rec
	return rec, true, nil
}

func (f *fakeUnlocks) ListByUser(_ context.Context, userID int64) ([]unlocks.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []unlocks.Record{}
	for key, rec := range f.records {
		if key[0] == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}

// ads

type fakeAds struct {
	mu     sync.Mutex
	byID   map[int64]*ads.Ad
	nextID int64
}

func newFakeAds() *fakeAds {
	return &fakeAds{byID: map[int64]*ads.Ad{}}
}

func (f *fakeAds) GetActiveAds(_ context.Context, now time.Time) ([]ads.ActiveAd, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []ads.ActiveAd{}
	for _, a := range f.byID {
		if a.Active {
			out = append(out, ads.ActiveAd{Ad: *a})
		}
	}
	return out, nil
}

func (f *fakeAds) GetAllAds(_ context.Context, limit, offset int) ([]ads.Ad, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []ads.Ad{}
	for _, a := range f.byID {
		out = append(out, *a)
	}
	return out, len(out), nil
}

func (f *fakeAds) GetAdByID(_ context.Context, id int64) (*ads.Ad, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return nil, ads.ErrAdNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAds) CreateAd(_ context.Context, req ads.CreateAdRequest) (*ads.Ad, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	a := &ads.Ad{
		ID:           f.nextID,
		StoreID:      req.StoreID,
		Title:        req.Title,
		Description:  req.Description,
		ImageURL:     req.ImageURL,
		Link:         req.Link,
		DisplayOrder: req.DisplayOrder,
		Active:       req.Active,
		StartsAt:     req.StartsAt,
		EndsAt:       req.EndsAt,
	}
	f.byID[a.ID] = a
	cp := *a
	return &cp, nil
}

func (f *fakeAds) UpdateAd(ctx context.Context, id int64, req ads.UpdateAdRequest) (*ads.Ad, error) {
	f.mu.Lock()
	a, ok := f.byID[id]
	if !ok {
		f.mu.Unlock()
		return nil, ads.ErrAdNotFound
	}
	if req.Title != nil {
		a.Title = *req.Title
	}
	if req.Active != nil {
		a.Active = *req.Active
	}
	f.mu.Unlock()
	return f.GetAdByID(ctx, id)
}

func (f *fakeAds) DeleteAd(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return ads.ErrAdNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeAds) ToggleAdStatus(ctx context.Context, id int64) (*ads.Ad, error) {
	f.mu.Lock()
	a, ok := f.byID[id]
	if !ok {
		f.mu.Unlock()
		return nil, ads.ErrAdNotFound
	}
	a.Active = !a.Active
	f.mu.Unlock()
	return f.GetAdByID(ctx, id)
}

func (f *fakeAds) Activate(_ context.Context, id int64, startsAt, endsAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return ads.ErrAdNotFound
	}
	a.Active = true
	a.StartsAt = &startsAt
	a.EndsAt = &endsAt
	return nil
}

func (f *fakeAds) IncrementImpressions(_ context.Context, ids []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		if a, ok := f.byID[id]; ok {
			a.Impressions++
		}
	}
	return nil
}

func (f *fakeAds) IncrementClicks(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return ads.ErrAdNotFound
	}
	a.Clicks++
	return nil
}

// payments

type fakePayments struct {
	mu     sync.Mutex
	byID   map[int64]*paymentsrepo.Payment
	nextID int64
}

func newFakePayments() *fakePayments {
	return &fakePayments{byID: map[int64]*paymentsrepo.Payment{}}
}

func (f *fakePayments) Create(_ context.Context, p *paymentsrepo.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	p.ID = f.nextID
	cp := *p
	f.byID[p.ID] = &cp
	return nil
}

func (f *fakePayments) GetByOrderID(_ context.Context, orderID string) (*paymentsrepo.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.byID {
		if p.OrderID == orderID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, paymentsrepo.ErrPaymentNotFound
}

func (f *fakePayments) MarkPaid(_ context.Context, id int64, ref string, raw any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok || p.Status != paymentsrepo.StatusPending {
		return paymentsrepo.ErrPaymentNotFound
	}
	p.Status = paymentsrepo.StatusPaid
	p.ProviderRef = &ref
	p.GatewayResp = raw
	return nil
}

func (f *fakePayments) SetStatus(_ context.Context, id int64, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok {
		return paymentsrepo.ErrPaymentNotFound
	}
	p.Status = status
	return nil
}

type fakePayLogs struct {
	mu   sync.Mutex
	logs []paymentsrepo.PaymentLog
}

func (f *fakePayLogs) InsertPaymentLog(_ context.Context, paymentID int64, logType string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = append(f.logs, paymentsrepo.PaymentLog{PaymentID: paymentID, LogType: logType, Payload: payload})
	return nil
}

func (f *fakePayLogs) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []string{}
	for _, l := range f.logs {
		out = append(out, l.LogType)
	}
	return out
}

// push tokens

type fakePushTokens struct {
	mu     sync.Mutex
	tokens map[int64][]string
}

func (f *fakePushTokens) AddOrUpdatePushToken(_ context.Context, userID int64, token string, _ json.RawMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tokens == nil {
		f.tokens = map[int64][]string{}
	}
	f.tokens[userID] = append(f.tokens[userID], token)
	return nil
}

func (f *fakePushTokens) RemovePushToken(_ context.Context, userID int64, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := []string{}
	for _, t := range f.tokens[userID] {
		if t != token {
			kept = append(kept, t)
		}
	}
	f.tokens[userID] = kept
	return nil
}

func (f *fakePushTokens) RemoveTokensByTokenList(ctx context.Context, tokens []string) error {
	for userID := range f.tokens {
		for _, t := range tokens {
			_ = f.RemovePushToken(ctx, userID, t)
		}
	}
	return nil
}

func (f *fakePushTokens) GetTokensByUserIDs(_ context.Context, ids []int64) (map[int64][]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[int64][]string{}
	for _, id := range ids {
		if ts := f.tokens[id]; len(ts) > 0 {
			out[id] = ts
		}
	}
	return out, nil
}

type fakeReports struct {
	summary reports.Summary
	from    time.Time
	to      time.Time
}

func (f *fakeReports) Summarize(_ context.Context, from, to time.Time) (*reports.Summary, error) {
	f.from, f.to = from, to
	s := f.summary
	s.From, s.To = from, to
	return &s, nil
}

// gateway

type fakeGateway struct {
	verify   payments.PaymentVerifyResponse
	err      error
	verified int
}

func (g *fakeGateway) InitiatePayment(_ context.Context, req payments.PaymentRequest) (payments.PaymentResponse, error) {
	return payments.PaymentResponse{Data: map[string]string{
		"order_id": req.OrderID,
		"amount":   fmt.Sprint(req.Amount),
	}}, nil
}

func (g *fakeGateway) VerifyPayment(_ context.Context, req payments.PaymentVerifyRequest) (payments.PaymentVerifyResponse, error) {
	g.verified++
	return g.verify, g.err
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Notify(_ context.Context, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, text)
	return nil
}

// test application

type testEnv struct {
	app      *application
	mux      http.Handler
	users    *fakeUsers
	stores   *fakeStores
	reviews  *fakeReviews
	unlocks  *fakeUnlocks
	ads      *fakeAds
	payments *fakePayments
	payLogs  *fakePayLogs
	reports  *fakeReports
	gateway  *fakeGateway
	slack    *recordingNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		users:    newFakeUsers(),
		stores:   newFakeStores(),
		reviews:  &fakeReviews{},
		unlocks:  newFakeUnlocks(),
		ads:      newFakeAds(),
		payments: newFakePayments(),
		payLogs:  &fakePayLogs{},
		reports:  &fakeReports{},
		gateway:  &fakeGateway{},
		slack:    &recordingNotifier{},
	}

	container := &storage.Container{
		Users:      env.users,
		Stores:     env.stores,
		Reviews:    env.reviews,
		Unlocks:    env.unlocks,
		Ads:        env.ads,
		Payments:   env.payments,
		PayLogs:    env.payLogs,
		PushTokens: &fakePushTokens{},
		Reports:    env.reports,
		Tx: func(ctx context.Context, fn func(s *storage.PaymentTx) error) error {
			return fn(&storage.PaymentTx{Payments: env.payments, PayLogs: env.payLogs, Ads: env.ads})
		},
	}

	manager := payments.NewPaymentManager()
	manager.RegisterGateway(payments.ProviderToss, env.gateway)

	orderNumbers, err := paymentsrepo.NewOrderNumberGenerator("test-secret")
	require.NoError(t, err)

	cfg := config{
		env: "test",
		auth: authConfig{
			basic: basicConfig{user: "admin", pass: "secret"},
			token: tokenConfig{
				secret:          "access-secret",
				refreshSecret:   "refresh-secret",
				accessTokenExp:  time.Hour,
				refreshTokenExp: 24 * time.Hour,
				iss:             "dollmap",
			},
		},
		payment: paymentConfig{adPricePerDay: 1100},
		report:  reportConfig{hour: 9, location: "Asia/Seoul"},
		unlockLimiter: ratelimiter.Config{
			RequestsPerTimeFrame: 3,
			TimeFrame:            time.Minute,
			Enabled:              true,
		},
	}

	env.app = &application{
		config: cfg,
		store:  container,
		logger: zap.NewNop().Sugar(),
		images: &memImages{},
		authenticator: auth.NewJWTAuthenticator(
			cfg.auth.token.secret, cfg.auth.token.refreshSecret,
			cfg.auth.token.iss, cfg.auth.token.iss,
			cfg.auth.token.accessTokenExp, cfg.auth.token.refreshTokenExp,
		),
		rateLimiter:   ratelimiter.NewTokenBucketLimiter(cfg.rateLimiter),
		unlockLimiter: ratelimiter.NewTokenBucketLimiter(cfg.unlockLimiter),
		payments:      manager,
		orderNumbers:  orderNumbers,
		slack:         env.slack,
	}
	env.mux = env.app.mount()

	t.Cleanup(env.app.wg.Wait)
	return env
}

// signUp creates a user and returns a bearer token for it.
func (env *testEnv) signUp(t *testing.T, nickname string) (*users.User, string) {
	t.Helper()
	u := &users.User{Email: nickname + "@example.com", Nickname: nickname}
	require.NoError(t, env.users.Create(context.Background(), u))

	access, _, err := env.app.authenticator.GenerateTokens(u.ID, u.Role)
	require.NoError(t, err)
	return u, access
}

func (env *testEnv) do(t *testing.T, method, path, token string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	env.mux.ServeHTTP(rr, req)
	return rr
}

func decodeData(t *testing.T, rr *httptest.ResponseRecorder, out any) {
	t.Helper()
	envelope := struct {
		Data json.RawMessage `json:"data"`
	}{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &envelope), rr.Body.String())
	require.NoError(t, json.Unmarshal(envelope.Data, out), string(envelope.Data))
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return strings.NewReader(string(b))
}

type memImages struct {
	mu        sync.Mutex
	uploaded  []string
	destroyed []string
}

func (m *memImages) Upload(_ context.Context, r io.Reader, folder string) (string, error) {
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	url := fmt.Sprintf("https://res.cloudinary.com/demo/image/upload/v1/%s/img%d.jpg", folder, len(m.uploaded)+1)
	m.uploaded = append(m.uploaded, url)
	return url, nil
}

func (m *memImages) Destroy(_ context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.destroyed = append(m.destroyed, url)
	return nil
}
