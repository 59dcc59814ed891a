package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kingsloob1/snipfair-app-sub000/internal/booking"
	"github.com/kingsloob1/snipfair-app-sub000/internal/domain"
	"github.com/kingsloob1/snipfair-app-sub000/internal/events"
	"github.com/kingsloob1/snipfair-app-sub000/internal/gateway"
	"github.com/kingsloob1/snipfair-app-sub000/internal/settings"
	"github.com/kingsloob1/snipfair-app-sub000/internal/testutil"
	"github.com/kingsloob1/snipfair-app-sub000/internal/utils"
)

const (
	testSecret     = "test-secret"
	testPassphrase = "salt"
)

type server struct {
	t      *testing.T
	db     *gorm.DB
	router *gin.Engine
}

func newServer(t *testing.T) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	gdb := testutil.NewDB(t)
	_, rdb := testutil.NewRedis(t)
	hub := events.NewHub(rdb)
	store := settings.NewStore(gdb, rdb)
	r := NewRouter(Deps{
		DB:        gdb,
		Redis:     rdb,
		JWTSecret: testSecret,
		Settings:  store,
		Booking:   booking.NewService(gdb, rdb, store, hub),
		Gateway: gateway.NewService(gdb, rdb, gateway.Config{
			MerchantID:  "10000100",
			MerchantKey: "46f0cd694581a",
			Passphrase:  testPassphrase,
			ProcessURL:  "https://gateway.example/eng/process",
			NotifyURL:   "https://api.example/webhooks/gateway",
		}, hub),
		Hub: hub,
	})
	return &server{t: t, db: gdb, router: r}
}

func (s *server) token(u domain.User) string {
	s.t.Helper()
	tok, err := utils.GenerateJWT(u.ID, u.Role, testSecret)
	require.NoError(s.t, err)
	return tok
}

// do sends a JSON request as user (zero value for anonymous) and decodes the body
func (s *server) do(method, path string, u domain.User, body any) (int, map[string]any) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if u.ID != 0 {
		req.Header.Set("Authorization", "Bearer "+s.token(u))
	}
	return s.serve(req)
}

func (s *server) serve(req *http.Request) (int, map[string]any) {
	s.t.Helper()
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	out := map[string]any{}
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &out)
	}
	return w.Code, out
}

func TestRegisterAndLogin(t *testing.T) {
	s := newServer(t)

	code, body := s.do(http.MethodPost, "/user", domain.User{}, gin.H{"username": "Amara", "password": "password123", "role": "stylist"})
	require.Equal(t, http.StatusCreated, code, body)
	assert.Equal(t, domain.RoleStylist, body["role"])

	var w domain.Wallet
	require.NoError(t, s.db.Where("user_id = ?", uint(body["id"].(float64))).First(&w).Error)

	cases := []struct {
		name string
		req  gin.H
	}{
		{"duplicate", gin.H{"username": "amara", "password": "password123"}},
		{"admin role", gin.H{"username": "mallory", "password": "password123", "role": "admin"}},
		{"digits in username", gin.H{"username": "amara2", "password": "password123"}},
		{"short password", gin.H{"username": "zola", "password": "short"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, _ := s.do(http.MethodPost, "/user", domain.User{}, tc.req)
			assert.Equal(t, http.StatusBadRequest, code)
		})
	}

	code, body = s.do(http.MethodPost, "/user/login", domain.User{}, gin.H{"username": "AMARA", "password": "password123"})
	require.Equal(t, http.StatusOK, code)
	claims, err := utils.ParseJWT(body["token"].(string), testSecret)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleStylist, claims.Role)

	code, _ = s.do(http.MethodPost, "/user/login", domain.User{}, gin.H{"username": "amara", "password": "wrongpass1"})
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestWalletEndpoints(t *testing.T) {
	s := newServer(t)
	u := testutil.CreateUser(t, s.db, "kemi", domain.RoleCustomer, 40)

	code, body := s.do(http.MethodGet, "/wallet", u, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["cached"])
	code, body = s.do(http.MethodGet, "/wallet", u, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["cached"])

	code, _ = s.do(http.MethodPost, "/wallet", u, nil)
	assert.Equal(t, http.StatusBadRequest, code, "one wallet per user")

	code, _ = s.do(http.MethodGet, "/wallet", domain.User{}, nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body = s.do(http.MethodGet, "/wallet/transactions", u, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 0, body["total"])
}

func TestTopupWebhook(t *testing.T) {
	s := newServer(t)
	u := testutil.CreateUser(t, s.db, "tunde", domain.RoleCustomer, 0)

	code, body := s.do(http.MethodPost, "/wallet/topup", u, gin.H{"amount": 25})
	require.Equal(t, http.StatusCreated, code, body)
	fields := body["fields"].(map[string]any)
	reference := fields["m_payment_id"].(string)

	post := func(form url.Values) int {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/gateway", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		code, _ := s.serve(req)
		return code
	}
	notify := func(amount string) url.Values {
		form := url.Values{}
		form.Set("m_payment_id", reference)
		form.Set("pf_payment_id", "1089250")
		form.Set("payment_status", "COMPLETE")
		form.Set("amount_gross", amount)
		form.Set("signature", gateway.Signature(form, testPassphrase))
		return form
	}

	forged := notify("25.00")
	forged.Set("amount_gross", "2500.00")
	assert.Equal(t, http.StatusBadRequest, post(forged))
	assert.Equal(t, http.StatusBadRequest, post(notify("20.00")))
	assert.Equal(t, 0.0, testutil.Balance(t, s.db, u.ID))

	assert.Equal(t, http.StatusOK, post(notify("25.00")))
	assert.Equal(t, http.StatusOK, post(notify("25.00")))
	assert.Equal(t, 25.0, testutil.Balance(t, s.db, u.ID), "credited once")
}
