package api

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingsloob1/snipfair-app-sub000/internal/domain"
	"github.com/kingsloob1/snipfair-app-sub000/internal/testutil"
)

type parties struct {
	customer, stylist, admin domain.User
	portfolio                domain.Portfolio
}

func seed(t *testing.T, s *server) parties {
	t.Helper()
	p := parties{
		customer: testutil.CreateUser(t, s.db, "ada", domain.RoleCustomer, 200),
		stylist:  testutil.CreateUser(t, s.db, "bisi", domain.RoleStylist, 0),
		admin:    testutil.CreateUser(t, s.db, "root", domain.RoleAdmin, 0),
	}
	p.portfolio = testutil.CreatePortfolio(t, s.db, p.stylist.ID, 80, 60)
	return p
}

// book creates an appointment through the API and returns its id
func (s *server) book(p parties, in time.Duration, mode string) uint {
	s.t.Helper()
	code, body := s.do(http.MethodPost, "/appointments", p.customer, gin.H{
		"portfolio_id": p.portfolio.ID,
		"scheduled_at": time.Now().Add(in).UTC().Format(time.RFC3339),
		"payment_mode": mode,
	})
	require.Equal(s.t, http.StatusCreated, code, body)
	return uint(body["appointment"].(map[string]any)["id"].(float64))
}

// completeNow approves an appointment, moves it into the past and completes it
func (s *server) completeNow(p parties, id uint) {
	s.t.Helper()
	code, body := s.do(http.MethodPost, fmt.Sprintf("/appointments/%d/approve", id), p.stylist, nil)
	require.Equal(s.t, http.StatusOK, code, body)
	require.NoError(s.t, s.db.Model(&domain.Appointment{}).Where("id = ?", id).
		Update("scheduled_at", time.Now().Add(-2*time.Hour).UnixMilli()).Error)
	code, body = s.do(http.MethodPost, fmt.Sprintf("/appointments/%d/complete", id), p.stylist, nil)
	require.Equal(s.t, http.StatusOK, code, body)
}

func TestBookingLifecycle(t *testing.T) {
	s := newServer(t)
	p := seed(t, s)

	code, _ := s.do(http.MethodPost, "/appointments", p.stylist, gin.H{"portfolio_id": p.portfolio.ID, "scheduled_at": time.Now().Add(72 * time.Hour).Format(time.RFC3339)})
	assert.Equal(t, http.StatusForbidden, code, "stylists do not book")

	code, _ = s.do(http.MethodPost, "/appointments", p.customer, gin.H{"portfolio_id": p.portfolio.ID, "scheduled_at": "tomorrow"})
	assert.Equal(t, http.StatusBadRequest, code)

	id := s.book(p, 72*time.Hour, domain.PaymentFull)
	assert.Equal(t, 120.0, testutil.Balance(t, s.db, p.customer.ID))

	code, body := s.do(http.MethodGet, "/appointments", p.stylist, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["total"])

	outsider := testutil.CreateUser(t, s.db, "eve", domain.RoleCustomer, 0)
	code, _ = s.do(http.MethodGet, fmt.Sprintf("/appointments/%d", id), outsider, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = s.do(http.MethodPost, fmt.Sprintf("/appointments/%d/approve", id), p.stylist, nil)
	require.Equal(t, http.StatusOK, code)
	code, _ = s.do(http.MethodPost, fmt.Sprintf("/appointments/%d/approve", id), p.stylist, nil)
	assert.Equal(t, http.StatusBadRequest, code, "already approved")

	code, body = s.do(http.MethodPost, fmt.Sprintf("/appointments/%d/cancel", id), p.customer, gin.H{"reason": "travel"})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, 200.0, testutil.Balance(t, s.db, p.customer.ID), "free cancellation window")
}

func TestBookingInsufficientBalance(t *testing.T) {
	s := newServer(t)
	p := seed(t, s)
	poor := testutil.CreateUser(t, s.db, "femi", domain.RoleCustomer, 10)

	code, body := s.do(http.MethodPost, "/appointments", poor, gin.H{
		"portfolio_id": p.portfolio.ID,
		"scheduled_at": time.Now().Add(72 * time.Hour).Format(time.RFC3339),
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Insufficient balance", body["error"])
	assert.Equal(t, 10.0, testutil.Balance(t, s.db, poor.ID))
}

func TestRescheduleRoute(t *testing.T) {
	s := newServer(t)
	p := seed(t, s)
	id := s.book(p, 72*time.Hour, domain.PaymentDeposit)

	code, body := s.do(http.MethodPost, fmt.Sprintf("/appointments/%d/reschedule", id), p.customer, gin.H{
		"scheduled_at": time.Now().Add(96 * time.Hour).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusOK, code, body)
	appt := body["appointment"].(map[string]any)
	assert.EqualValues(t, 1, appt["reschedule_count"])
	assert.Equal(t, domain.AppointmentPending, appt["status"])
}

func TestDisputeResolution(t *testing.T) {
	s := newServer(t)
	p := seed(t, s)
	id := s.book(p, 72*time.Hour, domain.PaymentFull)
	s.completeNow(p, id)

	code, body := s.do(http.MethodPost, fmt.Sprintf("/appointments/%d/dispute", id), p.customer, gin.H{"reason": "Uneven cut"})
	require.Equal(t, http.StatusCreated, code, body)
	disputeID := uint(body["dispute"].(map[string]any)["id"].(float64))

	code, _ = s.do(http.MethodPost, fmt.Sprintf("/appointments/%d/dispute", id), p.customer, gin.H{"reason": "Again"})
	assert.Equal(t, http.StatusConflict, code)

	code, body = s.do(http.MethodGet, "/admin/disputes?status=open", p.admin, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["total"])

	resolve := fmt.Sprintf("/admin/disputes/%d/resolve", disputeID)
	code, _ = s.do(http.MethodPost, resolve, p.customer, gin.H{"customer_share": 50, "resolution": "Split"})
	assert.Equal(t, http.StatusForbidden, code)

	code, body = s.do(http.MethodPost, resolve, p.admin, gin.H{"customer_share": 50, "resolution": "Split"})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, 160.0, testutil.Balance(t, s.db, p.customer.ID))
	assert.Equal(t, 36.0, testutil.Balance(t, s.db, p.stylist.ID))

	code, _ = s.do(http.MethodPost, resolve, p.admin, gin.H{"customer_share": 50, "resolution": "Split"})
	assert.Equal(t, http.StatusConflict, code)
}

func TestReviewsAndTips(t *testing.T) {
	s := newServer(t)
	p := seed(t, s)
	id := s.book(p, 72*time.Hour, domain.PaymentFull)

	review := fmt.Sprintf("/appointments/%d/review", id)
	code, _ := s.do(http.MethodPost, review, p.customer, gin.H{"rating": 5})
	assert.Equal(t, http.StatusBadRequest, code, "not completed yet")

	s.completeNow(p, id)

	code, _ = s.do(http.MethodPost, review, p.customer, gin.H{"rating": 6})
	assert.Equal(t, http.StatusBadRequest, code)
	code, body := s.do(http.MethodPost, review, p.customer, gin.H{"rating": 4, "comment": "Lovely"})
	require.Equal(t, http.StatusCreated, code, body)
	code, _ = s.do(http.MethodPost, review, p.customer, gin.H{"rating": 5})
	assert.Equal(t, http.StatusConflict, code)

	code, body = s.do(http.MethodGet, fmt.Sprintf("/stylists/%d/reviews", p.stylist.ID), domain.User{}, nil)
	require.Equal(t, http.StatusOK, code)
	summary := body["summary"].(map[string]any)
	assert.EqualValues(t, 1, summary["count"])
	assert.EqualValues(t, 4, summary["average"])

	code, body = s.do(http.MethodPost, "/wallet/tip", p.customer, gin.H{"appointment_id": id, "amount": 5})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, 115.0, testutil.Balance(t, s.db, p.customer.ID))
	assert.Equal(t, 5.0, testutil.Balance(t, s.db, p.stylist.ID))

	code, _ = s.do(http.MethodPost, "/wallet/tip", p.customer, gin.H{"appointment_id": id, "amount": 500})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestRedeemRewards(t *testing.T) {
	s := newServer(t)
	p := seed(t, s)
	require.NoError(t, s.db.Model(&domain.User{}).Where("id = ?", p.customer.ID).Update("reward_points", 500).Error)

	code, body := s.do(http.MethodPost, "/rewards/redeem", p.customer, gin.H{"points": 200})
	require.Equal(t, http.StatusOK, code, body)
	assert.EqualValues(t, 2, body["credit"])
	assert.Equal(t, 202.0, testutil.Balance(t, s.db, p.customer.ID))

	code, _ = s.do(http.MethodPost, "/rewards/redeem", p.customer, gin.H{"points": 1000})
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = s.do(http.MethodPost, "/rewards/redeem", p.customer, gin.H{"points": 0})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = s.do(http.MethodGet, "/rewards", p.customer, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 300, body["points"])
	assert.EqualValues(t, 1, body["total"])
}

func TestWithdrawalReview(t *testing.T) {
	s := newServer(t)
	p := seed(t, s)
	require.NoError(t, s.db.Model(&domain.Wallet{}).Where("user_id = ?", p.stylist.ID).Update("balance", 50).Error)

	code, _ := s.do(http.MethodPost, "/wallet/withdraw", p.customer, gin.H{"amount": 10})
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = s.do(http.MethodPost, "/wallet/withdraw", p.stylist, gin.H{"amount": 80})
	assert.Equal(t, http.StatusBadRequest, code)

	withdraw := func() uint {
		code, body := s.do(http.MethodPost, "/wallet/withdraw", p.stylist, gin.H{"amount": 20})
		require.Equal(t, http.StatusCreated, code, body)
		return uint(body["withdrawal"].(map[string]any)["id"].(float64))
	}
	first, second := withdraw(), withdraw()
	assert.Equal(t, 10.0, testutil.Balance(t, s.db, p.stylist.ID))

	code, _ = s.do(http.MethodPost, fmt.Sprintf("/admin/withdrawals/%d/approve", first), p.admin, nil)
	require.Equal(t, http.StatusOK, code)
	code, _ = s.do(http.MethodPost, fmt.Sprintf("/admin/withdrawals/%d/reject", second), p.admin, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 30.0, testutil.Balance(t, s.db, p.stylist.ID))

	code, _ = s.do(http.MethodPost, fmt.Sprintf("/admin/withdrawals/%d/reject", first), p.admin, nil)
	assert.Equal(t, http.StatusConflict, code)
}

func TestConversations(t *testing.T) {
	s := newServer(t)
	p := seed(t, s)

	code, body := s.do(http.MethodPost, "/conversations/messages", p.customer, gin.H{"recipient_id": p.stylist.ID, "body": "Are you free Friday?"})
	require.Equal(t, http.StatusCreated, code, body)
	convID := body["conversation"].(map[string]any)["id"]

	code, body = s.do(http.MethodPost, "/conversations/messages", p.stylist, gin.H{"recipient_id": p.customer.ID, "body": "Yes, after 2pm"})
	require.Equal(t, http.StatusCreated, code, body)
	assert.Equal(t, convID, body["conversation"].(map[string]any)["id"])

	other := testutil.CreateUser(t, s.db, "chidi", domain.RoleCustomer, 0)
	code, _ = s.do(http.MethodPost, "/conversations/messages", p.customer, gin.H{"recipient_id": other.ID, "body": "hi"})
	assert.Equal(t, http.StatusBadRequest, code)

	path := fmt.Sprintf("/conversations/%v/messages", convID)
	code, body = s.do(http.MethodGet, path, p.customer, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 2, body["total"])
	code, _ = s.do(http.MethodGet, path, other, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestPortfolios(t *testing.T) {
	s := newServer(t)
	p := seed(t, s)

	code, body := s.do(http.MethodPost, "/portfolios", p.stylist, gin.H{"title": "Braids", "price": 120, "duration_minutes": 180, "active": false})
	require.Equal(t, http.StatusCreated, code, body)
	id := uint(body["portfolio"].(map[string]any)["id"].(float64))

	code, _ = s.do(http.MethodPost, "/portfolios", p.customer, gin.H{"title": "Braids", "price": 120, "duration_minutes": 180})
	assert.Equal(t, http.StatusForbidden, code)

	code, body = s.do(http.MethodGet, fmt.Sprintf("/stylists/%d/portfolios", p.stylist.ID), domain.User{}, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["portfolios"], 1, "inactive services are hidden")

	code, _ = s.do(http.MethodPut, fmt.Sprintf("/portfolios/%d", id), p.stylist, gin.H{"title": "Box braids", "price": 130, "duration_minutes": 180})
	require.Equal(t, http.StatusOK, code)
	code, body = s.do(http.MethodGet, fmt.Sprintf("/stylists/%d/portfolios", p.stylist.ID), domain.User{}, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["portfolios"], 2)
}

func TestAdminSettings(t *testing.T) {
	s := newServer(t)
	p := seed(t, s)

	code, _ := s.do(http.MethodGet, "/admin/settings", p.customer, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, body := s.do(http.MethodGet, "/admin/settings", p.admin, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 10, body["settings"].(map[string]any)["commission_percent"])

	code, body = s.do(http.MethodPut, "/admin/settings", p.admin, gin.H{"commission_percent": 15})
	require.Equal(t, http.StatusOK, code, body)
	assert.EqualValues(t, 15, body["settings"].(map[string]any)["commission_percent"])

	code, _ = s.do(http.MethodPut, "/admin/settings", p.admin, gin.H{"bogus": 1})
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = s.do(http.MethodPut, "/admin/settings", p.admin, gin.H{"deposit_percent": 150})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestAdminLists(t *testing.T) {
	s := newServer(t)
	p := seed(t, s)
	s.book(p, 72*time.Hour, domain.PaymentFull)

	code, body := s.do(http.MethodGet, "/admin/users?role=customer", p.admin, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["total"])

	code, body = s.do(http.MethodGet, fmt.Sprintf("/admin/transactions?user_id=%d&type=booking", p.customer.ID), p.admin, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["total"])

	code, body = s.do(http.MethodGet, "/admin/appointments?status=pending", p.admin, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["total"])
}
