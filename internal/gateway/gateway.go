// Package gateway tops up wallets through the external payment gateway:
// it signs the redirect form for a new payment and settles the gateway's
// signed notifications.
package gateway

import (
	"context"
	"errors"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/kingsloob1/snipfair-app-sub000/internal/apperr"
	"github.com/kingsloob1/snipfair-app-sub000/internal/domain"
	"github.com/kingsloob1/snipfair-app-sub000/internal/events"
	"github.com/kingsloob1/snipfair-app-sub000/internal/metrics"
	"github.com/kingsloob1/snipfair-app-sub000/internal/utils"
	"github.com/kingsloob1/snipfair-app-sub000/internal/wallet"
)

// Gateway payment_status values
const (
	StatusComplete  = "COMPLETE"
	StatusFailed    = "FAILED"
	StatusCancelled = "CANCELLED"
)

// Config identifies the merchant at the gateway
type Config struct {
	MerchantID  string // Merchant account
	MerchantKey string // Merchant key sent with every form
	Passphrase  string // Salt of the form signature
	ProcessURL  string // Where the client posts the form
	NotifyURL   string // Our webhook for payment notifications
	ReturnURL   string // Where the gateway sends the customer back
}

// Publisher delivers realtime events to users
type Publisher interface {
	Publish(userIDs []uint, evt events.Event)
}

// Service handles top-ups
type Service struct {
	db     *gorm.DB      // Database handle
	rdb    *redis.Client // Wallet cache to invalidate
	cfg    Config        // Merchant settings
	events Publisher     // Realtime updates, may be nil
}

// NewService creates a gateway service
func NewService(db *gorm.DB, rdb *redis.Client, cfg Config, pub Publisher) *Service {
	return &Service{db: db, rdb: rdb, cfg: cfg, events: pub}
}

// Checkout is what the client posts to the gateway to pay
type Checkout struct {
	Payment    domain.GatewayPayment `json:"payment"`
	ProcessURL string                `json:"process_url"`
	Fields     map[string]string     `json:"fields"`
}

// Initiate records a pending top-up and returns the signed gateway form
func (s *Service) Initiate(ctx context.Context, userID uint, amount float64) (*Checkout, error) {
	amount = utils.RoundMoney(amount) // Whole cents only
	if amount <= 0 {
		return nil, apperr.BadRequest("Invalid amount")
	}
	p := domain.GatewayPayment{
		Reference: uuid.NewString(),      // Sent as m_payment_id, echoed back in the notification
		UserID:    userID,                // Wallet to credit
		Amount:    amount,                // Expected gross
		Status:    domain.GatewayPending, // Until the gateway notifies us
	}
	if err := s.db.WithContext(ctx).Create(&p).Error; err != nil {
		return nil, err
	}
	// Fields the gateway expects, signed over their canonical order
	form := url.Values{}
	form.Set("merchant_id", s.cfg.MerchantID)
	form.Set("merchant_key", s.cfg.MerchantKey)
	form.Set("return_url", s.cfg.ReturnURL)
	form.Set("notify_url", s.cfg.NotifyURL)
	form.Set("m_payment_id", p.Reference)
	form.Set("amount", strconv.FormatFloat(amount, 'f', 2, 64))
	form.Set("item_name", "Wallet top-up")
	form.Set("signature", Signature(form, s.cfg.Passphrase))

	fields := make(map[string]string, len(form)) // Flattened for the client
	for k := range form {
		fields[k] = form.Get(k)
	}
	logrus.WithFields(logrus.Fields{
		"user_id":   userID,
		"amount":    amount,
		"reference": p.Reference,
	}).Info("Top-up initiated")
	return &Checkout{Payment: p, ProcessURL: s.cfg.ProcessURL, Fields: fields}, nil
}

// HandleNotification settles a signed gateway notification. A payment is
// credited once; repeated COMPLETE notifications are acknowledged without
// moving money.
func (s *Service) HandleNotification(ctx context.Context, form url.Values) error {
	// Reject anything not signed with our passphrase
	if !Verify(form, s.cfg.Passphrase) {
		return apperr.BadRequest("Invalid signature")
	}
	reference := form.Get("m_payment_id")                                    // Our payment reference
	status := strings.ToUpper(strings.TrimSpace(form.Get("payment_status"))) // Gateway outcome
	var p domain.GatewayPayment
	credited := false // Whether this notification moved money
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("reference = ?", reference).First(&p).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("Payment not found")
			}
			return err
		}
		// The paid amount must match what was initiated
		gross, err := strconv.ParseFloat(form.Get("amount_gross"), 64)
		if err != nil || math.Abs(gross-p.Amount) > 0.01 {
			return apperr.BadRequest("Amount mismatch")
		}
		var next string // Stored payment status
		switch status {
		case StatusComplete:
			next = domain.GatewayComplete
		case StatusFailed:
			next = domain.GatewayFailed
		case StatusCancelled:
			next = domain.GatewayCancelled
		default:
			return apperr.BadRequest("Unknown payment status")
		}
		// Only a pending payment is settled; repeats fall through
		res := tx.Model(&domain.GatewayPayment{}).
			Where("id = ? AND status = ?", p.ID, domain.GatewayPending).
			Updates(map[string]any{"status": next, "gateway_payment_id": form.Get("pf_payment_id")})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil // Already settled
		}
		p.Status = next
		if next != domain.GatewayComplete {
			return nil
		}
		// Credit the wallet in the same transaction as the status change
		if _, err := wallet.Credit(tx, p.UserID, p.Amount, wallet.Entry{Type: domain.TxTopup, Reference: p.Reference}); err != nil {
			return err
		}
		credited = true
		return nil
	})
	if err != nil {
		if apperr.Status(err) >= 500 {
			metrics.SettlementFailures.WithLabelValues("topup").Inc()
		}
		logrus.WithFields(logrus.Fields{
			"reference": reference,   // Payment reference
			"status":    status,      // Reported status
			"error":     err.Error(), // Error message
		}).Error("Gateway notification rejected")
		return err
	}
	// Log processed notification
	logrus.WithFields(logrus.Fields{
		"user_id":   p.UserID,    // Wallet owner
		"reference": p.Reference, // Payment reference
		"status":    p.Status,    // Stored status
		"credited":  credited,    // False for repeats and failures
	}).Info("Gateway notification processed")
	if credited {
		metrics.SettlementsTotal.WithLabelValues("topup").Inc()
		wallet.Invalidate(ctx, s.rdb, p.UserID)
		if s.events != nil {
			s.events.Publish([]uint{p.UserID}, events.Event{Type: events.WalletUpdated, Data: p})
		}
	}
	return nil
}
