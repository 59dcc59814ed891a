// Package booking runs the appointment workflow and its money movements:
// upfront charges, deposits, escrow pouches, commission, refunds and
// penalties. Every state change happens inside one database transaction and
// status changes only apply from the expected status, so two racing requests
// cannot both settle the same appointment.
package booking

import (
	"context" // Request scoped cancellation
	"errors"  // Error inspection
	"math"    // Reward point flooring
	"slices"  // Status lookup
	"time"    // Clock and durations

	"github.com/google/uuid"       // Booking references
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
	"gorm.io/gorm/clause"          // Row locking

	"github.com/kingsloob1/snipfair-app-sub000/internal/apperr"   // HTTP-aware errors
	"github.com/kingsloob1/snipfair-app-sub000/internal/domain"   // Importing domain models
	"github.com/kingsloob1/snipfair-app-sub000/internal/events"   // Realtime notifications
	"github.com/kingsloob1/snipfair-app-sub000/internal/metrics"  // Prometheus collectors
	"github.com/kingsloob1/snipfair-app-sub000/internal/settings" // Platform settings
	"github.com/kingsloob1/snipfair-app-sub000/internal/utils"    // Money rounding
	"github.com/kingsloob1/snipfair-app-sub000/internal/wallet"   // Wallet ledger
)

// Publisher delivers realtime events to users
type Publisher interface {
	Publish(userIDs []uint, evt events.Event)
}

// Service coordinates appointments and their settlement
type Service struct {
	db       *gorm.DB         // Database handle
	rdb      *redis.Client    // Cache to invalidate after money moves
	settings *settings.Store  // Commission, penalties and windows
	events   Publisher        // Realtime updates, may be nil
	now      func() time.Time // Clock, replaced in tests
}

// NewService creates a booking service
func NewService(db *gorm.DB, rdb *redis.Client, store *settings.Store, pub Publisher) *Service {
	return &Service{db: db, rdb: rdb, settings: store, events: pub, now: time.Now}
}

// BookInput is a customer's booking request
type BookInput struct {
	PortfolioID uint      // Service being booked
	ScheduledAt time.Time // Start of the slot
	PaymentMode string    // full or deposit, full when empty
}

// Book charges the upfront amount and creates a pending appointment with its
// deposit and pouch
func (s *Service) Book(ctx context.Context, customerID uint, in BookInput) (*domain.Appointment, error) {
	mode := in.PaymentMode // Default to paying in full
	if mode == "" {
		mode = domain.PaymentFull
	}
	if mode != domain.PaymentFull && mode != domain.PaymentDeposit {
		return nil, apperr.BadRequest("Payment mode must be full or deposit")
	}
	now := s.now()
	// Only future slots can be booked
	if !in.ScheduledAt.After(now) {
		return nil, apperr.BadRequest("Appointment time must be in the future")
	}
	v, err := s.settings.Load(ctx) // Current settings snapshot
	if err != nil {
		return nil, err
	}
	var portfolio domain.Portfolio // The booked service, active only
	if err := s.db.WithContext(ctx).Where("id = ? AND active = ?", in.PortfolioID, true).First(&portfolio).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Service not found")
		}
		return nil, err
	}
	// Stylists cannot book themselves
	if portfolio.StylistID == customerID {
		return nil, apperr.BadRequest("Cannot book your own service")
	}

	upfront := UpfrontAmount(portfolio.Price, mode, v.DepositPercent) // Charged now
	commission := Commission(upfront, v.CommissionPercent)            // Platform share of the upfront
	appt := domain.Appointment{
		Reference:       uuid.NewString(),                  // Unique booking reference
		CustomerID:      customerID,                        // Booking customer
		StylistID:       portfolio.StylistID,               // Service owner
		PortfolioID:     portfolio.ID,                      // Booked service
		ScheduledAt:     in.ScheduledAt.UnixMilli(),        // Slot start
		DurationMinutes: portfolio.DurationMinutes,         // Slot length
		Amount:          utils.RoundMoney(portfolio.Price), // Price at booking time
		AmountPaid:      upfront,                           // Paid so far
		PaymentMode:     mode,                              // full or deposit
		Commission:      commission,                        // Commission so far
		Status:          domain.AppointmentPending,         // Waiting for the stylist
		PendingSince:    now.UnixMilli(),                   // Expiry clock starts now
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Serialize bookings of the same stylist so overlap checks cannot race
		if err := lockStylist(tx, appt.StylistID); err != nil {
			return err
		}
		if err := checkAvailability(tx, appt.StylistID, appt.ScheduledAt, appt.EndsAt(), 0); err != nil {
			return err
		}
		if err := tx.Create(&appt).Error; err != nil {
			return err // Return error to rollback
		}
		// Charge the customer; rolls everything back on insufficient balance
		if _, err := wallet.Debit(tx, customerID, upfront, wallet.Entry{Type: domain.TxBooking, AppointmentID: &appt.ID, Reference: appt.Reference}); err != nil {
			return err
		}
		// Deposit bookings keep a record of the partial payment
		if mode == domain.PaymentDeposit {
			dep := domain.Deposit{AppointmentID: appt.ID, CustomerID: customerID, Amount: upfront, Status: domain.DepositHeld}
			if err := tx.Create(&dep).Error; err != nil {
				return err
			}
		}
		// The stylist's share waits in the pouch until release
		pouch := domain.Pouch{
			AppointmentID: appt.ID,                                // Owning appointment
			StylistID:     appt.StylistID,                         // Payee
			Amount:        utils.RoundMoney(upfront - commission), // Net of commission
			Commission:    commission,                             // Platform share
			Status:        domain.PouchHeld,                       // Not yet releasable
		}
		return tx.Create(&pouch).Error
	})
	if err != nil {
		s.failed("booking", customerID, appt.ID, upfront, err)
		return nil, err
	}
	// Log successful booking
	logrus.WithFields(logrus.Fields{
		"customer_id":    customerID,     // Customer ID
		"stylist_id":     appt.StylistID, // Stylist ID
		"appointment_id": appt.ID,        // Appointment ID
		"amount":         appt.Amount,    // Price
		"upfront":        upfront,        // Charged now
		"mode":           mode,           // Payment mode
	}).Info("Appointment booked")
	metrics.SettlementsTotal.WithLabelValues("booking").Inc()
	s.settled(ctx, &appt, appt.CustomerID)
	return &appt, nil
}

// Approve confirms a pending booking
func (s *Service) Approve(ctx context.Context, stylistID, id uint) (*domain.Appointment, error) {
	var appt *domain.Appointment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if appt, err = s.ownedByStylist(tx, id, stylistID); err != nil {
			return err
		}
		return transition(tx, appt, domain.AppointmentApproved, nil, domain.AppointmentPending)
	})
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"stylist_id": stylistID, "appointment_id": id}).Info("Appointment approved")
	s.settled(ctx, appt)
	return appt, nil
}

// Decline rejects a pending booking and refunds everything paid
func (s *Service) Decline(ctx context.Context, stylistID, id uint, reason string) (*domain.Appointment, error) {
	var appt *domain.Appointment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if appt, err = s.ownedByStylist(tx, id, stylistID); err != nil {
			return err
		}
		refund := utils.RoundMoney(appt.AmountPaid + appt.FeesPaid) // Price paid plus any fees
		if err := transition(tx, appt, domain.AppointmentDeclined, map[string]any{
			"cancelled_by":  "stylist",
			"cancel_reason": reason,
			"refund_amount": refund,
		}, domain.AppointmentPending); err != nil {
			return err
		}
		return refundAll(tx, appt, refund)
	})
	if err != nil {
		s.failed("refund", stylistID, id, 0, err)
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"stylist_id":     stylistID,         // Stylist ID
		"appointment_id": id,                // Appointment ID
		"refund":         appt.RefundAmount, // Returned to the customer
	}).Info("Appointment declined")
	metrics.SettlementsTotal.WithLabelValues("refund").Inc()
	s.settled(ctx, appt, appt.CustomerID)
	return appt, nil
}

// Cancel ends a pending or approved booking. A customer cancelling an
// approved booking pays the time-based penalty, which stays in the pouch
// together with any reschedule fees; every other cancellation refunds
// everything paid, fees included.
func (s *Service) Cancel(ctx context.Context, actorID, id uint, reason string) (*domain.Appointment, error) {
	v, err := s.settings.Load(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	var appt *domain.Appointment
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if appt, err = findForUpdate(tx, id); err != nil {
			return err
		}
		// Only the two participants may cancel
		if !appt.IsParticipant(actorID) {
			return apperr.Forbidden("Not your appointment")
		}
		byCustomer := actorID == appt.CustomerID
		penalty, retained := 0.0, 0.0
		if byCustomer && appt.Status == domain.AppointmentApproved {
			penalty, _ = CancellationPenalty(appt.AmountPaid, HoursUntil(appt.ScheduledAt, now), v)
		}
		if penalty > 0 {
			retained = utils.RoundMoney(penalty + appt.FeesPaid) // Fees follow the penalty to the stylist
		}
		refund := utils.RoundMoney(appt.AmountPaid + appt.FeesPaid - retained)
		cancelledBy := "stylist"
		if byCustomer {
			cancelledBy = "customer"
		}
		if err := transition(tx, appt, domain.AppointmentCancelled, map[string]any{
			"cancelled_by":   cancelledBy,
			"cancel_reason":  reason,
			"penalty_amount": penalty,
			"refund_amount":  refund,
		}, domain.AppointmentPending, domain.AppointmentApproved); err != nil {
			return err
		}
		// Nothing kept: the pouch and deposit are cleared
		if retained <= 0 {
			return refundAll(tx, appt, refund)
		}
		if _, err := wallet.Credit(tx, appt.CustomerID, refund, wallet.Entry{Type: domain.TxRefund, AppointmentID: &appt.ID, Reference: appt.Reference}); err != nil {
			return err
		}
		// The pouch now holds only what was kept, released after the hold
		commission := Commission(retained, v.CommissionPercent)
		if err := tx.Model(&domain.Pouch{}).Where("appointment_id = ?", appt.ID).Updates(map[string]any{
			"amount":     utils.RoundMoney(retained - commission),
			"commission": commission,
			"release_at": releaseAt(now, v),
		}).Error; err != nil {
			return err
		}
		return setDepositStatus(tx, appt.ID, domain.DepositForfeited)
	})
	if err != nil {
		s.failed("refund", actorID, id, 0, err)
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"actor_id":       actorID,            // Who cancelled
		"appointment_id": id,                 // Appointment ID
		"penalty":        appt.PenaltyAmount, // Kept for the stylist
		"refund":         appt.RefundAmount,  // Returned to the customer
	}).Info("Appointment cancelled")
	metrics.SettlementsTotal.WithLabelValues("refund").Inc()
	if appt.PenaltyAmount > 0 {
		metrics.SettlementsTotal.WithLabelValues("penalty").Inc()
	}
	s.settled(ctx, appt, appt.CustomerID)
	return appt, nil
}

// Reschedule moves a booking to a new time. Moving an approved booking
// inside the free window costs a fee that goes to the stylist. The booking
// returns to pending until the stylist approves the new time.
func (s *Service) Reschedule(ctx context.Context, customerID, id uint, newTime time.Time) (*domain.Appointment, error) {
	now := s.now()
	// The new slot must be in the future
	if !newTime.After(now) {
		return nil, apperr.BadRequest("Appointment time must be in the future")
	}
	v, err := s.settings.Load(ctx)
	if err != nil {
		return nil, err
	}
	var appt *domain.Appointment
	var fee float64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if appt, err = findForUpdate(tx, id); err != nil {
			return err
		}
		if appt.CustomerID != customerID {
			return apperr.Forbidden("Not your appointment")
		}
		if !slices.Contains([]string{domain.AppointmentPending, domain.AppointmentApproved}, appt.Status) {
			return apperr.InvalidTransition("Appointment cannot be rescheduled in its current status")
		}
		if appt.RescheduleCount >= v.MaxReschedules {
			return apperr.BadRequest("Reschedule limit reached")
		}
		start := newTime.UnixMilli()                            // New slot start
		end := start + int64(appt.DurationMinutes)*60_000       // New slot end
		if err := lockStylist(tx, appt.StylistID); err != nil { // Same order as Book
			return err
		}
		if err := checkAvailability(tx, appt.StylistID, start, end, appt.ID); err != nil {
			return err
		}
		// Only approved bookings moved late pay a fee
		if appt.Status == domain.AppointmentApproved {
			fee = RescheduleFee(appt.Amount, HoursUntil(appt.ScheduledAt, now), v)
		}
		if fee > 0 {
			if _, err := wallet.Debit(tx, customerID, fee, wallet.Entry{Type: domain.TxRescheduleFee, AppointmentID: &appt.ID, Reference: appt.Reference}); err != nil {
				return err
			}
			// The fee joins the stylist's pouch, net of commission
			commission := Commission(fee, v.CommissionPercent)
			if err := tx.Model(&domain.Pouch{}).Where("appointment_id = ?", appt.ID).Updates(map[string]any{
				"amount":     gorm.Expr("amount + ?", utils.RoundMoney(fee-commission)),
				"commission": gorm.Expr("commission + ?", commission),
			}).Error; err != nil {
				return err
			}
		}
		// The row must still hold the slot and count that were read
		return guardedTransition(tx, appt, domain.AppointmentPending, map[string]any{
			"scheduled_at":     start,
			"pending_since":    now.UnixMilli(), // Waiting for re-approval from now
			"reschedule_count": gorm.Expr("reschedule_count + 1"),
			"fees_paid":        gorm.Expr("fees_paid + ?", fee),
		}, map[string]any{
			"reschedule_count": appt.RescheduleCount,
			"scheduled_at":     appt.ScheduledAt,
		}, appt.Status)
	})
	if err != nil {
		s.failed("reschedule_fee", customerID, id, fee, err)
		return nil, err
	}
	appt.ScheduledAt = newTime.UnixMilli()
	appt.PendingSince = now.UnixMilli()
	appt.RescheduleCount++
	appt.FeesPaid = utils.RoundMoney(appt.FeesPaid + fee)
	logrus.WithFields(logrus.Fields{
		"customer_id":    customerID,                         // Customer ID
		"appointment_id": id,                                 // Appointment ID
		"fee":            fee,                                // Reschedule fee charged
		"scheduled_at":   newTime.UTC().Format(time.RFC3339), // New slot
	}).Info("Appointment rescheduled")
	if fee > 0 {
		metrics.SettlementsTotal.WithLabelValues("reschedule_fee").Inc()
	}
	s.settled(ctx, appt, appt.CustomerID)
	return appt, nil
}

// Complete closes an approved booking once its time has come: the customer
// pays any balance left after the deposit, the pouch is set to release after
// the hold, and the customer earns reward points.
func (s *Service) Complete(ctx context.Context, stylistID, id uint) (*domain.Appointment, error) {
	v, err := s.settings.Load(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	var appt *domain.Appointment
	var remaining float64
	var points int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if appt, err = s.ownedByStylist(tx, id, stylistID); err != nil {
			return err
		}
		// Cannot complete before the slot starts
		if appt.Status == domain.AppointmentApproved && now.UnixMilli() < appt.ScheduledAt {
			return apperr.BadRequest("Appointment has not started yet")
		}
		remaining = utils.RoundMoney(appt.Amount - appt.AmountPaid) // Left after a deposit
		if remaining > 0 {
			if _, err := wallet.Debit(tx, appt.CustomerID, remaining, wallet.Entry{Type: domain.TxBalancePayment, AppointmentID: &appt.ID, Reference: appt.Reference}); err != nil {
				return err
			}
		}
		gross := utils.RoundMoney(appt.Amount + appt.FeesPaid) // Everything the stylist earned
		commission := Commission(gross, v.CommissionPercent)
		if err := transition(tx, appt, domain.AppointmentCompleted, map[string]any{
			"amount_paid":  appt.Amount,
			"commission":   commission,
			"completed_at": now.UnixMilli(),
		}, domain.AppointmentApproved); err != nil {
			return err
		}
		appt.Commission = commission
		// Pouch recomputed over the whole amount and scheduled for release
		if err := tx.Model(&domain.Pouch{}).Where("appointment_id = ?", appt.ID).Updates(map[string]any{
			"amount":     utils.RoundMoney(gross - commission),
			"commission": commission,
			"release_at": releaseAt(now, v),
		}).Error; err != nil {
			return err
		}
		if err := setDepositStatus(tx, appt.ID, domain.DepositApplied); err != nil {
			return err
		}
		// Reward points on the price
		points = int64(math.Floor(appt.Amount * v.RewardPointsPerUnit))
		if points <= 0 {
			return nil
		}
		if err := tx.Create(&domain.Reward{UserID: appt.CustomerID, AppointmentID: &appt.ID, Points: points, Kind: domain.RewardEarn}).Error; err != nil {
			return err
		}
		return tx.Model(&domain.User{}).Where("id = ?", appt.CustomerID).
			Update("reward_points", gorm.Expr("reward_points + ?", points)).Error
	})
	if err != nil {
		s.failed("balance", stylistID, id, remaining, err)
		return nil, err
	}
	appt.AmountPaid = appt.Amount
	appt.CompletedAt = now.UnixMilli()
	logrus.WithFields(logrus.Fields{
		"stylist_id":     stylistID, // Stylist ID
		"appointment_id": id,        // Appointment ID
		"balance_paid":   remaining, // Charged on completion
		"reward_points":  points,    // Earned by the customer
	}).Info("Appointment completed")
	if remaining > 0 {
		metrics.SettlementsTotal.WithLabelValues("balance").Inc()
	}
	s.settled(ctx, appt, appt.CustomerID)
	return appt, nil
}

// ExpirePending expires bookings the stylist never answered, either because
// they have waited longer than the expiry window since they last became
// pending or because their time has passed, and refunds them in full. It
// returns how many were expired.
func (s *Service) ExpirePending(ctx context.Context) (int, error) {
	v, err := s.settings.Load(ctx)
	if err != nil {
		return 0, err
	}
	now := s.now()
	cutoff := now.Add(-time.Duration(v.PendingExpiryHours * float64(time.Hour))).UnixMilli() // Waiting since before this
	var due []domain.Appointment
	if err := s.db.WithContext(ctx).
		Where("status = ? AND (pending_since <= ? OR scheduled_at <= ?)", domain.AppointmentPending, cutoff, now.UnixMilli()).
		Limit(100).Find(&due).Error; err != nil {
		return 0, err
	}
	expired := 0 // Number expired in this run
	for i := range due {
		appt := &due[i]
		refund := utils.RoundMoney(appt.AmountPaid + appt.FeesPaid)
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			// A reschedule since the scan restarted the clock
			if err := guardedTransition(tx, appt, domain.AppointmentExpired, map[string]any{"refund_amount": refund},
				map[string]any{"pending_since": appt.PendingSince, "scheduled_at": appt.ScheduledAt}, domain.AppointmentPending); err != nil {
				return err
			}
			return refundAll(tx, appt, refund)
		})
		if errors.Is(err, apperr.ErrConflict) {
			continue // Answered meanwhile
		}
		if err != nil {
			s.failed("refund", 0, appt.ID, refund, err)
			continue
		}
		expired++
		metrics.SettlementsTotal.WithLabelValues("refund").Inc()
		s.settled(ctx, appt, appt.CustomerID)
	}
	if expired > 0 {
		logrus.WithField("count", expired).Info("Expired pending appointments")
	}
	return expired, nil
}

// Get returns an appointment visible to userID; admins see every appointment
func (s *Service) Get(ctx context.Context, userID uint, role string, id uint) (*domain.Appointment, error) {
	appt, err := find(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	// Strangers get a not found, not a forbidden
	if role != domain.RoleAdmin && !appt.IsParticipant(userID) {
		return nil, apperr.NotFound("Appointment not found")
	}
	return appt, nil
}

func find(tx *gorm.DB, id uint) (*domain.Appointment, error) {
	var appt domain.Appointment
	if err := tx.First(&appt, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Appointment not found")
		}
		return nil, err
	}
	return &appt, nil
}

// findForUpdate loads the appointment and locks its row until the transaction ends
func findForUpdate(tx *gorm.DB, id uint) (*domain.Appointment, error) {
	return find(tx.Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

// lockStylist locks the stylist's user row; bookings and reschedules of one
// stylist take it before checking for overlaps
func lockStylist(tx *gorm.DB, stylistID uint) error {
	var u domain.User
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&u, stylistID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("Stylist not found")
	}
	return err
}

func (s *Service) ownedByStylist(tx *gorm.DB, id, stylistID uint) (*domain.Appointment, error) {
	appt, err := find(tx, id)
	if err != nil {
		return nil, err
	}
	if appt.StylistID != stylistID {
		return nil, apperr.Forbidden("Not your appointment")
	}
	return appt, nil
}

// transition moves appt to status `to` only while it is still in one of
// `from`; a concurrent change makes the update miss and returns a conflict
func transition(tx *gorm.DB, appt *domain.Appointment, to string, extra map[string]any, from ...string) error {
	return guardedTransition(tx, appt, to, extra, nil, from...)
}

// guardedTransition is transition that also requires the columns in guard
// to still hold the values that were read
func guardedTransition(tx *gorm.DB, appt *domain.Appointment, to string, extra, guard map[string]any, from ...string) error {
	if !slices.Contains(from, appt.Status) {
		return apperr.InvalidTransition("Appointment cannot be " + to + " from status " + appt.Status)
	}
	updates := map[string]any{"status": to}
	for k, v := range extra {
		updates[k] = v
	}
	q := tx.Model(&domain.Appointment{}).Where("id = ? AND status IN ?", appt.ID, from)
	for col, v := range guard {
		q = q.Where(col+" = ?", v)
	}
	res := q.Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.Conflict("Appointment was changed by another request")
	}
	appt.Status = to
	if v, ok := extra["cancelled_by"].(string); ok {
		appt.CancelledBy = v
	}
	if v, ok := extra["cancel_reason"].(string); ok {
		appt.CancelReason = v
	}
	if v, ok := extra["penalty_amount"].(float64); ok {
		appt.PenaltyAmount = v
	}
	if v, ok := extra["refund_amount"].(float64); ok {
		appt.RefundAmount = v
	}
	return nil
}

// checkAvailability rejects a slot overlapping another live booking of the stylist
func checkAvailability(tx *gorm.DB, stylistID uint, start, end int64, exclude uint) error {
	var count int64
	q := tx.Model(&domain.Appointment{}).
		Where("stylist_id = ? AND status IN ?", stylistID, []string{domain.AppointmentPending, domain.AppointmentApproved}).
		Where("scheduled_at < ? AND scheduled_at + duration_minutes * 60000 > ?", end, start)
	if exclude != 0 {
		q = q.Where("id <> ?", exclude) // The appointment being moved
	}
	if err := q.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return apperr.Conflict("Stylist is not available at that time")
	}
	return nil
}

// refundAll returns refund to the customer and clears the pouch and deposit
func refundAll(tx *gorm.DB, appt *domain.Appointment, refund float64) error {
	if _, err := wallet.Credit(tx, appt.CustomerID, refund, wallet.Entry{Type: domain.TxRefund, AppointmentID: &appt.ID, Reference: appt.Reference}); err != nil {
		return err
	}
	if err := tx.Model(&domain.Pouch{}).Where("appointment_id = ?", appt.ID).Updates(map[string]any{
		"status":     domain.PouchRefunded,
		"amount":     0,
		"commission": 0,
	}).Error; err != nil {
		return err
	}
	return setDepositStatus(tx, appt.ID, domain.DepositRefunded)
}

// setDepositStatus settles a held deposit; other statuses are final
func setDepositStatus(tx *gorm.DB, appointmentID uint, status string) error {
	return tx.Model(&domain.Deposit{}).
		Where("appointment_id = ? AND status = ?", appointmentID, domain.DepositHeld).
		Update("status", status).Error
}

func releaseAt(now time.Time, v settings.Values) int64 {
	return now.Add(time.Duration(v.PouchHoldHours * float64(time.Hour))).UnixMilli()
}

// settled runs the side effects of a committed change: cache invalidation
// for wallets that moved and a realtime update to both parties
func (s *Service) settled(ctx context.Context, appt *domain.Appointment, walletUsers ...uint) {
	wallet.Invalidate(ctx, s.rdb, walletUsers...)
	if s.events != nil {
		s.events.Publish([]uint{appt.CustomerID, appt.StylistID}, events.Event{Type: events.AppointmentUpdated, Data: appt})
	}
}

// failed records a settlement that errored after money could have moved
func (s *Service) failed(kind string, userID, appointmentID uint, amount float64, err error) {
	if apperr.Status(err) < 500 {
		return // Rejected request, nothing was moved
	}
	metrics.SettlementFailures.WithLabelValues(kind).Inc()
	logrus.WithFields(logrus.Fields{
		"user_id":        userID,
		"appointment_id": appointmentID,
		"amount":         amount,
		"error":          err.Error(),
	}).Error("Settlement failed")
}
