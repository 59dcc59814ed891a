package booking

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/kingsloob1/snipfair-app-sub000/internal/apperr"
	"github.com/kingsloob1/snipfair-app-sub000/internal/domain"
	"github.com/kingsloob1/snipfair-app-sub000/internal/events"
	"github.com/kingsloob1/snipfair-app-sub000/internal/metrics"
	"github.com/kingsloob1/snipfair-app-sub000/internal/utils"
	"github.com/kingsloob1/snipfair-app-sub000/internal/wallet"
)

// OpenDispute freezes the pouch of a completed appointment until an admin
// resolves the customer's complaint
func (s *Service) OpenDispute(ctx context.Context, customerID, appointmentID uint, reason string) (*domain.Dispute, error) {
	// A dispute must say what went wrong
	if reason == "" {
		return nil, apperr.BadRequest("Reason is required")
	}
	var appt *domain.Appointment
	var dispute domain.Dispute
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if appt, err = find(tx, appointmentID); err != nil {
			return err
		}
		// Only the customer of a completed appointment can dispute it
		if appt.CustomerID != customerID {
			return apperr.Forbidden("Not your appointment")
		}
		if appt.Status != domain.AppointmentCompleted {
			return apperr.InvalidTransition("Only completed appointments can be disputed")
		}
		var existing int64 // One dispute per appointment
		if err := tx.Model(&domain.Dispute{}).Where("appointment_id = ?", appointmentID).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return apperr.Conflict("Appointment already disputed")
		}
		// Freeze the pouch while it is still held; paid out funds cannot be disputed
		res := tx.Model(&domain.Pouch{}).
			Where("appointment_id = ? AND status = ?", appointmentID, domain.PouchHeld).
			Update("status", domain.PouchFrozen)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.BadRequest("Funds already released")
		}
		dispute = domain.Dispute{AppointmentID: appointmentID, OpenedBy: customerID, Reason: reason, Status: domain.DisputeOpen}
		return tx.Create(&dispute).Error
	})
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"customer_id": customerID, "appointment_id": appointmentID}).Info("Dispute opened")
	if s.events != nil {
		s.events.Publish([]uint{appt.CustomerID, appt.StylistID}, events.Event{Type: events.DisputeUpdated, Data: dispute})
	}
	return &dispute, nil
}

// ResolveInput is an admin's ruling on a dispute
type ResolveInput struct {
	CustomerShare float64 // Percent of the paid amount returned to the customer
	Resolution    string  // Admin's note
}

// ResolveDispute splits the money paid for a disputed appointment: the
// customer's share is refunded, the rest goes to the stylist net of
// commission, immediately
func (s *Service) ResolveDispute(ctx context.Context, adminID, disputeID uint, in ResolveInput) (*domain.Dispute, error) {
	if in.CustomerShare < 0 || in.CustomerShare > 100 {
		return nil, apperr.BadRequest("Customer share must be between 0 and 100")
	}
	v, err := s.settings.Load(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now().UnixMilli() // Resolution time
	var dispute domain.Dispute
	var appt *domain.Appointment
	var refund, payout float64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&dispute, disputeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("Dispute not found")
			}
			return err
		}
		// Close the dispute first so two admins cannot both settle it
		res := tx.Model(&domain.Dispute{}).
			Where("id = ? AND status = ?", dispute.ID, domain.DisputeOpen).
			Updates(map[string]any{
				"status":         domain.DisputeResolved,
				"resolution":     in.Resolution,
				"customer_share": in.CustomerShare,
				"resolved_by":    adminID,
				"resolved_at":    now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.Conflict("Dispute already resolved")
		}
		var err error
		if appt, err = find(tx, dispute.AppointmentID); err != nil {
			return err
		}
		pouch, err := findPouch(tx, appt.ID)
		if err != nil {
			return err
		}
		if pouch.Status != domain.PouchFrozen {
			return apperr.InvalidTransition("Pouch is not frozen")
		}
		gross := utils.RoundMoney(appt.AmountPaid + appt.FeesPaid) // Everything the customer paid
		refund = utils.Percent(gross, in.CustomerShare)            // Customer's share
		stylistGross := utils.RoundMoney(gross - refund)
		commission := Commission(stylistGross, v.CommissionPercent)
		payout = utils.RoundMoney(stylistGross - commission)
		if _, err := wallet.Credit(tx, appt.CustomerID, refund, wallet.Entry{Type: domain.TxRefund, AppointmentID: &appt.ID, Reference: appt.Reference}); err != nil {
			return err
		}
		if _, err := wallet.Credit(tx, appt.StylistID, payout, wallet.Entry{Type: domain.TxPayout, AppointmentID: &appt.ID, Reference: appt.Reference}); err != nil {
			return err
		}
		// A full refund leaves nothing released to the stylist
		status := domain.PouchReleased
		if in.CustomerShare == 100 {
			status = domain.PouchRefunded
		}
		return tx.Model(&domain.Pouch{}).Where("id = ?", pouch.ID).Updates(map[string]any{
			"status":      status,
			"amount":      payout,
			"commission":  commission,
			"released_at": now,
		}).Error
	})
	if err != nil {
		s.failed("payout", adminID, dispute.AppointmentID, 0, err)
		return nil, err
	}
	dispute.Status = domain.DisputeResolved
	dispute.Resolution = in.Resolution
	dispute.CustomerShare = in.CustomerShare
	dispute.ResolvedBy = &adminID
	dispute.ResolvedAt = now
	// Log the ruling
	logrus.WithFields(logrus.Fields{
		"admin_id":       adminID,   // Resolving admin
		"dispute_id":     disputeID, // Dispute ID
		"appointment_id": appt.ID,   // Appointment ID
		"refund":         refund,    // Returned to the customer
		"payout":         payout,    // Paid to the stylist
	}).Info("Dispute resolved")
	if refund > 0 {
		metrics.SettlementsTotal.WithLabelValues("refund").Inc()
	}
	if payout > 0 {
		metrics.SettlementsTotal.WithLabelValues("payout").Inc()
	}
	wallet.Invalidate(ctx, s.rdb, appt.CustomerID, appt.StylistID)
	if s.events != nil {
		s.events.Publish([]uint{appt.CustomerID, appt.StylistID}, events.Event{Type: events.DisputeUpdated, Data: dispute})
	}
	return &dispute, nil
}
