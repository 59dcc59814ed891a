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

// PouchSummary totals a stylist's pouches per status
type PouchSummary struct {
	Pouches []domain.Pouch     `json:"pouches"` // Newest first
	Totals  map[string]float64 `json:"totals"`  // Amount per pouch status
}

// ReleaseDue pays out every held pouch whose hold has ended. Frozen pouches
// wait for their dispute. It returns how many pouches were released.
func (s *Service) ReleaseDue(ctx context.Context) (int, error) {
	now := s.now().UnixMilli() // Release cutoff
	var due []domain.Pouch     // Held pouches past their hold, oldest first
	if err := s.db.WithContext(ctx).
		Where("status = ? AND release_at > 0 AND release_at <= ?", domain.PouchHeld, now).
		Order("release_at").Limit(100).Find(&due).Error; err != nil {
		return 0, err
	}
	released := 0 // Pouches paid out in this run
	for i := range due {
		p := &due[i]
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			// Claim the pouch; a frozen or already released one is skipped
			res := tx.Model(&domain.Pouch{}).
				Where("id = ? AND status = ?", p.ID, domain.PouchHeld).
				Updates(map[string]any{"status": domain.PouchReleased, "released_at": now})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return errAlreadySettled
			}
			// Pay the stylist's net share
			_, err := wallet.Credit(tx, p.StylistID, p.Amount, wallet.Entry{Type: domain.TxPayout, AppointmentID: &p.AppointmentID})
			return err
		})
		if errors.Is(err, errAlreadySettled) {
			continue // Frozen or released by another worker
		}
		if err != nil {
			s.failed("payout", p.StylistID, p.AppointmentID, p.Amount, err)
			continue
		}
		released++
		// Log successful payout
		logrus.WithFields(logrus.Fields{
			"stylist_id":     p.StylistID,     // Payee
			"appointment_id": p.AppointmentID, // Appointment ID
			"amount":         p.Amount,        // Amount paid out
		}).Info("Pouch released")
		metrics.SettlementsTotal.WithLabelValues("payout").Inc()
		wallet.Invalidate(ctx, s.rdb, p.StylistID)
		if s.events != nil {
			s.events.Publish([]uint{p.StylistID}, events.Event{Type: events.WalletUpdated, Data: p})
		}
	}
	return released, nil
}

var errAlreadySettled = errors.New("pouch already settled")

// Pouches lists a stylist's pouches with totals per status
func (s *Service) Pouches(ctx context.Context, stylistID uint) (*PouchSummary, error) {
	var pouches []domain.Pouch
	if err := s.db.WithContext(ctx).Where("stylist_id = ?", stylistID).Order("created_at desc").Find(&pouches).Error; err != nil {
		return nil, err
	}
	totals := map[string]float64{} // Sum per status
	for _, p := range pouches {
		totals[p.Status] = utils.RoundMoney(totals[p.Status] + p.Amount)
	}
	return &PouchSummary{Pouches: pouches, Totals: totals}, nil
}

func findPouch(tx *gorm.DB, appointmentID uint) (*domain.Pouch, error) {
	var p domain.Pouch
	if err := tx.Where("appointment_id = ?", appointmentID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Pouch not found")
		}
		return nil, err
	}
	return &p, nil
}
