// Package settings holds the admin-tunable numbers that drive booking
// settlement: commission, deposit share, cancellation windows and penalties,
// escrow hold and reward rates.
package settings

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kingsloob1/snipfair-app-sub000/internal/apperr"
	"github.com/kingsloob1/snipfair-app-sub000/internal/domain"
	"github.com/kingsloob1/snipfair-app-sub000/internal/utils"
)

// Setting names
const (
	CommissionPercent            = "commission_percent"
	DepositPercent               = "deposit_percent"
	FreeCancelHours              = "free_cancel_hours"
	LateCancelHours              = "late_cancel_hours"
	LateCancelPenaltyPercent     = "late_cancel_penalty_percent"
	VeryLateCancelPenaltyPercent = "very_late_cancel_penalty_percent"
	RescheduleFeePercent         = "reschedule_fee_percent"
	MaxReschedules               = "max_reschedules"
	PouchHoldHours               = "pouch_hold_hours"
	RewardPointsPerUnit          = "reward_points_per_unit"
	RewardRedeemRate             = "reward_redeem_rate"
	PendingExpiryHours           = "pending_expiry_hours"
)

const cacheKey = "settings:all"

// Defaults apply to every setting that has no stored row
var Defaults = map[string]float64{
	CommissionPercent:            10,
	DepositPercent:               30,
	FreeCancelHours:              24,
	LateCancelHours:              2,
	LateCancelPenaltyPercent:     25,
	VeryLateCancelPenaltyPercent: 50,
	RescheduleFeePercent:         10,
	MaxReschedules:               2,
	PouchHoldHours:               24,
	RewardPointsPerUnit:          1,
	RewardRedeemRate:             0.01,
	PendingExpiryHours:           48,
}

// Values is a typed snapshot of all settings
type Values struct {
	CommissionPercent            float64
	DepositPercent               float64
	FreeCancelHours              float64
	LateCancelHours              float64
	LateCancelPenaltyPercent     float64
	VeryLateCancelPenaltyPercent float64
	RescheduleFeePercent         float64
	MaxReschedules               int
	PouchHoldHours               float64
	RewardPointsPerUnit          float64
	RewardRedeemRate             float64
	PendingExpiryHours           float64
}

// DefaultValues returns Values built from Defaults alone
func DefaultValues() Values {
	return fromMap(Defaults)
}

func fromMap(m map[string]float64) Values {
	return Values{
		CommissionPercent:            m[CommissionPercent],
		DepositPercent:               m[DepositPercent],
		FreeCancelHours:              m[FreeCancelHours],
		LateCancelHours:              m[LateCancelHours],
		LateCancelPenaltyPercent:     m[LateCancelPenaltyPercent],
		VeryLateCancelPenaltyPercent: m[VeryLateCancelPenaltyPercent],
		RescheduleFeePercent:         m[RescheduleFeePercent],
		MaxReschedules:               int(m[MaxReschedules]),
		PouchHoldHours:               m[PouchHoldHours],
		RewardPointsPerUnit:          m[RewardPointsPerUnit],
		RewardRedeemRate:             m[RewardRedeemRate],
		PendingExpiryHours:           m[PendingExpiryHours],
	}
}

// Store reads settings from the database through a redis snapshot
type Store struct {
	db  *gorm.DB
	rdb *redis.Client
}

// NewStore creates a settings store
func NewStore(db *gorm.DB, rdb *redis.Client) *Store {
	return &Store{db: db, rdb: rdb}
}

// All returns every setting, stored values over defaults
func (s *Store) All(ctx context.Context) (map[string]float64, error) {
	var cached map[string]float64
	if found, err := utils.GetCache(ctx, s.rdb, cacheKey, &cached); err == nil && found {
		return cached, nil
	}
	var rows []domain.Setting
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	m := make(map[string]float64, len(Defaults))
	for k, v := range Defaults {
		m[k] = v
	}
	for _, r := range rows {
		if _, known := Defaults[r.Name]; known {
			m[r.Name] = r.Value
		}
	}
	if err := utils.SetCache(ctx, s.rdb, cacheKey, m, 5*time.Minute); err != nil {
		logrus.WithError(err).Warn("failed to cache settings")
	}
	return m, nil
}

// Load returns the typed settings snapshot
func (s *Store) Load(ctx context.Context) (Values, error) {
	m, err := s.All(ctx)
	if err != nil {
		return Values{}, err
	}
	return fromMap(m), nil
}

// Update stores the given settings. Unknown names, negative values,
// percentages above 100, a fractional reschedule limit and a late window
// wider than the free window are rejected before anything is written.
func (s *Store) Update(ctx context.Context, changes map[string]float64) error {
	if len(changes) == 0 {
		return apperr.BadRequest("No settings provided")
	}
	names := make([]string, 0, len(changes))
	for name, v := range changes {
		if _, known := Defaults[name]; !known {
			return apperr.BadRequest("Unknown setting: " + name)
		}
		if v < 0 {
			return apperr.BadRequest("Setting must not be negative: " + name)
		}
		if strings.HasSuffix(name, "_percent") && v > 100 {
			return apperr.BadRequest("Percentage must not exceed 100: " + name)
		}
		if name == MaxReschedules && v != math.Trunc(v) {
			return apperr.BadRequest("Setting must be a whole number: " + name)
		}
		names = append(names, name)
	}
	// Windows are checked against the values they will end up next to
	current, err := s.All(ctx)
	if err != nil {
		return err
	}
	merged := make(map[string]float64, len(current))
	for k, v := range current {
		merged[k] = v
	}
	for k, v := range changes {
		merged[k] = v
	}
	if merged[LateCancelHours] > merged[FreeCancelHours] {
		return apperr.BadRequest("late_cancel_hours must not exceed free_cancel_hours")
	}
	sort.Strings(names)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, name := range names {
			row := domain.Setting{Name: name, Value: changes[name]}
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	_ = utils.DeleteCache(ctx, s.rdb, cacheKey)
	logrus.WithField("settings", names).Info("Settings updated")
	return nil
}
