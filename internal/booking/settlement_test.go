package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kingsloob1/snipfair-app-sub000/internal/domain"
	"github.com/kingsloob1/snipfair-app-sub000/internal/settings"
)

func TestUpfrontAmount(t *testing.T) {
	assert.Equal(t, 80.0, UpfrontAmount(80, domain.PaymentFull, 30))
	assert.Equal(t, 24.0, UpfrontAmount(80, domain.PaymentDeposit, 30))
	assert.Equal(t, 33.33, UpfrontAmount(99.99, domain.PaymentDeposit, 33.33))
	assert.Equal(t, 50.0, UpfrontAmount(50, domain.PaymentDeposit, 100))
}

func TestCancellationPenalty(t *testing.T) {
	v := settings.DefaultValues() // free 24h, late 2h, 25% / 50%

	tests := []struct {
		name       string
		hoursUntil float64
		penalty    float64
		refund     float64
	}{
		{"well ahead", 72, 0, 100},
		{"exactly on free boundary", 24, 0, 100},
		{"late window", 10, 25, 75},
		{"exactly on late boundary", 2, 25, 75},
		{"very late", 1.5, 50, 50},
		{"after start", -3, 50, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			penalty, refund := CancellationPenalty(100, tt.hoursUntil, v)
			assert.Equal(t, tt.penalty, penalty)
			assert.Equal(t, tt.refund, refund)
		})
	}
}

func TestCancellationPenaltyNeverExceedsPaid(t *testing.T) {
	v := settings.DefaultValues()
	v.VeryLateCancelPenaltyPercent = 100
	penalty, refund := CancellationPenalty(42.5, 0, v)
	assert.Equal(t, 42.5, penalty)
	assert.Equal(t, 0.0, refund)
}

func TestRescheduleFee(t *testing.T) {
	v := settings.DefaultValues()
	assert.Equal(t, 0.0, RescheduleFee(120, 30, v))
	assert.Equal(t, 12.0, RescheduleFee(120, 5, v))
}

func TestHoursUntil(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, 2.5, HoursUntil(now.Add(150*time.Minute).UnixMilli(), now))
	assert.Equal(t, -1.0, HoursUntil(now.Add(-time.Hour).UnixMilli(), now))
}

func TestCommission(t *testing.T) {
	assert.Equal(t, 8.0, Commission(80, 10))
	assert.Equal(t, 0.0, Commission(0, 10))
}
