package booking

import (
	"time"

	"github.com/kingsloob1/snipfair-app-sub000/internal/domain"
	"github.com/kingsloob1/snipfair-app-sub000/internal/settings"
	"github.com/kingsloob1/snipfair-app-sub000/internal/utils"
)

// Commission is the platform's cut of amount
func Commission(amount, percent float64) float64 {
	return utils.Percent(amount, percent)
}

// UpfrontAmount is what a customer is charged when booking
func UpfrontAmount(price float64, mode string, depositPercent float64) float64 {
	if mode != domain.PaymentDeposit {
		return utils.RoundMoney(price)
	}
	upfront := utils.Percent(price, depositPercent)
	if upfront > price {
		return utils.RoundMoney(price)
	}
	return upfront
}

// HoursUntil returns the hours from now until the unix millisecond ts,
// negative once ts has passed
func HoursUntil(ts int64, now time.Time) float64 {
	return float64(ts-now.UnixMilli()) / float64(time.Hour/time.Millisecond)
}

// CancellationPenalty splits a customer's cancellation of an approved
// booking into what the stylist keeps and what is refunded.
//
//	hoursUntil >= free window            no penalty
//	late boundary <= hoursUntil < free   late penalty on the paid amount
//	hoursUntil < late boundary           very late penalty on the paid amount
func CancellationPenalty(paid, hoursUntil float64, v settings.Values) (penalty, refund float64) {
	switch {
	case hoursUntil >= v.FreeCancelHours:
		penalty = 0
	case hoursUntil >= v.LateCancelHours:
		penalty = utils.Percent(paid, v.LateCancelPenaltyPercent)
	default:
		penalty = utils.Percent(paid, v.VeryLateCancelPenaltyPercent)
	}
	if penalty > paid {
		penalty = paid
	}
	return penalty, utils.RoundMoney(paid - penalty)
}

// RescheduleFee is charged when an approved booking moves inside the free window
func RescheduleFee(price, hoursUntil float64, v settings.Values) float64 {
	if hoursUntil >= v.FreeCancelHours {
		return 0
	}
	return utils.Percent(price, v.RescheduleFeePercent)
}
