package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestInitIsIdempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Init()
		Init()
	})
}

func TestSettlementCounter(t *testing.T) {
	before := testutil.ToFloat64(SettlementsTotal.WithLabelValues("payout"))
	SettlementsTotal.WithLabelValues("payout").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(SettlementsTotal.WithLabelValues("payout")))
}
