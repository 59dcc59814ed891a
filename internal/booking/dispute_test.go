package booking

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingsloob1/snipfair-app-sub000/internal/apperr"
	"github.com/kingsloob1/snipfair-app-sub000/internal/domain"
	"github.com/kingsloob1/snipfair-app-sub000/internal/events"
	"github.com/kingsloob1/snipfair-app-sub000/internal/testutil"
)

func (f *fixture) completed(t *testing.T) *domain.Appointment {
	t.Helper()
	appt := f.approved(t, time.Hour, domain.PaymentFull)
	f.now = f.now.Add(2 * time.Hour)
	appt, err := f.svc.Complete(context.Background(), f.stylist.ID, appt.ID)
	require.NoError(t, err)
	return appt
}

func TestOpenDisputeFreezesPouch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	appt := f.completed(t)

	_, err := f.svc.OpenDispute(ctx, f.stylist.ID, appt.ID, "Not mine")
	assert.Equal(t, http.StatusForbidden, apperr.Status(err))
	_, err = f.svc.OpenDispute(ctx, f.customer.ID, appt.ID, "")
	assert.Equal(t, http.StatusBadRequest, apperr.Status(err))

	dispute, err := f.svc.OpenDispute(ctx, f.customer.ID, appt.ID, "Uneven cut")
	require.NoError(t, err)
	assert.Equal(t, domain.DisputeOpen, dispute.Status)
	assert.Equal(t, domain.PouchFrozen, f.pouch(t, appt.ID).Status)
	assert.Equal(t, events.DisputeUpdated, f.pub.events[len(f.pub.events)-1].Type)

	_, err = f.svc.OpenDispute(ctx, f.customer.ID, appt.ID, "Again")
	assert.Equal(t, http.StatusConflict, apperr.Status(err))

	// The hold ends but frozen money waits for the ruling
	f.now = f.now.Add(48 * time.Hour)
	n, err := f.svc.ReleaseDue(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 0.0, f.balance(t, f.stylist))
}

func TestOpenDisputeRequiresHeldFunds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pending := f.book(t, 72*time.Hour, domain.PaymentFull)
	_, err := f.svc.OpenDispute(ctx, f.customer.ID, pending.ID, "Too slow")
	assert.Equal(t, http.StatusBadRequest, apperr.Status(err))

	appt := f.completed(t)
	f.now = f.now.Add(25 * time.Hour)
	_, err = f.svc.ReleaseDue(ctx)
	require.NoError(t, err)

	_, err = f.svc.OpenDispute(ctx, f.customer.ID, appt.ID, "Too late")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperr.Status(err))
}

func TestResolveDisputeSplitsFunds(t *testing.T) {
	cases := []struct {
		name            string
		share           float64
		customer        float64
		stylist         float64
		pouchStatus     string
		pouchAmount     float64
		pouchCommission float64
	}{
		{"split", 50, 160, 36, domain.PouchReleased, 36, 4},
		{"full refund", 100, 200, 0, domain.PouchRefunded, 0, 0},
		{"stylist wins", 0, 120, 72, domain.PouchReleased, 72, 8},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			admin := testutil.CreateUser(t, f.db, "admin", domain.RoleAdmin, 0)
			appt := f.completed(t)
			dispute, err := f.svc.OpenDispute(ctx, f.customer.ID, appt.ID, "Uneven cut")
			require.NoError(t, err)

			resolved, err := f.svc.ResolveDispute(ctx, admin.ID, dispute.ID, ResolveInput{CustomerShare: tc.share, Resolution: "Ruled"})
			require.NoError(t, err)
			assert.Equal(t, domain.DisputeResolved, resolved.Status)
			assert.Equal(t, tc.customer, f.balance(t, f.customer))
			assert.Equal(t, tc.stylist, f.balance(t, f.stylist))

			p := f.pouch(t, appt.ID)
			assert.Equal(t, tc.pouchStatus, p.Status)
			assert.Equal(t, tc.pouchAmount, p.Amount)
			assert.Equal(t, tc.pouchCommission, p.Commission)

			_, err = f.svc.ResolveDispute(ctx, admin.ID, dispute.ID, ResolveInput{CustomerShare: tc.share})
			assert.Equal(t, http.StatusConflict, apperr.Status(err))
		})
	}
}

func TestResolveDisputeValidatesShare(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.ResolveDispute(context.Background(), 1, 1, ResolveInput{CustomerShare: 120})
	assert.Equal(t, http.StatusBadRequest, apperr.Status(err))
	_, err = f.svc.ResolveDispute(context.Background(), 1, 99, ResolveInput{CustomerShare: 10})
	assert.Equal(t, http.StatusNotFound, apperr.Status(err))
}
