package domain_test

import (
	"testing"

	"github.com/opsdesk/opsdesk-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func added(s domain.StatusName) domain.OrderStatusHistory {
	return domain.OrderStatusHistory{Kind: domain.HistoryKindStatusAdded, Status: &s}
}

func TestStatusSet_Operations(t *testing.T) {
	set := domain.NewStatusSet(domain.StatusResolved, domain.StatusCreated)

	assert.True(t, set.Has(domain.StatusCreated))
	assert.False(t, set.Has(domain.StatusComplaint))
	assert.Equal(t, 2, set.Len())
	assert.Equal(t, []string{"Created", "Resolved"}, set.Strings())

	set = set.Set(domain.StatusCreated, false).Set(domain.StatusComplaint, true)
	assert.Equal(t, []domain.StatusName{domain.StatusComplaint, domain.StatusResolved}, set.Names())

	assert.Equal(t, set, set.With("Archived"), "unknown names are ignored")
	assert.True(t, domain.StatusSet(0).IsEmpty())
}

func TestParseStatusName(t *testing.T) {
	s, err := domain.ParseStatusName("Invoice Paid")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInvoicePaid, s)

	_, err = domain.ParseStatusName("invoice paid")
	assert.Error(t, err)
}

func TestImpliedInvoiceStatus(t *testing.T) {
	st, ok := domain.StatusInvoiceSent.ImpliedInvoiceStatus()
	require.True(t, ok)
	assert.Equal(t, domain.InvoiceStatusSent, st)

	st, ok = domain.StatusInvoicePaid.ImpliedInvoiceStatus()
	require.True(t, ok)
	assert.Equal(t, domain.InvoiceStatusPaid, st)

	_, ok = domain.StatusComplaint.ImpliedInvoiceStatus()
	assert.False(t, ok)
}

func TestStatusSet_ScanAndValue(t *testing.T) {
	set := domain.NewStatusSet(domain.StatusInProgress, domain.StatusReview)
	v, err := set.Value()
	require.NoError(t, err)

	var scanned domain.StatusSet
	require.NoError(t, scanned.Scan(v))
	assert.Equal(t, set, scanned)

	require.NoError(t, scanned.Scan([]byte("1")))
	assert.Equal(t, domain.NewStatusSet(domain.StatusCreated), scanned)

	require.NoError(t, scanned.Scan(nil))
	assert.True(t, scanned.IsEmpty())

	assert.Error(t, scanned.Scan(1.5))
}

func TestActiveStatuses(t *testing.T) {
	assert.True(t, domain.ActiveStatuses(nil).IsEmpty())

	order := &domain.Order{Statuses: domain.NewStatusSet(domain.StatusCancelled)}
	assert.True(t, domain.ActiveStatuses(order).Has(domain.StatusCancelled))
}

func TestPrimaryStatus(t *testing.T) {
	t.Run("empty set has no primary status", func(t *testing.T) {
		_, ok := domain.PrimaryStatus(0, nil)
		assert.False(t, ok)
	})

	t.Run("most recent active status wins", func(t *testing.T) {
		active := domain.NewStatusSet(domain.StatusInProgress, domain.StatusComplaint)
		history := []domain.OrderStatusHistory{
			added(domain.StatusResolved),
			added(domain.StatusInProgress),
			added(domain.StatusComplaint),
		}
		got, ok := domain.PrimaryStatus(active, history)
		require.True(t, ok)
		assert.Equal(t, domain.StatusInProgress, got)
	})

	t.Run("falls back to canonical order", func(t *testing.T) {
		active := domain.NewStatusSet(domain.StatusCreated, domain.StatusInvoiceSent)
		history := []domain.OrderStatusHistory{{Kind: domain.HistoryKindAssigned}}
		got, ok := domain.PrimaryStatus(active, history)
		require.True(t, ok)
		assert.Equal(t, domain.StatusInvoiceSent, got)
	})
}

func TestReviewGuards(t *testing.T) {
	inReview := domain.NewStatusSet(domain.StatusReview)

	assert.True(t, domain.CanSendToReview(0))
	assert.False(t, domain.CanSendToReview(inReview))
	assert.True(t, domain.CanRemoveFromReview(inReview))
	assert.False(t, domain.CanRemoveFromReview(0))
}
