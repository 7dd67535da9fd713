package domain

import (
	"database/sql/driver"
	"fmt"
)

// StatusName is one of the named order statuses
type StatusName string

const (
	StatusCreated     StatusName = "Created"
	StatusInProgress  StatusName = "In Progress"
	StatusComplaint   StatusName = "Complaint"
	StatusInvoiceSent StatusName = "Invoice Sent"
	StatusInvoicePaid StatusName = "Invoice Paid"
	StatusResolved    StatusName = "Resolved"
	StatusCancelled   StatusName = "Cancelled"
	StatusDeleted     StatusName = "Deleted"
	StatusReview      StatusName = "Review"
)

// AllStatuses lists every status in canonical order. The index of a status is
// its bit position in StatusSet, so new statuses must be appended.
var AllStatuses = []StatusName{
	StatusCreated,
	StatusInProgress,
	StatusComplaint,
	StatusInvoiceSent,
	StatusInvoicePaid,
	StatusResolved,
	StatusCancelled,
	StatusDeleted,
	StatusReview,
}

func (s StatusName) bit() (StatusSet, bool) {
	for i, name := range AllStatuses {
		if name == s {
			return StatusSet(1) << uint(i), true
		}
	}
	return 0, false
}

// IsValid checks if the status is one of the known statuses
func (s StatusName) IsValid() bool {
	_, ok := s.bit()
	return ok
}

// ParseStatusName validates a raw status name. Matching is exact.
func ParseStatusName(raw string) (StatusName, error) {
	s := StatusName(raw)
	if !s.IsValid() {
		return "", fmt.Errorf("unknown status %q", raw)
	}
	return s, nil
}

// ImpliedInvoiceStatus returns the invoice status an order status implies, if any
func (s StatusName) ImpliedInvoiceStatus() (InvoiceStatus, bool) {
	switch s {
	case StatusInvoiceSent:
		return InvoiceStatusSent, true
	case StatusInvoicePaid:
		return InvoiceStatusPaid, true
	default:
		return "", false
	}
}

// StatusSet is the set of active statuses on an order, stored as a bitmask.
type StatusSet uint16

// NewStatusSet builds a set from the given statuses. Unknown names are ignored.
func NewStatusSet(statuses ...StatusName) StatusSet {
	var set StatusSet
	for _, s := range statuses {
		set = set.With(s)
	}
	return set
}

// Has reports whether the status is active
func (set StatusSet) Has(s StatusName) bool {
	b, ok := s.bit()
	return ok && set&b != 0
}

// With returns a copy of the set with the status active
func (set StatusSet) With(s StatusName) StatusSet {
	b, ok := s.bit()
	if !ok {
		return set
	}
	return set | b
}

// Without returns a copy of the set with the status inactive
func (set StatusSet) Without(s StatusName) StatusSet {
	b, ok := s.bit()
	if !ok {
		return set
	}
	return set &^ b
}

// Set returns a copy of the set with the status switched to enabled
func (set StatusSet) Set(s StatusName, enabled bool) StatusSet {
	if enabled {
		return set.With(s)
	}
	return set.Without(s)
}

// IsEmpty reports whether no status is active
func (set StatusSet) IsEmpty() bool {
	return set&allStatusBits == 0
}

// Len returns the number of active statuses
func (set StatusSet) Len() int {
	n := 0
	for _, s := range AllStatuses {
		if set.Has(s) {
			n++
		}
	}
	return n
}

// Names returns the active statuses in canonical order
func (set StatusSet) Names() []StatusName {
	names := make([]StatusName, 0, len(AllStatuses))
	for _, s := range AllStatuses {
		if set.Has(s) {
			names = append(names, s)
		}
	}
	return names
}

// Strings returns the active statuses as strings in canonical order
func (set StatusSet) Strings() []string {
	names := set.Names()
	result := make([]string, len(names))
	for i, n := range names {
		result[i] = string(n)
	}
	return result
}

var allStatusBits = func() StatusSet {
	var all StatusSet
	for i := range AllStatuses {
		all |= StatusSet(1) << uint(i)
	}
	return all
}()

// Value implements driver.Valuer
func (set StatusSet) Value() (driver.Value, error) {
	return int64(set & allStatusBits), nil
}

// Scan implements sql.Scanner
func (set *StatusSet) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*set = 0
	case int64:
		*set = StatusSet(v) & allStatusBits
	case int32:
		*set = StatusSet(v) & allStatusBits
	case []byte:
		var n int64
		if _, err := fmt.Sscan(string(v), &n); err != nil {
			return fmt.Errorf("failed to scan status set: %w", err)
		}
		*set = StatusSet(n) & allStatusBits
	case string:
		var n int64
		if _, err := fmt.Sscan(v, &n); err != nil {
			return fmt.Errorf("failed to scan status set: %w", err)
		}
		*set = StatusSet(n) & allStatusBits
	default:
		return fmt.Errorf("cannot scan %T into StatusSet", value)
	}
	return nil
}

// ActiveStatuses projects the set of active statuses of an order.
// The empty set is a valid result.
func ActiveStatuses(order *Order) StatusSet {
	if order == nil {
		return 0
	}
	return order.Statuses & allStatusBits
}

// PrimaryStatus returns the most recently added status that is still active.
// history must be ordered newest first. When the history does not decide, the
// last active status in canonical order wins. Returns false for an empty set.
func PrimaryStatus(active StatusSet, history []OrderStatusHistory) (StatusName, bool) {
	if active.IsEmpty() {
		return "", false
	}
	for _, h := range history {
		if h.Kind != HistoryKindStatusAdded || h.Status == nil {
			continue
		}
		if active.Has(*h.Status) {
			return *h.Status, true
		}
	}
	names := active.Names()
	return names[len(names)-1], true
}

// CanSendToReview reports whether an order may be sent to review
func CanSendToReview(active StatusSet) bool {
	return !active.Has(StatusReview)
}

// CanRemoveFromReview reports whether an order may be removed from review
func CanRemoveFromReview(active StatusSet) bool {
	return active.Has(StatusReview)
}
