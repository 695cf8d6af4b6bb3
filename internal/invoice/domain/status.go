package domain

import "time"

var transitions = map[InvoiceStatus][]InvoiceStatus{
	InvoiceStatusDraft: {InvoiceStatusSent, InvoiceStatusCancelled},
	InvoiceStatusSent:  {InvoiceStatusPaid, InvoiceStatusCancelled},
}

// Normalize folds a stored "overdue" into "sent". Overdue is derived from
// the due date and never drives transitions on its own.
func (s InvoiceStatus) Normalize() InvoiceStatus {
	if s == InvoiceStatusOverdue {
		return InvoiceStatusSent
	}
	return s
}

func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further workflow transition exists.
func (s InvoiceStatus) Terminal() bool {
	return s == InvoiceStatusPaid || s == InvoiceStatusCancelled
}

// CanTransition reports whether from -> to is a modelled transition.
func CanTransition(from, to InvoiceStatus) bool {
	for _, next := range transitions[from.Normalize()] {
		if next == to {
			return true
		}
	}
	return false
}

// EffectiveStatus is the status shown to users: a sent invoice whose due
// date lies before today reads as overdue.
func EffectiveStatus(status InvoiceStatus, dateDue, today time.Time) InvoiceStatus {
	status = status.Normalize()
	if status == InvoiceStatusSent && dateOnly(dateDue).Before(dateOnly(today)) {
		return InvoiceStatusOverdue
	}
	return status
}

func (i Invoice) EffectiveStatus(today time.Time) InvoiceStatus {
	return EffectiveStatus(i.Status, time.Time(i.DateDue), today)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
