package domain

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const legacyOrderTagPrefix = "Order ID: "

// LegacyOrderTag is the line written into invoice notes to reference the
// source order. Older invoices carry only this tag and no source_order_id.
func LegacyOrderTag(orderID string) string {
	return legacyOrderTagPrefix + orderID
}

// NotesReferenceOrder reports whether notes carry the exact tag for orderID.
// The tag must be followed by the end of the text or whitespace, so the tag
// for "O1" does not match notes written for "O12".
func NotesReferenceOrder(notes, orderID string) bool {
	if orderID == "" {
		return false
	}
	tag := LegacyOrderTag(orderID)
	rest := notes
	for {
		idx := strings.Index(rest, tag)
		if idx < 0 {
			return false
		}
		after := rest[idx+len(tag):]
		if after == "" {
			return true
		}
		r, _ := utf8.DecodeRuneInString(after)
		if unicode.IsSpace(r) {
			return true
		}
		rest = rest[idx+1:]
	}
}

// RoundMoney rounds an amount to cents
func RoundMoney(amount float64) float64 {
	if amount < 0 {
		return -RoundMoney(-amount)
	}
	return float64(int64(amount*100+0.5)) / 100
}
