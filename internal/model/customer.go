package model

import (
    "strings"
    "time"
)

// Customer is a guest identified by phone number.  The phone is the loose
// identity key used to match guests across bookings.
type Customer struct {
    ID        uint64    `json:"id"`              // customers.id
    Name      string    `json:"name"`            // customers.name
    Phone     string    `json:"phone"`           // customers.phone (normalized)
    Email     *string   `json:"email,omitempty"` // customers.email
    CreatedAt time.Time `json:"created_at"`      // customers.created_at
}

// NormalizePhone drops the punctuation guests type into phone numbers so
// "+1 (555) 010-2000" and "+15550102000" match.
func NormalizePhone(raw string) string {
    var b strings.Builder
    for i, r := range strings.TrimSpace(raw) {
        switch {
        case r >= '0' && r <= '9':
            b.WriteRune(r)
        case r == '+' && i == 0:
            b.WriteRune(r)
        }
    }
    return b.String()
}

// SamePhone compares two phone numbers after normalization.  Empty numbers
// never match.
func SamePhone(a, b string) bool {
    na, nb := NormalizePhone(a), NormalizePhone(b)
    return na != "" && na == nb
}
