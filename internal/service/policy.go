package service

import "time"

// Policy holds the business constants of the restaurant.
type Policy struct {
	// TurnoverBuffer is how long a booking holds its tables.  Two bookings
	// on one table conflict when their start times are less than this apart.
	TurnoverBuffer time.Duration
	// MinLeadTime is how far ahead a booking must be made.
	MinLeadTime time.Duration
	// OpenAt and CloseAt bound the accepted time of day; CloseAt is exclusive.
	OpenAt  time.Duration
	CloseAt time.Duration
	// CustomerCancelCutoff is the latest a guest may cancel before the booking.
	CustomerCancelCutoff time.Duration
	// NoShowGrace is how late a party may be before the sweep cancels it.
	NoShowGrace time.Duration
	// ReminderLead is how long before the booking the reminder goes out.
	ReminderLead time.Duration

	MaxOccupancyPercent float64
	MinPartySize        int
	MaxPartySize        int
	MaxCombinedTables   int
	MaxSuggestions      int

	// AllowArriveFromPending lets staff seat a party that never confirmed.
	AllowArriveFromPending bool

	// Location is the restaurant time zone used for opening hours and
	// calendar days.
	Location *time.Location
}

// DefaultPolicy returns the standard house rules.
func DefaultPolicy() Policy {
	return Policy{
		TurnoverBuffer:         time.Hour,
		MinLeadTime:            30 * time.Minute,
		OpenAt:                 10 * time.Hour,
		CloseAt:                22 * time.Hour,
		CustomerCancelCutoff:   30 * time.Minute,
		NoShowGrace:            15 * time.Minute,
		ReminderLead:           time.Hour,
		MaxOccupancyPercent:    50,
		MinPartySize:           1,
		MaxPartySize:           20,
		MaxCombinedTables:      3,
		MaxSuggestions:         5,
		AllowArriveFromPending: true,
		Location:               time.UTC,
	}
}

// withDefaults replaces unset or invalid fields with DefaultPolicy values.
// A zero Policy is DefaultPolicy.  Otherwise MinLeadTime,
// CustomerCancelCutoff, NoShowGrace and AllowArriveFromPending are taken as
// given, zero included, and only negative durations are replaced.
func (p Policy) withDefaults() Policy {
	d := DefaultPolicy()
	if p == (Policy{}) {
		return d
	}
	if p.TurnoverBuffer <= 0 {
		p.TurnoverBuffer = d.TurnoverBuffer
	}
	if p.MinLeadTime < 0 {
		p.MinLeadTime = d.MinLeadTime
	}
	if p.CloseAt <= p.OpenAt {
		p.OpenAt, p.CloseAt = d.OpenAt, d.CloseAt
	}
	if p.CustomerCancelCutoff < 0 {
		p.CustomerCancelCutoff = d.CustomerCancelCutoff
	}
	if p.NoShowGrace < 0 {
		p.NoShowGrace = d.NoShowGrace
	}
	if p.ReminderLead <= 0 {
		p.ReminderLead = d.ReminderLead
	}
	if p.MaxOccupancyPercent <= 0 {
		p.MaxOccupancyPercent = d.MaxOccupancyPercent
	}
	if p.MinPartySize < 1 {
		p.MinPartySize = d.MinPartySize
	}
	if p.MaxPartySize < p.MinPartySize {
		p.MaxPartySize = d.MaxPartySize
	}
	if p.MaxCombinedTables < 1 {
		p.MaxCombinedTables = d.MaxCombinedTables
	}
	if p.MaxSuggestions < 1 {
		p.MaxSuggestions = d.MaxSuggestions
	}
	if p.Location == nil {
		p.Location = d.Location
	}
	return p
}
