package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/iliyamo/restaurant-reservation/internal/model"
)

// Suggestion is one way to seat a party: a single table or a group of
// tables from the same area.
type Suggestion struct {
	Tables        []model.Table `json:"tables"`
	TotalCapacity int           `json:"total_capacity"`
	Area          string        `json:"area"`
	Combined      bool          `json:"combined"`
}

// TableIDs lists the suggestion's tables in allocation order.
func (s Suggestion) TableIDs() []uint64 {
	ids := make([]uint64, len(s.Tables))
	for i, t := range s.Tables {
		ids[i] = t.ID
	}
	return ids
}

// Suggest ranks the ways to seat partySize guests at t.  Single tables come
// first: preferred area, then tightest fit, then table number.  Only when
// no single table fits are same-area combinations offered.  An empty result
// is not an error; ErrCapacityExceeded is returned when the booking would
// push projected occupancy past the house limit.
func (s *Service) Suggest(ctx context.Context, partySize int, t time.Time, preferredArea string) ([]Suggestion, error) {
	if err := s.validatePartySize(partySize); err != nil {
		return nil, err
	}
	tables, err := s.store.ActiveTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("load tables: %w", err)
	}
	slots, err := s.slotsAround(ctx, s.store, t)
	if err != nil {
		return nil, err
	}
	return s.rank(tables, slots, partySize, t, preferredArea)
}

type seatingRequest struct {
	partySize int
	area      string
}

func (q seatingRequest) areaRank(area string) int {
	if q.area == "" || strings.EqualFold(q.area, area) {
		return 0
	}
	return 1
}

// rank is the pure part of Suggest, shared with Create so both run the same
// rules against the same snapshot.
func (s *Service) rank(tables []model.Table, slots []model.BookedSlot, partySize int, t time.Time, preferredArea string) ([]Suggestion, error) {
	total := totalCapacity(tables)
	if total == 0 {
		return []Suggestion{}, nil
	}
	buf := s.policy.TurnoverBuffer
	if occupancyPercent(total, guestsAt(slots, t, buf), partySize) > s.policy.MaxOccupancyPercent {
		return nil, fmt.Errorf("%w: booking would exceed %.0f%% occupancy", ErrCapacityExceeded, s.policy.MaxOccupancyPercent)
	}

	q := seatingRequest{partySize: partySize, area: strings.TrimSpace(preferredArea)}
	blocked := blockedTables(slots, t, buf)
	free := make([]model.Table, 0, len(tables))
	for _, tb := range tables {
		if tb.IsActive && !blocked[tb.ID] {
			free = append(free, tb)
		}
	}

	singles := singleTableSuggestions(free, q)
	if len(singles) == 0 {
		singles = combinedSuggestions(free, q, s.policy.MaxCombinedTables)
	}
	if len(singles) > s.policy.MaxSuggestions {
		singles = singles[:s.policy.MaxSuggestions]
	}
	return singles, nil
}

func singleTableSuggestions(free []model.Table, q seatingRequest) []Suggestion {
	fits := make([]model.Table, 0, len(free))
	for _, tb := range free {
		if tb.Capacity >= q.partySize {
			fits = append(fits, tb)
		}
	}
	sort.SliceStable(fits, func(i, j int) bool {
		a, b := fits[i], fits[j]
		if ra, rb := q.areaRank(a.Area), q.areaRank(b.Area); ra != rb {
			return ra < rb
		}
		if a.Capacity != b.Capacity {
			return a.Capacity < b.Capacity
		}
		return a.Number < b.Number
	})
	out := make([]Suggestion, len(fits))
	for i, tb := range fits {
		out[i] = Suggestion{Tables: []model.Table{tb}, TotalCapacity: tb.Capacity, Area: tb.Area}
	}
	return out
}

// combinedSuggestions pushes together 2..maxTables free tables from one
// area.  Only minimal groups are kept: dropping the smallest table would
// leave the party short.
func combinedSuggestions(free []model.Table, q seatingRequest, maxTables int) []Suggestion {
	if maxTables < 2 {
		return []Suggestion{}
	}
	byArea := make(map[string][]model.Table)
	var areas []string
	for _, tb := range free {
		key := strings.ToLower(tb.Area)
		if _, ok := byArea[key]; !ok {
			areas = append(areas, key)
		}
		byArea[key] = append(byArea[key], tb)
	}
	sort.Strings(areas)

	out := []Suggestion{}
	for _, area := range areas {
		group := byArea[area]
		sort.Slice(group, func(i, j int) bool { return group[i].Number < group[j].Number })
		var pick []model.Table
		var walk func(start, sum int)
		walk = func(start, sum int) {
			if len(pick) >= 2 && sum >= q.partySize {
				if sum-minCapacity(pick) < q.partySize {
					tables := make([]model.Table, len(pick))
					copy(tables, pick)
					out = append(out, Suggestion{Tables: tables, TotalCapacity: sum, Area: tables[0].Area, Combined: true})
				}
				return
			}
			if len(pick) == maxTables {
				return
			}
			for i := start; i < len(group); i++ {
				pick = append(pick, group[i])
				walk(i+1, sum+group[i].Capacity)
				pick = pick[:len(pick)-1]
			}
		}
		walk(0, 0)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if ra, rb := q.areaRank(a.Area), q.areaRank(b.Area); ra != rb {
			return ra < rb
		}
		if a.TotalCapacity != b.TotalCapacity {
			return a.TotalCapacity < b.TotalCapacity
		}
		if len(a.Tables) != len(b.Tables) {
			return len(a.Tables) < len(b.Tables)
		}
		return a.Tables[0].Number < b.Tables[0].Number
	})
	return out
}

func minCapacity(tables []model.Table) int {
	m := tables[0].Capacity
	for _, t := range tables[1:] {
		if t.Capacity < m {
			m = t.Capacity
		}
	}
	return m
}
