package usecase

import (
	"time"

	"orderbook_server/internal/domain"
)

type HistoryPreset string

const (
	HistoryPresetAll    HistoryPreset = "all"
	HistoryPresetToday  HistoryPreset = "today"
	HistoryPresetWeek   HistoryPreset = "week"
	HistoryPresetMonth  HistoryPreset = "month"
	HistoryPresetYear   HistoryPreset = "year"
	HistoryPresetCustom HistoryPreset = "custom"
)

// HistoryDisplayCap bounds how many filtered entries are handed to the
// presentation boundary. Applied after filtering and sorting, never before.
const HistoryDisplayCap = 50

// HistoryFilter selects a time-bounded view of closed trades. Start and End
// are only honored for the custom preset and carry day granularity: the
// range is inclusive from Start's midnight through the last instant of End's
// day, in local time.
type HistoryFilter struct {
	Preset HistoryPreset
	Start  time.Time
	End    time.Time
}

// FilterHistory derives the filtered view. It is a pure function of the
// trades, the filter and the reference instant; no state is kept between
// calls.
//
// A custom filter without a start date behaves as "all". The original screen
// silently ignored the incomplete filter and this keeps that behavior rather
// than rejecting it.
func FilterHistory(trades []domain.ClosedTrade, f HistoryFilter, now time.Time) []domain.ClosedTrade {
	var cutoff time.Time

	switch f.Preset {
	case HistoryPresetToday:
		return filterTrades(trades, func(t domain.ClosedTrade) bool {
			return sameCalendarDay(t.ClosedAt, now)
		})
	case HistoryPresetWeek:
		cutoff = now.Add(-7 * 24 * time.Hour)
	case HistoryPresetMonth:
		cutoff = now.Add(-30 * 24 * time.Hour)
	case HistoryPresetYear:
		cutoff = now.Add(-365 * 24 * time.Hour)
	case HistoryPresetCustom:
		if f.Start.IsZero() {
			return trades
		}
		start := startOfDay(f.Start)
		end := f.End
		if end.IsZero() {
			end = now
		}
		end = endOfDay(end)
		return filterTrades(trades, func(t domain.ClosedTrade) bool {
			return !t.ClosedAt.Before(start) && !t.ClosedAt.After(end)
		})
	default:
		return trades
	}

	return filterTrades(trades, func(t domain.ClosedTrade) bool {
		return !t.ClosedAt.Before(cutoff)
	})
}

// CapHistory truncates the filtered view to at most limit entries.
func CapHistory(trades []domain.ClosedTrade, limit int) []domain.ClosedTrade {
	if limit <= 0 || len(trades) <= limit {
		return trades
	}
	return trades[:limit]
}

func filterTrades(trades []domain.ClosedTrade, keep func(domain.ClosedTrade) bool) []domain.ClosedTrade {
	out := make([]domain.ClosedTrade, 0, len(trades))
	for _, t := range trades {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

func sameCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}
