package domain

import "time"

// Window names one of the three independent quota counters.
type Window string

const (
	WindowDaily  Window = "daily"
	WindowWeekly Window = "weekly"
	WindowYearly Window = "yearly"
)

// Windows lists the quota windows in headroom-check order: most granular first.
var Windows = []Window{WindowDaily, WindowWeekly, WindowYearly}

// VendorLeadQuota holds a vendor's consumption counters. One row per vendor.
//
// Version is bumped on every write so concurrent writers can compare-and-set
// against the row they read.
type VendorLeadQuota struct {
	VendorID      string    `json:"vendor_id"       gorm:"type:char(36);primaryKey"`
	DailyUsed     int       `json:"daily_used"      gorm:"not null;default:0;check:chk_quota_daily,daily_used <= daily_limit"`
	DailyLimit    int       `json:"daily_limit"     gorm:"not null;default:0"`
	WeeklyUsed    int       `json:"weekly_used"     gorm:"not null;default:0;check:chk_quota_weekly,weekly_used <= weekly_limit"`
	WeeklyLimit   int       `json:"weekly_limit"    gorm:"not null;default:0"`
	YearlyUsed    int       `json:"yearly_used"     gorm:"not null;default:0;check:chk_quota_yearly,yearly_used <= yearly_limit"`
	YearlyLimit   int       `json:"yearly_limit"    gorm:"not null;default:0"`
	LastResetDate time.Time `json:"last_reset_date" gorm:"not null"`
	Version       int64     `json:"-"               gorm:"not null;default:0"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName returns the database table name for VendorLeadQuota.
func (VendorLeadQuota) TableName() string { return "vendor_lead_quotas" }

// Used returns the counter for w.
func (q VendorLeadQuota) Used(w Window) int {
	switch w {
	case WindowDaily:
		return q.DailyUsed
	case WindowWeekly:
		return q.WeeklyUsed
	case WindowYearly:
		return q.YearlyUsed
	}
	return 0
}

// Limit returns the limit for w.
func (q VendorLeadQuota) Limit(w Window) int {
	switch w {
	case WindowDaily:
		return q.DailyLimit
	case WindowWeekly:
		return q.WeeklyLimit
	case WindowYearly:
		return q.YearlyLimit
	}
	return 0
}

// Remaining returns the headroom left in w, never negative.
func (q VendorLeadQuota) Remaining(w Window) int {
	if r := q.Limit(w) - q.Used(w); r > 0 {
		return r
	}
	return 0
}

// FirstExhausted returns the first window (daily, weekly, yearly) whose
// counter has reached its limit.
func (q VendorLeadQuota) FirstExhausted() (Window, bool) {
	for _, w := range Windows {
		if q.Used(w) >= q.Limit(w) {
			return w, true
		}
	}
	return "", false
}

// Rollover zeroes every counter whose window boundary has passed between
// LastResetDate and now, evaluated in loc. The three checks are independent.
// When anything was reset, LastResetDate moves to now and changed is true.
// A now earlier than LastResetDate never resets.
func (q VendorLeadQuota) Rollover(now time.Time, loc *time.Location) (out VendorLeadQuota, changed bool) {
	if loc == nil {
		loc = time.UTC
	}
	out = q
	last := q.LastResetDate.In(loc)
	cur := now.In(loc)
	if !cur.After(last) {
		return out, false
	}

	if !sameDay(last, cur) && out.DailyUsed != 0 {
		out.DailyUsed = 0
		changed = true
	}
	if !sameISOWeek(last, cur) && out.WeeklyUsed != 0 {
		out.WeeklyUsed = 0
		changed = true
	}
	if last.Year() != cur.Year() && out.YearlyUsed != 0 {
		out.YearlyUsed = 0
		changed = true
	}
	if !sameDay(last, cur) {
		// The anchor moves on every day boundary, even with zero counters.
		changed = true
	}
	if changed {
		out.LastResetDate = now.UTC()
	}
	return out, changed
}

// NextReset returns the instant the counter for w next rolls over after now,
// evaluated in loc.
func NextReset(w Window, now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	cur := now.In(loc)
	midnight := time.Date(cur.Year(), cur.Month(), cur.Day(), 0, 0, 0, 0, loc)
	switch w {
	case WindowWeekly:
		// ISO weeks start on Monday.
		offset := (int(cur.Weekday()) + 6) % 7
		return midnight.AddDate(0, 0, 7-offset)
	case WindowYearly:
		return time.Date(cur.Year()+1, time.January, 1, 0, 0, 0, 0, loc)
	default:
		return midnight.AddDate(0, 0, 1)
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func sameISOWeek(a, b time.Time) bool {
	ay, aw := a.ISOWeek()
	by, bw := b.ISOWeek()
	return ay == by && aw == bw
}
