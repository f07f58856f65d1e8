package services

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/yeremiapane/tablehub/models"
)

var nanosPerHour = decimal.NewFromInt(int64(time.Hour))

// RoundMoney rounds to cents, half away from zero. Charges are never
// negative, so this is round-half-up.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// BillableDuration is the time the table has accrued charges for as of now.
// The end of the interval is frozen at PausedAt while paused and at
// SettledAt once settling, and never passes LimitEnd.
func BillableDuration(t models.Table, now time.Time) time.Duration {
	if t.StartedAt == nil {
		return 0
	}

	end := now
	if t.SettledAt != nil && t.SettledAt.Before(end) {
		end = *t.SettledAt
	}
	if t.Paused && t.PausedAt != nil && t.PausedAt.Before(end) {
		end = *t.PausedAt
	}
	if t.LimitEnd != nil && t.LimitEnd.Before(end) {
		end = *t.LimitEnd
	}

	elapsed := end.Sub(*t.StartedAt)
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// RentalMinutes is the billable duration in whole minutes.
func RentalMinutes(t models.Table, now time.Time) int {
	return int(BillableDuration(t, now) / time.Minute)
}

// TimeCharge prices a duration at an hourly rate.
func TimeCharge(rate decimal.Decimal, elapsed time.Duration) decimal.Decimal {
	if elapsed <= 0 || rate.IsZero() {
		return decimal.Zero
	}
	return RoundMoney(rate.Mul(decimal.NewFromInt(int64(elapsed))).Div(nanosPerHour))
}

// Charge computes what the table owes right now from its stored state only.
func Charge(t models.Table, now time.Time) decimal.Decimal {
	if t.Status != models.TableStatusOccupied || t.HourlyRate.IsZero() {
		return t.ServiceCharge
	}
	if t.Paused {
		return t.FrozenCharge.Add(t.ServiceCharge)
	}
	return TimeCharge(t.HourlyRate, BillableDuration(t, now)).Add(t.ServiceCharge)
}

// TableSnapshot is a table as shown to clients, with its live charge.
type TableSnapshot struct {
	models.Table
	Charge         decimal.Decimal `json:"charge"`
	ElapsedMinutes int             `json:"elapsed_minutes"`
}

func Snapshot(t models.Table, now time.Time) TableSnapshot {
	return TableSnapshot{
		Table:          t,
		Charge:         Charge(t, now),
		ElapsedMinutes: RentalMinutes(t, now),
	}
}
