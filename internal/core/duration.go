package core

import (
	"math"
	"time"
)

// breakThresholdMinutes is how much longer than the break a shift must run
// before the break is deducted at all.
const breakThresholdMinutes = 60

// ComputeHours returns the worked hours between checkIn and checkOut, rounded to two decimals.
//
// Shifts no longer than break+1h keep their full raw duration. Past that point the break is
// phased in, so the result never drops when the shift gets longer: worked minutes are
// max(raw-break, break+1h), which equals raw-break for any shift of at least 2*break+1h.
func ComputeHours(checkIn, checkOut time.Time, breakMinutes int) float64 {
	raw := int(checkOut.Sub(checkIn) / time.Minute)
	if raw <= 0 {
		return 0
	}

	worked := raw
	if breakMinutes > 0 {
		threshold := breakMinutes + breakThresholdMinutes
		if raw > threshold {
			worked = max(raw-breakMinutes, threshold)
		}
	}
	return roundHours(float64(worked) / 60)
}

// OvertimeHours is the part of totalHours beyond the nominal shift length.
func OvertimeHours(totalHours, shiftHours float64) float64 {
	return roundHours(totalHours - shiftHours)
}

func roundHours(h float64) float64 {
	r := math.Round(h*100) / 100
	if r < 0 {
		return 0
	}
	return r
}
