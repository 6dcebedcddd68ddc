package domain

import (
	"strings"
	"time"
)

// maxPlausibleAge is the ceiling for a believable sewer pipe age in years.
// Repaired values outside (0, maxPlausibleAge] are rejected and the original
// kept, signaling an unfixable record for downstream filtering.
const maxPlausibleAge = 150

// installYearFloor separates months-as-years entries from install-year
// entries: anything above it reads as a calendar year.
const installYearFloor = 1800

// spillDateLayouts are the date formats observed in the spill report export.
var spillDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"1/2/2006",
	"1/2/2006 15:04",
	"01-02-2006",
}

// RepairAge corrects the two dominant age entry errors, returning the input
// unchanged when no rule applies or the repaired value fails the sanity
// window.
//
//	age ≤ 150            already plausible, unchanged
//	age > 1800           install year: spill year − age
//	150 < age ≤ 1800     months: age / 12
func RepairAge(age float64, spillDate string) float64 {
	if age <= maxPlausibleAge {
		return age
	}

	if age > installYearFloor {
		spillYear, ok := parseSpillYear(spillDate)
		if !ok {
			return age
		}
		repaired := float64(spillYear) - age
		if repaired > 0 && repaired <= maxPlausibleAge {
			return repaired
		}
		return age
	}

	repaired := age / 12
	if repaired > 0 && repaired <= maxPlausibleAge {
		return repaired
	}
	return age
}

// parseSpillYear extracts the calendar year from a spill date string, trying
// each known layout in turn.
func parseSpillYear(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	for _, layout := range spillDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Year(), true
		}
	}
	return 0, false
}
