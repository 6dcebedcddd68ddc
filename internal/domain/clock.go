package domain

import "github.com/jonboulle/clockwork"

// clock is the package time source for ProcessedAt stamps. Tests freeze it
// through SetClock to make scored output reproducible.
var clock = clockwork.NewRealClock()

// SetClock swaps the scoring time source. Pass nil to restore real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}
