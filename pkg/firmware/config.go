package firmware

import (
	"time"

	"github.com/robotalks/twinboard/pkg/board"
	"github.com/robotalks/twinboard/pkg/hal"
	"github.com/robotalks/twinboard/pkg/link"
	"github.com/robotalks/twinboard/pkg/scanner"
)

// BootMove is displayed until the first move arrives: e1 and d8.
var BootMove = board.Move{From: 4, To: 59}

// Config holds the board timings.
type Config struct {
	// ID names the board in logs and telemetry.
	ID string
	// Periods is the alternation period per BlinkRate.
	Periods     [3]time.Duration
	Debounce    time.Duration
	Retry       link.RetryPolicy
	RepeatAfter time.Duration
	MaxRepeats  int
	BootMove    board.Move
	// AfterFunc schedules debounce and retry timers, tests replace it.
	AfterFunc hal.AfterFunc
}

// DefaultConfig returns the timings of the hardware board.
func DefaultConfig() Config {
	return Config{
		Periods: [3]time.Duration{
			board.BlinkNormal:      board.NormalPeriod,
			board.BlinkDrawOffer:   board.DrawOfferPeriod,
			board.BlinkInvalidMove: board.InvalidMovePeriod,
		},
		Debounce:    scanner.DefaultDebounce,
		Retry:       link.DefaultRetryPolicy,
		RepeatAfter: link.DefaultRepeatAfter,
		MaxRepeats:  link.DefaultMaxRepeats,
		BootMove:    BootMove,
		AfterFunc:   hal.RealAfterFunc,
	}
}
