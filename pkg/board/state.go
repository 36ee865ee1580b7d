package board

import (
	"sync/atomic"
	"time"
)

// LedPair is the pair of squares shown by the display.
type LedPair struct {
	Slots  [2]Coordinate
	Active int
}

// NewLedPair creates a pair rendering slot 0 first.
func NewLedPair(m Move) LedPair {
	return LedPair{Slots: [2]Coordinate{m.From, m.To}}
}

// Current returns the coordinate being rendered.
func (p LedPair) Current() Coordinate {
	return p.Slots[p.Active&1]
}

// Flip selects the other slot.
func (p *LedPair) Flip() {
	p.Active ^= 1
}

// Move returns the pair as a move.
func (p LedPair) Move() Move {
	return Move{From: p.Slots[0], To: p.Slots[1]}
}

// PendingMove assembles two coordinates into a move.
type PendingMove struct {
	slots [2]Coordinate
	fill  int
}

// Add stores c at the current fill index. When the second slot is
// filled the completed move is returned and the buffer resets.
func (p *PendingMove) Add(c Coordinate) (Move, bool) {
	p.slots[p.fill] = c
	if p.fill == 0 {
		p.fill = 1
		return Move{}, false
	}
	p.fill = 0
	return Move{From: p.slots[0], To: p.slots[1]}, true
}

// Filled returns the number of coordinates collected so far.
func (p *PendingMove) Filled() int {
	return p.fill
}

// Reset drops any partially entered move.
func (p *PendingMove) Reset() {
	p.fill = 0
}

// BlinkRate selects the alternation period of the LED pair.
type BlinkRate int32

// Blink rates.
const (
	BlinkNormal BlinkRate = iota
	BlinkDrawOffer
	BlinkInvalidMove
)

// Default alternation periods, from the 4096Hz reload values 32, 4096 and 1024.
const (
	NormalPeriod      = time.Second / 128
	DrawOfferPeriod   = time.Second
	InvalidMovePeriod = time.Second / 4
)

// Period returns the default alternation period.
func (r BlinkRate) Period() time.Duration {
	switch r {
	case BlinkDrawOffer:
		return DrawOfferPeriod
	case BlinkInvalidMove:
		return InvalidMovePeriod
	default:
		return NormalPeriod
	}
}

func (r BlinkRate) String() string {
	switch r {
	case BlinkNormal:
		return "normal"
	case BlinkDrawOffer:
		return "draw-offer"
	case BlinkInvalidMove:
		return "invalid-move"
	}
	return "unknown"
}

// DisplayPower is whether the display is on or blanked for deep sleep.
type DisplayPower int32

// Display power states.
const (
	PowerOn DisplayPower = iota
	PowerOff
)

func (p DisplayPower) String() string {
	if p == PowerOff {
		return "off"
	}
	return "on"
}

// Power is the board-wide DisplayPower cell, safe for use from any handler.
type Power struct {
	state int32
}

// Get returns the current state.
func (p *Power) Get() DisplayPower {
	return DisplayPower(atomic.LoadInt32(&p.state))
}

// IsOn tells the display is powered.
func (p *Power) IsOn() bool {
	return p.Get() == PowerOn
}

// SetOn powers the display, returns true if it was off.
func (p *Power) SetOn() bool {
	return atomic.CompareAndSwapInt32(&p.state, int32(PowerOff), int32(PowerOn))
}

// SetOff requests blanking, returns true if it was on.
func (p *Power) SetOff() bool {
	return atomic.CompareAndSwapInt32(&p.state, int32(PowerOn), int32(PowerOff))
}
