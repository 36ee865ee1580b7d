package sim

import (
	"math/bits"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/twinboard/pkg/board"
)

// Display simulates the LED matrix driven by row and column masks.
type Display struct {
	// OnChange is called after every change, optional.
	OnChange func()

	lock    sync.Mutex
	lit     board.Coordinate
	on      bool
	renders uint64
}

// Render implements hal.Display. Exactly one bit is expected in each mask.
func (d *Display) Render(columnMask, rowMask uint8) {
	c, ok := DecodeMasks(columnMask, rowMask)
	d.lock.Lock()
	d.lit, d.on = c, ok
	d.renders++
	fn := d.OnChange
	d.lock.Unlock()
	if !ok && (columnMask != 0 || rowMask != 0) {
		glog.Warningf("ambiguous frame col=%08b row=%08b", columnMask, rowMask)
	}
	glog.V(5).Infof("render %s", c)
	if fn != nil {
		fn()
	}
}

// Blank implements hal.Display.
func (d *Display) Blank() {
	d.Render(0, 0)
}

// Lit returns the lit square, false if the display is blank.
func (d *Display) Lit() (board.Coordinate, bool) {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.lit, d.on
}

// Renders returns the number of frames rendered.
func (d *Display) Renders() uint64 {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.renders
}

// DecodeMasks finds the square lit by a column and a row mask.
func DecodeMasks(columnMask, rowMask uint8) (board.Coordinate, bool) {
	if bits.OnesCount8(columnMask) != 1 || bits.OnesCount8(rowMask) != 1 {
		return 0, false
	}
	col := 7 - bits.TrailingZeros8(columnMask)
	row := 7 - bits.TrailingZeros8(rowMask)
	return board.At(row, col), true
}
