package sim

import (
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/twinboard/pkg/board"
	"github.com/robotalks/twinboard/pkg/hal"
)

// DefaultHoldTime is how long a simulated press keeps the key closed.
const DefaultHoldTime = 50 * time.Millisecond

// Matrix simulates the key matrix. Edges are delivered on their own
// goroutine. An edge arriving while edges are disabled is latched and
// fires when edges are enabled again, unless cleared before.
type Matrix struct {
	HoldTime time.Duration

	lock       sync.Mutex
	handler    hal.EdgeHandler
	held       map[board.Coordinate]int
	disabled   bool
	latchedRow int
	latched    bool
}

// NewMatrix creates a Matrix.
func NewMatrix() *Matrix {
	return &Matrix{
		HoldTime: DefaultHoldTime,
		held:     make(map[board.Coordinate]int),
	}
}

// SetEdgeHandler implements hal.Matrix.
func (m *Matrix) SetEdgeHandler(h hal.EdgeHandler) {
	m.lock.Lock()
	m.handler = h
	m.lock.Unlock()
}

// ProbeColumn implements hal.Matrix.
func (m *Matrix) ProbeColumn(row, column int) bool {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.held[board.At(row, column)] > 0
}

// DisableEdges implements hal.Matrix.
func (m *Matrix) DisableEdges() {
	m.lock.Lock()
	m.disabled = true
	m.lock.Unlock()
}

// EnableEdges implements hal.Matrix.
func (m *Matrix) EnableEdges() {
	m.lock.Lock()
	m.disabled = false
	h, row, fire := m.handler, m.latchedRow, m.latched
	m.latched = false
	m.lock.Unlock()
	if fire && h != nil {
		go h.HandleKeyEdge(row)
	}
}

// ClearEdges implements hal.Matrix.
func (m *Matrix) ClearEdges() {
	m.lock.Lock()
	m.latched = false
	m.lock.Unlock()
}

// Press closes the key at c for HoldTime.
func (m *Matrix) Press(c board.Coordinate) {
	if !c.Valid() {
		return
	}
	hold := m.HoldTime
	if hold <= 0 {
		hold = DefaultHoldTime
	}
	m.lock.Lock()
	m.held[c]++
	h, deliver := m.handler, !m.disabled
	if !deliver {
		m.latched, m.latchedRow = true, c.Row()
	}
	m.lock.Unlock()
	glog.V(2).Infof("sim press %s", c)

	time.AfterFunc(hold, func() {
		m.lock.Lock()
		if m.held[c]--; m.held[c] <= 0 {
			delete(m.held, c)
		}
		m.lock.Unlock()
	})
	if deliver && h != nil {
		go h.HandleKeyEdge(c.Row())
	}
}
