package haltest

import (
	"context"
	"sync"

	"github.com/robotalks/twinboard/pkg/hal"
)

// PipeEnd is one side of an in-memory serial line. Bytes are delivered
// to the peer and transmit-ready is notified from the Run goroutine,
// never from inside Send.
type PipeEnd struct {
	// Drop, if set, decides whether a sent byte is lost on the line.
	Drop func(byte) bool

	lock    sync.Mutex
	handler hal.LinkHandler
	peer    *PipeEnd
	txCh    chan byte
}

// Pipe creates a connected pair of PipeEnds.
func Pipe() (*PipeEnd, *PipeEnd) {
	a := &PipeEnd{txCh: make(chan byte, 256)}
	b := &PipeEnd{txCh: make(chan byte, 256)}
	a.peer, b.peer = b, a
	return a, b
}

// SetHandler implements hal.SerialLink.
func (p *PipeEnd) SetHandler(h hal.LinkHandler) {
	p.lock.Lock()
	p.handler = h
	p.lock.Unlock()
}

// Send implements hal.SerialLink.
func (p *PipeEnd) Send(b byte) {
	p.txCh <- b
}

// Run implements framework.Runnable.
func (p *PipeEnd) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case b := <-p.txCh:
			p.lock.Lock()
			drop := p.Drop
			p.lock.Unlock()
			if drop == nil || !drop(b) {
				if h := p.peer.getHandler(); h != nil {
					h.HandleByte(b)
				}
			}
			if h := p.getHandler(); h != nil {
				h.HandleTransmitReady()
			}
		}
	}
}

// SetDrop replaces Drop while the pipe is running.
func (p *PipeEnd) SetDrop(drop func(byte) bool) {
	p.lock.Lock()
	p.Drop = drop
	p.lock.Unlock()
}

func (p *PipeEnd) getHandler() hal.LinkHandler {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.handler
}
