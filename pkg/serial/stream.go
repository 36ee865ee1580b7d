package serial

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
	"github.com/jpillora/backoff"

	"github.com/robotalks/twinboard/pkg/framework"
	"github.com/robotalks/twinboard/pkg/hal"
)

// DefaultQueueSize is the default transmit queue length.
const DefaultQueueSize = 64

// DialFunc establishes a connection, it's called again after the
// connection breaks.
type DialFunc func(context.Context) (io.ReadWriter, error)

// Stream is a serial link over a byte stream.
type Stream struct {
	Name string
	// Conn is used when Dial is nil.
	Conn io.ReadWriter
	Dial DialFunc
	// Redial paces reconnection.
	Redial backoff.Backoff

	lock    sync.Mutex
	handler hal.LinkHandler
	txCh    chan byte
	dropped uint64
}

// NewStream creates a Stream over an established connection.
func NewStream(conn io.ReadWriter) *Stream {
	s := newStream()
	s.Conn = conn
	return s
}

// NewDialStream creates a Stream which (re)connects with dial.
func NewDialStream(name string, dial DialFunc) *Stream {
	s := newStream()
	s.Name, s.Dial = name, dial
	return s
}

func newStream() *Stream {
	return &Stream{
		Redial: backoff.Backoff{
			Min:    100 * time.Millisecond,
			Max:    5 * time.Second,
			Factor: 2,
			Jitter: true,
		},
		txCh: make(chan byte, DefaultQueueSize),
	}
}

// SetHandler implements hal.SerialLink.
func (s *Stream) SetHandler(h hal.LinkHandler) {
	s.lock.Lock()
	s.handler = h
	s.lock.Unlock()
}

// Send implements hal.SerialLink. It never blocks, a byte not fitting
// into the queue is lost like on a congested line.
func (s *Stream) Send(b byte) {
	select {
	case s.txCh <- b:
	default:
		atomic.AddUint64(&s.dropped, 1)
		glog.Warningf("serial %s: %v", s.Name, ErrQueueFull)
	}
}

// Dropped returns the number of bytes lost to a full queue.
func (s *Stream) Dropped() uint64 {
	return atomic.LoadUint64(&s.dropped)
}

// Run implements framework.Runnable.
func (s *Stream) Run(ctx context.Context) error {
	if s.Dial == nil {
		if s.Conn == nil {
			return ErrNoConn
		}
		return s.runConn(ctx, s.Conn)
	}
	for {
		conn, err := s.Dial(ctx)
		if err == nil {
			glog.Infof("serial %s: connected", s.Name)
			s.Redial.Reset()
			err = s.runConn(ctx, conn)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		d := s.Redial.Duration()
		glog.Warningf("serial %s: %v, reconnect in %s", s.Name, err, d)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d):
		}
	}
}

func (s *Stream) runConn(ctx context.Context, conn io.ReadWriter) error {
	pump := func() error { return s.pump(conn) }
	if closer, ok := conn.(io.Closer); ok {
		return framework.RunWithContextCloser(ctx, closer, pump)
	}
	return framework.RunWithContext(ctx, pump)
}

func (s *Stream) pump(conn io.ReadWriter) error {
	done := make(chan struct{})
	defer close(done)
	errCh := make(chan error, 2)
	go func() { errCh <- s.readLoop(conn) }()
	go func() { errCh <- s.writeLoop(conn, done) }()
	return <-errCh
}

func (s *Stream) readLoop(r io.Reader) error {
	buf := make([]byte, 64)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			h := s.getHandler()
			for _, b := range buf[:n] {
				glog.V(3).Infof("serial %s RCV 0x%02x", s.Name, b)
				if h != nil {
					h.HandleByte(b)
				}
			}
		}
		if err != nil {
			return err
		}
	}
}

func (s *Stream) writeLoop(w io.Writer, done <-chan struct{}) error {
	for {
		select {
		case <-done:
			return nil
		case b := <-s.txCh:
			glog.V(3).Infof("serial %s SND 0x%02x", s.Name, b)
			if _, err := w.Write([]byte{b}); err != nil {
				return err
			}
			if h := s.getHandler(); h != nil {
				h.HandleTransmitReady()
			}
		}
	}
}

func (s *Stream) getHandler() hal.LinkHandler {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.handler
}
