package serial

import (
	"context"
	"io"
	"net"
	"net/url"
	"os"
	"sync"

	"github.com/robotalks/twinboard/pkg/framework"
	"github.com/robotalks/twinboard/pkg/hal"
)

// Driver is a serial link which must be run.
type Driver interface {
	hal.SerialLink
	framework.Runnable
}

// Opener creates a Driver from URL.
type Opener func(u *url.URL) (Driver, error)

var (
	openers     = make(map[string]Opener)
	openersLock sync.RWMutex
)

func init() {
	Register("tcp", openTCP)
	Register("tcp-listen", openTCPListen)
	Register("file", openFile)
}

// Register registers an Opener for a URL scheme.
func Register(scheme string, opener Opener) {
	openersLock.Lock()
	openers[scheme] = opener
	openersLock.Unlock()
}

// Open creates a Driver from URL.
func Open(rawURL string) (Driver, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	openersLock.RLock()
	opener := openers[u.Scheme]
	openersLock.RUnlock()
	if opener == nil {
		return nil, &UnsupportedSchemeError{Scheme: u.Scheme}
	}
	return opener(u)
}

func openTCP(u *url.URL) (Driver, error) {
	addr := u.Host
	return NewDialStream(u.String(), func(ctx context.Context) (io.ReadWriter, error) {
		var d net.Dialer
		return d.DialContext(ctx, "tcp", addr)
	}), nil
}

func openTCPListen(u *url.URL) (Driver, error) {
	ln, err := net.Listen("tcp", u.Host)
	if err != nil {
		return nil, err
	}
	return NewDialStream(u.String(), Accept(ln)), nil
}

// Accept returns a DialFunc which accepts the next peer from ln.
func Accept(ln net.Listener) DialFunc {
	return func(ctx context.Context) (io.ReadWriter, error) {
		var conn net.Conn
		err := framework.RunWithContextCancel(ctx, func() { ln.Close() }, func() (err error) {
			conn, err = ln.Accept()
			return
		})
		return conn, err
	}
}

func openFile(u *url.URL) (Driver, error) {
	path := u.Path
	return NewDialStream(u.String(), func(context.Context) (io.ReadWriter, error) {
		return os.OpenFile(path, os.O_RDWR, 0)
	}), nil
}
