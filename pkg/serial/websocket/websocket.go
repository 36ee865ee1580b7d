// Package websocket carries a serial link over a websocket connection,
// one binary frame per byte.
package websocket

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	"github.com/robotalks/twinboard/pkg/serial"
)

func init() {
	serial.Register("ws", Open)
	serial.Register("wss", Open)
	serial.Register("ws-listen", OpenListen)
}

// Open creates a Stream dialing the websocket URL.
func Open(u *url.URL) (serial.Driver, error) {
	return Dial(u.String()), nil
}

// Dial creates a Stream which (re)dials a websocket server.
func Dial(wsURL string) *serial.Stream {
	origin := "http://localhost/"
	return serial.NewDialStream(wsURL, func(context.Context) (io.ReadWriter, error) {
		conn, err := websocket.Dial(wsURL, "", origin)
		if err != nil {
			return nil, err
		}
		conn.PayloadType = websocket.BinaryFrame
		return conn, nil
	})
}

// OpenListen serves the websocket endpoint at ws-listen://host:port/path.
func OpenListen(u *url.URL) (serial.Driver, error) {
	ln, err := net.Listen("tcp", u.Host)
	if err != nil {
		return nil, err
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	srv := NewServer(u.String())
	mux := http.NewServeMux()
	mux.Handle(path, srv)
	go func() {
		if err := http.Serve(ln, mux); err != nil {
			glog.Warningf("websocket server %s: %v", u.Host, err)
		}
	}()
	return srv.Stream, nil
}

// Server is an http.Handler accepting one peer at a time into Stream.
type Server struct {
	Stream *serial.Stream

	connCh chan *serverConn
}

// NewServer creates a Server.
func NewServer(name string) *Server {
	s := &Server{connCh: make(chan *serverConn)}
	s.Stream = serial.NewDialStream(name, s.accept)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(s.handleConn).ServeHTTP(w, r)
}

func (s *Server) handleConn(conn *websocket.Conn) {
	conn.PayloadType = websocket.BinaryFrame
	sc := &serverConn{Conn: conn, done: make(chan struct{})}
	select {
	case s.connCh <- sc:
		glog.Infof("websocket peer %s", conn.Request().RemoteAddr)
		<-sc.done
	case <-conn.Request().Context().Done():
	}
}

func (s *Server) accept(ctx context.Context) (io.ReadWriter, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case conn := <-s.connCh:
		return conn, nil
	}
}

// serverConn releases the handler when the Stream closes it.
type serverConn struct {
	*websocket.Conn
	done chan struct{}
	once sync.Once
}

func (c *serverConn) Close() error {
	c.once.Do(func() { close(c.done) })
	return c.Conn.Close()
}
