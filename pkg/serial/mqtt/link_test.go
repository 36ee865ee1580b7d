package mqtt

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/twinboard/pkg/mqtt"
)

type chanHandler struct {
	bytes chan byte
	ready chan struct{}
}

func newChanHandler() *chanHandler {
	return &chanHandler{bytes: make(chan byte, 256), ready: make(chan struct{}, 256)}
}

func (h *chanHandler) HandleByte(b byte)    { h.bytes <- b }
func (h *chanHandler) HandleTransmitReady() { h.ready <- struct{}{} }

// expect skips Starts sent while waiting for the subscriptions.
func (h *chanHandler) expect(t *testing.T, b byte) {
	for {
		select {
		case actual := <-h.bytes:
			if actual == 's' && b != 's' {
				continue
			}
			require.Equal(t, b, actual)
			return
		case <-time.After(time.Second):
			t.Fatalf("byte %q not received", b)
		}
	}
}

func waitConnected(t *testing.T, a *Link, hb *chanHandler) {
	deadline := time.After(time.Second)
	for {
		a.Send('s')
		select {
		case got := <-hb.bytes:
			require.Equal(t, byte('s'), got)
			return
		case <-time.After(10 * time.Millisecond):
		case <-deadline:
			t.Fatal("link not connected")
		}
	}
}

func TestLinkOverLocalQueue(t *testing.T) {
	q := mqtt.NewLocalQueue("chess/")
	a, b := New(q, "a", "b"), New(q, "b", "a")
	ha, hb := newChanHandler(), newChanHandler()
	a.SetHandler(ha)
	b.SetHandler(hb)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.Run(ctx)
	go b.Run(ctx)

	waitConnected(t, a, hb)
	b.Send('a')
	ha.expect(t, 'a')
	a.Send(37)
	hb.expect(t, 37)
}

func TestOpenRequiresPeer(t *testing.T) {
	u, err := url.Parse("mqtt://localhost:1883/chess/?id=a")
	require.NoError(t, err)
	_, err = Open(u)
	require.Equal(t, ErrMissingPeer, err)

	u, err = url.Parse("mqtt://localhost:1883/chess/?id=a&peer=b")
	require.NoError(t, err)
	d, err := Open(u)
	require.NoError(t, err)
	l := d.(*Link)
	require.Equal(t, "chess/", l.Queue.TopicPrefix)
	require.Equal(t, "b", l.Peer)
}
