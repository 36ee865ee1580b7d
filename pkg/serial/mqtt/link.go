// Package mqtt carries a serial link over an MQTT broker so two
// simulated boards can talk from different machines.
//
// Each side publishes its bytes to <prefix>link/<id> and subscribes to
// <prefix>link/<peer>. The broker keeps the order of a publisher's
// messages on one topic, which is all the link protocol needs.
package mqtt

import (
	"context"
	"errors"
	"net/url"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/twinboard/pkg/hal"
	"github.com/robotalks/twinboard/pkg/mqtt"
	"github.com/robotalks/twinboard/pkg/serial"
)

// ErrMissingPeer indicates the URL doesn't name both ends.
var ErrMissingPeer = errors.New("mqtt link requires id and peer")

func init() {
	serial.Register("mqtt", Open)
	serial.Register("mqtts", Open)
}

// LinkTopic is the topic a board publishes its bytes to.
func LinkTopic(id string) string {
	return "link/" + id
}

// Link implements hal.SerialLink over a Queue.
type Link struct {
	Queue *mqtt.Queue
	ID    string
	Peer  string

	lock    sync.Mutex
	handler hal.LinkHandler
	txCh    chan byte
}

// New creates a Link.
func New(q *mqtt.Queue, id, peer string) *Link {
	return &Link{
		Queue: q,
		ID:    id,
		Peer:  peer,
		txCh:  make(chan byte, serial.DefaultQueueSize),
	}
}

// Open creates a Link from URL:
//
//	mqtt://host:1883/prefix/?id=board-a&peer=board-b
func Open(u *url.URL) (serial.Driver, error) {
	query := u.Query()
	id, peer := query.Get("id"), query.Get("peer")
	if id == "" || peer == "" {
		return nil, ErrMissingPeer
	}
	brokerURL := *u
	if u.Scheme == "mqtts" {
		brokerURL.Scheme = "ssl"
	}
	opts, topicPrefix, err := mqtt.ClientOptionsFromURL(brokerURL.String())
	if err != nil {
		return nil, err
	}
	if opts.ClientID == "" {
		opts.SetClientID("twinboard-link-" + id)
	}
	return New(mqtt.NewQueue(opts, topicPrefix), id, peer), nil
}

// SetHandler implements hal.SerialLink.
func (l *Link) SetHandler(h hal.LinkHandler) {
	l.lock.Lock()
	l.handler = h
	l.lock.Unlock()
}

// Send implements hal.SerialLink.
func (l *Link) Send(b byte) {
	select {
	case l.txCh <- b:
	default:
		glog.Warningf("link %s: %v", l.ID, serial.ErrQueueFull)
	}
}

// Run implements framework.Runnable.
func (l *Link) Run(ctx context.Context) error {
	token := l.Queue.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return err
	}
	defer l.Queue.Close()
	sub, err := l.Queue.Subscribe(LinkTopic(l.Peer), l.handleMsg)
	if err != nil {
		return err
	}
	defer sub.Close()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case b := <-l.txCh:
			if err := l.Queue.Publish(LinkTopic(l.ID), []byte{b}, false); err != nil {
				glog.Warningf("link %s publish: %v", l.ID, err)
			}
			if h := l.getHandler(); h != nil {
				h.HandleTransmitReady()
			}
		}
	}
}

func (l *Link) handleMsg(_ string, payload []byte) {
	h := l.getHandler()
	if h == nil {
		return
	}
	for _, b := range payload {
		h.HandleByte(b)
	}
}

func (l *Link) getHandler() hal.LinkHandler {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.handler
}
