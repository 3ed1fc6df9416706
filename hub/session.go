// Package main implements the hub's per-device session manager: the
// inbound/outbound goroutine pair that drives one device's WebSocket
// connection from upgrade to close.
package main

import (
	"encoding/json"
	"time"

	"github.com/clipharbor/hub/shared/models"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// pingInterval bounds how long the outbound loop waits for a broadcast
// message before sending a keepalive ping, so idle connections are still
// detected as alive (or dead) promptly rather than waiting on TCP-level
// timeouts.
const pingInterval = 5 * time.Second

// Session drives a single device's WebSocket connection: one goroutine
// reads incoming clips and feeds them into shared state, another writes
// outgoing broadcasts (and periodic pings) back to the device. WHY two
// goroutines: gorilla/websocket connections only support one concurrent
// reader and one concurrent writer, so inbound and outbound traffic need
// their own goroutines rather than interleaving on one.
type Session struct {
	deviceID string
	conn     *websocket.Conn
	state    *State
}

// NewSession wraps conn for deviceID.
func NewSession(deviceID string, conn *websocket.Conn, state *State) *Session {
	return &Session{deviceID: deviceID, conn: conn, state: state}
}

// Run drives the session to completion: it registers the device online,
// starts the outbound loop, runs the inbound loop on the calling goroutine,
// and tears everything down on exit. It returns once the connection is
// closed, by either direction.
func (sess *Session) Run() {
	sess.state.MarkOnline(sess.deviceID)
	ch := sess.state.broadcaster.Subscribe(sess.deviceID)

	done := make(chan struct{})
	go sess.outbound(ch, done)

	sess.inbound()

	close(done)
	sess.state.broadcaster.Unsubscribe(sess.deviceID, ch)
	sess.state.MarkOffline(sess.deviceID)
	sess.conn.Close()
	log.WithField("device", sess.deviceID).Info("session closed")
}

// inbound reads clipboard messages pushed by the device and indexes them.
//
// WHY validate source == device_id: the path segment names which device
// this connection belongs to; a message claiming a different source would
// let one device impersonate another's clipboard history. Mismatched or
// malformed messages are logged and dropped rather than closing the
// connection, since one bad message shouldn't cost the device its session.
func (sess *Session) inbound() {
	for {
		_, data, err := sess.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg models.ClipboardMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.WithFields(log.Fields{"device": sess.deviceID, "error": err}).Warn("dropping malformed clipboard message")
			continue
		}
		if msg.Entry.Source != sess.deviceID {
			log.WithFields(log.Fields{"device": sess.deviceID, "claimed": msg.Entry.Source}).Warn("dropping message with mismatched source")
			continue
		}
		if err := sess.state.Validate(msg.Entry); err != nil {
			log.WithFields(log.Fields{"device": sess.deviceID, "error": err}).Warn("dropping invalid clipboard message")
			continue
		}
		if msg.Timestamp == 0 {
			msg.Timestamp = Now().Unix()
		}

		if _, err := sess.state.AddEntry(msg); err != nil {
			log.WithFields(log.Fields{"device": sess.deviceID, "error": err}).Error("failed to index clipboard message")
		}
	}
}

// outbound forwards broadcast messages to the device and sends a ping
// whenever none arrive within pingInterval, so idle connections still
// round-trip a frame instead of going silent until the OS notices a drop.
//
// WHY lag is terminal: the broadcaster closes a lagged subscriber's
// channel itself (see broadcast.go); a channel closed for any reason ends
// the outbound loop and, transitively, the session.
func (sess *Session) outbound(ch <-chan *models.ClipboardMessage, done <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case msg, ok := <-ch:
			if !ok {
				sess.conn.Close()
				return
			}
			data, err := json.Marshal(msg)
			if err != nil {
				log.WithFields(log.Fields{"device": sess.deviceID, "error": err}).Error("failed to marshal outbound message")
				continue
			}
			if err := sess.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
			ticker.Reset(pingInterval)
		case <-ticker.C:
			if err := sess.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
