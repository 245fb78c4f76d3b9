package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"
)

// outEvent is the wire envelope for every outbound socket event.
type outEvent struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// connSink queues events for one connection and writes them in order from a
// single goroutine, so emitters never block on peer I/O and concurrent
// handlers never interleave writes.
type connSink struct {
	ws   *websocket.Conn
	out  chan outEvent
	done chan struct{}
	once sync.Once
	log  zerolog.Logger
}

func newConnSink(ws *websocket.Conn, log zerolog.Logger) *connSink {
	s := &connSink{
		ws:   ws,
		out:  make(chan outEvent, 64),
		done: make(chan struct{}),
		log:  log,
	}
	go s.writeLoop()
	return s
}

// Emit queues an event for this connection. Once the connection is closed
// events are dropped; there is no one left to read them.
func (s *connSink) Emit(event string, payload any) {
	select {
	case s.out <- outEvent{Event: event, Data: payload}:
	case <-s.done:
	}
}

func (s *connSink) Close() {
	s.once.Do(func() { close(s.done) })
}

func (s *connSink) writeLoop() {
	for {
		select {
		case <-s.done:
			return
		case e := <-s.out:
			data, err := json.Marshal(e)
			if err != nil {
				s.log.Warn().Err(err).Str("event", e.Event).Msg("failed to marshal outbound event")
				continue
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			err = s.ws.Write(ctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				s.log.Debug().Err(err).Msg("socket write failed, closing sink")
				s.Close()
				return
			}
		}
	}
}
