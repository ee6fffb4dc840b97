package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/AaronLay10/cyclist/internal/events"
)

const (
	// recentEventsCount events are replayed to a new client.
	recentEventsCount = 50

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Access is controlled by basic auth on the route.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// eventStream is one WebSocket client following the event log.
type eventStream struct {
	conn     *websocket.Conn
	sub      events.Subscriber
	prefixes []string
}

func (s *eventStream) send(e events.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return nil
	}
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *eventStream) close() {
	events.Unsubscribe(s.sub)
	s.conn.Close()
}

// readLoop consumes control frames until the peer goes away.
func (s *eventStream) readLoop(done chan<- struct{}) {
	defer close(done)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *eventStream) run() {
	defer s.close()

	for _, e := range events.RecentEvents(recentEventsCount) {
		if !matchesPrefix(s.prefixes, e.Name) {
			continue
		}
		if err := s.send(e); err != nil {
			log.Printf("ws replay failed: %v", err)
			return
		}
	}

	done := make(chan struct{})
	go s.readLoop(done)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case e, ok := <-s.sub:
			if !ok {
				return
			}
			if err := s.send(e); err != nil {
				log.Printf("ws write failed: %v", err)
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// wsEventsHandler streams events over a WebSocket. Repeated ?prefix=
// parameters limit the stream to matching event names.
func wsEventsHandler(w http.ResponseWriter, r *http.Request) {
	prefixes := r.URL.Query()["prefix"]
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	stream := &eventStream{conn: conn, sub: events.Subscribe(prefixes...), prefixes: prefixes}
	stream.run()
}

func matchesPrefix(prefixes []string, name string) bool {
	if len(prefixes) == 0 {
		return true
	}
	for _, p := range prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}
