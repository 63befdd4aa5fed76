package monitoring

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	subscriberBuffer = 16
	writeTimeout     = time.Second
)

type subscriber struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

func (m *Monitor) stream(w http.ResponseWriter, r *http.Request) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("monitoring: upgrade failed: %v", err)
		return
	}

	sub := &subscriber{
		conn: conn,
		send: make(chan []byte, subscriberBuffer),
		done: make(chan struct{}),
	}

	m.subscribersLock.Lock()
	m.subscribers[sub] = struct{}{}
	m.subscribersLock.Unlock()

	if data, err := json.Marshal(m.Snapshot()); err == nil {
		select {
		case sub.send <- data:
		default:
		}
	}

	go m.readUntilClosed(sub)
	m.writeLoop(sub)
}

// readUntilClosed drains the connection so that close frames from the
// client are seen.
func (m *Monitor) readUntilClosed(sub *subscriber) {
	defer m.unsubscribe(sub)

	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (m *Monitor) writeLoop(sub *subscriber) {
	defer sub.conn.Close()

	for {
		select {
		case data := <-sub.send:
			_ = sub.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := sub.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				m.unsubscribe(sub)
				return
			}
		case <-sub.done:
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = sub.conn.WriteControl(websocket.CloseMessage, msg,
				time.Now().Add(writeTimeout))
			return
		}
	}
}

func (m *Monitor) unsubscribe(sub *subscriber) {
	m.subscribersLock.Lock()
	defer m.subscribersLock.Unlock()

	if _, ok := m.subscribers[sub]; !ok {
		return
	}

	delete(m.subscribers, sub)
	close(sub.done)
}

func (m *Monitor) closeSubscribers() {
	m.subscribersLock.Lock()
	defer m.subscribersLock.Unlock()

	for sub := range m.subscribers {
		delete(m.subscribers, sub)
		close(sub.done)
	}
}

// publish sends the snapshot to every subscriber. A subscriber that cannot
// keep up misses snapshots; the bus is never slowed down.
func (m *Monitor) publish(snapshot Snapshot) {
	m.subscribersLock.Lock()
	defer m.subscribersLock.Unlock()

	if len(m.subscribers) == 0 {
		return
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		log.Printf("monitoring: %v", err)
		return
	}

	for sub := range m.subscribers {
		select {
		case sub.send <- data:
		default:
		}
	}
}

// NumSubscribers returns the number of connected stream subscribers.
func (m *Monitor) NumSubscribers() int {
	m.subscribersLock.Lock()
	defer m.subscribersLock.Unlock()

	return len(m.subscribers)
}
