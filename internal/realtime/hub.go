package realtime

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

const (
	sendBuffer      = 32
	broadcastBuffer = 256
)

// Conn is the write side of a websocket connection.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// Event is the frame pushed to subscribers.
type Event struct {
	Kind string `json:"kind"`
	Data any    `json:"data"`
}

type envelope struct {
	topic string
	event Event
}

type subscriber struct {
	conn   Conn
	topics []string
	send   chan Event
}

// Hub fans events out to websocket subscribers by topic. All subscriber
// bookkeeping happens on the Run goroutine.
type Hub struct {
	register   chan *subscriber
	unregister chan *subscriber
	broadcast  chan envelope
	done       chan struct{}
	stopOnce   sync.Once
	log        *logrus.Logger
}

func NewHub(log *logrus.Logger) *Hub {
	return &Hub{
		register:   make(chan *subscriber),
		unregister: make(chan *subscriber),
		broadcast:  make(chan envelope, broadcastBuffer),
		done:       make(chan struct{}),
		log:        log,
	}
}

func RoomTopic(roomID string) string { return "room:" + roomID }
func UserTopic(userID string) string { return "user:" + userID }
func RoleTopic(role string) string   { return "role:" + role }

// Run serves subscriptions until ctx is cancelled, then closes every
// connection.
func (h *Hub) Run(ctx context.Context) error {
	topics := make(map[string]map[*subscriber]struct{})
	members := make(map[*subscriber]struct{})

	remove := func(s *subscriber) {
		if _, ok := members[s]; !ok {
			return
		}
		delete(members, s)
		for _, topic := range s.topics {
			delete(topics[topic], s)
			if len(topics[topic]) == 0 {
				delete(topics, topic)
			}
		}
		close(s.send)
	}

	for {
		select {
		case <-ctx.Done():
			for s := range members {
				remove(s)
			}
			h.stopOnce.Do(func() { close(h.done) })
			return nil

		case s := <-h.register:
			members[s] = struct{}{}
			for _, topic := range s.topics {
				if topics[topic] == nil {
					topics[topic] = make(map[*subscriber]struct{})
				}
				topics[topic][s] = struct{}{}
			}

		case s := <-h.unregister:
			remove(s)

		case msg := <-h.broadcast:
			for s := range topics[msg.topic] {
				select {
				case s.send <- msg.event:
				default:
					h.log.WithField("topic", msg.topic).Warn("subscriber too slow, dropping")
					remove(s)
				}
			}
		}
	}
}

// Subscribe attaches conn to the given topics. The returned func detaches it
// and closes the connection; it is safe to call more than once.
func (h *Hub) Subscribe(conn Conn, topics ...string) func() {
	s := &subscriber{
		conn:   conn,
		topics: topics,
		send:   make(chan Event, sendBuffer),
	}
	go h.writeLoop(s)

	select {
	case h.register <- s:
	case <-h.done:
		close(s.send)
		return func() {}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			select {
			case h.unregister <- s:
			case <-h.done:
			}
		})
	}
}

func (h *Hub) writeLoop(s *subscriber) {
	failed := false
	for event := range s.send {
		if failed {
			continue
		}
		if err := s.conn.WriteJSON(event); err != nil {
			h.log.WithError(err).Debug("websocket write failed")
			failed = true
		}
	}
	s.conn.Close()
}

func (h *Hub) publish(topic, kind string, data any) {
	select {
	case h.broadcast <- envelope{topic: topic, event: Event{Kind: kind, Data: data}}:
	case <-h.done:
	}
}

func (h *Hub) PublishToUser(userID, kind string, data any) {
	h.publish(UserTopic(userID), kind, data)
}

func (h *Hub) PublishToRole(role, kind string, data any) {
	h.publish(RoleTopic(role), kind, data)
}

func (h *Hub) PublishToRoom(roomID, kind string, data any) {
	h.publish(RoomTopic(roomID), kind, data)
}
