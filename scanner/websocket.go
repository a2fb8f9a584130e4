package scanner

import (
	"context"
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// FeedSource captures QR payloads from the authority's live websocket feed,
// the remote analog of pointing a camera at the teacher's screen.
type FeedSource struct {
	url    string
	dialer *websocket.Dialer
}

func NewFeedSource(url string) *FeedSource {
	return &FeedSource{url: url, dialer: websocket.DefaultDialer}
}

func (s *FeedSource) Open(ctx context.Context) (Subscription, error) {
	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return nil, err
	}

	sub := &feedSubscription{
		conn:     conn,
		payloads: make(chan []byte),
		done:     make(chan struct{}),
	}
	go sub.read()
	return sub, nil
}

type feedSubscription struct {
	conn     *websocket.Conn
	payloads chan []byte
	done     chan struct{}
	once     sync.Once
}

func (f *feedSubscription) read() {
	defer close(f.payloads)
	for {
		_, message, err := f.conn.ReadMessage()
		if err != nil {
			// Closed locally or by the feed; either way the capture is done.
			return
		}
		select {
		case f.payloads <- message:
		case <-f.done:
			return
		}
	}
}

func (f *feedSubscription) Payloads() <-chan []byte { return f.payloads }

func (f *feedSubscription) Close() error {
	f.once.Do(func() {
		close(f.done)
		if err := f.conn.Close(); err != nil {
			log.Println("Failed to close feed connection:", err)
		}
	})
	return nil
}
