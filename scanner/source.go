package scanner

import (
	"context"
	"sync"
)

// Source opens the underlying capture device. Implementations wrap whatever
// actually produces decoded QR payloads: the websocket feed, a hardware
// decoder, a test fake.
type Source interface {
	Open(ctx context.Context) (Subscription, error)
}

// Subscription is an open capture handle. Payloads delivers decoded QR
// payloads until the subscription closes; Close releases the capture device
// and must be safe to call more than once.
type Subscription interface {
	Payloads() <-chan []byte
	Close() error
}

// singleShot delivers at most one payload and releases the underlying
// capture the moment it fires, so a continuous decoder can never deliver a
// second decode while the first is being evaluated.
type singleShot struct {
	inner Subscription
	out   chan []byte
	done  chan struct{}
	once  sync.Once
}

func newSingleShot(inner Subscription) *singleShot {
	s := &singleShot{
		inner: inner,
		out:   make(chan []byte, 1),
		done:  make(chan struct{}),
	}
	go s.forward()
	return s
}

func (s *singleShot) forward() {
	defer close(s.out)
	select {
	case payload, ok := <-s.inner.Payloads():
		// Unsubscribe before the payload is observable downstream.
		s.inner.Close()
		if ok {
			s.out <- payload
		}
	case <-s.done:
	}
}

func (s *singleShot) Payloads() <-chan []byte { return s.out }

func (s *singleShot) Close() error {
	s.once.Do(func() { close(s.done) })
	return s.inner.Close()
}
