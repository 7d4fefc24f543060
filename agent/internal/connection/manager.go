package connection

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"time"

	"talk2cam/agent/internal/logger"
	"talk2cam/agent/internal/pairing"
	"talk2cam/network"
)

// Receiver yields inbound datagrams. *network.UDPChannel satisfies it.
type Receiver interface {
	Receive(ctx context.Context) (network.Datagram, error)
}

// Handler consumes session events one at a time.
type Handler interface {
	Handle(ctx context.Context, ev pairing.Event)
}

const (
	inboxSize  = 64
	retryDelay = time.Second
)

// Manager is the session event loop. Datagrams read off the channel and
// companion readiness are funnelled through one inbox, and the handler
// sees them strictly in order, one at a time.
type Manager struct {
	rx      Receiver
	handler Handler
	ready   <-chan struct{}

	inbox  chan pairing.Event
	doneCh chan struct{}
	ran    atomic.Bool
}

// ErrAlreadyRun is returned by Run on a Manager that has run before.
var ErrAlreadyRun = errors.New("event loop already ran")

// New wires rx and ready to h. ready may be nil when the caller delivers
// the transmission ready event itself through Post.
func New(rx Receiver, h Handler, ready <-chan struct{}) *Manager {
	return &Manager{
		rx:      rx,
		handler: h,
		ready:   ready,
		inbox:   make(chan pairing.Event, inboxSize),
		doneCh:  make(chan struct{}),
	}
}

// Post queues an event for the loop. It blocks while the inbox is full
// and gives up when ctx is done.
func (m *Manager) Post(ctx context.Context, ev pairing.Event) bool {
	if ctx.Err() != nil {
		return false
	}
	select {
	case m.inbox <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// Run processes events until ctx is done. A Manager runs once.
func (m *Manager) Run(ctx context.Context) error {
	if !m.ran.CompareAndSwap(false, true) {
		return ErrAlreadyRun
	}
	defer close(m.doneCh)

	recvDone := make(chan struct{})
	go func() {
		defer close(recvDone)
		m.receiveLoop(ctx)
	}()

	ready := m.ready
	for {
		select {
		case <-ctx.Done():
			<-recvDone
			logger.Info("Event loop stopped")
			return nil
		case <-ready:
			ready = nil
			m.handler.Handle(ctx, pairing.TransmissionReadyEvent())
		case ev := <-m.inbox:
			m.handler.Handle(ctx, ev)
		}
	}
}

// Done is closed after Run returns.
func (m *Manager) Done() <-chan struct{} { return m.doneCh }

func (m *Manager) receiveLoop(ctx context.Context) {
	for {
		dg, err := m.rx.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			logger.Errorf("Receive failed: %v. Will retry...", err)
			select {
			case <-time.After(retryDelay):
			case <-ctx.Done():
				return
			}
			continue
		}
		msg := dg.Message()
		logger.Debugf("Datagram from %v: %q (%s)", dg.From, msg.Text, msg.Kind)
		if !m.Post(ctx, pairing.InboundEvent(msg)) {
			return
		}
	}
}
