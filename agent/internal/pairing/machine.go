// Package pairing drives authorization with the companion service and
// registers this application's actions one at a time.
//
// A Machine owns the session: its pairing state and the queue of actions
// awaiting registration. It is not safe for concurrent use; callers must
// deliver events from a single goroutine.
package pairing

import (
	"context"
	"strconv"
	"time"

	"talk2cam/agent/internal/action"
	"talk2cam/agent/internal/companion"
	"talk2cam/agent/internal/events"
	"talk2cam/agent/internal/logger"
	"talk2cam/agent/internal/state"
	"talk2cam/network"
)

// TransportUDP is the transport named in the authorization request.
const TransportUDP = "UDP"

// Companion is the presence and registration surface of the companion
// service.
type Companion interface {
	IsProInstalled() bool
	IsServiceInstalled() bool
	SendAuthorizationRequest(ctx context.Context, req companion.AuthRequest) error
	RegisterAction(ctx context.Context, d action.Descriptor) error
}

// Dispatcher runs trigger commands; it reports false for unknown ones.
type Dispatcher interface {
	Dispatch(ctx context.Context, command string) bool
}

type EventKind int

const (
	EventTransmissionReady EventKind = iota + 1
	EventInbound
)

// Event is one input to the machine.
type Event struct {
	Kind    EventKind
	Message network.Message
}

func TransmissionReadyEvent() Event { return Event{Kind: EventTransmissionReady} }

func InboundEvent(m network.Message) Event { return Event{Kind: EventInbound, Message: m} }

// Options is the application identity and the action set to register.
type Options struct {
	SessionID   string
	AppName     string
	Version     string
	AppKey      string
	Description string
	Port        int
	Actions     []action.Descriptor
}

type Machine struct {
	opts       Options
	companion  Companion
	dispatcher Dispatcher
	publisher  events.Publisher

	state state.Pairing
	queue action.Queue
	now   func() time.Time
}

// New returns a machine in Idle. A nil publisher drops events.
func New(opts Options, c Companion, d Dispatcher, p events.Publisher) *Machine {
	if p == nil {
		p = events.Nop{}
	}
	return &Machine{
		opts:       opts,
		companion:  c,
		dispatcher: d,
		publisher:  p,
		state:      state.Idle,
		now:        time.Now,
	}
}

func (m *Machine) State() state.Pairing { return m.state }

// Pending lists the commands still waiting for registration, head first.
func (m *Machine) Pending() []string { return m.queue.Commands() }

// Handle applies one event. Nothing is returned: failures of the
// collaborators are logged and the session carries on or stalls.
func (m *Machine) Handle(ctx context.Context, ev Event) {
	switch ev.Kind {
	case EventTransmissionReady:
		m.onTransmissionReady(ctx)
	case EventInbound:
		switch ev.Message.Kind {
		case network.KindAuthSuccess:
			m.onAuthSuccess(ctx)
		case network.KindCreateActionSuccess:
			m.onCreateActionSuccess(ctx)
		case network.KindTrigger:
			m.onTrigger(ctx, ev.Message.Text)
		default:
			logger.Debugf("Ignoring empty payload")
		}
	}
}

func (m *Machine) onTransmissionReady(ctx context.Context) {
	if m.state != state.Idle {
		logger.Debugf("Ignoring transmission ready in state %s", m.state)
		return
	}
	if !m.companion.IsProInstalled() && !m.companion.IsServiceInstalled() {
		logger.Warn("Companion service not installed, staying idle")
		return
	}
	req := companion.AuthRequest{
		AppName:     m.opts.AppName,
		Version:     m.opts.Version,
		AppKey:      m.opts.AppKey,
		Transport:   TransportUDP,
		Port:        strconv.Itoa(m.opts.Port),
		Description: m.opts.Description,
	}
	if err := m.companion.SendAuthorizationRequest(ctx, req); err != nil {
		logger.Errorf("Authorization request failed: %v", err)
	}
	m.advance(ctx, state.TransmissionReady)
}

func (m *Machine) onAuthSuccess(ctx context.Context) {
	if m.state != state.TransmissionReady {
		logger.Debugf("Ignoring AUTH_SUCCESS in state %s", m.state)
		return
	}
	m.advance(ctx, state.Authorized)
	m.queue.Enqueue(m.opts.Actions...)
	if !m.registerHead(ctx) {
		m.advance(ctx, state.Ready)
		return
	}
	m.advance(ctx, state.RegisteringActions)
}

func (m *Machine) onCreateActionSuccess(ctx context.Context) {
	if m.state != state.RegisteringActions {
		logger.Debugf("Ignoring CREATE_ACTION_SUCCESS in state %s", m.state)
		return
	}
	done, ok := m.queue.DequeueAck()
	if !ok {
		logger.Debugf("Ignoring CREATE_ACTION_SUCCESS with nothing in flight")
		return
	}
	logger.Infof("Action registered: %s", done.Command)
	if !m.registerHead(ctx) {
		m.advance(ctx, state.Ready)
	}
}

// registerHead requests registration of the queue head. It reports false
// when the queue is empty.
func (m *Machine) registerHead(ctx context.Context) bool {
	head, ok := m.queue.Head()
	if !ok || !m.queue.MarkInFlight() {
		return false
	}
	if err := m.companion.RegisterAction(ctx, head); err != nil {
		// the request counts as lost; the session stalls here
		logger.Errorf("Register action %s failed: %v", head.Command, err)
	}
	return true
}

func (m *Machine) onTrigger(ctx context.Context, command string) {
	handled := m.dispatcher != nil && m.dispatcher.Dispatch(ctx, command)
	if !handled {
		return
	}
	m.publish(ctx, events.Event{Type: events.TypeTrigger, Command: command, Handled: true})
}

func (m *Machine) advance(ctx context.Context, to state.Pairing) {
	if !state.CanAdvance(m.state, to) {
		logger.Errorf("Illegal pairing transition %s -> %s", m.state, to)
		return
	}
	logger.L.Info().
		Str("session", m.opts.SessionID).
		Str("from", m.state.String()).
		Str("to", to.String()).
		Msg("Pairing state changed")
	m.state = to
	m.publish(ctx, events.Event{Type: events.TypeStateChanged, State: to.String()})
}

func (m *Machine) publish(ctx context.Context, e events.Event) {
	e.SessionID = m.opts.SessionID
	e.At = m.now()
	if err := m.publisher.Publish(ctx, e); err != nil {
		logger.Warnf("Publish %s event failed: %v", e.Type, err)
	}
}
