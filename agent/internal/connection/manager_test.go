package connection

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"talk2cam/agent/internal/action"
	"talk2cam/agent/internal/camera"
	"talk2cam/agent/internal/command"
	"talk2cam/agent/internal/companion"
	"talk2cam/agent/internal/pairing"
	"talk2cam/agent/internal/presence"
	"talk2cam/agent/internal/state"
	"talk2cam/network"
)

// peer plays the companion service on its own socket.
type peer struct {
	t  *testing.T
	ch *network.UDPChannel
}

func (p *peer) expect(want string) json.RawMessage {
	p.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	dg, err := p.ch.Receive(ctx)
	require.NoError(p.t, err)
	var env companion.Envelope
	require.NoError(p.t, json.Unmarshal(dg.Payload, &env))
	require.Equal(p.t, want, env.Action)
	return env.Data
}

func (p *peer) reply(port int, text string) {
	p.t.Helper()
	require.NoError(p.t, p.ch.Send("127.0.0.1", port, []byte(text)))
}

func TestSessionOverUDP(t *testing.T) {
	agentCh, err := network.ListenUDP("127.0.0.1", 0)
	require.NoError(t, err)
	defer agentCh.Close()
	peerCh, err := network.ListenUDP("127.0.0.1", 0)
	require.NoError(t, err)
	defer peerCh.Close()
	p := &peer{t: t, ch: peerCh}

	client := companion.New(agentCh, "127.0.0.1", peerCh.Port(), presence.Static{Pro: true})
	cam := camera.New(nil, t.TempDir(), "s1")
	dispatcher := command.NewManager()
	dispatcher.Register(action.TakePicture.Command, command.TakePicture{Camera: cam, Notifier: client})

	machine := pairing.New(pairing.Options{
		SessionID: "s1",
		AppName:   "Talk2Cam",
		Version:   "1.0.0",
		AppKey:    "key",
		Port:      agentCh.Port(),
		Actions:   action.DefaultSet(),
	}, client, dispatcher, nil)

	loop := New(agentCh, machine, client.Ready())
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = loop.Run(ctx) }()

	client.Start()

	var auth companion.AuthRequest
	require.NoError(t, json.Unmarshal(p.expect(companion.ActionAuthorize), &auth))
	require.Equal(t, "UDP", auth.Transport)
	require.Equal(t, "Talk2Cam", auth.AppName)

	p.reply(agentCh.Port(), network.LiteralAuthSuccess)
	var created map[string]string
	require.NoError(t, json.Unmarshal(p.expect(companion.ActionCreateAction), &created))
	require.Equal(t, "TALK2WATCH_TAKE_PICTURE", created["command"])

	p.reply(agentCh.Port(), network.LiteralCreateActionSuccess)

	p.reply(agentCh.Port(), "TALK2WATCH_TAKE_PICTURE\n")
	var n map[string]string
	require.NoError(t, json.Unmarshal(p.expect(companion.ActionNotify), &n))
	require.Equal(t, command.StartingTitle, n["title"])

	p.reply(agentCh.Port(), "TALK2WATCH_TAKE_PICTURE")
	require.NoError(t, json.Unmarshal(p.expect(companion.ActionNotify), &n))
	require.Equal(t, "Picture saved", n["title"])
	require.Equal(t, "You look nice!", n["body"])

	cancel()
	<-loop.Done()
	require.Equal(t, state.Ready, machine.State())
	_, ok := cam.LastPhoto()
	require.True(t, ok)
}

type scriptedReceiver struct {
	mu   sync.Mutex
	msgs []string
	err  error
}

func (r *scriptedReceiver) Receive(ctx context.Context) (network.Datagram, error) {
	r.mu.Lock()
	if len(r.msgs) > 0 {
		m := r.msgs[0]
		r.msgs = r.msgs[1:]
		r.mu.Unlock()
		return network.Datagram{Payload: []byte(m)}, nil
	}
	err := r.err
	r.mu.Unlock()
	if err != nil {
		return network.Datagram{}, err
	}
	<-ctx.Done()
	return network.Datagram{}, ctx.Err()
}

// recordingHandler checks that Handle is never entered concurrently.
type recordingHandler struct {
	mu     sync.Mutex
	busy   bool
	events []pairing.Event
	seen   chan struct{}
}

func (h *recordingHandler) Handle(_ context.Context, ev pairing.Event) {
	h.mu.Lock()
	if h.busy {
		h.mu.Unlock()
		panic("concurrent Handle")
	}
	h.busy = true
	h.mu.Unlock()

	time.Sleep(time.Millisecond)

	h.mu.Lock()
	h.events = append(h.events, ev)
	h.busy = false
	h.mu.Unlock()
	h.seen <- struct{}{}
}

func TestEventsDeliveredInOrder(t *testing.T) {
	rx := &scriptedReceiver{msgs: []string{"AUTH_SUCCESS", "CREATE_ACTION_SUCCESS", "X", "Y"}}
	h := &recordingHandler{seen: make(chan struct{}, 16)}
	ready := make(chan struct{})
	close(ready)

	loop := New(rx, h, ready)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = loop.Run(ctx) }()

	for i := 0; i < 5; i++ {
		select {
		case <-h.seen:
		case <-time.After(3 * time.Second):
			t.Fatal("timed out waiting for events")
		}
	}
	cancel()
	<-loop.Done()

	var inbound []string
	readies := 0
	for _, ev := range h.events {
		switch ev.Kind {
		case pairing.EventTransmissionReady:
			readies++
		case pairing.EventInbound:
			inbound = append(inbound, ev.Message.Text)
		}
	}
	require.Equal(t, 1, readies)
	require.Equal(t, []string{"AUTH_SUCCESS", "CREATE_ACTION_SUCCESS", "X", "Y"}, inbound)
}

func TestPostAndStopWhileReceiveFails(t *testing.T) {
	rx := &scriptedReceiver{err: errors.New("recv: connection refused")}
	h := &recordingHandler{seen: make(chan struct{}, 4)}
	loop := New(rx, h, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = loop.Run(ctx) }()

	require.True(t, loop.Post(ctx, pairing.TransmissionReadyEvent()))
	select {
	case <-h.seen:
	case <-time.After(3 * time.Second):
		t.Fatal("posted event not handled")
	}
	cancel()
	select {
	case <-loop.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("loop did not stop")
	}
	require.False(t, loop.Post(ctx, pairing.TransmissionReadyEvent()))
}

func TestRunIsSingleUse(t *testing.T) {
	rx := &scriptedReceiver{}
	h := &recordingHandler{seen: make(chan struct{}, 4)}
	loop := New(rx, h, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, loop.Run(ctx))
	<-loop.Done()
	require.ErrorIs(t, loop.Run(context.Background()), ErrAlreadyRun)
}
