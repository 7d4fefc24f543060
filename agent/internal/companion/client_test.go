package companion

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"talk2cam/agent/internal/action"
	"talk2cam/agent/internal/presence"
)

type sent struct {
	host    string
	port    int
	payload []byte
}

type recordingSender struct {
	sent []sent
	err  error
}

func (r *recordingSender) Send(host string, port int, payload []byte) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, sent{host, port, payload})
	return nil
}

func decode(t *testing.T, b []byte, data interface{}) string {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(b, &env))
	require.NoError(t, json.Unmarshal(env.Data, data))
	return env.Action
}

func TestSendAuthorizationRequest(t *testing.T) {
	s := &recordingSender{}
	c := New(s, "127.0.0.1", 9112, presence.Static{Pro: true})

	req := AuthRequest{
		AppName:     "Talk2Cam",
		Version:     "1.0.0",
		AppKey:      "key",
		Transport:   "UDP",
		Port:        "9113",
		Description: "helper",
	}
	require.NoError(t, c.SendAuthorizationRequest(context.Background(), req))
	require.Len(t, s.sent, 1)
	require.Equal(t, "127.0.0.1", s.sent[0].host)
	require.Equal(t, 9112, s.sent[0].port)

	var got AuthRequest
	require.Equal(t, ActionAuthorize, decode(t, s.sent[0].payload, &got))
	require.Equal(t, req, got)
}

func TestRegisterActionAndNotify(t *testing.T) {
	s := &recordingSender{}
	c := New(s, "127.0.0.1", 9112, nil)

	require.NoError(t, c.RegisterAction(context.Background(), action.TakePicture))
	require.NoError(t, c.SendNotification(context.Background(), "Picture saved", "You look nice!"))
	require.Len(t, s.sent, 2)

	var ca createActionData
	require.Equal(t, ActionCreateAction, decode(t, s.sent[0].payload, &ca))
	require.Equal(t, createActionData{"Smile!", "TALK2WATCH_TAKE_PICTURE", "Take a picture"}, ca)

	var n notifyData
	require.Equal(t, ActionNotify, decode(t, s.sent[1].payload, &n))
	require.Equal(t, notifyData{"Picture saved", "You look nice!"}, n)
}

func TestSendErrors(t *testing.T) {
	boom := errors.New("boom")
	c := New(&recordingSender{err: boom}, "127.0.0.1", 9112, nil)
	require.ErrorIs(t, c.SendNotification(context.Background(), "t", "b"), boom)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := &recordingSender{}
	c = New(s, "127.0.0.1", 9112, nil)
	require.ErrorIs(t, c.SendNotification(ctx, "t", "b"), context.Canceled)
	require.Empty(t, s.sent)
}

func TestPresence(t *testing.T) {
	c := New(&recordingSender{}, "h", 1, presence.Static{Service: true})
	require.False(t, c.IsProInstalled())
	require.True(t, c.IsServiceInstalled())

	c = New(&recordingSender{}, "h", 1, nil)
	require.False(t, c.IsProInstalled())
	require.False(t, c.IsServiceInstalled())
}

func TestStartClosesReadyOnce(t *testing.T) {
	c := New(&recordingSender{}, "h", 1, nil)
	select {
	case <-c.Ready():
		t.Fatal("ready before Start")
	default:
	}
	c.Start()
	c.Start()
	<-c.Ready()
}
