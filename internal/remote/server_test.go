package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/carviewer/internal/engine/scene"
	"github.com/Faultbox/carviewer/internal/engine/vehicle"
	"github.com/Faultbox/carviewer/internal/viewer"
)

// startViewer loads a small car and ticks the viewer on its own goroutine
// until the test ends.
func startViewer(t *testing.T) *viewer.Viewer {
	t.Helper()
	root := scene.NewGroup("car")
	root.Add(scene.NewMesh("body",
		scene.NewBox(mgl32.Vec3{-1, 0, -2}, mgl32.Vec3{1, 1.5, 2}),
		scene.NewMaterial("paint")))
	for _, role := range vehicle.Roles {
		root.Add(scene.NewGroup(role))
	}

	v := viewer.New(viewer.Options{Settings: viewer.DefaultSettings()})
	v.SetContent(scene.NewAsset("car.glb", root))
	v.Tick(0)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(2 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				v.Tick(0.016)
			}
		}
	}()
	t.Cleanup(func() {
		cancel()
		wg.Wait()
	})
	return v
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, msg string) Reply {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(msg)))
	var r Reply
	require.NoError(t, conn.ReadJSON(&r))
	return r
}

func newTestServer(t *testing.T, target Target, opts ...Option) (*Server, *httptest.Server) {
	t.Helper()
	s := NewServer("127.0.0.1:0", target, opts...)
	hs := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
		hs.Close()
	})
	return s, hs
}

func TestSelectView(t *testing.T) {
	v := startViewer(t)
	_, hs := newTestServer(t, v)
	conn := dial(t, hs)

	r := roundTrip(t, conn, `{"id":"1","type":"selectView","name":"front"}`)
	assert.True(t, r.OK, r.Error)
	assert.Equal(t, "1", r.ID)
	require.NotNil(t, r.View)
	assert.Equal(t, "front", r.View.ActivePose)
	assert.False(t, r.View.UserControlEnabled)
}

func TestSelectUnknownView(t *testing.T) {
	v := startViewer(t)
	_, hs := newTestServer(t, v)
	conn := dial(t, hs)

	r := roundTrip(t, conn, `{"type":"selectView","name":"roof"}`)
	assert.False(t, r.OK)
	assert.Contains(t, r.Error, "roof")
	require.NotNil(t, r.View)
	assert.Equal(t, "first_look", r.View.ActivePose)
}

func TestSteerToggle(t *testing.T) {
	v := startViewer(t)
	_, hs := newTestServer(t, v)
	conn := dial(t, hs)

	steps := []struct {
		direction string
		want      string
	}{
		{"left", "left"},
		{"right", "right"},
		{"right", "center"},
		{"center", "center"},
	}
	for _, step := range steps {
		r := roundTrip(t, conn, `{"type":"steer","direction":"`+step.direction+`"}`)
		assert.True(t, r.OK, r.Error)
		assert.Equal(t, step.want, r.Steer, "steer %s", step.direction)
	}
}

func TestRejectedCommands(t *testing.T) {
	v := startViewer(t)
	_, hs := newTestServer(t, v)
	conn := dial(t, hs)

	tests := []struct {
		name string
		msg  string
		want string
	}{
		{"not json", `{`, ErrBadCommand.Error()},
		{"unknown type", `{"type":"honk"}`, ErrUnknownCommand.Error()},
		{"missing name", `{"type":"selectView"}`, "needs a name"},
		{"bad direction", `{"type":"steer","direction":"up"}`, ErrBadCommand.Error()},
		{"missing exposure", `{"type":"exposure"}`, "needs a value"},
		{"negative exposure", `{"type":"exposure","value":-1}`, "out of range"},
		{"missing path", `{"type":"load"}`, "needs a path"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := roundTrip(t, conn, tt.msg)
			assert.False(t, r.OK)
			assert.Contains(t, r.Error, tt.want)
			assert.Nil(t, r.View)
		})
	}
}

func TestExposureAndState(t *testing.T) {
	v := startViewer(t)
	_, hs := newTestServer(t, v)
	conn := dial(t, hs)

	r := roundTrip(t, conn, `{"type":"exposure","value":1.5}`)
	require.True(t, r.OK, r.Error)

	// The reply is sent mid-tick; the snapshot lands at the end of it.
	var st viewer.State
	require.Eventually(t, func() bool {
		resp, err := http.Get(hs.URL + "/state")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		st = viewer.State{}
		if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
			return false
		}
		return st.Exposure == 1.5
	}, 2*time.Second, 10*time.Millisecond)

	assert.True(t, st.AssetLoaded)
	assert.Equal(t, "car.glb", st.Asset)
	assert.Contains(t, st.Poses, "front")
}

func TestStateRejectsPost(t *testing.T) {
	v := startViewer(t)
	_, hs := newTestServer(t, v)

	resp, err := http.Post(hs.URL+"/state", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	v := startViewer(t)
	s, hs := newTestServer(t, v)
	dial(t, hs)

	require.Eventually(t, func() bool { return s.Clients() == 1 }, time.Second, 5*time.Millisecond)

	resp, err := http.Get(hs.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, float64(1), body["clients"])
	assert.Equal(t, true, body["loaded"])
}

// stalled never runs posted work, like a frame loop that has stopped.
type stalled struct {
	*viewer.Viewer
}

func (stalled) Post(func()) {}

func TestShutdownReleasesWaitingCommand(t *testing.T) {
	target := stalled{viewer.New(viewer.Options{Settings: viewer.DefaultSettings()})}
	s, hs := newTestServer(t, target)
	conn := dial(t, hs)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"state"}`)))
	require.Eventually(t, func() bool { return s.Clients() == 1 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var r Reply
	err := conn.ReadJSON(&r)
	if err == nil {
		assert.Equal(t, ErrClosed.Error(), r.Error)
	}
	assert.Zero(t, s.Clients())
}

func TestOriginCheck(t *testing.T) {
	v := startViewer(t)
	_, hs := newTestServer(t, v)

	tests := []struct {
		origin string
		ok     bool
	}{
		{"http://localhost:3000", true},
		{"http://127.0.0.1:5173", true},
		{"http://[::1]:8080", true},
		{"https://evil.example", false},
		{"http://192.168.1.20", false},
		{"null", false},
	}
	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			conn, resp, err := websocket.DefaultDialer.Dial(wsURL(hs), http.Header{"Origin": {tt.origin}})
			if tt.ok {
				require.NoError(t, err)
				conn.Close()
				return
			}
			require.ErrorIs(t, err, websocket.ErrBadHandshake)
			require.NotNil(t, resp)
			assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		})
	}
}

func TestLoadDisabledByDefault(t *testing.T) {
	v := startViewer(t)
	_, hs := newTestServer(t, v)
	conn := dial(t, hs)

	r := roundTrip(t, conn, `{"type":"load","path":"/etc/passwd"}`)
	assert.False(t, r.OK)
	assert.Equal(t, ErrLoadDisabled.Error(), r.Error)
	assert.Nil(t, r.View)

	time.Sleep(20 * time.Millisecond)
	st := v.Snapshot()
	assert.Equal(t, "car.glb", st.Asset)
	assert.False(t, st.Loading)
	assert.Empty(t, st.LoadError)
}

func TestLoadAllowed(t *testing.T) {
	v := startViewer(t)
	_, hs := newTestServer(t, v, WithLoad(true))
	conn := dial(t, hs)

	r := roundTrip(t, conn, `{"type":"load","path":"other.glb"}`)
	assert.True(t, r.OK, r.Error)

	// This viewer has no loader, so the request reaches it and fails there.
	require.Eventually(t, func() bool {
		return v.Snapshot().LoadError != ""
	}, 2*time.Second, 10*time.Millisecond)
}
