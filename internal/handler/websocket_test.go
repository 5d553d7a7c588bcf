package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/haatos/gitbridge/internal/service"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLiveUpdateServer(t *testing.T) (*httptest.Server, *service.Broadcaster) {
	t.Helper()
	b := service.NewBroadcaster(service.NewClientSet(), zerolog.Nop())
	e := newTestEcho()
	SetupLiveUpdateRoutes(e, b, []string{"*"})
	srv := httptest.NewServer(e)
	t.Cleanup(func() {
		b.Shutdown()
		srv.Close()
	})
	return srv, b
}

func dialLiveUpdates(t *testing.T, ctx context.Context, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.CloseNow() })

	var ack service.ConnectionMessage
	readJSON(t, ctx, conn, &ack)
	assert.Equal(t, service.MessageTypeConnection, ack.Type)
	assert.NotEmpty(t, ack.Timestamp)
	return conn
}

func readJSON(t *testing.T, ctx context.Context, conn *websocket.Conn, v any) {
	t.Helper()
	typ, data, err := conn.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, websocket.MessageText, typ)
	require.NoError(t, json.Unmarshal(data, v))
}

func TestLiveUpdateHandler_GetLiveUpdates(t *testing.T) {
	t.Run("success - connected client receives broadcast", func(t *testing.T) {
		// arrange
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv, b := newLiveUpdateServer(t)
		conn := dialLiveUpdates(t, ctx, srv)

		// act
		delivered := b.Broadcast(ctx, service.RepositoryEvent{
			GUID:       "pipeline_1_abc",
			RepoStatus: "cloned",
			EventType:  service.EventTypeRepositorySuccess,
		})

		// assert
		assert.Equal(t, 1, delivered)
		var message service.EventMessage
		readJSON(t, ctx, conn, &message)
		assert.Equal(t, service.MessageTypeRepositoryEvent, message.Type)
		assert.Equal(t, "pipeline_1_abc", message.Data.GUID)
		assert.Equal(t, service.EventTypeRepositorySuccess, message.Data.EventType)
	})
	t.Run("success - every client receives broadcast", func(t *testing.T) {
		// arrange
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv, b := newLiveUpdateServer(t)
		first := dialLiveUpdates(t, ctx, srv)
		second := dialLiveUpdates(t, ctx, srv)

		// act
		delivered := b.Broadcast(ctx, service.RepositoryEvent{GUID: "pipeline_2_def"})

		// assert
		assert.Equal(t, 2, delivered)
		for _, conn := range []*websocket.Conn{first, second} {
			var message service.EventMessage
			readJSON(t, ctx, conn, &message)
			assert.Equal(t, "pipeline_2_def", message.Data.GUID)
		}
	})
	t.Run("success - closed client is removed", func(t *testing.T) {
		// arrange
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv, b := newLiveUpdateServer(t)
		conn := dialLiveUpdates(t, ctx, srv)
		assert.Equal(t, 1, b.Count())

		// act
		err := conn.Close(websocket.StatusNormalClosure, "")

		// assert
		assert.NoError(t, err)
		assert.Eventually(t, func() bool { return b.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
	})
	t.Run("failure - plain request is not found", func(t *testing.T) {
		// arrange
		srv, _ := newLiveUpdateServer(t)

		// act
		res, err := http.Get(srv.URL + "/")

		// assert
		require.NoError(t, err)
		defer res.Body.Close()
		assert.Equal(t, http.StatusNotFound, res.StatusCode)
	})
}

func TestLiveUpdateHandler_RepositoryStatusFlow(t *testing.T) {
	t.Run("success - posted status reaches connected client exactly once", func(t *testing.T) {
		// arrange
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		b := service.NewBroadcaster(service.NewClientSet(), zerolog.Nop())
		e := newTestEcho()
		SetupRepositoryRoutes(newAPIGroup(e), b)
		SetupLiveUpdateRoutes(e, b, []string{"*"})
		srv := httptest.NewServer(e)
		t.Cleanup(func() {
			b.Shutdown()
			srv.Close()
		})
		early := dialLiveUpdates(t, ctx, srv)
		payload, err := json.Marshal(RepositoryStatusParams{
			GUID:         "pipeline_7_e2e",
			PipelineName: "train",
			RepoStatus:   "cloned",
		})
		require.NoError(t, err)

		// act
		res, err := http.Post(srv.URL+"/api/repository/success", "application/json", bytes.NewReader(payload))
		require.NoError(t, err)
		res.Body.Close()
		late := dialLiveUpdates(t, ctx, srv)

		// assert
		assert.Equal(t, http.StatusOK, res.StatusCode)
		var message service.EventMessage
		readJSON(t, ctx, early, &message)
		assert.Equal(t, service.MessageTypeRepositoryEvent, message.Type)
		assert.Equal(t, "pipeline_7_e2e", message.Data.GUID)
		assert.Equal(t, "cloned", message.Data.RepoStatus)
		assert.Equal(t, service.EventTypeRepositorySuccess, message.Data.EventType)

		earlyCtx, earlyCancel := context.WithTimeout(ctx, 200*time.Millisecond)
		defer earlyCancel()
		_, _, err = early.Read(earlyCtx)
		assert.Error(t, err)

		lateCtx, lateCancel := context.WithTimeout(ctx, 200*time.Millisecond)
		defer lateCancel()
		_, _, err = late.Read(lateCtx)
		assert.Error(t, err)
	})
}

func TestAcceptOptions(t *testing.T) {
	t.Run("success - wildcard skips origin verification", func(t *testing.T) {
		// act
		opts := acceptOptions([]string{"http://localhost:3000", "*"})

		// assert
		assert.True(t, opts.InsecureSkipVerify)
	})
	t.Run("success - origins are reduced to hosts", func(t *testing.T) {
		// act
		opts := acceptOptions([]string{"http://localhost:3000", "https://app.example.com"})

		// assert
		assert.False(t, opts.InsecureSkipVerify)
		assert.Equal(t, []string{"localhost:3000", "app.example.com"}, opts.OriginPatterns)
	})
}
