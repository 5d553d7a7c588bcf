package handler

import (
	"context"
	"net"
	"net/url"
	"sync/atomic"

	"github.com/coder/websocket"
	"github.com/haatos/gitbridge/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

func SetupLiveUpdateRoutes(e *echo.Echo, hub LiveUpdateHub, allowedOrigins []string) {
	h := NewLiveUpdateHandler(hub, allowedOrigins)
	e.GET("/", h.GetLiveUpdates)
}

type LiveUpdateHub interface {
	Connect(ctx context.Context, c service.Client) error
	Disconnect(id string)
}

type LiveUpdateHandler struct {
	hub           LiveUpdateHub
	acceptOptions *websocket.AcceptOptions
	uuidGenerator service.UUIDGenerator
}

func NewLiveUpdateHandler(hub LiveUpdateHub, allowedOrigins []string) *LiveUpdateHandler {
	return &LiveUpdateHandler{
		hub:           hub,
		acceptOptions: acceptOptions(allowedOrigins),
		uuidGenerator: service.NewUUIDGen(),
	}
}

// acceptOptions turns the configured CORS origins into websocket origin
// patterns. A wildcard entry disables the origin check.
func acceptOptions(allowedOrigins []string) *websocket.AcceptOptions {
	opts := &websocket.AcceptOptions{}
	for _, origin := range allowedOrigins {
		if origin == "*" {
			opts.InsecureSkipVerify = true
			return opts
		}
		if u, err := url.Parse(origin); err == nil && u.Host != "" {
			opts.OriginPatterns = append(opts.OriginPatterns, u.Host)
		} else {
			opts.OriginPatterns = append(opts.OriginPatterns, origin)
		}
	}
	return opts
}

// GetLiveUpdates upgrades the request to a websocket and keeps the client
// registered until the peer goes away. Incoming messages are ignored.
func (h *LiveUpdateHandler) GetLiveUpdates(c echo.Context) error {
	if !c.IsWebSocket() {
		return echo.ErrNotFound
	}

	conn, err := websocket.Accept(c.Response(), c.Request(), h.acceptOptions)
	if err != nil {
		log.Warn().Err(err).Msg("err accepting websocket")
		return nil
	}

	client := &wsClient{id: h.uuidGenerator.GenerateUUID(), conn: conn}
	defer h.hub.Disconnect(client.id)

	ctx := conn.CloseRead(context.WithoutCancel(c.Request().Context()))
	if err := h.hub.Connect(ctx, client); err != nil {
		log.Warn().Err(err).Str("client_id", client.id).Msg("err connecting live-update client")
		client.Close("connection failed")
		return nil
	}

	<-ctx.Done()
	client.closed.Store(true)
	return nil
}

type wsClient struct {
	id     string
	conn   *websocket.Conn
	closed atomic.Bool
}

func (c *wsClient) ID() string {
	return c.id
}

func (c *wsClient) Open() bool {
	return !c.closed.Load()
}

func (c *wsClient) Send(ctx context.Context, message []byte) error {
	if c.closed.Load() {
		return net.ErrClosed
	}
	return c.conn.Write(ctx, websocket.MessageText, message)
}

func (c *wsClient) Close(reason string) error {
	if c.closed.Swap(true) {
		return nil
	}
	return c.conn.Close(websocket.StatusGoingAway, reason)
}
