package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/layermap/backend/internal/filter"
	"github.com/layermap/backend/internal/logging"
	"github.com/layermap/backend/internal/mapkit"
	"github.com/layermap/backend/internal/models"
)

// WebSocket message types
const (
	// Client -> Server messages
	MsgTypePing   = "ping"
	MsgTypeState  = "state"
	MsgTypeFilter = "filter"
	MsgTypeSelect = "select"
	MsgTypeClick  = "click"

	// Server -> Client messages (plus MsgTypeState and MsgTypeFilter)
	MsgTypePong  = "pong"
	MsgTypeError = "error"
)

const sendBuffer = 16

// WSMessage is the envelope for every frame in both directions
type WSMessage struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

type wsFilterPayload struct {
	Query string `json:"query"`
}

type wsSelectPayload struct {
	Name string `json:"name"`
}

type wsClickPayload struct {
	CorrelationID string `json:"correlationId"`
}

// WSErrorPayload is sent when a client message cannot be applied
type WSErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type wsClient struct {
	send chan WSMessage
}

// push queues msg, dropping it when the client is not keeping up.
func (c *wsClient) push(msg WSMessage) {
	select {
	case c.send <- msg:
	default:
	}
}

// Hub fans map state out to connected WebSocket clients. A client that
// falls behind misses messages rather than blocking the broadcaster.
type Hub struct {
	mu      sync.RWMutex
	clients map[*wsClient]struct{}
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{clients: make(map[*wsClient]struct{})}
}

// Len returns the number of connected clients
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends st to every client
func (h *Hub) Broadcast(st models.MapState) {
	msg := newMessage(MsgTypeState, st)
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		c.push(msg)
	}
}

func (h *Hub) add() *wsClient {
	c := &wsClient{send: make(chan WSMessage, sendBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	return c
}

func (h *Hub) remove(c *wsClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

// WebSocketHandler serves the map state stream
type WebSocketHandler struct {
	access   *mapAccess
	hub      *Hub
	upgrader websocket.Upgrader
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(access *mapAccess, hub *Hub) *WebSocketHandler {
	return &WebSocketHandler{
		access: access,
		hub:    hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
		},
	}
}

// HandleWebSocket upgrades the connection, sends the current state and then
// applies client messages until the connection closes.
func (wsh *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	ws, err := wsh.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	log := logging.L().WithPrefix("ws")
	log.Debug("client connected", "remote", c.RealIP())

	client := wsh.hub.add()
	defer wsh.hub.remove(client)

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()
	go writePump(ctx, ws, client.send)

	wsh.sendState(ctx, client)
	for {
		var msg WSMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("connection error", "err", err)
			}
			break
		}
		wsh.handleMessage(ctx, client, msg)
	}

	log.Debug("client disconnected", "remote", c.RealIP())
	return nil
}

func (wsh *WebSocketHandler) handleMessage(ctx context.Context, client *wsClient, msg WSMessage) {
	switch msg.Type {
	case MsgTypePing:
		client.push(newMessage(MsgTypePong, nil))
	case MsgTypeState:
		wsh.sendState(ctx, client)
	case MsgTypeFilter:
		var p wsFilterPayload
		if !decodePayload(client, msg, &p) {
			return
		}
		res, err := query(ctx, wsh.access, func(r *mapkit.Root) (filter.Result, error) {
			return r.Filter(p.Query), nil
		})
		if err != nil {
			sendError(client, err)
			return
		}
		client.push(newMessage(MsgTypeFilter, res))
		wsh.access.publish(ctx)
	case MsgTypeSelect:
		var p wsSelectPayload
		if !decodePayload(client, msg, &p) {
			return
		}
		if err := wsh.access.mutate(ctx, func(r *mapkit.Root) error { return r.Select(p.Name) }); err != nil {
			sendError(client, err)
		}
	case MsgTypeClick:
		var p wsClickPayload
		if !decodePayload(client, msg, &p) {
			return
		}
		if err := wsh.access.mutate(ctx, func(r *mapkit.Root) error { return r.ClickMarker(p.CorrelationID) }); err != nil {
			sendError(client, err)
		}
	default:
		client.push(newMessage(MsgTypeError, WSErrorPayload{Message: "Unknown message type: " + msg.Type, Code: "INVALID_TYPE"}))
	}
}

func (wsh *WebSocketHandler) sendState(ctx context.Context, client *wsClient) {
	st, err := wsh.access.snapshot(ctx)
	if err != nil {
		sendError(client, err)
		return
	}
	client.push(newMessage(MsgTypeState, st))
}

func writePump(ctx context.Context, ws *websocket.Conn, send <-chan WSMessage) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-send:
			ws.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := ws.WriteJSON(msg); err != nil {
				return
			}
		}
	}
}

func decodePayload(client *wsClient, msg WSMessage, v interface{}) bool {
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		client.push(newMessage(MsgTypeError, WSErrorPayload{Message: "Invalid " + msg.Type + " payload: " + err.Error(), Code: "INVALID_PAYLOAD"}))
		return false
	}
	return true
}

func sendError(client *wsClient, err error) {
	apiErr := FromError(err)
	client.push(newMessage(MsgTypeError, WSErrorPayload{Message: apiErr.Message, Code: apiErr.Code}))
}

func newMessage(typ string, payload interface{}) WSMessage {
	msg := WSMessage{Type: typ, Timestamp: time.Now().UnixMilli()}
	if payload != nil {
		msg.Payload = mustJSON(payload)
	}
	return msg
}

func mustJSON(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}
