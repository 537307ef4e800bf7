// Package hub fans sensor events out to websocket clients and routes their
// commands back to the dispenser bridge.
package hub

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"dispenser-bridge/backend/pkg/utils"
)

// Envelope is the wire format for both directions: an event name and its
// payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Replier sends an envelope back to the client that issued a command.
type Replier interface {
	Send(event string, data any) bool
}

// CommandHandler receives commands sent by websocket clients. Replies go to
// the issuing client only, broadcasts go through the hub.
type CommandHandler interface {
	HandleCommand(reply Replier, event string, data json.RawMessage)
}

// Hub tracks connected clients and broadcasts envelopes to all of them.
// Registration, unregistration and broadcast are serialized on one goroutine.
type Hub struct {
	l        *slog.Logger
	upgrader websocket.Upgrader

	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	count      chan chan int

	commands CommandHandler

	// onConnect runs for every new client, before it receives broadcasts.
	// Used to replay last known readings.
	onConnect func(*Client)
}

// New creates a Hub. Wire a command handler with SetCommandHandler before
// serving connections.
func New(l *slog.Logger) *Hub {
	return &Hub{
		l: l.With(slog.String("component", "hub")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
		count:      make(chan chan int),
	}
}

// SetCommandHandler installs the command sink. Must be called before Run; the
// hub and the bridge reference each other, so the handler arrives after
// construction.
func (h *Hub) SetCommandHandler(handler CommandHandler) {
	h.commands = handler
}

// SetOnConnect installs the replay hook. Must be called before Run.
func (h *Hub) SetOnConnect(fn func(*Client)) {
	h.onConnect = fn
}

// Run owns the client set until the context given to the caller ends the
// process. It exits when the hub's channels are abandoned, so it is started
// once and runs for the process lifetime.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.l.Info("client connected", slog.Int("clients", len(h.clients)))

			if h.onConnect != nil {
				h.onConnect(client)
			}

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.l.Info("client disconnected", slog.Int("clients", len(h.clients)))
			}

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow client: drop it rather than block the hub.
					delete(h.clients, client)
					close(client.send)
					h.l.Warn("dropped slow client", slog.Int("clients", len(h.clients)))
				}
			}

		case reply := <-h.count:
			reply <- len(h.clients)
		}
	}
}

// Broadcast sends the event to every connected client. The payload is
// marshaled once, marshal failures are logged and dropped.
func (h *Hub) Broadcast(event string, data any) {
	msg, err := h.encode(event, data)
	if err != nil {
		return
	}

	select {
	case h.broadcast <- msg:
	default:
		h.l.Warn("broadcast queue full, dropping event", slog.String("event", event))
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	reply := make(chan int, 1)
	h.count <- reply

	return <-reply
}

// ServeWS upgrades the request and starts the client's pumps.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.l.Error("websocket upgrade failed", utils.ErrAttr(err))

		return
	}

	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, clientSendBuffer),
	}

	h.register <- client

	go client.writePump()
	go client.readPump()
}

func (h *Hub) encode(event string, data any) ([]byte, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		h.l.Error("failed to marshal event payload", slog.String("event", event), utils.ErrAttr(err))

		return nil, err
	}

	msg, err := json.Marshal(Envelope{Event: event, Data: payload})
	if err != nil {
		h.l.Error("failed to marshal envelope", slog.String("event", event), utils.ErrAttr(err))

		return nil, err
	}

	return msg, nil
}
