package notifications

import (
	"context"
	"encoding/json"
	"errors"

	"dajtovon/internal/observability"
)

// Message types exchanged on a live connection.
const (
	TypeRegister     = "register"
	TypeRegistered   = "registered"
	TypeUnregister   = "unregister"
	TypeUnregistered = "unregistered"
	TypePing         = "ping"
	TypePong         = "pong"
	TypeNotification = "notification"
	TypeError        = "error"
)

// Envelope is the frame written to clients.
type Envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Encode marshals an envelope of the given type.
func Encode(msgType string, payload any) ([]byte, error) {
	return json.Marshal(Envelope{Type: msgType, Payload: payload})
}

type inbound struct {
	Type  string `json:"type"`
	Token string `json:"token,omitempty"`
}

// TokenVerifier turns a bearer token into the identity it was issued to.
type TokenVerifier func(token string) (string, error)

// Dispatcher applies client messages to the registry.
type Dispatcher struct {
	registry *Registry
	verify   TokenVerifier
	log      *observability.WSLogger
}

// NewDispatcher creates a Dispatcher that authenticates register requests with verify.
func NewDispatcher(registry *Registry, verify TokenVerifier) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		verify:   verify,
		log:      observability.NewWSLogger("dispatcher"),
	}
}

// Handle processes one raw client frame received on conn and writes the reply to it.
func (d *Dispatcher) Handle(ctx context.Context, conn Conn, raw []byte) {
	var msg inbound
	if err := json.Unmarshal(raw, &msg); err != nil {
		d.reply(ctx, conn, TypeError, map[string]string{"error": "invalid message"})
		return
	}
	observability.WebSocketEventsTotal.WithLabelValues(msg.Type).Inc()

	switch msg.Type {
	case TypeRegister:
		d.register(ctx, conn, msg.Token)
	case TypeUnregister:
		d.registry.Unregister(conn)
		d.reply(ctx, conn, TypeUnregistered, nil)
	case TypePing:
		d.reply(ctx, conn, TypePong, nil)
	default:
		d.reply(ctx, conn, TypeError, map[string]string{"error": "unknown message type"})
	}
}

func (d *Dispatcher) register(ctx context.Context, conn Conn, token string) {
	identity, err := d.verify(token)
	if err != nil || identity == "" {
		d.reply(ctx, conn, TypeError, map[string]string{"error": "invalid token"})
		return
	}
	if err := d.registry.Register(conn, identity); err != nil {
		reason := "registration failed"
		if errors.Is(err, ErrTooManyConnections) {
			reason = "too many connections"
		}
		d.reply(ctx, conn, TypeError, map[string]string{"error": reason})
		return
	}
	d.reply(ctx, conn, TypeRegistered, map[string]string{"identity": identity})
}

func (d *Dispatcher) reply(ctx context.Context, conn Conn, msgType string, payload any) {
	data, err := Encode(msgType, payload)
	if err != nil {
		d.log.LogError(ctx, "", conn.ID(), err, msgType)
		return
	}
	if err := conn.Send(data); err != nil {
		identity, _ := d.registry.Identity(conn)
		d.log.LogError(ctx, identity, conn.ID(), err, msgType)
	}
}
