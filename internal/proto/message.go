package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	ProtocolVersion = 1

	// InboundTypeAddUser announces which user owns this connection.
	InboundTypeAddUser = "addUser"
	// InboundTypeSendMsg asks the server to relay a message to a user.
	InboundTypeSendMsg = "sendMsg"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	// OutboundEventReceiveMsg delivers a relayed message. It is sent only to
	// the connection registered for the addressed user, never broadcast.
	OutboundEventReceiveMsg = "receiveMsg"
)

// AddUserData is sent by the client to register its user id.
type AddUserData struct {
	User string `json:"user"`
}

// SendMsgData addresses an opaque message to a user. The message value is
// forwarded unchanged; the relay never inspects it.
type SendMsgData struct {
	To      string          `json:"to"`
	Message json.RawMessage `json:"message"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
