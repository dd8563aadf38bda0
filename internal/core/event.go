package core

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventDirectMessage delivers a relayed payload to the addressed connection.
	EventDirectMessage EventKind = iota
	// EventError notifies a client about a protocol-level error.
	EventError
)

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind    EventKind
	Message DirectMessage
	Error   *CoreError
}
