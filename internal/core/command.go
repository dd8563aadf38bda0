package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandIdentify registers the connection under a user id.
	CommandIdentify CommandKind = iota
	// CommandSendDirect relays a message to the connection registered for a user.
	CommandSendDirect
)

// Command represents an action requested by a client.
type Command struct {
	Kind    CommandKind
	User    string
	Message DirectMessage
}
