package core

import "encoding/json"

// DirectMessage is a point-to-point message addressed to a user.
// The payload is opaque to the relay and forwarded verbatim.
type DirectMessage struct {
	To      string
	Payload json.RawMessage
}
