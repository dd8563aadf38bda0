package core

import "context"

// Hub is the presence and relay registry. It tracks which user currently
// owns which live connection and relays directed messages between them.
//
// All state is owned by the Run goroutine; clients talk to the hub through
// channels only, so no locking is needed.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	commands   chan clientCommand
	lookups    chan lookupRequest

	// users maps a user id to the connection currently registered for it.
	// At most one connection per user id; a later registration overwrites
	// the earlier one.
	users   map[string]*Client
	clients map[*Client]struct{}
}

type clientCommand struct {
	client *Client
	cmd    *Command
}

type lookupRequest struct {
	user  string
	reply chan string
}

// NewHub creates a new presence registry.
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client, 16),
		unregister: make(chan *Client, 16),
		commands:   make(chan clientCommand, 64),
		lookups:    make(chan lookupRequest),
		users:      make(map[string]*Client),
		clients:    make(map[*Client]struct{}),
	}
}

// RegisterClient announces a new connection to the hub.
func (h *Hub) RegisterClient(c *Client) {
	h.register <- c
}

// UnregisterClient removes a connection and purges its presence entries.
func (h *Hub) UnregisterClient(c *Client) {
	h.unregister <- c
}

// ConnectionFor reports the connection id currently registered for a user.
// It returns false if the user has no live registration or the hub stopped.
func (h *Hub) ConnectionFor(ctx context.Context, user string) (string, bool) {
	req := lookupRequest{user: user, reply: make(chan string, 1)}
	select {
	case h.lookups <- req:
	case <-ctx.Done():
		return "", false
	}
	select {
	case id := <-req.reply:
		return id, id != ""
	case <-ctx.Done():
		return "", false
	}
}

// Run owns all hub state and processes events until the context is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.register:
			h.clients[c] = struct{}{}
			go h.pumpCommands(ctx, c)
		case c := <-h.unregister:
			h.dropClient(c)
		case cc := <-h.commands:
			h.handleCommand(cc.client, cc.cmd)
		case req := <-h.lookups:
			if c, ok := h.users[req.user]; ok {
				req.reply <- c.ID
			} else {
				req.reply <- ""
			}
		}
	}
}

// pumpCommands forwards one client's mailbox into the hub loop.
func (h *Hub) pumpCommands(ctx context.Context, c *Client) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd, ok := <-c.Commands:
			if !ok {
				return
			}
			select {
			case h.commands <- clientCommand{client: c, cmd: cmd}:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (h *Hub) handleCommand(c *Client, cmd *Command) {
	if _, ok := h.clients[c]; !ok {
		// Connection already dropped; commands from it are stale.
		return
	}

	switch cmd.Kind {
	case CommandIdentify:
		if cmd.User == "" {
			return
		}
		// Last writer wins: a repeated registration for the same user id
		// replaces the previous connection unconditionally.
		h.users[cmd.User] = c
	case CommandSendDirect:
		target, ok := h.users[cmd.Message.To]
		if !ok {
			// Recipient unavailable: fire-and-forget, no error to the sender.
			return
		}
		h.deliver(target, &Event{Kind: EventDirectMessage, Message: cmd.Message})
	}
}

// deliver hands an event to one connection, dropping it if the
// connection cannot keep up.
func (h *Hub) deliver(c *Client, ev *Event) {
	select {
	case c.Events <- ev:
	default:
	}
}

func (h *Hub) dropClient(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)

	// Purge only entries still owned by this connection; a newer
	// registration from another connection must survive the disconnect.
	for user, owner := range h.users {
		if owner == c {
			delete(h.users, user)
		}
	}
	close(c.Events)
}
