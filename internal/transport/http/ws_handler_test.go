package http

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/rentloop/rentloop-server/internal/proto"
)

func dialWS(t *testing.T, ctx context.Context, tsURL string) *websocket.Conn {
	t.Helper()

	wsURL := strings.Replace(tsURL, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", wsURL, err)
	}
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

func sendAddUser(ctx context.Context, conn *websocket.Conn, user string) error {
	payload, _ := json.Marshal(proto.AddUserData{User: user})
	return wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeAddUser, Data: payload})
}

func sendMsg(ctx context.Context, conn *websocket.Conn, to, message string) error {
	payload, _ := json.Marshal(proto.SendMsgData{To: to, Message: json.RawMessage(message)})
	return wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeSendMsg, Data: payload})
}

func TestHealthEndpoint(t *testing.T) {
	ts, _, _ := startTestServer(t)

	resp, err := ts.Client().Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}

func TestRelayBetweenTwoConnections(t *testing.T) {
	ts, _, _ := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	connA := dialWS(t, ctx, ts.URL)
	connB := dialWS(t, ctx, ts.URL)

	if err := sendAddUser(ctx, connA, "alice"); err != nil {
		t.Fatalf("addUser alice: %v", err)
	}
	if err := sendAddUser(ctx, connB, "bob"); err != nil {
		t.Fatalf("addUser bob: %v", err)
	}

	// Relay is fire-and-forget; retry until bob's registration is visible.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		for {
			select {
			case <-stop:
				return
			case <-time.After(50 * time.Millisecond):
				_ = sendMsg(ctx, connA, "bob", `"hi there"`)
			}
		}
	}()

	var outbound struct {
		Type  string          `json:"type"`
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	if err := wsjson.Read(ctx, connB, &outbound); err != nil {
		t.Fatalf("read outbound: %v", err)
	}

	if outbound.Type != proto.OutboundTypeEvent {
		t.Fatalf("unexpected outbound type: %s", outbound.Type)
	}
	if outbound.Event != proto.OutboundEventReceiveMsg {
		t.Fatalf("unexpected event: %s", outbound.Event)
	}
	if string(outbound.Data) != `"hi there"` {
		t.Fatalf("unexpected payload: %s", outbound.Data)
	}
}

func TestSendToUnknownUserIsSilentlyDropped(t *testing.T) {
	ts, _, _ := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialWS(t, ctx, ts.URL)

	if err := sendAddUser(ctx, conn, "alice"); err != nil {
		t.Fatalf("addUser: %v", err)
	}

	// Nobody is registered as carol; this must produce nothing, not an error.
	if err := sendMsg(ctx, conn, "carol", `"hello?"`); err != nil {
		t.Fatalf("sendMsg: %v", err)
	}

	// A later self-addressed message must still go through, and must be the
	// first (and only) frame the connection receives.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		for {
			select {
			case <-stop:
				return
			case <-time.After(50 * time.Millisecond):
				_ = sendMsg(ctx, conn, "alice", `"loopback"`)
			}
		}
	}()

	var outbound struct {
		Type  string          `json:"type"`
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
		Error *proto.Error    `json:"error"`
	}
	if err := wsjson.Read(ctx, conn, &outbound); err != nil {
		t.Fatalf("read outbound: %v", err)
	}

	if outbound.Type != proto.OutboundTypeEvent || outbound.Error != nil {
		t.Fatalf("expected clean receiveMsg event, got %+v", outbound)
	}
	if outbound.Event != proto.OutboundEventReceiveMsg {
		t.Fatalf("unexpected event: %s", outbound.Event)
	}
	if string(outbound.Data) != `"loopback"` {
		t.Fatalf("unexpected payload: %s", outbound.Data)
	}
}

func TestAddUserWithoutIDProducesProtocolError(t *testing.T) {
	ts, _, _ := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialWS(t, ctx, ts.URL)

	if err := sendAddUser(ctx, conn, ""); err != nil {
		t.Fatalf("addUser: %v", err)
	}

	var outbound struct {
		Type  string       `json:"type"`
		Error *proto.Error `json:"error"`
	}
	if err := wsjson.Read(ctx, conn, &outbound); err != nil {
		t.Fatalf("read outbound: %v", err)
	}

	if outbound.Type != proto.OutboundTypeError || outbound.Error == nil {
		t.Fatalf("expected error envelope, got %+v", outbound)
	}
	if outbound.Error.Code != "bad_request" {
		t.Fatalf("unexpected error code: %s", outbound.Error.Code)
	}
}

func TestWSRejectsInvalidToken(t *testing.T) {
	ts, _, _ := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws?token=not-a-token"
	_, resp, err := websocket.Dial(ctx, wsURL, nil)
	if err == nil {
		t.Fatal("expected dial to fail with invalid token")
	}
	if resp != nil && resp.StatusCode != 401 {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}
