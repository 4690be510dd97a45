// Package gateway is the client adapter for the OpenClaw gateway RPC surface.
//
// The gateway speaks JSON frames over a websocket: each request names a
// dotted method ("agents.list", "agents.files.get", "sessions.send") and
// carries a JSON params object; the reply echoes the request id. The adapter
// exposes this as an opaque Call surface; all failures surface as *Error so
// callers can classify them without knowing the transport.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// Config identifies one gateway endpoint.
type Config struct {
	URL   string
	Token string
}

// Error is the single typed error raised by gateway calls. The gateway does
// not provide structured error codes; Message text is all callers get.
type Error struct {
	Method  string
	Message string
}

func (e *Error) Error() string {
	if e.Method == "" {
		return fmt.Sprintf("gateway: %s", e.Message)
	}
	return fmt.Sprintf("gateway %s: %s", e.Method, e.Message)
}

// Caller invokes named remote procedures against a gateway endpoint.
type Caller interface {
	Call(ctx context.Context, method string, params any) (any, error)
}

const (
	writeWait       = 10 * time.Second
	defaultCallWait = 60 * time.Second
)

type request struct {
	Type   string `json:"type"`
	ID     string `json:"id"`
	Method string `json:"method"`
	Params any    `json:"params,omitempty"`
	Token  string `json:"token,omitempty"`
}

type response struct {
	Type   string          `json:"type"`
	ID     string          `json:"id"`
	OK     bool            `json:"ok"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// Client implements Caller over a per-call websocket connection. Dialing per
// call keeps the adapter stateless across gateway restarts; the sync engine's
// backoff driver owns all retry behavior.
type Client struct {
	cfg    Config
	dialer *websocket.Dialer
	seq    atomic.Int64
}

var _ Caller = (*Client)(nil)

// NewClient returns a Caller for the given endpoint.
func NewClient(cfg Config) *Client {
	return &Client{cfg: cfg, dialer: websocket.DefaultDialer}
}

// Call dials the gateway, issues one request, and waits for the matching
// reply. The context bounds the whole exchange.
func (c *Client) Call(ctx context.Context, method string, params any) (any, error) {
	if c.cfg.URL == "" {
		return nil, &Error{Method: method, Message: "gateway URL is not configured"}
	}

	header := http.Header{}
	if c.cfg.Token != "" {
		header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	conn, resp, err := c.dialer.DialContext(ctx, c.cfg.URL, header)
	if err != nil {
		msg := err.Error()
		if resp != nil {
			msg = fmt.Sprintf("%s (HTTP %d)", msg, resp.StatusCode)
		}
		return nil, &Error{Method: method, Message: msg}
	}
	defer conn.Close()

	id := strconv.FormatInt(c.seq.Add(1), 10)
	req := request{Type: "req", ID: id, Method: method, Params: params, Token: c.cfg.Token}

	deadline := time.Now().Add(defaultCallWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(req); err != nil {
		return nil, &Error{Method: method, Message: err.Error()}
	}

	conn.SetReadDeadline(deadline)
	for {
		var res response
		if err := conn.ReadJSON(&res); err != nil {
			return nil, &Error{Method: method, Message: err.Error()}
		}
		// Frames for other request ids (server pushes, stale replies) are
		// skipped; only the matching reply resolves this call.
		if res.ID != id {
			continue
		}
		if !res.OK {
			msg := res.Error
			if msg == "" {
				msg = "request failed"
			}
			return nil, &Error{Method: method, Message: msg}
		}
		if len(res.Result) == 0 {
			return nil, nil
		}
		var payload any
		if err := json.Unmarshal(res.Result, &payload); err != nil {
			return nil, &Error{Method: method, Message: fmt.Sprintf("decoding result: %v", err)}
		}
		return payload, nil
	}
}
