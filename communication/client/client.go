package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"awreplay/catalog"
	"awreplay/communication"
	"awreplay/engine"

	"nhooyr.io/websocket"
)

// StatusError is a failed request as reported by the server.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Code, e.Message)
}

// Client talks to a replay server.
type Client struct {
	serverURL string
	http      *http.Client
}

var _ communication.Controller = (*Client)(nil)

func NewClient(serverURL string) *Client {
	return &Client{
		serverURL: strings.TrimRight(serverURL, "/"),
		http:      http.DefaultClient,
	}
}

// Load uploads an archive and starts playing it.
func (c *Client) Load(ctx context.Context, archive []byte) (communication.LoadResponse, error) {
	var resp communication.LoadResponse
	err := c.do(ctx, http.MethodPost, "/api/replays", "application/zip", bytes.NewReader(archive), &resp)
	return resp, err
}

func (c *Client) Snapshot(ctx context.Context) (engine.Snapshot, error) {
	var snap engine.Snapshot
	err := c.do(ctx, http.MethodGet, "/api/state", "", nil, &snap)
	return snap, err
}

// Control sends a command. As with the server, the status is returned even
// when the command fails.
func (c *Client) Control(ctx context.Context, cmd communication.Command) (engine.Status, error) {
	body, err := json.Marshal(cmd)
	if err != nil {
		return engine.Status{}, err
	}
	var resp struct {
		Status engine.Status `json:"status"`
		Error  string        `json:"error"`
	}
	code, err := c.send(ctx, http.MethodPost, "/api/control", "application/json", bytes.NewReader(body), &resp)
	if err != nil {
		return engine.Status{}, err
	}
	if code != http.StatusOK {
		return resp.Status, &StatusError{Code: code, Message: resp.Error}
	}
	return resp.Status, nil
}

// Replays lists indexed replays.
func (c *Client) Replays(ctx context.Context, f catalog.Filter) ([]catalog.Entry, error) {
	q := url.Values{}
	if f.Faction != "" {
		q.Set("faction", f.Faction)
	}
	if f.MapID != 0 {
		q.Set("map", strconv.Itoa(f.MapID))
	}
	if f.Player != 0 {
		q.Set("player", strconv.Itoa(int(f.Player)))
	}
	path := "/api/replays"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var entries []catalog.Entry
	err := c.do(ctx, http.MethodGet, path, "", nil, &entries)
	return entries, err
}

// Watch streams websocket messages to fn until ctx ends, the connection
// drops or fn returns an error.
func (c *Client) Watch(ctx context.Context, fn func(communication.Message) error) error {
	wsURL := "ws" + strings.TrimPrefix(c.serverURL, "http") + "/api/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", wsURL, err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		var msg communication.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			return fmt.Errorf("decode message: %w", err)
		}
		if err := fn(msg); err != nil {
			return err
		}
	}
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	var raw json.RawMessage
	code, err := c.send(ctx, method, path, contentType, body, &raw)
	if err != nil {
		return err
	}
	if code != http.StatusOK {
		var e communication.ErrorPayload
		json.Unmarshal(raw, &e)
		return &StatusError{Code: code, Message: e.Message}
	}
	return json.Unmarshal(raw, out)
}

func (c *Client) send(ctx context.Context, method, path, contentType string, body io.Reader, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.serverURL+path, body)
	if err != nil {
		return 0, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return resp.StatusCode, nil
}
