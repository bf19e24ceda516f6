// Package parley provides a client for the Parley group chat API.
package parley

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// Client is a Parley API client. Authentication is cookie-based: after
// Register or Login the session cookie lives in the client's jar and
// rides along on every call, including the websocket dial.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a new Parley client.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	jar, _ := cookiejar.New(nil)

	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second, Jar: jar},
	}
}

// doRequest performs an HTTP request.
func (c *Client) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		json.Unmarshal(respBody, &errResp)
		return nil, fmt.Errorf("parley error %d: %s", resp.StatusCode, errResp.Error)
	}

	return respBody, nil
}

// User is a user profile as returned by the API.
type User struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	Role         string `json:"role"`
	ProfileColor string `json:"profileColor"`
	CreatedAt    int64  `json:"createdAt"`
}

// Credentials is the request body for registration and login.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register creates an account and establishes a session.
func (c *Client) Register(ctx context.Context, username, password string) (*User, error) {
	body, _ := json.Marshal(Credentials{Username: username, Password: password})
	respBody, err := c.doRequest(ctx, "POST", "/register", body)
	if err != nil {
		return nil, err
	}

	var u User
	if err := json.Unmarshal(respBody, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Login establishes a session for an existing account.
func (c *Client) Login(ctx context.Context, username, password string) (*User, error) {
	body, _ := json.Marshal(Credentials{Username: username, Password: password})
	respBody, err := c.doRequest(ctx, "POST", "/login", body)
	if err != nil {
		return nil, err
	}

	var u User
	if err := json.Unmarshal(respBody, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Logout ends the session.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.doRequest(ctx, "POST", "/logout", nil)
	return err
}

// Me returns the authenticated user.
func (c *Client) Me(ctx context.Context) (*User, error) {
	respBody, err := c.doRequest(ctx, "GET", "/me", nil)
	if err != nil {
		return nil, err
	}

	var u User
	if err := json.Unmarshal(respBody, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Message is a chat message.
type Message struct {
	ID         string   `json:"id"`
	ChatID     string   `json:"chatId"`
	SenderID   string   `json:"senderId"`
	SenderName string   `json:"senderName"`
	Content    string   `json:"content"`
	FileURL    string   `json:"fileUrl,omitempty"`
	FileName   string   `json:"fileName,omitempty"`
	FileType   string   `json:"fileType,omitempty"`
	Timestamp  int64    `json:"timestamp"`
	Edited     bool     `json:"edited"`
	Deleted    bool     `json:"deleted"`
	ReadBy     []string `json:"readBy"`
}

// Chat is a chat record with its cached last message.
type Chat struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Members     []string `json:"members"`
	CreatedBy   string   `json:"createdBy"`
	CreatedAt   int64    `json:"createdAt"`
	IsGroup     bool     `json:"isGroup"`
	Theme       string   `json:"theme,omitempty"`
	Icon        string   `json:"icon,omitempty"`
	LastMessage *Message `json:"lastMessage,omitempty"`
}

// CreateChatRequest is the request body for creating a chat.
type CreateChatRequest struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
	IsGroup bool     `json:"isGroup"`
}

// CreateChat creates a chat with the given members.
func (c *Client) CreateChat(ctx context.Context, name string, members []string, isGroup bool) (*Chat, error) {
	body, _ := json.Marshal(CreateChatRequest{Name: name, Members: members, IsGroup: isGroup})
	respBody, err := c.doRequest(ctx, "POST", "/chats", body)
	if err != nil {
		return nil, err
	}

	var ch Chat
	if err := json.Unmarshal(respBody, &ch); err != nil {
		return nil, err
	}
	return &ch, nil
}

// Chats lists the user's chats, most recently active first.
func (c *Client) Chats(ctx context.Context) ([]Chat, error) {
	respBody, err := c.doRequest(ctx, "GET", "/chats", nil)
	if err != nil {
		return nil, err
	}

	var chats []Chat
	if err := json.Unmarshal(respBody, &chats); err != nil {
		return nil, err
	}
	return chats, nil
}

// Messages retrieves a chat's messages, oldest first.
func (c *Client) Messages(ctx context.Context, chatID string, limit int) ([]Message, error) {
	path := fmt.Sprintf("/chats/%s/messages", chatID)
	if limit > 0 {
		path += fmt.Sprintf("?limit=%d", limit)
	}

	respBody, err := c.doRequest(ctx, "GET", path, nil)
	if err != nil {
		return nil, err
	}

	var msgs []Message
	if err := json.Unmarshal(respBody, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// SendMessageRequest is the request body for sending a message.
type SendMessageRequest struct {
	ChatID   string `json:"chatId"`
	Content  string `json:"content,omitempty"`
	FileURL  string `json:"fileUrl,omitempty"`
	FileName string `json:"fileName,omitempty"`
	FileType string `json:"fileType,omitempty"`
}

// SendMessage sends a message to a chat.
func (c *Client) SendMessage(ctx context.Context, req SendMessageRequest) (*Message, error) {
	body, _ := json.Marshal(req)
	respBody, err := c.doRequest(ctx, "POST", "/messages", body)
	if err != nil {
		return nil, err
	}

	var m Message
	if err := json.Unmarshal(respBody, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// EditMessage replaces a message's content. Only the sender may edit.
func (c *Client) EditMessage(ctx context.Context, chatID, messageID, content string) (*Message, error) {
	body, _ := json.Marshal(map[string]string{"chatId": chatID, "content": content})
	respBody, err := c.doRequest(ctx, "PUT", "/messages/"+messageID, body)
	if err != nil {
		return nil, err
	}

	var m Message
	if err := json.Unmarshal(respBody, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// DeleteMessage soft-deletes a message. Only the sender may delete.
func (c *Client) DeleteMessage(ctx context.Context, chatID, messageID string) error {
	_, err := c.doRequest(ctx, "DELETE", "/messages/"+messageID+"?chatId="+url.QueryEscape(chatID), nil)
	return err
}

// MarkMessageRead records that the user has read a message.
func (c *Client) MarkMessageRead(ctx context.Context, chatID, messageID string) error {
	body, _ := json.Marshal(map[string]string{"chatId": chatID})
	_, err := c.doRequest(ctx, "PATCH", "/messages/"+messageID+"/read", body)
	return err
}

// Notification is a per-recipient message notification.
type Notification struct {
	ID         string `json:"id"`
	MessageID  string `json:"messageId"`
	ChatID     string `json:"chatId"`
	SenderName string `json:"senderName"`
	Content    string `json:"content"`
	Timestamp  int64  `json:"timestamp"`
	Read       bool   `json:"read"`
}

// Notifications returns the user's recent notifications.
func (c *Client) Notifications(ctx context.Context) ([]Notification, error) {
	respBody, err := c.doRequest(ctx, "GET", "/notifications", nil)
	if err != nil {
		return nil, err
	}

	var ns []Notification
	if err := json.Unmarshal(respBody, &ns); err != nil {
		return nil, err
	}
	return ns, nil
}

// UnreadCount returns the number of unread notifications.
func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	respBody, err := c.doRequest(ctx, "GET", "/notifications?countOnly=true", nil)
	if err != nil {
		return 0, err
	}

	var resp struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

// Heartbeat refreshes the user's online flag.
func (c *Client) Heartbeat(ctx context.Context) error {
	_, err := c.doRequest(ctx, "POST", "/presence", nil)
	return err
}

// Presence returns online flags for the given user IDs.
func (c *Client) Presence(ctx context.Context, userIDs []string) (map[string]bool, error) {
	respBody, err := c.doRequest(ctx, "GET", "/presence?ids="+url.QueryEscape(strings.Join(userIDs, ",")), nil)
	if err != nil {
		return nil, err
	}

	var resp map[string]bool
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Event is a realtime event delivered over the transport. Payloads are
// advisory: consumers should re-fetch from the API rather than trust a
// delta blindly.
type Event struct {
	Channel string
	Data    []byte
}

// EventHandler receives realtime events. Called from the transport
// goroutine; implementations must not block.
type EventHandler func(Event)

// Transport runs the dual-mode realtime channel for one session. It
// dials the websocket, feeds events to the handler, and degrades to
// polling per the negotiator's transitions. A heartbeat ticker runs the
// whole time; its failures are ignored.
type Transport struct {
	client  *Client
	handler EventHandler
	neg     *Negotiator
	dialer  *websocket.Dialer

	// PollChatID, when set, is the chat whose messages the polling loop
	// re-fetches; otherwise only the unread count is polled.
	PollChatID string

	// StateChanged, when set, observes every transition.
	StateChanged func(TransportState)
}

// NewTransport creates a transport for an authenticated client.
func NewTransport(c *Client, handler EventHandler) *Transport {
	return &Transport{
		client:  c,
		handler: handler,
		neg:     NewNegotiator(),
		dialer:  &websocket.Dialer{HandshakeTimeout: OpenTimeout, Jar: c.HTTPClient.Jar},
	}
}

// State returns the current transport state.
func (t *Transport) State() TransportState {
	return t.neg.State()
}

// wsURL derives the websocket endpoint from the client's base URL.
func (t *Transport) wsURL() string {
	u := strings.Replace(t.client.BaseURL, "http", "ws", 1)
	return u + "/ws"
}

// Run drives the transport until ctx is cancelled. It returns nil on
// cancellation; transport failures degrade to polling rather than
// surfacing as errors.
func (t *Transport) Run(ctx context.Context) error {
	go t.heartbeatLoop(ctx)

	for {
		if ctx.Err() != nil {
			return nil
		}

		switch t.neg.State() {
		case StateConnecting, StateReconnecting:
			t.dialOnce(ctx)
		case StatePolling:
			t.pollLoop(ctx)
			return nil
		}
	}
}

// dialOnce performs one websocket attempt and feeds the outcome to the
// negotiator. On success it pumps events until the socket closes.
func (t *Transport) dialOnce(ctx context.Context) {
	dialCtx, cancel := context.WithTimeout(ctx, OpenTimeout)
	conn, _, err := t.dialer.DialContext(dialCtx, t.wsURL(), nil)
	timedOut := dialCtx.Err() == context.DeadlineExceeded
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		if timedOut {
			t.setState(t.neg.OnOpenTimeout())
		} else {
			t.setState(t.neg.OnError())
		}
		return
	}

	t.setState(t.neg.OnOpen())

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			conn.Close()
		case <-done:
		}
	}()

	readErr := t.readPump(conn)
	close(done)
	conn.Close()

	if ctx.Err() != nil {
		return
	}

	if websocket.IsCloseError(readErr, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		next, backoff := t.neg.OnCleanClose()
		t.setState(next)
		if next == StateReconnecting {
			select {
			case <-ctx.Done():
			case <-time.After(backoff):
			}
		}
		return
	}

	t.setState(t.neg.OnError())
}

// readPump delivers incoming frames until the socket closes.
func (t *Transport) readPump(conn *websocket.Conn) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var probe struct {
			Type string `json:"type"`
		}
		channel := "unknown"
		if json.Unmarshal(data, &probe) == nil && probe.Type != "" {
			channel = probe.Type
		}
		if t.handler != nil {
			t.handler(Event{Channel: channel, Data: data})
		}
	}
}

// pollLoop re-fetches canonical state at a fixed interval until ctx is
// cancelled. Fetch errors are ignored; the next tick retries.
func (t *Transport) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if t.PollChatID != "" {
				if msgs, err := t.client.Messages(ctx, t.PollChatID, 0); err == nil && t.handler != nil {
					data, _ := json.Marshal(msgs)
					t.handler(Event{Channel: "poll_messages", Data: data})
				}
				continue
			}
			if count, err := t.client.UnreadCount(ctx); err == nil && t.handler != nil {
				data, _ := json.Marshal(map[string]int{"count": count})
				t.handler(Event{Channel: "poll_unread", Data: data})
			}
		}
	}
}

// heartbeatLoop sends presence heartbeats until ctx is cancelled.
// Failures never end the session.
func (t *Transport) heartbeatLoop(ctx context.Context) {
	ticker := time.NewTicker(HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = t.client.Heartbeat(ctx)
		}
	}
}

func (t *Transport) setState(s TransportState) {
	if t.StateChanged != nil {
		t.StateChanged(s)
	}
}
