package channels

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"

	"github.com/chorusbot/chorus/internal/bus"
	"github.com/chorusbot/chorus/internal/config/channel"
)

const (
	discordAPI       = "https://discord.com/api/v10"
	discordMaxMsgLen = 2000
)

// DiscordChannel connects to the Discord Gateway WebSocket.
type DiscordChannel struct {
	Base
	cfg        *channel.DiscordConfig
	httpClient *http.Client
	seq        *int
}

func NewDiscordChannel(cfg *channel.DiscordConfig, b bus.Bus) *DiscordChannel {
	return &DiscordChannel{
		Base:       NewBase(bus.ChannelDiscord, b, cfg.AllowFrom),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (d *DiscordChannel) Name() string        { return string(bus.ChannelDiscord) }
func (d *DiscordChannel) MaxMessageSize() int { return discordMaxMsgLen }

// Start maintains the gateway connection with exponential backoff between
// reconnect attempts.
func (d *DiscordChannel) Start(ctx context.Context) error {
	if d.cfg.Token == "" {
		return fmt.Errorf("discord: token not configured")
	}

	policy := backoff.WithContext(backoff.NewExponentialBackOff(
		backoff.WithMaxElapsedTime(0), // keep reconnecting forever
	), ctx)

	return backoff.Retry(func() error {
		err := d.connect(ctx)
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		slog.Warn("discord: gateway disconnected, will retry", "err", err)
		return fmt.Errorf("gateway session ended: %w", err)
	}, policy)
}

func (d *DiscordChannel) connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, d.cfg.GatewayURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	slog.Info("discord: gateway connected")
	return d.gatewayLoop(ctx, conn)
}

func (d *DiscordChannel) gatewayLoop(ctx context.Context, conn *websocket.Conn) error {
	heartbeatStop := make(chan struct{})
	defer close(heartbeatStop)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var payload struct {
			Op int             `json:"op"`
			S  *int            `json:"s"`
			T  string          `json:"t"`
			D  json.RawMessage `json:"d"`
		}
		if err := json.Unmarshal(raw, &payload); err != nil {
			continue
		}
		if payload.S != nil {
			d.seq = payload.S
		}

		switch payload.Op {
		case 10: // HELLO
			var hello struct {
				HeartbeatInterval int `json:"heartbeat_interval"`
			}
			_ = json.Unmarshal(payload.D, &hello)
			interval := time.Duration(hello.HeartbeatInterval) * time.Millisecond
			go d.heartbeatLoop(ctx, conn, interval, heartbeatStop)
			if err := d.identify(conn); err != nil {
				return err
			}
		case 0: // DISPATCH
			if payload.T == "MESSAGE_CREATE" {
				var msg map[string]any
				if err := json.Unmarshal(payload.D, &msg); err == nil {
					d.handleMessageCreate(msg)
				}
			}
		case 7, 9: // RECONNECT / INVALID_SESSION
			return fmt.Errorf("discord: gateway requested reconnect (op=%d)", payload.Op)
		}
	}
}

func (d *DiscordChannel) heartbeatLoop(ctx context.Context, conn *websocket.Conn, interval time.Duration, stop <-chan struct{}) {
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for {
		select {
		case <-tick.C:
			payload := map[string]any{"op": 1, "d": d.seq}
			data, _ := json.Marshal(payload)
			_ = conn.WriteMessage(websocket.TextMessage, data)
		case <-stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (d *DiscordChannel) identify(conn *websocket.Conn) error {
	payload := map[string]any{
		"op": 2,
		"d": map[string]any{
			"token":   d.cfg.Token,
			"intents": d.cfg.Intents,
			"properties": map[string]any{
				"os": "chorus", "browser": "chorus", "device": "chorus",
			},
		},
	}
	data, _ := json.Marshal(payload)
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (d *DiscordChannel) handleMessageCreate(payload map[string]any) {
	author, _ := payload["author"].(map[string]any)
	senderID, _ := author["id"].(string)
	chatID, _ := payload["channel_id"].(string)
	if senderID == "" || chatID == "" {
		return
	}
	isBot, _ := author["bot"].(bool)

	content, _ := payload["content"].(string)
	if content == "" {
		return
	}

	replyTo := ""
	if ref, ok := payload["referenced_message"].(map[string]any); ok {
		if rid, ok := ref["id"].(string); ok {
			replyTo = rid
		}
	}
	messageID, _ := payload["id"].(string)
	username, _ := author["username"].(string)

	d.HandleMessage(senderID, chatID, content, messageID, isBot, replyTo, nil, map[string]any{
		"username": username,
		"guild_id": payload["guild_id"],
	})
}

// Send delivers one chunk via the REST API.
func (d *DiscordChannel) Send(ctx context.Context, chatID, text string) error {
	url := discordAPI + "/channels/" + chatID + "/messages"
	return d.postJSON(ctx, url, map[string]any{"content": text})
}

func (d *DiscordChannel) postJSON(ctx context.Context, url string, payload map[string]any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bot "+d.cfg.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("discord: HTTP %d: %s", resp.StatusCode, body)
	}
	return nil
}
