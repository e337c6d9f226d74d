package channels

import (
	"context"
	"fmt"
	"log/slog"

	slackgo "github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"github.com/chorusbot/chorus/internal/bus"
	"github.com/chorusbot/chorus/internal/config/channel"
)

const slackMaxMsgLen = 4000

// SlackChannel observes Slack via Socket Mode.
type SlackChannel struct {
	Base
	cfg       *channel.SlackConfig
	webClient *slackgo.Client
	smClient  *socketmode.Client
	botUserID string
}

func NewSlackChannel(cfg *channel.SlackConfig, b bus.Bus) *SlackChannel {
	return &SlackChannel{
		Base: NewBase(bus.ChannelSlack, b, cfg.AllowFrom),
		cfg:  cfg,
	}
}

func (s *SlackChannel) Name() string        { return string(bus.ChannelSlack) }
func (s *SlackChannel) MaxMessageSize() int { return slackMaxMsgLen }

func (s *SlackChannel) Start(ctx context.Context) error {
	if s.cfg.BotToken == "" || s.cfg.AppToken == "" {
		slog.Warn("slack: bot/app token not configured")
		<-ctx.Done()
		return ctx.Err()
	}

	s.webClient = slackgo.New(s.cfg.BotToken,
		slackgo.OptionAppLevelToken(s.cfg.AppToken))

	// Resolve bot user ID so our own messages are flagged.
	if resp, err := s.webClient.AuthTestContext(ctx); err == nil {
		s.botUserID = resp.UserID
		slog.Info("slack: connected", "bot_user_id", s.botUserID)
	}

	s.smClient = socketmode.New(s.webClient)

	go s.smClient.RunContext(ctx) //nolint:errcheck

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt, ok := <-s.smClient.Events:
			if !ok {
				return nil
			}
			s.handleEvent(evt)
		}
	}
}

func (s *SlackChannel) handleEvent(evt socketmode.Event) {
	if evt.Type != socketmode.EventTypeEventsAPI {
		return
	}
	s.smClient.Ack(*evt.Request)
	cb, ok := evt.Data.(slackevents.EventsAPIEvent)
	if !ok || cb.InnerEvent.Type != "message" {
		return
	}

	// Inner event data is map[string]interface{} — parse manually.
	data, ok := cb.InnerEvent.Data.(map[string]interface{})
	if !ok {
		return
	}
	userID, _ := data["user"].(string)
	chatID, _ := data["channel"].(string)
	text, _ := data["text"].(string)
	subtype, _ := data["subtype"].(string)
	ts, _ := data["ts"].(string)
	threadTS, _ := data["thread_ts"].(string)
	botID, _ := data["bot_id"].(string)

	if subtype != "" || chatID == "" || text == "" {
		return
	}
	if userID == "" && botID == "" {
		return
	}
	if userID == s.botUserID {
		return
	}

	isBot := botID != ""
	sender := userID
	if sender == "" {
		sender = botID
	}

	// A threaded message continues the thread's topic.
	replyTo := ""
	if threadTS != "" && threadTS != ts {
		replyTo = threadTS
	}

	s.HandleMessage(sender, chatID, text, ts, isBot, replyTo, nil, map[string]any{
		"thread_ts": threadTS,
	})
}

// Send delivers one chunk to a Slack channel.
func (s *SlackChannel) Send(ctx context.Context, chatID, text string) error {
	if s.webClient == nil {
		return fmt.Errorf("slack: not connected")
	}
	_, _, err := s.webClient.PostMessageContext(ctx, chatID,
		slackgo.MsgOptionText(text, false))
	if err != nil {
		return fmt.Errorf("slack: post message: %w", err)
	}
	return nil
}
