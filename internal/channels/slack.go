package channels

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"github.com/hearthmind/hearthmind/internal/config/channel"
	"github.com/hearthmind/hearthmind/internal/schema"
)

var reSlackMention = regexp.MustCompile(`<@[A-Z0-9]+>`)

// SlackChannel connects over Socket Mode, so no public endpoint is needed.
// Slack message formatting is text-oriented here; attachments are delivered
// as references the user can ask about.
type SlackChannel struct {
	Base
	cfg       *channel.SlackConfig
	api       *slack.Client
	sock      *socketmode.Client
	botUserID string
}

func NewSlackChannel(cfg *channel.SlackConfig, respond Responder) *SlackChannel {
	return &SlackChannel{
		Base: NewBase("slack", respond, schema.TextOnly(), nil),
		cfg:  cfg,
	}
}

func (s *SlackChannel) Start(ctx context.Context) error {
	if s.cfg.BotToken == "" || s.cfg.AppToken == "" {
		return fmt.Errorf("slack: botToken and appToken are required")
	}
	s.api = slack.New(s.cfg.BotToken, slack.OptionAppLevelToken(s.cfg.AppToken))
	s.sock = socketmode.New(s.api)

	auth, err := s.api.AuthTestContext(ctx)
	if err != nil {
		return fmt.Errorf("slack: auth test: %w", err)
	}
	s.botUserID = auth.UserID
	slog.Info("slack: connected", "bot", auth.User)

	go s.eventLoop(ctx)
	return s.sock.RunContext(ctx)
}

func (s *SlackChannel) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-s.sock.Events:
			if !ok {
				return
			}
			switch evt.Type {
			case socketmode.EventTypeConnected:
				slog.Info("slack: socket mode connected")
			case socketmode.EventTypeEventsAPI:
				if evt.Request != nil {
					s.sock.Ack(*evt.Request)
				}
				cb, ok := evt.Data.(slackevents.EventsAPIEvent)
				if !ok {
					continue
				}
				if cb.InnerEvent.Type != "message" && cb.InnerEvent.Type != "app_mention" {
					continue
				}
				s.handleInnerEvent(ctx, cb.InnerEvent)
			}
		}
	}
}

func (s *SlackChannel) handleInnerEvent(ctx context.Context, ev slackevents.EventsAPIInnerEvent) {
	// Inner event data arrives as a raw map; parse the fields by hand.
	event, ok := ev.Data.(map[string]any)
	if !ok {
		return
	}
	subtype, _ := event["subtype"].(string)
	if subtype != "" && subtype != "file_share" {
		return
	}

	user, _ := event["user"].(string)
	channelID, _ := event["channel"].(string)
	text, _ := event["text"].(string)
	channelType, _ := event["channel_type"].(string)
	ts, _ := event["ts"].(string)
	threadTS, _ := event["thread_ts"].(string)

	if user == "" || user == s.botUserID {
		return
	}

	isDM := channelType == "im"
	mentioned := strings.Contains(text, "<@"+s.botUserID+">")
	if !s.shouldRespond(isDM, mentioned, user) {
		return
	}

	text = strings.TrimSpace(reSlackMention.ReplaceAllString(text, ""))
	if text == "" {
		return
	}

	if s.cfg.ReactEmoji != "" {
		_ = s.api.AddReactionContext(ctx, s.cfg.ReactEmoji,
			slack.ItemRef{Channel: channelID, Timestamp: ts})
	}

	answer, handled, err := s.Dispatch(ctx, Request{
		SenderID: user,
		ChatID:   channelID,
		Text:     text,
		Metadata: map[string]any{
			"ts":        ts,
			"thread_ts": threadTS,
			"is_dm":     isDM,
		},
	})
	if !handled {
		return
	}
	if err != nil {
		slog.Error("slack: turn failed", "channel", channelID, "err", err)
		answer = "Something went wrong, please try again."
	}
	s.reply(ctx, channelID, ts, threadTS, answer)
}

// shouldRespond applies the DM and group policies from config.
func (s *SlackChannel) shouldRespond(isDM, mentioned bool, user string) bool {
	if isDM {
		if !s.cfg.DM.Enabled {
			return false
		}
		if s.cfg.DM.Policy == "allowlist" {
			return contains(s.cfg.DM.AllowFrom, user)
		}
		return true
	}
	switch s.cfg.GroupPolicy {
	case "open":
		return true
	case "allowlist":
		return mentioned && contains(s.cfg.GroupAllowFrom, user)
	default: // "mention"
		return mentioned
	}
}

func (s *SlackChannel) reply(ctx context.Context, channelID, ts, threadTS, answer string) {
	if answer == "" {
		return
	}
	opts := []slack.MsgOption{slack.MsgOptionText(answer, false)}
	if s.cfg.ReplyInThread {
		anchor := threadTS
		if anchor == "" {
			anchor = ts
		}
		opts = append(opts, slack.MsgOptionTS(anchor))
	} else if threadTS != "" {
		// Stay in the thread the user wrote in.
		opts = append(opts, slack.MsgOptionTS(threadTS))
	}
	if _, _, err := s.api.PostMessageContext(ctx, channelID, opts...); err != nil {
		slog.Error("slack: post message failed", "channel", channelID, "err", err)
	}
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
