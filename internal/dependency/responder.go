package dependency

import (
	"context"
	"log/slog"
	"strings"

	"github.com/hearthmind/hearthmind/internal/agent"
	"github.com/hearthmind/hearthmind/internal/channels"
	"github.com/hearthmind/hearthmind/internal/config"
	"github.com/hearthmind/hearthmind/internal/schema"
	"github.com/hearthmind/hearthmind/internal/session"
	"github.com/hearthmind/hearthmind/internal/tools"
)

// Responder routes one channel request into its session and runs a full
// conversational turn. Every channel shares this instance; per-session state
// lives in the session itself.
type Responder struct {
	provider schema.LLMProvider
	registry *tools.Registry
	sessions *session.Manager
	cb       *agent.ContextBuilder
	opts     schema.ChatOptions
	maxIter  int
	legacy   bool
}

func NewResponder(
	cfg *config.Config,
	provider schema.LLMProvider,
	registry *tools.Registry,
	sessions *session.Manager,
	cb *agent.ContextBuilder,
) *Responder {
	defaults := cfg.Agents.Defaults
	return &Responder{
		provider: provider,
		registry: registry,
		sessions: sessions,
		cb:       cb,
		opts:     schema.NewChatOptions(defaults.Model, defaults.MaxTokens, defaults.Temperature),
		maxIter:  defaults.MaxToolIter,
		legacy:   defaults.LegacyFunctions,
	}
}

func (r *Responder) Respond(ctx context.Context, req channels.Request) (string, error) {
	key := req.SessionKey()
	s := r.sessions.GetOrCreate(key)

	if strings.TrimSpace(req.Text) == "/new" {
		s.Clear()
		r.sessions.Invalidate(key)
		return "Session cleared.", nil
	}

	s.EnsureSystem(r.cb.BuildSystemPrompt())

	// Stateful tool providers read the turn's routing metadata off the
	// context to scope their storage per session.
	ctx = tools.WithTurn(ctx, tools.TurnContext{
		Channel:    req.Channel,
		ChatID:     req.ChatID,
		SessionKey: key,
	})

	// The dispatcher and driver are cheap per-turn objects bound to the
	// session's tool history and the channel's capabilities.
	dispatcher := tools.NewDispatcher(r.registry, s.History)
	var dopts []agent.DriverOption
	if r.legacy {
		dopts = append(dopts, agent.WithLegacyFunctions())
	}
	if r.maxIter > 0 {
		dopts = append(dopts, agent.WithMaxIterations(r.maxIter))
	}
	driver := agent.NewDriver(r.provider, dispatcher, s.History, req.Caps, r.opts, dopts...)

	answer, err := s.Turn(ctx, driver, r.registry.Definitions(), req.Source, req.OnDelta, req.Text)
	if saveErr := r.sessions.Save(s); saveErr != nil {
		slog.Warn("session save failed", "key", key, "err", saveErr)
	}
	return answer, err
}

var _ channels.Responder = (*Responder)(nil)
