// Package dependency wires the core services using go.uber.org/dig.
package dependency

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/robfig/cron/v3"
	"go.uber.org/dig"

	"github.com/hearthmind/hearthmind/internal/agent"
	"github.com/hearthmind/hearthmind/internal/channels"
	"github.com/hearthmind/hearthmind/internal/config"
	"github.com/hearthmind/hearthmind/internal/devices"
	"github.com/hearthmind/hearthmind/internal/llmserver"
	"github.com/hearthmind/hearthmind/internal/mcp"
	"github.com/hearthmind/hearthmind/internal/providers"
	"github.com/hearthmind/hearthmind/internal/schema"
	"github.com/hearthmind/hearthmind/internal/session"
	"github.com/hearthmind/hearthmind/internal/store"
	"github.com/hearthmind/hearthmind/internal/tools"
)

// Container holds the resolved service singletons. Callers use the typed
// getters; they never need to import dig directly.
type Container struct {
	provider  schema.LLMProvider
	registry  *tools.Registry
	sessions  *session.Manager
	responder *Responder
	chans     *channels.Manager
	cron      *cron.Cron
	mcp       *mcp.Provider
	llm       *llmserver.Supervisor
}

func (c *Container) Provider() schema.LLMProvider  { return c.provider }
func (c *Container) Registry() *tools.Registry     { return c.registry }
func (c *Container) Sessions() *session.Manager    { return c.sessions }
func (c *Container) Responder() *Responder         { return c.responder }
func (c *Container) Channels() *channels.Manager   { return c.chans }
func (c *Container) Cron() *cron.Cron              { return c.cron }
func (c *Container) LLMServer() *llmserver.Supervisor { return c.llm }

// Close releases resources owned by the container.
func (c *Container) Close() {
	if c.mcp != nil {
		c.mcp.Close()
	}
}

// mcpProvider is nilable; dig needs the distinct wrapper so the optional
// dependency stays explicit.
type mcpProvider struct{ *mcp.Provider }

// New builds and wires all core services from cfg.
func New(cfg *config.Config) (*Container, error) {
	d := dig.New()

	for _, provide := range []any{
		func() *config.Config { return cfg },
		newProvider,
		newBlobStore,
		newDirectory,
		newMCPProvider,
		newToolRegistry,
		newSessionManager,
		newContextBuilder,
		newCron,
		newResponder,
		newChannelManager,
		newLLMSupervisor,
	} {
		if err := d.Provide(provide); err != nil {
			return nil, err
		}
	}

	var result *Container
	err := d.Invoke(func(
		provider schema.LLMProvider,
		registry *tools.Registry,
		sessions *session.Manager,
		responder *Responder,
		chans *channels.Manager,
		c *cron.Cron,
		mcpProv mcpProvider,
		llm *llmserver.Supervisor,
	) {
		result = &Container{
			provider:  provider,
			registry:  registry,
			sessions:  sessions,
			responder: responder,
			chans:     chans,
			cron:      c,
			mcp:       mcpProv.Provider,
			llm:       llm,
		}
	})
	return result, err
}

func newProvider(cfg *config.Config) (schema.LLMProvider, error) {
	model := cfg.Agents.Defaults.Model
	result := cfg.MatchProvider(model)
	if result.Provider == nil {
		return nil, fmt.Errorf("no API key configured for model %q — edit %s", model, config.ConfigPath())
	}

	apiBase := result.Provider.APIBase
	if apiBase == "" {
		apiBase = cfg.GetAPIBase(model)
	}
	return providers.New(providers.Params{
		APIKey:          result.Provider.APIKey,
		APIBase:         apiBase,
		ExtraHeaders:    result.Provider.ExtraHeaders,
		DefaultModel:    model,
		ProviderName:    result.Name,
		LegacyFunctions: cfg.Agents.Defaults.LegacyFunctions,
	}), nil
}

func newBlobStore() (*store.Store, error) {
	return store.Open(filepath.Join(config.DataDir(), "store.json"))
}

func newDirectory(cfg *config.Config) *devices.Directory {
	return devices.NewDirectory(cfg.Devices)
}

func newMCPProvider(cfg *config.Config) mcpProvider {
	if len(cfg.Tools.MCPServers) == 0 {
		return mcpProvider{}
	}
	return mcpProvider{mcp.NewProvider(cfg.Tools.MCPServers)}
}

// newToolRegistry aggregates every enabled tool provider. Aggregation runs
// once at startup; providers that fail to list are dropped.
func newToolRegistry(cfg *config.Config, dir *devices.Directory, blobs *store.Store, mcpProv mcpProvider) *tools.Registry {
	provs := []schema.ToolProvider{
		tools.NewLightsProvider(dir),
		tools.NewCameraProvider(dir, blobs),
		tools.NewNotesProvider(blobs),
		tools.NewWebProvider(cfg.Tools.Web.APIKey, cfg.Tools.Web.MaxResults, cfg.Tools.Web.MaxChars),
	}
	if cfg.Tools.Eval.Enabled {
		provs = append(provs, tools.NewEvalProvider(cfg.Tools.Eval.Interpreter, cfg.Tools.Eval.Timeout))
	}
	if mcpProv.Provider != nil {
		provs = append(provs, mcpProv.Provider)
	}
	return tools.Aggregate(context.Background(), provs)
}

func newSessionManager(cfg *config.Config) (*session.Manager, error) {
	root := config.DataDir()
	if cfg.Sessions.Dir != "" {
		root = cfg.Sessions.Dir
	}
	return session.NewManager(root)
}

func newContextBuilder(cfg *config.Config) *agent.ContextBuilder {
	return agent.NewContextBuilder(cfg.WorkspacePath(), cfg.Agents.Defaults.SystemPrompt)
}

func newCron() *cron.Cron {
	return cron.New()
}

func newResponder(
	cfg *config.Config,
	provider schema.LLMProvider,
	registry *tools.Registry,
	sessions *session.Manager,
	cb *agent.ContextBuilder,
) *Responder {
	return NewResponder(cfg, provider, registry, sessions, cb)
}

func newChannelManager(cfg *config.Config, r *Responder) *channels.Manager {
	return channels.NewManager(&cfg.Channels, r)
}

func newLLMSupervisor(cfg *config.Config) *llmserver.Supervisor {
	if !cfg.LLMServer.Enabled {
		return nil
	}
	return llmserver.New(cfg.LLMServer)
}
