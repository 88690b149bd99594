package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hearthmind/hearthmind/internal/schema"
)

// toolRef resolves a registered tool name back to its server and
// server-local name.
type toolRef struct {
	client   *client
	origName string
}

// Provider exposes every tool of every configured MCP server as one
// ToolProvider. Tool names are prefixed "mcp_<server>_" so two servers can
// export the same tool without clashing in the registry.
//
// Connection happens on the first ListTools call. A server that fails to
// connect or enumerate is skipped; its tools simply don't appear.
type Provider struct {
	servers map[string]ServerConfig

	once    sync.Once
	clients []*client
	defs    []schema.ToolDescriptor
	tools   map[string]toolRef
}

func NewProvider(servers map[string]ServerConfig) *Provider {
	return &Provider{servers: servers, tools: make(map[string]toolRef)}
}

func (p *Provider) ListTools(ctx context.Context) ([]schema.ToolDescriptor, error) {
	p.once.Do(func() { p.connectAll(ctx) })
	return p.defs, nil
}

func (p *Provider) CallTool(ctx context.Context, callID, name string, args map[string]any) (*schema.ToolResult, error) {
	ref, ok := p.tools[name]
	if !ok {
		return nil, fmt.Errorf("unknown MCP tool %q", name)
	}
	return ref.client.callTool(ctx, ref.origName, args)
}

func (p *Provider) connectAll(ctx context.Context) {
	for serverName, cfg := range p.servers {
		c := newClient(serverName, cfg)
		if err := c.connect(ctx); err != nil {
			slog.Error("MCP server connect failed", "server", serverName, "err", err)
			continue
		}
		toolDefs, err := c.listTools(ctx)
		if err != nil {
			slog.Error("MCP server tools/list failed", "server", serverName, "err", err)
			c.close()
			continue
		}

		for _, def := range toolDefs {
			origName, _ := def["name"].(string)
			if origName == "" {
				continue
			}
			desc, _ := def["description"].(string)
			params, _ := def["inputSchema"].(map[string]any)

			name := "mcp_" + serverName + "_" + origName
			p.defs = append(p.defs, schema.ToolDescriptor{
				Name:        name,
				Description: desc,
				Parameters:  params,
			})
			p.tools[name] = toolRef{client: c, origName: origName}
			slog.Debug("MCP tool registered", "server", serverName, "tool", name)
		}
		slog.Info("MCP server connected", "server", serverName, "tools", len(toolDefs))
		p.clients = append(p.clients, c)
	}
}

// Close stops all subprocess-based servers owned by this provider.
func (p *Provider) Close() {
	for _, c := range p.clients {
		c.close()
	}
}
