package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/hearthmind/hearthmind/internal/schema"
)

// LightsProvider exposes light-class devices from the injected Directory.
type LightsProvider struct {
	dir schema.Directory
}

func NewLightsProvider(dir schema.Directory) *LightsProvider {
	return &LightsProvider{dir: dir}
}

func (p *LightsProvider) ListTools(ctx context.Context) ([]schema.ToolDescriptor, error) {
	// Listing must succeed even when the directory is momentarily empty;
	// only a directory error drops the provider.
	if _, err := p.lights(ctx, ""); err != nil {
		return nil, err
	}
	return []schema.ToolDescriptor{
		{
			Name:        "list_lights",
			Description: "List lights, optionally filtered by zone, with their current state.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"zone": map[string]any{
						"type":        "string",
						"description": "Zone name filter (optional)",
					},
				},
				"required":             []any{},
				"additionalProperties": false,
			},
		},
		{
			Name:        "set_light",
			Description: "Turn a light on or off and optionally set its dim level (0-1).",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"light": map[string]any{
						"type":        "string",
						"description": "Light name or id",
					},
					"on": map[string]any{
						"type":        "boolean",
						"description": "Desired on/off state",
					},
					"dim": map[string]any{
						"type":        "number",
						"description": "Dim level between 0 and 1 (optional)",
						"minimum":     0,
						"maximum":     1,
					},
				},
				"required":             []any{"light", "on"},
				"additionalProperties": false,
			},
		},
	}, nil
}

func (p *LightsProvider) CallTool(ctx context.Context, _, name string, args map[string]any) (*schema.ToolResult, error) {
	switch name {
	case "list_lights":
		return p.list(ctx, args)
	case "set_light":
		return p.set(ctx, args)
	}
	return nil, fmt.Errorf("lights provider has no tool %q", name)
}

func (p *LightsProvider) list(ctx context.Context, args map[string]any) (*schema.ToolResult, error) {
	zone, _ := args["zone"].(string)
	lights, err := p.lights(ctx, zone)
	if err != nil {
		return nil, err
	}
	if len(lights) == 0 {
		return schema.NewToolResult(schema.NewTextPart("No lights found.")), nil
	}
	var sb strings.Builder
	for _, l := range lights {
		fmt.Fprintf(&sb, "- %s (zone: %s, id: %s)\n", l.Name(), l.Zone(), l.ID())
	}
	return schema.NewToolResult(schema.NewTextPart(strings.TrimRight(sb.String(), "\n"))), nil
}

func (p *LightsProvider) set(ctx context.Context, args map[string]any) (*schema.ToolResult, error) {
	want, _ := args["light"].(string)
	if want == "" {
		return schema.NewErrorResult("Error: light is required"), nil
	}
	on, _ := args["on"].(bool)

	lights, err := p.lights(ctx, "")
	if err != nil {
		return nil, err
	}
	var target schema.DeviceHandle
	for _, l := range lights {
		if strings.EqualFold(l.Name(), want) || l.ID() == want {
			target = l
			break
		}
	}
	if target == nil {
		return schema.NewErrorResult(fmt.Sprintf("Error: no light named %q", want)), nil
	}

	if err := target.SetCapability(ctx, "onoff", on); err != nil {
		return nil, fmt.Errorf("set %s onoff: %w", target.Name(), err)
	}
	state := "off"
	if on {
		state = "on"
	}
	msg := fmt.Sprintf("Turned %s %s.", target.Name(), state)

	if dim, ok := args["dim"].(float64); ok {
		if err := target.SetCapability(ctx, "dim", dim); err != nil {
			return nil, fmt.Errorf("set %s dim: %w", target.Name(), err)
		}
		msg = fmt.Sprintf("Turned %s %s at %d%% brightness.", target.Name(), state, int(dim*100))
	}
	return schema.NewToolResult(schema.NewTextPart(msg)), nil
}

func (p *LightsProvider) lights(ctx context.Context, zone string) ([]schema.DeviceHandle, error) {
	return p.dir.ListDevices(ctx, func(d schema.DeviceHandle) bool {
		if d.Class() != "light" {
			return false
		}
		return zone == "" || strings.EqualFold(d.Zone(), zone)
	})
}
