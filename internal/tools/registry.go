// Package tools implements the tool registry, the invocation dispatcher and
// the built-in tool providers.
package tools

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/hearthmind/hearthmind/internal/schema"
)

// Registry is the aggregated, read-only view over every provider's tools:
// deduplicated descriptors plus a name→provider lookup.
type Registry struct {
	names       []string // declaration order, later collisions keep first position
	descriptors map[string]schema.ToolDescriptor
	owners      map[string]schema.ToolProvider
}

// Aggregate calls ListTools on every provider concurrently and merges the
// results. Providers that fail are dropped: their tools are simply absent,
// no partial failure propagates. Descriptors without a parameter schema get
// the canonical empty-object default. On a name collision the later provider
// (in slice order) silently wins.
func Aggregate(ctx context.Context, providers []schema.ToolProvider) *Registry {
	listed := make([][]schema.ToolDescriptor, len(providers))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range providers {
		i, p := i, p
		g.Go(func() error {
			descs, err := p.ListTools(gctx)
			if err != nil {
				slog.Debug("tool provider dropped", "index", i, "err", err)
				return nil
			}
			mu.Lock()
			listed[i] = descs
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	r := &Registry{
		descriptors: make(map[string]schema.ToolDescriptor),
		owners:      make(map[string]schema.ToolProvider),
	}
	// Merge in declaration order so that last-write-wins is deterministic.
	for i, descs := range listed {
		for _, d := range descs {
			if d.Parameters == nil {
				d.Parameters = schema.DefaultParameters()
			}
			if _, exists := r.descriptors[d.Name]; exists {
				slog.Debug("tool name collision, later provider wins", "tool", d.Name)
			} else {
				r.names = append(r.names, d.Name)
			}
			r.descriptors[d.Name] = d
			r.owners[d.Name] = providers[i]
		}
	}
	return r
}

// Lookup returns the descriptor and owning provider for name.
func (r *Registry) Lookup(name string) (schema.ToolDescriptor, schema.ToolProvider, bool) {
	d, ok := r.descriptors[name]
	if !ok {
		return schema.ToolDescriptor{}, nil, false
	}
	return d, r.owners[name], true
}

// Len returns the number of distinct tools.
func (r *Registry) Len() int { return len(r.descriptors) }

// Names returns tool names in stable declaration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Definitions returns all tool definitions in OpenAI function-calling format,
// in stable declaration order.
func (r *Registry) Definitions() []map[string]any {
	list := make([]map[string]any, 0, len(r.names))
	for _, name := range r.names {
		d := r.descriptors[name]
		list = append(list, map[string]any{
			"type": "function",
			"function": map[string]any{
				"name":        d.Name,
				"description": d.Description,
				"parameters":  d.Parameters,
			},
		})
	}
	return list
}
