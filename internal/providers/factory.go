package providers

import "github.com/hearthmind/hearthmind/internal/schema"

// Params are the raw values needed to construct a schema.LLMProvider.
// Extracted from config.Config by the caller to avoid an import cycle.
type Params struct {
	APIKey       string
	APIBase      string
	ExtraHeaders map[string]string
	DefaultModel string
	ProviderName string // registry name, e.g. "openrouter", "anthropic"

	// LegacyFunctions selects the deprecated functions/function_call
	// protocol for backends without tools support.
	LegacyFunctions bool
}

// New creates the schema.LLMProvider for the given params. A single
// implementation covers every OpenAI-compatible endpoint plus the native
// Anthropic API.
func New(p Params) schema.LLMProvider {
	return NewOpenAIProvider(p.APIKey, p.APIBase, p.DefaultModel, p.ProviderName, p.ExtraHeaders, p.LegacyFunctions)
}
