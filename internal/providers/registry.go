// Package providers implements the streaming LLM backends and the metadata
// registry used to auto-detect gateways and per-model quirks.
package providers

import "strings"

// ModelOverride applies extra parameters for a specific model pattern.
type ModelOverride struct {
	Pattern   string         // case-insensitive substring to match in model name
	Overrides map[string]any // parameters to merge into the request body
}

// ProviderSpec is the metadata record for one LLM backend.
type ProviderSpec struct {
	Name        string   // config field name, e.g. "dashscope"
	Keywords    []string // model-name keywords for matching (lowercase)
	DisplayName string   // shown in `hearthmind status`

	LiteLLMPrefix string // routing prefix stripped in resolveModel

	// Gateway / local detection
	IsGateway           bool   // routes any model (OpenRouter, AiHubMix, …)
	IsLocal             bool   // local deployment (vLLM, llama.cpp servers)
	DetectByKeyPrefix   string // match api_key prefix to identify gateway
	DetectByBaseKeyword string // match substring in api_base URL
	DefaultAPIBase      string // fallback base URL when none is configured

	// Gateway behaviour
	StripModelPrefix bool // strip "provider/" before using the model name

	ModelOverrides []ModelOverride

	// Provider supports cache_control content blocks (prompt caching)
	SupportsPromptCaching bool
}

// Label returns the display name, defaulting to Title-cased Name.
func (s ProviderSpec) Label() string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return strings.ToTitle(s.Name[:1]) + s.Name[1:]
}

// PROVIDERS is the registry. Order = match priority.
var PROVIDERS = []ProviderSpec{
	{
		Name:        "custom",
		DisplayName: "Custom",
	},
	{
		Name:                  "openrouter",
		Keywords:              []string{"openrouter"},
		DisplayName:           "OpenRouter",
		LiteLLMPrefix:         "openrouter",
		IsGateway:             true,
		DetectByKeyPrefix:     "sk-or-",
		DetectByBaseKeyword:   "openrouter",
		DefaultAPIBase:        "https://openrouter.ai/api/v1",
		SupportsPromptCaching: true,
	},
	{
		Name:                "aihubmix",
		Keywords:            []string{"aihubmix"},
		DisplayName:         "AiHubMix",
		LiteLLMPrefix:       "openai",
		IsGateway:           true,
		DetectByBaseKeyword: "aihubmix",
		DefaultAPIBase:      "https://aihubmix.com/v1",
		StripModelPrefix:    true,
	},
	{
		Name:                "siliconflow",
		Keywords:            []string{"siliconflow"},
		DisplayName:         "SiliconFlow",
		LiteLLMPrefix:       "openai",
		IsGateway:           true,
		DetectByBaseKeyword: "siliconflow",
		DefaultAPIBase:      "https://api.siliconflow.cn/v1",
	},
	{
		Name:                  "anthropic",
		Keywords:              []string{"anthropic", "claude"},
		DisplayName:           "Anthropic",
		SupportsPromptCaching: true,
	},
	{
		Name:        "openai",
		Keywords:    []string{"openai", "gpt"},
		DisplayName: "OpenAI",
	},
	{
		Name:          "deepseek",
		Keywords:      []string{"deepseek"},
		DisplayName:   "DeepSeek",
		LiteLLMPrefix: "deepseek",
	},
	{
		Name:          "gemini",
		Keywords:      []string{"gemini"},
		DisplayName:   "Gemini",
		LiteLLMPrefix: "gemini",
	},
	{
		Name:          "zhipu",
		Keywords:      []string{"zhipu", "glm", "zai"},
		DisplayName:   "Zhipu AI",
		LiteLLMPrefix: "zai",
	},
	{
		Name:          "dashscope",
		Keywords:      []string{"qwen", "dashscope"},
		DisplayName:   "DashScope",
		LiteLLMPrefix: "dashscope",
	},
	{
		Name:           "moonshot",
		Keywords:       []string{"moonshot", "kimi"},
		DisplayName:    "Moonshot",
		LiteLLMPrefix:  "moonshot",
		DefaultAPIBase: "https://api.moonshot.ai/v1",
		ModelOverrides: []ModelOverride{
			{Pattern: "kimi-k2.5", Overrides: map[string]any{"temperature": 1.0}},
		},
	},
	{
		Name:          "vllm",
		Keywords:      []string{"vllm"},
		DisplayName:   "vLLM/Local",
		LiteLLMPrefix: "hosted_vllm",
		IsLocal:       true,
	},
	{
		Name:          "groq",
		Keywords:      []string{"groq"},
		DisplayName:   "Groq",
		LiteLLMPrefix: "groq",
	},
}

// FindByModel matches a standard provider by model-name keyword
// (case-insensitive). Skips gateways and local providers, which are matched
// by api_key/api_base instead.
func FindByModel(model string) *ProviderSpec {
	modelLower := strings.ToLower(model)
	modelNorm := strings.ReplaceAll(modelLower, "-", "_")
	modelPrefix, _, _ := strings.Cut(modelLower, "/")
	normalizedPrefix := strings.ReplaceAll(modelPrefix, "-", "_")

	var std []int
	for i := range PROVIDERS {
		if !PROVIDERS[i].IsGateway && !PROVIDERS[i].IsLocal {
			std = append(std, i)
		}
	}

	// Prefer explicit provider prefix.
	for _, i := range std {
		spec := &PROVIDERS[i]
		if modelPrefix != "" && normalizedPrefix == spec.Name {
			return spec
		}
	}

	// Keyword match.
	for _, i := range std {
		spec := &PROVIDERS[i]
		for _, kw := range spec.Keywords {
			kw = strings.ToLower(kw)
			kwNorm := strings.ReplaceAll(kw, "-", "_")
			if strings.Contains(modelLower, kw) || strings.Contains(modelNorm, kwNorm) {
				return spec
			}
		}
	}
	return nil
}

// FindGateway detects the gateway or local provider.
// Priority: (1) explicit provider_name, (2) api_key prefix, (3) api_base keyword.
func FindGateway(providerName, apiKey, apiBase string) *ProviderSpec {
	if providerName != "" {
		if s := FindByName(providerName); s != nil && (s.IsGateway || s.IsLocal) {
			return s
		}
	}
	for i := range PROVIDERS {
		spec := &PROVIDERS[i]
		if spec.DetectByKeyPrefix != "" && strings.HasPrefix(apiKey, spec.DetectByKeyPrefix) {
			return spec
		}
		if spec.DetectByBaseKeyword != "" && strings.Contains(apiBase, spec.DetectByBaseKeyword) {
			return spec
		}
	}
	return nil
}

// FindByName returns the ProviderSpec whose Name equals name.
func FindByName(name string) *ProviderSpec {
	for i := range PROVIDERS {
		if PROVIDERS[i].Name == name {
			return &PROVIDERS[i]
		}
	}
	return nil
}
