// Package provider holds the per-backend credential configuration.
package provider

const (
	ProviderCustom      = "custom"
	ProviderAnthropic   = "anthropic"
	ProviderOpenAI      = "openai"
	ProviderOpenRouter  = "openrouter"
	ProviderDeepSeek    = "deepseek"
	ProviderGroq        = "groq"
	ProviderZhipu       = "zhipu"
	ProviderDashScope   = "dashscope"
	ProviderVLLM        = "vllm"
	ProviderGemini      = "gemini"
	ProviderMoonshot    = "moonshot"
	ProviderAiHubMix    = "aihubmix"
	ProviderSiliconFlow = "siliconflow"
)

// ProviderConfig holds credentials for one LLM provider.
type ProviderConfig struct {
	APIKey       string            `yaml:"apiKey"`
	APIBase      string            `yaml:"apiBase,omitempty"`
	ExtraHeaders map[string]string `yaml:"extraHeaders,omitempty"`
}

// ProvidersConfig holds credentials for all supported LLM providers.
type ProvidersConfig struct {
	Custom      ProviderConfig `yaml:"custom"`
	Anthropic   ProviderConfig `yaml:"anthropic"`
	OpenAI      ProviderConfig `yaml:"openai"`
	OpenRouter  ProviderConfig `yaml:"openrouter"`
	DeepSeek    ProviderConfig `yaml:"deepseek"`
	Groq        ProviderConfig `yaml:"groq"`
	Zhipu       ProviderConfig `yaml:"zhipu"`
	DashScope   ProviderConfig `yaml:"dashscope"`
	VLLM        ProviderConfig `yaml:"vllm"`
	Gemini      ProviderConfig `yaml:"gemini"`
	Moonshot    ProviderConfig `yaml:"moonshot"`
	AiHubMix    ProviderConfig `yaml:"aihubmix"`
	SiliconFlow ProviderConfig `yaml:"siliconflow"`
}

func DefaultProvidersConfig() ProvidersConfig {
	return ProvidersConfig{}
}

// ByName returns a pointer to the ProviderConfig field matching the given
// registry name. Returns nil if the name is unknown.
func (p *ProvidersConfig) ByName(name string) *ProviderConfig {
	switch name {
	case ProviderCustom:
		return &p.Custom
	case ProviderAnthropic:
		return &p.Anthropic
	case ProviderOpenAI:
		return &p.OpenAI
	case ProviderOpenRouter:
		return &p.OpenRouter
	case ProviderDeepSeek:
		return &p.DeepSeek
	case ProviderGroq:
		return &p.Groq
	case ProviderZhipu:
		return &p.Zhipu
	case ProviderDashScope:
		return &p.DashScope
	case ProviderVLLM:
		return &p.VLLM
	case ProviderGemini:
		return &p.Gemini
	case ProviderMoonshot:
		return &p.Moonshot
	case ProviderAiHubMix:
		return &p.AiHubMix
	case ProviderSiliconFlow:
		return &p.SiliconFlow
	}
	return nil
}
