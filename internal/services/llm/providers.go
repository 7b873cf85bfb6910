package llm

import "strings"

// Provider identifies a hosted chat-completions vendor.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderMoonshot  Provider = "moonshot"
	ProviderDashScope Provider = "dashscope"
	ProviderZhipu     Provider = "zhipu"
	ProviderDeepSeek  Provider = "deepseek"
	ProviderGemini    Provider = "gemini"
)

var providerBaseURLs = map[Provider]string{
	ProviderOpenAI:    "https://api.openai.com/v1",
	ProviderMoonshot:  "https://api.moonshot.cn/v1",
	ProviderDashScope: "https://dashscope.aliyuncs.com/compatible-mode/v1",
	ProviderZhipu:     "https://open.bigmodel.cn/api/paas/v4",
	ProviderDeepSeek:  "https://api.deepseek.com",
	ProviderGemini:    "https://generativelanguage.googleapis.com/v1beta/openai",
}

// ProviderForModel infers the vendor from a model name. Unrecognized names
// fall back to Gemini, matching the most common default model family.
func ProviderForModel(model string) Provider {
	name := strings.ToLower(strings.TrimSpace(model))
	switch {
	case strings.Contains(name, "gpt"):
		return ProviderOpenAI
	case strings.Contains(name, "moonshot"), strings.Contains(name, "kimi"):
		return ProviderMoonshot
	case strings.Contains(name, "qwen"):
		return ProviderDashScope
	case strings.Contains(name, "glm"):
		return ProviderZhipu
	case strings.Contains(name, "deepseek"):
		return ProviderDeepSeek
	default:
		return ProviderGemini
	}
}

// ResolveBaseURL returns the chat-completions base URL for the vendor
// inferred from the model name.
func ResolveBaseURL(model string) string {
	return providerBaseURLs[ProviderForModel(model)]
}
