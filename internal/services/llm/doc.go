// Package llm provides a chat-completions client for hosted translation
// backends.
//
// A single client shape covers every supported vendor because they all expose
// the OpenAI chat-completions wire format. The vendor is inferred from the
// model name (gpt -> OpenAI, qwen -> DashScope, glm -> Zhipu, deepseek ->
// DeepSeek, moonshot/kimi -> Moonshot, anything else -> Gemini), and an
// explicit base_url in configuration overrides the inference.
//
// # Entry Points
//
// NewClient: construct a client from Config.
// Client.Complete: send system/user prompts, receive plain-text content.
// Client.HealthCheck: verify the API key and model are usable.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx responses, network timeouts, and
// empty completions with exponential backoff (base 1s, max 10s, 3 attempts by
// default). A Retry-After header takes precedence over computed backoff.
// Context cancellation aborts retries immediately. Count or framing problems
// in the returned text are not visible at this layer; callers validate the
// content and decide whether to re-issue with different instructions.
package llm
