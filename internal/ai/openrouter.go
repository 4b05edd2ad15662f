package ai

import "strings"

const defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

// OpenRouter speaks the OpenAI wire protocol, only the base URL differs.
func createOpenRouterFactory(args interface{}) (IProvider, error) {
	cfg := &openAIConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultOpenRouterBaseURL
	}
	return &openAIProvider{
		name:    "openrouter",
		apiKey:  strings.TrimSpace(cfg.APIKey),
		baseURL: baseURL,
	}, nil
}

func init() {
	Register("openrouter", createOpenRouterFactory)
}
