package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/policygate/internal/model"
	"github.com/ppiankov/policygate/internal/pipeline"
)

// registerDefaults declares every config key with its default so environment
// variables can override keys that appear in no config file
func registerDefaults(v *viper.Viper, cfg *model.Config) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return
	}
	for key, value := range flatten("", tree) {
		v.SetDefault(key, value)
	}
}

func flatten(prefix string, tree map[string]any) map[string]any {
	out := make(map[string]any)
	for k, v := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := v.(map[string]any); ok {
			for sk, sv := range flatten(key, sub) {
				out[sk] = sv
			}
			continue
		}
		out[key] = v
	}
	return out
}

// loadConfig merges defaults, config file, environment and flags, then validates
func loadConfig() (*model.Config, error) {
	return decodeConfig(viper.GetViper())
}

func decodeConfig(v *viper.Viper) (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveCredentials reads provider credentials from the environment once.
// A missing key for the selected provider is fatal.
func resolveCredentials(cfg *model.Config) (pipeline.Options, error) {
	return credentialsFrom(cfg, os.Getenv)
}

func credentialsFrom(cfg *model.Config, getenv func(string) string) (pipeline.Options, error) {
	opts := pipeline.Options{OpenAIKey: getenv("OPENAI_API_KEY")}

	switch strings.ToLower(cfg.LLM.Provider) {
	case "openai":
		cfg.LLM.APIKey = opts.OpenAIKey
		if cfg.LLM.APIKey == "" {
			return opts, fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "anthropic", "claude":
		cfg.LLM.APIKey = getenv("ANTHROPIC_API_KEY")
		if cfg.LLM.APIKey == "" {
			return opts, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
		}
	case "ollama":
		// Ollama doesn't need an API key
		if baseURL := getenv("OLLAMA_BASE_URL"); baseURL != "" && cfg.LLM.BaseURL == "" {
			cfg.LLM.BaseURL = baseURL
		}
	}

	if cfg.Retrieval.Backend == "weaviate" && opts.OpenAIKey == "" {
		return opts, fmt.Errorf("OPENAI_API_KEY environment variable not set (required to embed questions for weaviate)")
	}
	return opts, nil
}
