// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type AIConfig struct {
	OpenAIKey         string            `yaml:"openai_key"`
	OpenAIBaseURL     string            `yaml:"openai_base_url"`
	GeminiKey         string            `yaml:"gemini_key"`
	GeminiURL         string            `yaml:"gemini_url"`
	DefaultModel      string            `yaml:"default_model"`
	DefaultProvider   string            `yaml:"default_provider"`
	ModelProviders    map[string]string `yaml:"model_providers"` // model -> provider
	MaxOutputTokens   int               `yaml:"max_output_tokens"`
	ConcurrentLimit   int               `yaml:"concurrent_limit"` // max concurrent AI calls
	SystemInstruction string            `yaml:"system_instruction"`
	Grounding         bool              `yaml:"grounding"` // Google Search grounding (Gemini)
}

type ChatConfig struct {
	HistoryWindow int `yaml:"history_window"` // turns sent to the provider
}

type WebConfig struct {
	Port          int    `yaml:"port"`
	AuthSecret    string `yaml:"auth_secret"`
	CookieTTLMins int    `yaml:"cookie_ttl_minutes"`
	SecureCookie  bool   `yaml:"secure_cookie"`
}

type Config struct {
	Log  LogConfig  `yaml:"log"`
	AI   AIConfig   `yaml:"ai"`
	Chat ChatConfig `yaml:"chat"`
	Web  WebConfig  `yaml:"web"`

	Runtime RuntimeConfig `yaml:"-"`
}

// The assistant persona from the product spec; overridable per deploy.
const defaultSystemInstruction = "أنت 'ابتكار'، مساعد ذكي عالمي المستوى. تمتاز بالدقة، الذكاء، واللباقة. استخدم ميزة البحث لتوفير معلومات محدثة دائماً. قم بتنسيق الإجابات بشكل احترافي باستخدام Markdown."

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Runtime.Dev = dev
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.AI.DefaultModel == "" {
		cfg.AI.DefaultModel = "gemini-2.5-flash"
	}
	if cfg.AI.DefaultProvider == "" {
		cfg.AI.DefaultProvider = "gemini"
	}
	if cfg.AI.ConcurrentLimit <= 0 {
		cfg.AI.ConcurrentLimit = 16
	}
	if cfg.AI.MaxOutputTokens <= 0 {
		cfg.AI.MaxOutputTokens = 4096
	}
	if cfg.AI.SystemInstruction == "" {
		cfg.AI.SystemInstruction = defaultSystemInstruction
	}
	if cfg.Chat.HistoryWindow <= 0 {
		cfg.Chat.HistoryWindow = 32
	}
	if cfg.Web.Port <= 0 {
		cfg.Web.Port = 8080
	}
	if cfg.Web.CookieTTLMins <= 0 {
		cfg.Web.CookieTTLMins = 12 * 60
	}
}

func (cfg *Config) validate() error {
	if !cfg.Runtime.Dev && cfg.AI.OpenAIKey == "" && cfg.AI.GeminiKey == "" {
		return errors.New("ai: at least one of openai_key or gemini_key is required outside dev mode")
	}
	if !cfg.Runtime.Dev && cfg.Web.AuthSecret == "" {
		return errors.New("web.auth_secret is required outside dev mode")
	}
	return nil
}
