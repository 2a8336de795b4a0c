package agent

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"farmer_assist/pkg/core/llm"

	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

type Config struct {
	ActiveProvider string                 `yaml:"active_provider"`
	Agents         map[string]AgentConfig `yaml:"agents"`
}

type AgentConfig struct {
	Provider    string `yaml:"provider"` // Optional override
	Model       string `yaml:"model"`    // Optional model override
	Description string `yaml:"description"`
}

const fallbackProvider = "gemini"

// LoadConfig reads the models file. A missing file yields an empty config,
// which routes every agent to the fallback provider.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

type Manager struct {
	mu           sync.RWMutex
	config       Config
	providers    map[string]llm.Provider
	synthesizers map[string]llm.Synthesizer
	logger       *zap.Logger
}

// DefaultProviders returns every provider the service knows how to reach.
func DefaultProviders() map[string]llm.Provider {
	return map[string]llm.Provider{
		"gemini":        &llm.GeminiProvider{},
		"gemini-legacy": &llm.GeminiLegacyProvider{},
		"openai":        llm.NewOpenAIProvider(),
		"deepseek":      llm.NewDeepSeekProvider(),
		"qwen":          llm.NewQwenProvider(),
		"kimi":          llm.NewKimiProvider(),
		"doubao":        llm.NewDoubaoProvider(),
	}
}

func NewManager(config Config, providers map[string]llm.Provider, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		config:       config,
		providers:    providers,
		synthesizers: make(map[string]llm.Synthesizer),
		logger:       logger.Named("agent"),
	}
}

// RegisterSynthesizer makes a speech backend available under name.
func (m *Manager) RegisterSynthesizer(name string, s llm.Synthesizer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.synthesizers[name] = s
}

// Synthesizer returns the named speech backend, or an error when unknown.
func (m *Manager) Synthesizer(name string) (llm.Synthesizer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.synthesizers[name]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("speech provider %s not found", name)
}

func (m *Manager) GetProvider(agentType string) llm.Provider {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// 1. Check for agent-specific override
	if agentConfig, ok := m.config.Agents[agentType]; ok && agentConfig.Provider != "" {
		if p, ok := m.providers[agentConfig.Provider]; ok {
			return p
		}
	}

	// 2. Use global active provider
	if p, ok := m.providers[m.config.ActiveProvider]; ok {
		return p
	}

	// 3. Fallback
	return m.providers[fallbackProvider]
}

// ExecutePrompt handles instruction adaptation before sending to the model
func (m *Manager) ExecutePrompt(ctx context.Context, agentType string, rawPrompt string, rawSystemPrompt string, options map[string]interface{}) (string, error) {
	provider := m.GetProvider(agentType)
	if provider == nil {
		return "", fmt.Errorf("no provider configured for agent %s", agentType)
	}

	m.mu.RLock()
	agentCfg := m.config.Agents[agentType]
	m.mu.RUnlock()
	if agentCfg.Model != "" {
		if options == nil {
			options = map[string]interface{}{}
		}
		if _, set := options[llm.OptModel]; !set {
			options[llm.OptModel] = agentCfg.Model
		}
	}

	m.logger.Debug("execute prompt",
		zap.String("agent", agentType),
		zap.String("active_provider", m.GetActiveProvider()),
		zap.String("provider_type", fmt.Sprintf("%T", provider)))

	// Adapt instructions based on the model's specialized "teaching" style
	adaptedSystemPrompt := provider.AdaptInstructions(rawSystemPrompt)

	return provider.GenerateResponse(ctx, rawPrompt, adaptedSystemPrompt, options)
}

func (m *Manager) SetGlobalProvider(newProvider string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.providers[newProvider]; !ok {
		return fmt.Errorf("provider %s not found", newProvider)
	}
	m.config.ActiveProvider = newProvider
	m.logger.Info("global provider switched", zap.String("provider", newProvider))
	return nil
}

func (m *Manager) GetActiveProvider() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.config.ActiveProvider == "" {
		return fallbackProvider
	}
	return m.config.ActiveProvider
}

// Available lists registered provider names in sorted order.
func (m *Manager) Available() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.providers))
	for name := range m.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
