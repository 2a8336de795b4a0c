package agent

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"farmer_assist/pkg/core/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingProvider struct {
	name    string
	options map[string]interface{}
	system  string
}

func (p *recordingProvider) GenerateResponse(_ context.Context, prompt, system string, options map[string]interface{}) (string, error) {
	p.options = options
	p.system = system
	return p.name + ":" + prompt, nil
}

func (p *recordingProvider) AdaptInstructions(raw string) string { return "[" + p.name + "]" + raw }

func newTestManager(cfg Config) (*Manager, map[string]*recordingProvider) {
	recs := map[string]*recordingProvider{
		"gemini":   {name: "gemini"},
		"deepseek": {name: "deepseek"},
		"qwen":     {name: "qwen"},
	}
	providers := map[string]llm.Provider{}
	for k, v := range recs {
		providers[k] = v
	}
	return NewManager(cfg, providers, nil), recs
}

func TestGetProvider_Precedence(t *testing.T) {
	mgr, recs := newTestManager(Config{
		ActiveProvider: "deepseek",
		Agents: map[string]AgentConfig{
			"market":    {Provider: "qwen"},
			"schemes":   {Provider: "missing"},
			"assistant": {},
		},
	})

	assert.Same(t, recs["qwen"], mgr.GetProvider("market"))
	assert.Same(t, recs["deepseek"], mgr.GetProvider("schemes"), "unknown override falls back to active")
	assert.Same(t, recs["deepseek"], mgr.GetProvider("diagnosis"))

	mgr2, recs2 := newTestManager(Config{ActiveProvider: "nope"})
	assert.Same(t, recs2["gemini"], mgr2.GetProvider("diagnosis"))
}

func TestExecutePrompt_AdaptsAndAppliesModelOverride(t *testing.T) {
	mgr, recs := newTestManager(Config{
		ActiveProvider: "gemini",
		Agents:         map[string]AgentConfig{"diagnosis": {Model: "gemini-2.5-pro"}},
	})

	out, err := mgr.ExecutePrompt(context.Background(), "diagnosis", "hello", "sys", nil)
	require.NoError(t, err)
	assert.Equal(t, "gemini:hello", out)
	assert.Equal(t, "[gemini]sys", recs["gemini"].system)
	assert.Equal(t, "gemini-2.5-pro", recs["gemini"].options[llm.OptModel])

	_, err = mgr.ExecutePrompt(context.Background(), "diagnosis", "hello", "sys", map[string]interface{}{llm.OptModel: "explicit"})
	require.NoError(t, err)
	assert.Equal(t, "explicit", recs["gemini"].options[llm.OptModel], "caller's model wins")
}

func TestSetGlobalProvider(t *testing.T) {
	mgr, _ := newTestManager(Config{})
	assert.Equal(t, "gemini", mgr.GetActiveProvider())

	require.NoError(t, mgr.SetGlobalProvider("qwen"))
	assert.Equal(t, "qwen", mgr.GetActiveProvider())

	assert.Error(t, mgr.SetGlobalProvider("unknown"))
	assert.Equal(t, []string{"deepseek", "gemini", "qwen"}, mgr.Available())
}

func TestSynthesizerRegistry(t *testing.T) {
	mgr, _ := newTestManager(Config{})
	_, err := mgr.Synthesizer("gemini")
	assert.Error(t, err)

	mgr.RegisterSynthesizer("gemini", &llm.GeminiSynthesizer{})
	s, err := mgr.Synthesizer("gemini")
	require.NoError(t, err)
	assert.NotNil(t, s)
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Empty(t, cfg.ActiveProvider)

	path := filepath.Join(t.TempDir(), "models.yaml")
	require.NoError(t, os.WriteFile(path, []byte("active_provider: qwen\nagents:\n  market:\n    provider: gemini\n"), 0644))
	cfg, err = LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "qwen", cfg.ActiveProvider)
	assert.Equal(t, "gemini", cfg.Agents["market"].Provider)
}
