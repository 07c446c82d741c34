// Package gateway resolves runtime configuration and orchestrates
// transcription and generation across the provider adapters.
package gateway

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/voxgate/voxgate/pkg/configutil"
)

// Snapshot is the resolved configuration handed in by the settings
// layer. It is read-only input; RuntimeConfigs are built fresh from it
// on every call. Provider blocks stay free-form here and are decoded
// per provider on access, so key spellings like baseURL and base_url
// both resolve.
type Snapshot struct {
	Engine    EngineSelection           `mapstructure:"engine"`
	Providers map[string]map[string]any `mapstructure:"providers"`
	Limits    Limits                    `mapstructure:"limits"`
	Output    OutputSettings            `mapstructure:"output"`
	Privacy   PrivacySettings           `mapstructure:"privacy"`
	LogLevel  string                    `mapstructure:"log_level"`
	LogFormat string                    `mapstructure:"log_format"`
}

type EngineSelection struct {
	ASR string `mapstructure:"asr"`
	LLM string `mapstructure:"llm"`
}

// ProviderSettings overrides the catalog defaults for one provider.
// TimeoutSeconds and Retries, when set, take precedence over the global
// limits for that provider only.
type ProviderSettings struct {
	BaseURL        string            `mapstructure:"base_url"`
	Model          string            `mapstructure:"model"`
	APIKeyRef      string            `mapstructure:"api_key_ref"`
	Streaming      *bool             `mapstructure:"streaming"`
	TimeoutSeconds *int              `mapstructure:"timeout_seconds"`
	Retries        *int              `mapstructure:"retries"`
	Headers        map[string]string `mapstructure:"headers"`
	Params         map[string]string `mapstructure:"params"`
}

type Limits struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
	Retries        int `mapstructure:"retries"`
	Concurrency    int `mapstructure:"concurrency"`
}

type OutputSettings struct {
	// Language is the preferred output language, e.g. "zh" or "en".
	// Empty means no preference.
	Language string `mapstructure:"language"`
	// UILocale is the locale the surrounding application runs in.
	UILocale string `mapstructure:"ui_locale"`
}

type PrivacySettings struct {
	RedactPII bool `mapstructure:"redact_pii"`
}

// LoadSnapshot reads a configuration file into a Snapshot. Environment
// variables override file values (VOXGATE_ENGINE_ASR and so on).
func LoadSnapshot(path string) (Snapshot, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("voxgate")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		return Snapshot{}, err
	}
	var snap Snapshot
	if err := v.Unmarshal(&snap); err != nil {
		return Snapshot{}, err
	}
	if err := configutil.RequireString(snap.Engine.ASR, "engine.asr"); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

func (s Snapshot) provider(id string) (ProviderSettings, error) {
	var settings ProviderSettings
	raw := s.Providers[strings.ToLower(strings.TrimSpace(id))]
	if err := configutil.DecodeSettings(raw, &settings); err != nil {
		return ProviderSettings{}, err
	}
	return settings, nil
}
