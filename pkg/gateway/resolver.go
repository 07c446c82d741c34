package gateway

import (
	"strings"
	"time"

	"github.com/voxgate/voxgate/pkg/configutil"
	"github.com/voxgate/voxgate/pkg/errorsx"
	"github.com/voxgate/voxgate/pkg/provider"
	"github.com/voxgate/voxgate/pkg/secrets"
)

// Clamp bounds applied to the configured limits.
const (
	minTimeout = 15 * time.Second
	maxTimeout = 1800 * time.Second

	maxRetries     = 8
	maxConcurrency = 8
)

// Resolver turns a configuration snapshot plus a selected engine into a
// fully authenticated RuntimeConfig and an ordered fallback list.
type Resolver struct {
	snap    Snapshot
	secrets secrets.Store
}

func NewResolver(snap Snapshot, store secrets.Store) *Resolver {
	return &Resolver{snap: snap, secrets: store}
}

// Resolve builds the RuntimeConfig for the given engine id. Engines
// without a network transport (the local engine) resolve to
// UnsupportedEngine.
func (r *Resolver) Resolve(op Operation, engineID string) (provider.RuntimeConfig, error) {
	engineID = strings.ToLower(strings.TrimSpace(engineID))
	if engineID == EngineLocal {
		return provider.RuntimeConfig{}, errorsx.ConfigError{Kind: errorsx.UnsupportedEngine, Provider: engineID}
	}
	entry, ok := findEngine(engineID, op)
	if !ok {
		return provider.RuntimeConfig{}, errorsx.ConfigError{Kind: errorsx.UnsupportedEngine, Provider: engineID}
	}

	settings, err := r.snap.provider(entry.ID)
	if err != nil {
		return provider.RuntimeConfig{}, errorsx.ConfigError{Kind: errorsx.InvalidSettings, Provider: entry.ID, Err: err}
	}

	baseURL := strings.TrimRight(firstNonEmpty(settings.BaseURL, entry.BaseURL), "/")
	if baseURL == "" {
		return provider.RuntimeConfig{}, errorsx.ConfigError{Kind: errorsx.MissingBaseURL, Provider: entry.ID}
	}
	model := firstNonEmpty(settings.Model, entry.Model)
	if model == "" {
		return provider.RuntimeConfig{}, errorsx.ConfigError{Kind: errorsx.MissingModel, Provider: entry.ID}
	}

	keyRef := firstNonEmpty(settings.APIKeyRef, entry.KeyRef)
	key, ok := r.secrets.Get(keyRef)
	if !ok {
		r.secrets.MarkMissing(keyRef)
		return provider.RuntimeConfig{}, errorsx.ConfigError{Kind: errorsx.MissingCredential, Provider: entry.ID}
	}

	timeoutSeconds := configutil.IntValue(settings.TimeoutSeconds, r.snap.Limits.TimeoutSeconds)
	timeout := time.Duration(timeoutSeconds) * time.Second
	if timeout < minTimeout {
		timeout = minTimeout
	}
	if timeout > maxTimeout {
		timeout = maxTimeout
	}

	return provider.RuntimeConfig{
		Provider:       entry.ID,
		DisplayName:    entry.DisplayName,
		BaseURL:        baseURL,
		Model:          model,
		APIKey:         key,
		Kind:           entry.Kind,
		Timeout:        timeout,
		MaxRetries:     configutil.ClampInt(configutil.IntValue(settings.Retries, r.snap.Limits.Retries), 0, maxRetries),
		MaxConcurrency: configutil.ClampInt(r.snap.Limits.Concurrency, 1, maxConcurrency),
		Streaming:      configutil.BoolValue(settings.Streaming, true),
		ExtraHeaders:   settings.Headers,
		QueryParams:    settings.Params,
	}, nil
}

// Fallbacks returns resolved configs for every fallback ASR provider
// that currently has a usable credential, in fixed priority order,
// excluding the primary provider id.
func (r *Resolver) Fallbacks(primaryID string) []provider.RuntimeConfig {
	var out []provider.RuntimeConfig
	for _, id := range asrFallbackOrder {
		if id == primaryID {
			continue
		}
		cfg, err := r.Resolve(OpASR, id)
		if err != nil {
			continue
		}
		out = append(out, cfg)
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
