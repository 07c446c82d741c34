package provider

import (
	"fmt"
)

// Registry maps request kinds to adapter implementations. Selection
// happens once per call in the resolver; invocation goes through a
// single interface so provider logic never leaks into call sites.
type Registry struct {
	asr map[RequestKind]ASRAdapter
	llm map[RequestKind]LLMAdapter
}

func NewRegistry() *Registry {
	return &Registry{
		asr: make(map[RequestKind]ASRAdapter),
		llm: make(map[RequestKind]LLMAdapter),
	}
}

func (r *Registry) RegisterASR(adapter ASRAdapter) {
	r.asr[adapter.Kind()] = adapter
}

func (r *Registry) RegisterLLM(adapter LLMAdapter) {
	r.llm[adapter.Kind()] = adapter
}

// ASR returns the adapter matching the config's request kind.
func (r *Registry) ASR(cfg RuntimeConfig) (ASRAdapter, error) {
	adapter, ok := r.asr[cfg.Kind]
	if !ok {
		return nil, fmt.Errorf("asr adapter not registered: %s", cfg.Kind)
	}
	return adapter, nil
}

// LLM returns the adapter matching the config's request kind.
func (r *Registry) LLM(cfg RuntimeConfig) (LLMAdapter, error) {
	adapter, ok := r.llm[cfg.Kind]
	if !ok {
		return nil, fmt.Errorf("llm adapter not registered: %s", cfg.Kind)
	}
	return adapter, nil
}
