// Package mock provides scriptable in-memory adapters for orchestrator
// tests.
package mock

import (
	"context"
	"sync"

	"github.com/voxgate/voxgate/pkg/asr"
	"github.com/voxgate/voxgate/pkg/llm"
	"github.com/voxgate/voxgate/pkg/provider"
)

// ASRResult scripts one Transcribe outcome.
type ASRResult struct {
	Text     string
	Language string
	Err      error
}

// ASR returns scripted results in order, repeating the last one when the
// script runs out. Calls records every invocation.
type ASR struct {
	AdapterKind provider.RequestKind
	Script      []ASRResult

	mu    sync.Mutex
	calls int

	// Calls captures the requests seen, in order.
	Calls []asr.Request
	// Providers captures the provider id of each invocation.
	Providers []string
}

func (m *ASR) Kind() provider.RequestKind {
	if m.AdapterKind == "" {
		return provider.KindMultipartASR
	}
	return m.AdapterKind
}

func (m *ASR) Transcribe(ctx context.Context, req asr.Request, cfg provider.RuntimeConfig, audio []byte) (asr.Response, error) {
	if err := ctx.Err(); err != nil {
		return asr.Response{}, err
	}
	m.mu.Lock()
	idx := m.calls
	if idx >= len(m.Script) {
		idx = len(m.Script) - 1
	}
	m.calls++
	m.Calls = append(m.Calls, req)
	m.Providers = append(m.Providers, cfg.Provider)
	m.mu.Unlock()

	if idx < 0 {
		return asr.Response{RequestID: req.ID, Provider: cfg.Provider, Model: cfg.Model}, nil
	}
	step := m.Script[idx]
	if step.Err != nil {
		return asr.Response{}, step.Err
	}
	return asr.Response{
		RequestID:        req.ID,
		Provider:         cfg.Provider,
		Model:            cfg.Model,
		Text:             step.Text,
		DetectedLanguage: step.Language,
	}, nil
}

// CallCount returns how many times Transcribe ran.
func (m *ASR) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LLM returns a fixed generation result.
type LLM struct {
	AdapterKind provider.RequestKind
	Text        string
	Err         error

	mu    sync.Mutex
	calls int
}

func (m *LLM) Kind() provider.RequestKind {
	if m.AdapterKind == "" {
		return provider.KindChatCompletions
	}
	return m.AdapterKind
}

func (m *LLM) Generate(ctx context.Context, req llm.Request, cfg provider.RuntimeConfig) (llm.Response, error) {
	if err := ctx.Err(); err != nil {
		return llm.Response{}, err
	}
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.Err != nil {
		return llm.Response{}, m.Err
	}
	if req.OnToken != nil && m.Text != "" {
		req.OnToken(m.Text)
	}
	return llm.Response{
		RequestID: req.ID,
		Provider:  cfg.Provider,
		Model:     cfg.Model,
		Text:      m.Text,
	}, nil
}

func (m *LLM) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

var (
	_ provider.ASRAdapter = (*ASR)(nil)
	_ provider.LLMAdapter = (*LLM)(nil)
)
