// Command voxgate transcribes an audio file through the configured
// provider cascade and optionally refines the transcript with the
// configured text model. The result is printed as one JSON document.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/dimiro1/banner"

	"github.com/voxgate/voxgate/pkg/asr"
	"github.com/voxgate/voxgate/pkg/gateway"
	"github.com/voxgate/voxgate/pkg/llm"
	"github.com/voxgate/voxgate/pkg/logging"
	"github.com/voxgate/voxgate/pkg/metrics"
	"github.com/voxgate/voxgate/pkg/provider"
	"github.com/voxgate/voxgate/pkg/providers/anthropic"
	"github.com/voxgate/voxgate/pkg/providers/assemblyai"
	"github.com/voxgate/voxgate/pkg/providers/deepgram"
	"github.com/voxgate/voxgate/pkg/providers/gemini"
	"github.com/voxgate/voxgate/pkg/providers/openai"
	"github.com/voxgate/voxgate/pkg/redact"
	"github.com/voxgate/voxgate/pkg/secrets"
)

const version = "dev"

const refineSystemPrompt = "Clean up this voice transcription: fix punctuation and obvious " +
	"speech-recognition mistakes, remove filler words, keep the original language and meaning. " +
	"Output only the corrected text."

type result struct {
	RawText     string `json:"raw_text"`
	RefinedText string `json:"refined_text,omitempty"`
	Meta        meta   `json:"meta"`
}

type meta struct {
	Provider   string `json:"provider"`
	Model      string `json:"model"`
	Language   string `json:"language,omitempty"`
	TimingMS   int64  `json:"timing_ms"`
	RefinedBy  string `json:"refined_by,omitempty"`
	RefineMS   int64  `json:"refine_ms,omitempty"`
	RequestID  string `json:"request_id"`
	FellBack   bool   `json:"fell_back,omitempty"`
	RefineSkip string `json:"refine_skip,omitempty"`
}

func printBanner() {
	tpl := "{{ .Title \"VOXGATE\" \"\" 0 }}\nVersion: " + version + "\n"
	banner.Init(os.Stdout, true, true, bytes.NewBufferString(tpl))
}

func main() {
	var (
		configPath  = flag.String("config", "voxgate.yaml", "path to the configuration file")
		audioPath   = flag.String("audio", "", "path to the audio file to transcribe")
		language    = flag.String("language", asr.LanguageAuto, "spoken language hint, or auto")
		timestamps  = flag.Bool("timestamps", false, "request segment timestamps")
		diarize     = flag.Bool("diarize", false, "request speaker labels")
		refine      = flag.Bool("refine", true, "refine the transcript with the text engine")
		stream      = flag.Bool("stream", false, "print refinement tokens to stderr as they arrive")
		metricsPath = flag.String("metrics", "", "append per-call metrics as JSON lines to this file")
		showBanner  = flag.Bool("banner", true, "print the startup banner")
	)
	flag.Parse()

	if *audioPath == "" {
		fmt.Fprintln(os.Stderr, "usage: voxgate -audio recording.wav [-config voxgate.yaml]")
		os.Exit(2)
	}

	snap, err := gateway.LoadSnapshot(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "voxgate: load config: %v\n", err)
		os.Exit(1)
	}
	logging.Init(snap.LogLevel, snap.LogFormat)
	redact.SetEnabled(snap.Privacy.RedactPII)
	if *showBanner {
		printBanner()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	o := gateway.NewOrchestrator(snap, secrets.NewEnvStore(), buildRegistry())
	if *metricsPath != "" {
		sink, err := os.OpenFile(*metricsPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "voxgate: open metrics file: %v\n", err)
			os.Exit(1)
		}
		defer sink.Close()
		async := metrics.NewAsyncObserver(metrics.NewJSONLObserver(sink), 256)
		defer async.Close()
		o.Metrics = async
	}

	out, err := run(ctx, o, snap, *audioPath, *language, *timestamps, *diarize, *refine, *stream)
	if err != nil {
		slog.Error("run_failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(out); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, o *gateway.Orchestrator, snap gateway.Snapshot, audioPath, language string, timestamps, diarize, refine, stream bool) (result, error) {
	start := time.Now()
	resp, err := o.Transcribe(ctx, asr.Request{
		AudioPath:   audioPath,
		MimeType:    mimeFromPath(audioPath),
		Language:    language,
		Timestamps:  timestamps,
		Diarization: diarize,
	})
	if err != nil {
		return result{}, err
	}

	out := result{
		RawText: resp.Text,
		Meta: meta{
			Provider:  resp.Provider,
			Model:     resp.Model,
			Language:  resp.DetectedLanguage,
			TimingMS:  time.Since(start).Milliseconds(),
			RequestID: resp.RequestID,
			FellBack:  resp.Provider != snap.Engine.ASR,
		},
	}

	if !refine || snap.Engine.LLM == "" {
		return out, nil
	}

	refineStart := time.Now()
	req := llm.Request{
		SystemPrompt: refineSystemPrompt,
		UserMessage:  resp.Text,
	}
	if stream {
		req.OnToken = func(tok string) { fmt.Fprint(os.Stderr, tok) }
	}
	refined, err := o.Generate(ctx, req)
	if stream {
		fmt.Fprintln(os.Stderr)
	}
	if err != nil {
		// refinement is best-effort: the raw transcript is still the answer
		slog.Warn("refinement_failed", slog.String("error", err.Error()))
		out.Meta.RefineSkip = err.Error()
		return out, nil
	}
	text := strings.TrimSpace(refined.Text)
	if text == "" {
		// an empty refinement never replaces a non-empty transcript
		out.Meta.RefineSkip = "model returned empty text"
		return out, nil
	}
	out.RefinedText = text
	out.Meta.RefinedBy = refined.Provider
	out.Meta.RefineMS = time.Since(refineStart).Milliseconds()
	return out, nil
}

func buildRegistry() *provider.Registry {
	registry := provider.NewRegistry()
	registry.RegisterASR(openai.NewASR())
	registry.RegisterASR(deepgram.NewASR())
	registry.RegisterASR(deepgram.NewLive())
	registry.RegisterASR(assemblyai.NewASR())
	registry.RegisterASR(gemini.NewASR())
	registry.RegisterLLM(openai.NewChat())
	registry.RegisterLLM(openai.NewResponses())
	registry.RegisterLLM(anthropic.NewChat())
	return registry
}

func mimeFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return "audio/wav"
	case ".mp3":
		return "audio/mpeg"
	case ".flac":
		return "audio/flac"
	case ".ogg":
		return "audio/ogg"
	case ".m4a":
		return "audio/mp4"
	case ".webm":
		return "audio/webm"
	default:
		return ""
	}
}
