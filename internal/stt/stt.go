// Package stt binds speech-to-text providers behind a single Transcriber
// contract: one recorded clip in, plain text out.
package stt

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
)

var (
	// ErrNotRecognized means the provider answered but found no speech.
	ErrNotRecognized = errors.New("speech not recognized")
	// ErrUnavailable wraps transport and upstream failures.
	ErrUnavailable = errors.New("speech provider unavailable")
	// ErrNotConfigured means credentials for the provider are missing.
	ErrNotConfigured = errors.New("speech provider is not configured")
)

// Transcriber converts one audio clip to text. mime is a hint such as
// "audio/webm;codecs=opus" taken from the upload.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mime string) (string, error)
}

// Config selects and configures a provider.
type Config struct {
	Provider string // "azure" (default), "google" or "assemblyai"

	AzureKey    string
	AzureRegion string
	Language    string

	GoogleCredentialsFile string

	AssemblyAIKey string
}

// New builds the configured provider. It returns ErrNotConfigured when the
// selected provider lacks credentials.
func New(ctx context.Context, cfg Config) (Transcriber, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "azure":
		if cfg.AzureKey == "" || cfg.AzureRegion == "" {
			return nil, fmt.Errorf("azure: SPEECH_KEY and SPEECH_REGION required: %w", ErrNotConfigured)
		}
		return NewAzure(cfg.AzureKey, cfg.AzureRegion, cfg.Language), nil
	case "google":
		g, err := NewGoogle(ctx, cfg.GoogleCredentialsFile, cfg.Language)
		if err != nil {
			return nil, err
		}
		log.Printf("stt: using google cloud speech")
		return g, nil
	case "assemblyai":
		if cfg.AssemblyAIKey == "" {
			return nil, fmt.Errorf("assemblyai: ASSEMBLYAI_API_KEY required: %w", ErrNotConfigured)
		}
		return NewAssemblyAI(cfg.AssemblyAIKey), nil
	default:
		return nil, fmt.Errorf("unknown STT_PROVIDER %q: %w", cfg.Provider, ErrNotConfigured)
	}
}

// container classifies the mime hint of an uploaded clip.
type container int

const (
	containerPCM container = iota
	containerWebM
	containerOgg
)

func containerOf(mime string) container {
	m := strings.ToLower(mime)
	switch {
	case strings.Contains(m, "webm"):
		return containerWebM
	case strings.Contains(m, "ogg"):
		return containerOgg
	default:
		return containerPCM
	}
}

type disabled struct{ err error }

func (d disabled) Transcribe(context.Context, []byte, string) (string, error) { return "", d.err }

// Disabled returns a Transcriber failing every call with err, for running
// without speech credentials.
func Disabled(err error) Transcriber { return disabled{err: err} }
