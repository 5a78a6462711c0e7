package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
)

const (
	DefaultElevenLabsBaseURL = "https://api.elevenlabs.io"
	DefaultElevenLabsModel   = "eleven_flash_v2_5"
)

// ElevenLabs synthesizes over the HTTP streaming endpoint.
type ElevenLabs struct {
	HTTPClient *http.Client
	APIKey     string
	VoiceID    string
	Model      string
	BaseURL    string
}

func NewElevenLabs(apiKey, voiceID string) *ElevenLabs {
	return &ElevenLabs{
		HTTPClient: &http.Client{},
		APIKey:     apiKey,
		VoiceID:    voiceID,
		Model:      DefaultElevenLabsModel,
		BaseURL:    DefaultElevenLabsBaseURL,
	}
}

type elevenLabsRequest struct {
	ModelID       string             `json:"model_id"`
	Text          string             `json:"text"`
	VoiceSettings elevenLabsSettings `json:"voice_settings"`
}

type elevenLabsSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

func (e *ElevenLabs) StreamPCM48k(ctx context.Context, text string) (<-chan []byte, <-chan error) {
	pcm := make(chan []byte, 256)
	errc := make(chan error, 1)
	go func() {
		defer close(pcm)
		defer close(errc)
		if e.APIKey == "" || e.VoiceID == "" {
			errc <- fmt.Errorf("elevenlabs: %w", ErrNotConfigured)
			return
		}
		if strings.TrimSpace(text) == "" {
			return
		}
		if err := e.stream(ctx, text, pcm); err != nil {
			errc <- err
		}
	}()
	return pcm, errc
}

func (e *ElevenLabs) stream(ctx context.Context, text string, pcm chan<- []byte) error {
	u, err := url.Parse(strings.TrimRight(e.BaseURL, "/") + "/v1/text-to-speech/" + url.PathEscape(e.VoiceID) + "/stream")
	if err != nil {
		return fmt.Errorf("elevenlabs: %w", err)
	}
	q := u.Query()
	q.Set("output_format", "pcm_48000")
	q.Set("optimize_streaming_latency", "2")
	u.RawQuery = q.Encode()

	body, err := json.Marshal(elevenLabsRequest{
		ModelID: e.Model,
		Text:    text,
		VoiceSettings: elevenLabsSettings{
			Stability:       0.4,
			SimilarityBoost: 0.7,
			UseSpeakerBoost: true,
		},
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("xi-api-key", e.APIKey)
	req.Header.Set("Content-Type", "application/json")

	hc := e.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("elevenlabs: request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("elevenlabs: status=%d body=%s", resp.StatusCode, string(b))
	}

	buf := make([]byte, 4096)
	first := true
	for {
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			if first {
				log.Printf("elevenlabs: receiving audio (%d bytes first chunk)", n)
				first = false
			}
			select {
			case pcm <- append([]byte(nil), buf[:n]...):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if errors.Is(rerr, io.EOF) {
			return nil
		}
		if rerr != nil {
			return fmt.Errorf("elevenlabs: read: %w", rerr)
		}
	}
}
