package stt

import (
	"context"
	"fmt"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"
)

// GoogleClient transcribes clips with Google Cloud Speech synchronous
// recognition. Credentials come from the given file or from Application
// Default Credentials.
type GoogleClient struct {
	client   *speech.Client
	language string
}

func NewGoogle(ctx context.Context, credentialsFile, language string) (*GoogleClient, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	c, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("google: create speech client: %v: %w", err, ErrNotConfigured)
	}
	if language == "" {
		language = "en-US"
	}
	return &GoogleClient{client: c, language: language}, nil
}

func (g *GoogleClient) Close() error {
	return g.client.Close()
}

func googleConfig(mime, language string) *speechpb.RecognitionConfig {
	cfg := &speechpb.RecognitionConfig{LanguageCode: language}
	switch containerOf(mime) {
	case containerWebM:
		cfg.Encoding = speechpb.RecognitionConfig_WEBM_OPUS
		cfg.SampleRateHertz = 48000
	case containerOgg:
		cfg.Encoding = speechpb.RecognitionConfig_OGG_OPUS
		cfg.SampleRateHertz = 48000
	default:
		// WAV headers carry the rate; leave encoding unspecified.
		cfg.Encoding = speechpb.RecognitionConfig_ENCODING_UNSPECIFIED
	}
	return cfg
}

func (g *GoogleClient) Transcribe(ctx context.Context, audio []byte, mime string) (string, error) {
	resp, err := g.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: googleConfig(mime, g.language),
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		return "", fmt.Errorf("google: recognize: %v: %w", err, ErrUnavailable)
	}
	var parts []string
	for _, r := range resp.GetResults() {
		if alts := r.GetAlternatives(); len(alts) > 0 {
			if t := strings.TrimSpace(alts[0].GetTranscript()); t != "" {
				parts = append(parts, t)
			}
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("google: %w", ErrNotRecognized)
	}
	return strings.Join(parts, " "), nil
}
