package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// AzureClient calls the Azure Speech short-audio REST endpoint.
type AzureClient struct {
	HTTPClient *http.Client
	Key        string
	Region     string
	Language   string
	// BaseURL overrides the regional endpoints; used by tests.
	BaseURL string
}

type azureResult struct {
	RecognitionStatus string `json:"RecognitionStatus"`
	DisplayText       string `json:"DisplayText"`
	Offset            int64  `json:"Offset"`
	Duration          int64  `json:"Duration"`
}

func NewAzure(key, region, language string) *AzureClient {
	if language == "" {
		language = "en-US"
	}
	return &AzureClient{
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		Key:        key,
		Region:     region,
		Language:   language,
	}
}

func (a *AzureClient) recognitionURL() string {
	base := a.BaseURL
	if base == "" {
		base = fmt.Sprintf("https://%s.stt.speech.microsoft.com", a.Region)
	}
	q := url.Values{}
	q.Set("language", a.Language)
	q.Set("format", "simple")
	return strings.TrimRight(base, "/") + "/speech/recognition/conversation/cognitiveservices/v1?" + q.Encode()
}

func (a *AzureClient) tokenURL() string {
	base := a.BaseURL
	if base == "" {
		base = fmt.Sprintf("https://%s.api.cognitive.microsoft.com", a.Region)
	}
	return strings.TrimRight(base, "/") + "/sts/v1.0/issueToken"
}

func azureContentType(mime string) string {
	switch containerOf(mime) {
	case containerWebM:
		return "audio/webm; codecs=opus"
	case containerOgg:
		return "audio/ogg; codecs=opus"
	default:
		return "audio/wav; codecs=audio/pcm; samplerate=16000"
	}
}

func (a *AzureClient) Transcribe(ctx context.Context, audio []byte, mime string) (string, error) {
	if a.Key == "" || a.Region == "" {
		return "", fmt.Errorf("azure: %w", ErrNotConfigured)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.recognitionURL(), bytes.NewReader(audio))
	if err != nil {
		return "", err
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", a.Key)
	req.Header.Set("Content-Type", azureContentType(mime))
	req.Header.Set("Accept", "application/json")

	resp, err := a.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("azure: %v: %w", err, ErrUnavailable)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("azure: status=%d body=%s: %w", resp.StatusCode, string(b), ErrUnavailable)
	}
	var res azureResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return "", fmt.Errorf("azure: decode: %v: %w", err, ErrUnavailable)
	}
	switch res.RecognitionStatus {
	case "Success":
		text := strings.TrimSpace(res.DisplayText)
		if text == "" {
			return "", fmt.Errorf("azure: empty display text: %w", ErrNotRecognized)
		}
		return text, nil
	case "NoMatch", "InitialSilenceTimeout", "BabbleTimeout":
		return "", fmt.Errorf("azure: %s: %w", res.RecognitionStatus, ErrNotRecognized)
	default:
		return "", fmt.Errorf("azure: recognition status %q: %w", res.RecognitionStatus, ErrUnavailable)
	}
}

// IssueToken exchanges the subscription key for a short-lived access token
// that browser SDKs can use directly.
func (a *AzureClient) IssueToken(ctx context.Context) (string, error) {
	if a.Key == "" || a.Region == "" {
		return "", fmt.Errorf("azure: %w", ErrNotConfigured)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.tokenURL(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", a.Key)
	resp, err := a.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("azure token: %v: %w", err, ErrUnavailable)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("azure token: %v: %w", err, ErrUnavailable)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("azure token: status=%d: %w", resp.StatusCode, ErrUnavailable)
	}
	return string(b), nil
}
