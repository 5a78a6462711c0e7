package stt

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAzure(t *testing.T, h http.HandlerFunc) *AzureClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	a := NewAzure("key", "westus", "")
	a.BaseURL = srv.URL
	return a
}

func TestAzure_Transcribe_Success(t *testing.T) {
	a := newTestAzure(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/speech/recognition/conversation/cognitiveservices/v1", r.URL.Path)
		assert.Equal(t, "en-US", r.URL.Query().Get("language"))
		assert.Equal(t, "key", r.Header.Get("Ocp-Apim-Subscription-Key"))
		assert.Equal(t, "audio/ogg; codecs=opus", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, []byte("clip"), body)
		_, _ = w.Write([]byte(`{"RecognitionStatus":"Success","DisplayText":" Why is my bill high? "}`))
	})
	text, err := a.Transcribe(context.Background(), []byte("clip"), "audio/ogg")
	require.NoError(t, err)
	assert.Equal(t, "Why is my bill high?", text)
}

func TestAzure_Transcribe_Failures(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
		want    error
	}{
		{"no_match", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"RecognitionStatus":"NoMatch"}`))
		}, ErrNotRecognized},
		{"silence", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"RecognitionStatus":"InitialSilenceTimeout"}`))
		}, ErrNotRecognized},
		{"empty_text", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"RecognitionStatus":"Success","DisplayText":"  "}`))
		}, ErrNotRecognized},
		{"status_non_2xx", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}, ErrUnavailable},
		{"bad_json", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("not-json"))
		}, ErrUnavailable},
		{"provider_error", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"RecognitionStatus":"Error"}`))
		}, ErrUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := newTestAzure(t, tc.handler)
			_, err := a.Transcribe(context.Background(), []byte("clip"), "audio/webm")
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestAzure_NotConfigured(t *testing.T) {
	_, err := NewAzure("", "", "").Transcribe(context.Background(), nil, "")
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = NewAzure("", "", "").IssueToken(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestAzure_IssueToken(t *testing.T) {
	a := newTestAzure(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/sts/v1.0/issueToken", r.URL.Path)
		_, _ = w.Write([]byte("tok-123"))
	})
	tok, err := a.IssueToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-123", tok)
}

func TestAzureContentType(t *testing.T) {
	assert.Equal(t, "audio/webm; codecs=opus", azureContentType("audio/webm;codecs=opus"))
	assert.Equal(t, "audio/ogg; codecs=opus", azureContentType("audio/OGG"))
	assert.Equal(t, "audio/wav; codecs=audio/pcm; samplerate=16000", azureContentType(""))
}

func TestNew_SelectsProvider(t *testing.T) {
	_, err := New(context.Background(), Config{})
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = New(context.Background(), Config{Provider: "whisper"})
	assert.ErrorIs(t, err, ErrNotConfigured)

	tr, err := New(context.Background(), Config{AzureKey: "k", AzureRegion: "eastus"})
	require.NoError(t, err)
	assert.IsType(t, &AzureClient{}, tr)
}

func TestDisabled(t *testing.T) {
	_, cfgErr := New(context.Background(), Config{})
	_, err := Disabled(cfgErr).Transcribe(context.Background(), []byte("x"), "audio/wav")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
