package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeepgram_NoKey(t *testing.T) {
	d := NewDeepgram("", "")
	assert.Equal(t, DefaultDeepgramModel, d.Model)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	pcm, errc := d.StreamPCM48k(ctx, "hello")
	select {
	case err := <-errc:
		assert.ErrorIs(t, err, ErrNotConfigured)
	case <-time.After(300 * time.Millisecond):
		t.Fatalf("timeout waiting for error")
	}
	for range pcm {
		t.Fatalf("no audio expected")
	}
}

func TestElevenLabs_Stream(t *testing.T) {
	audio := bytes.Repeat([]byte{1, 0}, 5000)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/text-to-speech/voice-1/stream", r.URL.Path)
		assert.Equal(t, "pcm_48000", r.URL.Query().Get("output_format"))
		assert.Equal(t, "k", r.Header.Get("xi-api-key"))
		var body elevenLabsRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Your balance is 45 dollars.", body.Text)
		_, _ = w.Write(audio)
	}))
	defer srv.Close()

	e := NewElevenLabs("k", "voice-1")
	e.BaseURL = srv.URL

	var out bytes.Buffer
	spk := &Speaker{Synth: e, Out: &out}
	require.NoError(t, spk.Speak(context.Background(), "Your balance is 45 dollars."))
	assert.Equal(t, audio, out.Bytes())
}

func TestElevenLabs_Status(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	e := NewElevenLabs("k", "voice-1")
	e.BaseURL = srv.URL
	err := (&Speaker{Synth: e, Out: io.Discard}).Speak(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=429")
}

func TestElevenLabs_NotConfigured(t *testing.T) {
	err := (&Speaker{Synth: NewElevenLabs("", ""), Out: io.Discard}).Speak(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) { return 0, errors.New("device gone") }

type chunkSynth [][]byte

func (c chunkSynth) StreamPCM48k(ctx context.Context, text string) (<-chan []byte, <-chan error) {
	pcm := make(chan []byte)
	errc := make(chan error)
	go func() {
		defer close(pcm)
		defer close(errc)
		for _, b := range c {
			pcm <- b
		}
	}()
	return pcm, errc
}

func TestSpeaker_WriteErrorDrainsStream(t *testing.T) {
	spk := &Speaker{Synth: chunkSynth{{1}, {2}, {3}}, Out: failingWriter{}}
	err := spk.Speak(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "device gone")
}
