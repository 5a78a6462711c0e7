package tts

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	msginterfaces "github.com/deepgram/deepgram-go-sdk/pkg/api/speak/v1/websocket/interfaces"
	clientinterfaces "github.com/deepgram/deepgram-go-sdk/pkg/client/interfaces/v1"
	"github.com/deepgram/deepgram-go-sdk/pkg/client/speak"
)

const (
	DefaultDeepgramModel = "aura-2-thalia-en"

	// deepgramIdle ends a stream once audio stopped arriving for this long.
	deepgramIdle     = 400 * time.Millisecond
	deepgramMaxSpeak = 15 * time.Second
)

// Deepgram synthesizes with Aura over the SDK's speak websocket.
type Deepgram struct {
	APIKey string
	Model  string
}

func NewDeepgram(apiKey, model string) *Deepgram {
	if model == "" {
		model = DefaultDeepgramModel
	}
	return &Deepgram{APIKey: apiKey, Model: model}
}

func (d *Deepgram) StreamPCM48k(ctx context.Context, text string) (<-chan []byte, <-chan error) {
	pcm := make(chan []byte, 256)
	errc := make(chan error, 1)
	go func() {
		defer close(pcm)
		defer close(errc)
		if d.APIKey == "" {
			errc <- fmt.Errorf("deepgram: %w", ErrNotConfigured)
			return
		}
		if text == "" {
			return
		}
		if err := d.speak(ctx, text, pcm); err != nil {
			errc <- err
		}
	}()
	return pcm, errc
}

func (d *Deepgram) speak(ctx context.Context, text string, pcm chan<- []byte) error {
	ctx, cancel := context.WithTimeout(ctx, deepgramMaxSpeak)
	defer cancel()

	var lastAudio atomic.Int64
	cb := &speakCallback{
		onAudio: func(data []byte) {
			if len(data) == 0 {
				return
			}
			lastAudio.Store(time.Now().UnixNano())
			select {
			case pcm <- append([]byte(nil), data...):
			case <-ctx.Done():
			}
		},
	}

	opts := &clientinterfaces.WSSpeakOptions{
		Model:      d.Model,
		Encoding:   "linear16",
		SampleRate: SampleRate,
	}
	dg, err := speak.NewWSUsingCallback(ctx, d.APIKey, &clientinterfaces.ClientOptions{}, opts, cb)
	if err != nil {
		return fmt.Errorf("deepgram: create ws client: %w", err)
	}
	var stopOnce sync.Once
	stop := func() { stopOnce.Do(dg.Stop) }
	defer stop()

	if !dg.Connect() {
		return errors.New("deepgram: connect failed")
	}
	if err := dg.SpeakWithText(text); err != nil {
		return fmt.Errorf("deepgram: speak text: %w", err)
	}
	if err := dg.Flush(); err != nil {
		log.Printf("deepgram: flush error: %v", err)
	}

	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) && lastAudio.Load() != 0 {
				return nil
			}
			return ctx.Err()
		case <-tick.C:
			if err := cb.failure(); err != nil {
				return err
			}
			last := lastAudio.Load()
			if last != 0 && time.Since(time.Unix(0, last)) > deepgramIdle {
				return nil
			}
		}
	}
}

// speakCallback receives websocket messages from the SDK.
type speakCallback struct {
	onAudio func([]byte)

	mu  sync.Mutex
	err error
}

func (s *speakCallback) failure() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *speakCallback) Binary(data []byte) error {
	s.onAudio(data)
	return nil
}

func (s *speakCallback) Error(er *msginterfaces.ErrorResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil && er != nil {
		s.err = fmt.Errorf("deepgram: server error: %+v", *er)
	}
	return nil
}

func (s *speakCallback) Open(*msginterfaces.OpenResponse) error         { return nil }
func (s *speakCallback) Metadata(*msginterfaces.MetadataResponse) error { return nil }
func (s *speakCallback) Flush(*msginterfaces.FlushedResponse) error     { return nil }
func (s *speakCallback) Clear(*msginterfaces.ClearedResponse) error     { return nil }
func (s *speakCallback) Close(*msginterfaces.CloseResponse) error       { return nil }
func (s *speakCallback) Warning(*msginterfaces.WarningResponse) error   { return nil }
func (s *speakCallback) UnhandledEvent([]byte) error                    { return nil }
