// Package tts turns assistant replies into 48 kHz 16-bit mono PCM.
package tts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
)

var ErrNotConfigured = errors.New("tts provider not configured")

// SampleRate is the PCM rate every Synthesizer produces.
const SampleRate = 48000

// Synthesizer streams PCM for text. The PCM channel closes when synthesis
// ends; at most one error is sent on the error channel.
type Synthesizer interface {
	StreamPCM48k(ctx context.Context, text string) (<-chan []byte, <-chan error)
}

// Speaker writes synthesized speech to Out. It implements the orchestrator's
// speech output.
type Speaker struct {
	Synth Synthesizer
	Out   io.Writer
}

func (s *Speaker) Speak(ctx context.Context, text string) error {
	if s.Synth == nil {
		return ErrNotConfigured
	}
	pcm, errc := s.Synth.StreamPCM48k(ctx, text)
	var written int
	var werr error
	for chunk := range pcm {
		if werr != nil {
			continue // drain so the producer can exit
		}
		n, err := s.Out.Write(chunk)
		written += n
		if err != nil {
			werr = fmt.Errorf("write pcm: %w", err)
		}
	}
	if werr != nil {
		return werr
	}
	if err, ok := <-errc; ok && err != nil {
		return err
	}
	if written == 0 {
		log.Printf("tts: no audio produced for %d chars", len(text))
	}
	return nil
}
