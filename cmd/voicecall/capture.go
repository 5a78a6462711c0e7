package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/DrVanHelsing/CallTech/internal/agent"
)

// fileCapture plays back a recorded clip from disk as the caller's utterance.
type fileCapture struct {
	path string
}

func (f fileCapture) Capture(ctx context.Context) (agent.Clip, error) {
	if err := ctx.Err(); err != nil {
		return agent.Clip{}, agent.ErrCaptureAborted
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		return agent.Clip{}, err
	}
	if err := ctx.Err(); err != nil {
		return agent.Clip{}, agent.ErrCaptureAborted
	}
	return agent.Clip{Data: data, MIME: mimeFor(f.path)}, nil
}

func mimeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".webm":
		return "audio/webm;codecs=opus"
	case ".ogg", ".opus":
		return "audio/ogg;codecs=opus"
	default:
		return "audio/wav"
	}
}

// textSpeaker prints what would be spoken.
type textSpeaker struct {
	w io.Writer
}

func (t textSpeaker) Speak(ctx context.Context, text string) error {
	_, err := fmt.Fprintf(t.w, "assistant: %s\n", text)
	return err
}
