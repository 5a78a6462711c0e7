package agent

import (
	"context"
	"time"

	"github.com/DrVanHelsing/CallTech/internal/directory"
)

// Clip is one recorded utterance.
type Clip struct {
	Data []byte
	MIME string
}

// AudioCapture records one utterance. Implementations return when the
// recording stops; cancelling ctx aborts the recording.
type AudioCapture interface {
	Capture(ctx context.Context) (Clip, error)
}

// SpeechOutput speaks text to the caller. Failures are not fatal to a turn.
type SpeechOutput interface {
	Speak(ctx context.Context, text string) error
}

// Transcriber is the speech-to-text provider.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mime string) (string, error)
}

// Completer is the chat completion provider.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// CustomerFinder is the read-only customer directory.
type CustomerFinder interface {
	FindByID(ctx context.Context, id string) (directory.Customer, error)
	FindByUtterance(ctx context.Context, text string) (directory.Customer, error)
}

// SessionStore holds sessions between turns. Acquire grants the single
// active turn of a session and returns ErrTurnInProgress while another turn
// holds it. Load returns ErrSessionNotFound for unknown ids.
type SessionStore interface {
	Acquire(ctx context.Context, sessionID string) (release func(), err error)
	Load(ctx context.Context, sessionID string) (*Session, error)
	Save(ctx context.Context, s *Session) error
}

// StageEvent is published on every stage change of a turn.
type StageEvent struct {
	SessionID string    `json:"sessionId"`
	TurnID    string    `json:"turnId"`
	Stage     Stage     `json:"stage"`
	At        time.Time `json:"at"`
}

// StageObserver receives stage events. It is called synchronously and must
// not block.
type StageObserver func(StageEvent)
