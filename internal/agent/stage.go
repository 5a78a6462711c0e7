package agent

import (
	"errors"
	"fmt"
	"time"
)

// Stage is the step a turn is in.
type Stage string

const (
	StageCapturing        Stage = "capturing"
	StageTranscribing     Stage = "transcribing"
	StageIdentifying      Stage = "identifying"
	StageFetchingCustomer Stage = "fetching-customer"
	StageGeneratingReply  Stage = "generating-reply"
	StageSpeaking         Stage = "speaking"
	StageDone             Stage = "done"
	StageFailed           Stage = "failed"
)

var stageOrder = map[Stage]int{
	StageCapturing:        0,
	StageTranscribing:     1,
	StageIdentifying:      2,
	StageFetchingCustomer: 3,
	StageGeneratingReply:  4,
	StageSpeaking:         5,
	StageDone:             6,
}

// Terminal reports whether no further transition is possible.
func (s Stage) Terminal() bool { return s == StageDone || s == StageFailed }

// Outcome summarizes how a turn ended.
type Outcome string

const (
	OutcomeAnswered   Outcome = "answered"
	OutcomeIdentified Outcome = "identified"
	OutcomeReprompted Outcome = "reprompted"
	OutcomeFailed     Outcome = "failed"
	OutcomeAborted    Outcome = "aborted"
)

var (
	errBackwards  = errors.New("stage cannot move backwards")
	errTerminal   = errors.New("turn already finished")
	errNoCustomer = errors.New("no customer bound to turn")
)

// Turn is one capture-to-reply cycle.
type Turn struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"sessionId"`
	Stage      Stage     `json:"stage"`
	Outcome    Outcome   `json:"outcome,omitempty"`
	Transcript string    `json:"transcript,omitempty"`
	CustomerID string    `json:"customerId,omitempty"`
	Reply      string    `json:"reply,omitempty"`
	Spoken     string    `json:"speech,omitempty"`
	Err        string    `json:"error,omitempty"`
	SpeechErr  string    `json:"speechError,omitempty"`
	Stages     []Stage   `json:"stages"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt,omitempty"`
}

// advance moves the turn to next. Stages only move forward, failed is
// reachable from any non-terminal stage and generating-reply requires a
// bound customer.
func (t *Turn) advance(next Stage) error {
	if t.Stage.Terminal() {
		return fmt.Errorf("%s -> %s: %w", t.Stage, next, errTerminal)
	}
	if next != StageFailed {
		if t.Stage != "" && stageOrder[next] <= stageOrder[t.Stage] {
			return fmt.Errorf("%s -> %s: %w", t.Stage, next, errBackwards)
		}
		if next == StageGeneratingReply && t.CustomerID == "" {
			return fmt.Errorf("%s -> %s: %w", t.Stage, next, errNoCustomer)
		}
	}
	t.Stage = next
	t.Stages = append(t.Stages, next)
	return nil
}
