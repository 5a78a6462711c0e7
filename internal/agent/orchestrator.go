package agent

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/DrVanHelsing/CallTech/internal/directory"
	"github.com/DrVanHelsing/CallTech/internal/prompt"
	"github.com/DrVanHelsing/CallTech/internal/speech"
)

var (
	ErrNoSpeech            = errors.New("no speech detected")
	ErrTurnInProgress      = errors.New("a turn is already in progress for this session")
	ErrCaptureAborted      = errors.New("recording stopped before completion")
	ErrCustomerUnavailable = errors.New("bound customer no longer resolves")
	ErrSessionNotFound     = errors.New("session not found")
)

const repromptText = "Sorry, I couldn't find your account. Please tell me your first name, or the last four digits of your phone number."

// Options tunes an Orchestrator. Zero values select the defaults.
type Options struct {
	// NormalizeSpeech rewrites symbols to words before speaking.
	NormalizeSpeech bool

	TranscribeTimeout time.Duration
	LookupTimeout     time.Duration
	CompleteTimeout   time.Duration
	SpeakTimeout      time.Duration

	Observer StageObserver
}

// Orchestrator sequences one voice turn: capture, transcribe, identify or
// fetch the customer, generate a reply and speak it. Collaborators are
// constructed once at startup and shared by all sessions.
type Orchestrator struct {
	stt       Transcriber
	customers CustomerFinder
	llm       Completer
	sessions  SessionStore
	opts      Options
}

func NewOrchestrator(stt Transcriber, customers CustomerFinder, llm Completer, sessions SessionStore, opts Options) *Orchestrator {
	if opts.TranscribeTimeout <= 0 {
		opts.TranscribeTimeout = 30 * time.Second
	}
	if opts.LookupTimeout <= 0 {
		opts.LookupTimeout = 10 * time.Second
	}
	if opts.CompleteTimeout <= 0 {
		opts.CompleteTimeout = 20 * time.Second
	}
	if opts.SpeakTimeout <= 0 {
		opts.SpeakTimeout = 30 * time.Second
	}
	return &Orchestrator{stt: stt, customers: customers, llm: llm, sessions: sessions, opts: opts}
}

// RunTurn runs one turn for the session. Cancelling ctx while capturing
// aborts the turn with ErrCaptureAborted; once transcription has started the
// turn runs to done or failed regardless of ctx.
//
// A failed turn is returned together with its cause. Identification turns
// bind (or re-prompt for) the customer and end without generating a reply.
func (o *Orchestrator) RunTurn(ctx context.Context, sessionID string, capture AudioCapture, out SpeechOutput) (*Turn, error) {
	release, err := o.sessions.Acquire(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer release()

	sess, err := o.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	t := &Turn{
		ID:         uuid.NewString(),
		SessionID:  sess.ID,
		CustomerID: sess.CustomerID,
		StartedAt:  time.Now(),
	}
	o.enter(t, StageCapturing)
	clip, err := capture.Capture(ctx)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, ErrCaptureAborted) {
			t.Outcome = OutcomeAborted
			t.Err = ErrCaptureAborted.Error()
			t.FinishedAt = time.Now()
			return t, ErrCaptureAborted
		}
		return t, o.fail(t, fmt.Errorf("capture: %w", err))
	}

	// Past this point the caller can no longer cancel the turn.
	ctx = context.WithoutCancel(ctx)
	turnErr := o.process(ctx, sess, t, clip, out)

	sess.UpdatedAt = time.Now()
	if err := o.sessions.Save(ctx, sess); err != nil {
		log.Printf("agent: save session %s: %v", sess.ID, err)
		if turnErr == nil {
			turnErr = fmt.Errorf("save session: %w", err)
		}
	}
	return t, turnErr
}

func (o *Orchestrator) process(ctx context.Context, sess *Session, t *Turn, clip Clip, out SpeechOutput) error {
	o.enter(t, StageTranscribing)
	text, err := o.transcribe(ctx, clip)
	if err != nil {
		return o.fail(t, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return o.fail(t, ErrNoSpeech)
	}
	t.Transcript = text
	log.Printf("agent: heard(session=%s): %s", sess.ID, text)

	if sess.CustomerID == "" {
		return o.identify(ctx, sess, t, out)
	}

	o.enter(t, StageFetchingCustomer)
	lctx, cancel := context.WithTimeout(ctx, o.opts.LookupTimeout)
	customer, err := o.customers.FindByID(lctx, sess.CustomerID)
	cancel()
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			// Drop the stale binding so the next turn identifies again.
			sess.CustomerID = ""
			return o.fail(t, fmt.Errorf("%w: %v", ErrCustomerUnavailable, err))
		}
		return o.fail(t, fmt.Errorf("fetch customer: %w", err))
	}

	o.enter(t, StageGeneratingReply)
	p := prompt.Build(customer, text)
	cctx, cancel := context.WithTimeout(ctx, o.opts.CompleteTimeout)
	reply, err := o.llm.Complete(cctx, p.System, p.User)
	cancel()
	if err != nil {
		return o.fail(t, fmt.Errorf("generate reply: %w", err))
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return o.fail(t, errors.New("generate reply: empty reply"))
	}
	t.Reply = reply

	o.speak(ctx, t, out, reply)
	t.Outcome = OutcomeAnswered
	o.finish(t)
	sess.appendExchange(Exchange{TurnID: t.ID, Transcript: text, Reply: reply, At: t.FinishedAt})
	return nil
}

func (o *Orchestrator) transcribe(ctx context.Context, clip Clip) (string, error) {
	if len(clip.Data) == 0 {
		return "", ErrNoSpeech
	}
	tctx, cancel := context.WithTimeout(ctx, o.opts.TranscribeTimeout)
	defer cancel()
	text, err := o.stt.Transcribe(tctx, clip.Data, clip.MIME)
	if err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}
	return text, nil
}

// identify binds a customer from the utterance, or re-prompts. The turn ends
// here either way; the next utterance is the actual query.
func (o *Orchestrator) identify(ctx context.Context, sess *Session, t *Turn, out SpeechOutput) error {
	o.enter(t, StageIdentifying)
	lctx, cancel := context.WithTimeout(ctx, o.opts.LookupTimeout)
	customer, err := o.customers.FindByUtterance(lctx, t.Transcript)
	cancel()

	var say string
	switch {
	case err == nil:
		sess.CustomerID = customer.ID
		t.CustomerID = customer.ID
		t.Outcome = OutcomeIdentified
		say = fmt.Sprintf("Thank you, %s. I found your account. How can I help you today?", customer.FirstName())
		log.Printf("agent: session %s bound to customer %s", sess.ID, customer.ID)
	case errors.Is(err, directory.ErrNotFound):
		t.Outcome = OutcomeReprompted
		say = repromptText
	default:
		return o.fail(t, fmt.Errorf("identify customer: %w", err))
	}
	t.Reply = say
	o.speak(ctx, t, out, say)
	o.finish(t)
	return nil
}

// speak hands the text to the speech output one sentence at a time. Errors
// are recorded on the turn but never fail it.
func (o *Orchestrator) speak(ctx context.Context, t *Turn, out SpeechOutput, text string) {
	o.enter(t, StageSpeaking)
	if o.opts.NormalizeSpeech {
		text = speech.Normalize(text)
	}
	if out == nil {
		t.Spoken = text
		return
	}
	sctx, cancel := context.WithTimeout(ctx, o.opts.SpeakTimeout)
	defer cancel()
	var spoken []string
	for _, chunk := range chunkReply(text) {
		if err := out.Speak(sctx, chunk); err != nil {
			log.Printf("agent: speech output error (turn=%s): %v", t.ID, err)
			t.SpeechErr = err.Error()
			break
		}
		spoken = append(spoken, chunk)
	}
	t.Spoken = strings.Join(spoken, " ")
}

func (o *Orchestrator) finish(t *Turn) {
	o.enter(t, StageDone)
	t.FinishedAt = time.Now()
}

func (o *Orchestrator) fail(t *Turn, err error) error {
	log.Printf("agent: turn %s failed in %s: %v", t.ID, t.Stage, err)
	o.enter(t, StageFailed)
	t.Outcome = OutcomeFailed
	t.Err = err.Error()
	t.FinishedAt = time.Now()
	return err
}

func (o *Orchestrator) enter(t *Turn, s Stage) {
	if err := t.advance(s); err != nil {
		log.Printf("agent: turn %s: %v", t.ID, err)
		return
	}
	if o.opts.Observer != nil {
		o.opts.Observer(StageEvent{SessionID: t.SessionID, TurnID: t.ID, Stage: s, At: time.Now()})
	}
}

// Session returns the stored session.
func (o *Orchestrator) Session(ctx context.Context, sessionID string) (*Session, error) {
	return o.sessions.Load(ctx, sessionID)
}

// ResetCustomer unbinds the customer so the next turn identifies again.
func (o *Orchestrator) ResetCustomer(ctx context.Context, sessionID string) error {
	release, err := o.sessions.Acquire(ctx, sessionID)
	if err != nil {
		return err
	}
	defer release()
	sess, err := o.sessions.Load(ctx, sessionID)
	if err != nil {
		return err
	}
	sess.CustomerID = ""
	sess.UpdatedAt = time.Now()
	return o.sessions.Save(ctx, sess)
}
