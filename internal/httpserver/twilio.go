package httpserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"github.com/twilio/twilio-go/twiml"

	"github.com/DrVanHelsing/CallTech/internal/agent"
	"github.com/DrVanHelsing/CallTech/internal/config"
	"github.com/DrVanHelsing/CallTech/internal/middleware"
	"github.com/DrVanHelsing/CallTech/internal/sessions"
)

const (
	phoneGreeting = "Welcome to CallTech customer service. To find your account, please tell me your first name, or the last four digits of your phone number."
	phoneRetry    = "Sorry, I didn't catch that. Please try again after the beep."
	phoneBusy     = "One moment please, I'm still working on your last question."
)

// phoneChannel runs voice turns for Twilio calls. Each call is a session
// keyed by its CallSid; every caller utterance arrives as a <Record> upload.
type phoneChannel struct {
	turns      TurnRunner
	sessions   sessions.Store
	rest       *twilio.RestClient
	accountSID string
	authToken  string
	httpClient *http.Client
}

func newPhoneChannel(cfg config.Config, turns TurnRunner, store sessions.Store) *phoneChannel {
	p := &phoneChannel{
		turns:      turns,
		sessions:   store,
		accountSID: cfg.TwilioAccountSID,
		authToken:  cfg.TwilioAuthToken,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	if cfg.TwilioAccountSID != "" && cfg.TwilioAuthToken != "" {
		p.rest = twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: cfg.TwilioAccountSID,
			Password: cfg.TwilioAuthToken,
		})
	}
	return p
}

func (p *phoneChannel) voice(c echo.Context) error {
	params := middleware.TwilioParams(c)
	callSID := params["CallSid"]
	if callSID == "" {
		return c.String(http.StatusBadRequest, "CallSid is required")
	}
	log.Printf("twilio: call from %s, CallSid=%s", params["From"], callSID)

	if _, err := p.sessions.Create(c.Request().Context(), callSID); err != nil {
		log.Printf("twilio: create session %s: %v", callSID, err)
		return c.String(http.StatusInternalServerError, "Error creating session")
	}
	return p.respond(c, phoneGreeting)
}

func (p *phoneChannel) recordingComplete(c echo.Context) error {
	params := middleware.TwilioParams(c)
	callSID := params["CallSid"]
	recordingURL := params["RecordingUrl"]
	if callSID == "" || recordingURL == "" {
		return p.respond(c, phoneRetry)
	}

	audio, err := p.downloadRecording(c.Request().Context(), recordingURL)
	if err != nil {
		log.Printf("twilio: download recording (CallSid=%s): %v", callSID, err)
		return p.respond(c, phoneRetry)
	}
	p.deleteRecording(params["RecordingSid"])

	out := &sayCollector{}
	clip := clipCapture{Data: audio, MIME: "audio/wav"}
	turn, err := p.turns.RunTurn(c.Request().Context(), callSID, clip, out)
	switch {
	case errors.Is(err, agent.ErrTurnInProgress):
		return p.respond(c, phoneBusy)
	case err != nil:
		log.Printf("twilio: turn (CallSid=%s): %v", callSID, err)
		return p.respond(c, phoneRetry)
	}
	say := out.text()
	if say == "" {
		say = turn.Spoken
	}
	return p.respond(c, say)
}

// respond says text and records the caller's next utterance.
func (p *phoneChannel) respond(c echo.Context, text string) error {
	elems := []twiml.Element{
		&twiml.VoiceSay{Message: text},
		&twiml.VoiceRecord{
			Action:    "/twilio/recording-complete",
			Method:    http.MethodPost,
			MaxLength: "30",
			Timeout:   "3",
			PlayBeep:  "true",
			Trim:      "trim-silence",
		},
		&twiml.VoiceSay{Message: "I didn't hear anything. Goodbye!"},
		&twiml.VoiceHangup{},
	}
	doc, err := twiml.Voice(elems)
	if err != nil {
		return c.String(http.StatusInternalServerError, "failed to build TwiML")
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/xml")
	return c.String(http.StatusOK, doc)
}

func (p *phoneChannel) downloadRecording(ctx context.Context, recordingURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, recordingURL+".wav", nil)
	if err != nil {
		return nil, err
	}
	if p.accountSID != "" {
		req.SetBasicAuth(p.accountSID, p.authToken)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(b))
	}
	return io.ReadAll(resp.Body)
}

// deleteRecording removes the caller's audio from Twilio once downloaded.
func (p *phoneChannel) deleteRecording(recordingSID string) {
	if p.rest == nil || recordingSID == "" {
		return
	}
	go func() {
		if err := p.rest.Api.DeleteRecording(recordingSID, &twilioApi.DeleteRecordingParams{}); err != nil {
			log.Printf("twilio: delete recording %s: %v", recordingSID, err)
		}
	}()
}

// sayCollector gathers spoken chunks for a single <Say>.
type sayCollector struct {
	mu     sync.Mutex
	chunks []string
}

func (s *sayCollector) Speak(ctx context.Context, text string) error {
	s.mu.Lock()
	s.chunks = append(s.chunks, text)
	s.mu.Unlock()
	return nil
}

func (s *sayCollector) text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strings.Join(s.chunks, " ")
}
