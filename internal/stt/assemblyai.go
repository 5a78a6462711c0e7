package stt

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const DefaultAssemblyAIURL = "wss://streaming.assemblyai.com/v3/ws"

// AssemblyAIClient transcribes a recorded WAV clip by replaying it through
// the AssemblyAI streaming API and collecting every finished turn.
type AssemblyAIClient struct {
	APIKey string
	URL    string
	Dialer *websocket.Dialer
}

func NewAssemblyAI(apiKey string) *AssemblyAIClient {
	return &AssemblyAIClient{
		APIKey: apiKey,
		URL:    DefaultAssemblyAIURL,
		Dialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}
}

type assemblyMessage struct {
	Type       string `json:"type"`
	Transcript string `json:"transcript"`
	TurnOrder  int    `json:"turn_order"`
	EndOfTurn  bool   `json:"end_of_turn"`
	Error      string `json:"error"`
}

func (a *AssemblyAIClient) Transcribe(ctx context.Context, audio []byte, mime string) (string, error) {
	if a.APIKey == "" {
		return "", fmt.Errorf("assemblyai: %w", ErrNotConfigured)
	}
	pcm, rate, err := decodeWAV(audio)
	if err != nil {
		return "", fmt.Errorf("assemblyai: %q: %v: %w", mime, err, ErrUnavailable)
	}
	if !hasVoice(pcm, rate) {
		return "", ErrNotRecognized
	}

	params := url.Values{}
	params.Set("sample_rate", strconv.Itoa(rate))
	params.Set("encoding", "pcm_s16le")
	params.Set("format_turns", "true")
	header := http.Header{"Authorization": {a.APIKey}}

	dialer := a.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, resp, err := dialer.DialContext(ctx, a.URL+"?"+params.Encode(), header)
	if err != nil {
		if resp != nil {
			err = fmt.Errorf("status %d: %v", resp.StatusCode, err)
		}
		return "", fmt.Errorf("assemblyai: connect: %v: %w", err, ErrUnavailable)
	}
	defer conn.Close()

	// Unblock the reader when the caller gives up.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	writeErr := make(chan error, 1)
	go func() { writeErr <- streamPCM(conn, pcm, rate) }()

	turns := map[int]string{}
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			select {
			case werr := <-writeErr:
				if werr != nil {
					err = werr
				}
			default:
			}
			return "", fmt.Errorf("assemblyai: read: %v: %w", err, ErrUnavailable)
		}
		var msg assemblyMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("stt: assemblyai: bad message: %v", err)
			continue
		}
		switch msg.Type {
		case "Turn":
			if msg.Transcript != "" {
				turns[msg.TurnOrder] = msg.Transcript
			}
		case "Error":
			return "", fmt.Errorf("assemblyai: %s: %w", msg.Error, ErrUnavailable)
		case "Termination":
			text := joinTurns(turns)
			if text == "" {
				return "", ErrNotRecognized
			}
			return text, nil
		}
	}
}

// streamPCM sends 100ms frames then asks the server to finish the session.
func streamPCM(conn *websocket.Conn, pcm []byte, rate int) error {
	frame := rate / 10 * 2
	for off := 0; off < len(pcm); off += frame {
		end := off + frame
		if end > len(pcm) {
			end = len(pcm)
		}
		if err := conn.WriteMessage(websocket.BinaryMessage, pcm[off:end]); err != nil {
			return err
		}
	}
	return conn.WriteJSON(map[string]string{"type": "Terminate"})
}

func joinTurns(turns map[int]string) string {
	order := make([]int, 0, len(turns))
	for k := range turns {
		order = append(order, k)
	}
	sort.Ints(order)
	parts := make([]string, 0, len(order))
	for _, k := range order {
		if t := strings.TrimSpace(turns[k]); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

