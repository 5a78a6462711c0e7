// Package client talks to the CallTech backend the way the browser does.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/DrVanHelsing/CallTech/internal/agent"
	"github.com/DrVanHelsing/CallTech/internal/directory"
)

// StatusError is a non-2xx backend response. The backend reports errors as
// plain text.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend status=%d: %s", e.Code, e.Body)
}

type Client struct {
	HTTPClient *http.Client
	BaseURL    string
}

func New(baseURL string) *Client {
	return &Client{
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
		BaseURL:    strings.TrimRight(baseURL, "/"),
	}
}

func (c *Client) url(path string) string { return c.BaseURL + path }

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		serr := &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
		// A failed turn still carries the turn as JSON.
		if resp.StatusCode == http.StatusUnprocessableEntity && out != nil {
			_ = json.Unmarshal(body, out)
		}
		return serr
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(path), nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func audioRequest(ctx context.Context, target string, clip agent.Clip) (*http.Request, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="audio"; filename="recording"`)
	mime := clip.MIME
	if mime == "" {
		mime = "application/octet-stream"
	}
	h.Set("Content-Type", mime)
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(clip.Data); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req, nil
}

// Transcribe posts the clip to the backend's speech-to-text endpoint.
func (c *Client) Transcribe(ctx context.Context, audio []byte, mime string) (string, error) {
	req, err := audioRequest(ctx, c.url("/api/speech-to-text"), agent.Clip{Data: audio, MIME: mime})
	if err != nil {
		return "", err
	}
	var out struct {
		Transcript string `json:"transcript"`
	}
	if err := c.do(req, &out); err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}
	return out.Transcript, nil
}

func (c *Client) ListCustomers(ctx context.Context) ([]directory.Customer, error) {
	var records []directory.Customer
	if err := c.getJSON(ctx, "/api/customers", &records); err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return records, nil
}

func (c *Client) FindByID(ctx context.Context, id string) (directory.Customer, error) {
	var customer directory.Customer
	err := c.getJSON(ctx, "/api/customers/"+url.PathEscape(id), &customer)
	if isStatus(err, http.StatusNotFound) {
		return directory.Customer{}, fmt.Errorf("id %q: %w", id, directory.ErrNotFound)
	}
	if err != nil {
		return directory.Customer{}, fmt.Errorf("get customer: %w", err)
	}
	return customer, nil
}

// FindByUtterance fetches the directory and matches the utterance locally.
func (c *Client) FindByUtterance(ctx context.Context, text string) (directory.Customer, error) {
	records, err := c.ListCustomers(ctx)
	if err != nil {
		return directory.Customer{}, err
	}
	if customer, ok := directory.MatchUtterance(records, text); ok {
		return customer, nil
	}
	return directory.Customer{}, fmt.Errorf("utterance %q: %w", text, directory.ErrNotFound)
}

func (c *Client) CreateSession(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("/api/sessions"), nil)
	if err != nil {
		return "", err
	}
	var out struct {
		ID string `json:"id"`
	}
	if err := c.do(req, &out); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return out.ID, nil
}

// RunTurn runs one turn on the backend. A failed turn is returned together
// with its error.
func (c *Client) RunTurn(ctx context.Context, sessionID string, clip agent.Clip) (*agent.Turn, error) {
	req, err := audioRequest(ctx, c.url("/api/sessions/"+url.PathEscape(sessionID)+"/turns"), clip)
	if err != nil {
		return nil, err
	}
	var turn agent.Turn
	err = c.do(req, &turn)
	switch {
	case err == nil:
		return &turn, nil
	case isStatus(err, http.StatusNotFound):
		return nil, agent.ErrSessionNotFound
	case isStatus(err, http.StatusConflict):
		return nil, agent.ErrTurnInProgress
	case isStatus(err, http.StatusUnprocessableEntity):
		if turn.Err != "" {
			return &turn, fmt.Errorf("turn failed: %s", turn.Err)
		}
		return &turn, err
	default:
		return nil, fmt.Errorf("run turn: %w", err)
	}
}

func isStatus(err error, code int) bool {
	var serr *StatusError
	return errors.As(err, &serr) && serr.Code == code
}
