package httpserver

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/DrVanHelsing/CallTech/internal/agent"
	"github.com/DrVanHelsing/CallTech/internal/stt"
)

const speechNotConfigured = "Speech credentials are not set."

func (s *Server) speechToken(c echo.Context) error {
	if s.deps.Tokens == nil {
		return c.String(http.StatusBadRequest, speechNotConfigured)
	}
	token, err := s.deps.Tokens.IssueToken(c.Request().Context())
	if err != nil {
		log.Printf("stt: token: %v", err)
		return c.String(http.StatusInternalServerError, "Error getting speech token")
	}
	return c.JSON(http.StatusOK, map[string]string{"token": token, "region": s.cfg.SpeechRegion})
}

func (s *Server) transcribe(c echo.Context) error {
	if s.deps.STT == nil {
		return c.String(http.StatusBadRequest, speechNotConfigured)
	}
	clip, err := readClip(c)
	if err != nil {
		return c.String(http.StatusBadRequest, "No audio file uploaded")
	}
	text, err := s.deps.STT.Transcribe(c.Request().Context(), clip.Data, clip.MIME)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, map[string]string{"transcript": text})
	case errors.Is(err, stt.ErrNotConfigured):
		return c.String(http.StatusBadRequest, speechNotConfigured)
	case errors.Is(err, stt.ErrNotRecognized):
		return c.String(http.StatusInternalServerError, "Speech not recognized")
	default:
		log.Printf("stt: %v", err)
		return c.String(http.StatusInternalServerError, "Error during speech recognition")
	}
}

// readClip reads the multipart "audio" field.
func readClip(c echo.Context) (agent.Clip, error) {
	fh, err := c.FormFile("audio")
	if err != nil {
		return agent.Clip{}, err
	}
	f, err := fh.Open()
	if err != nil {
		return agent.Clip{}, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return agent.Clip{}, err
	}
	if len(data) == 0 {
		return agent.Clip{}, errors.New("empty audio upload")
	}
	return agent.Clip{Data: data, MIME: fh.Header.Get("Content-Type")}, nil
}
