package httpserver

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/DrVanHelsing/CallTech/internal/agent"
)

// clipCapture replays an uploaded clip as the turn's recording.
type clipCapture agent.Clip

func (c clipCapture) Capture(ctx context.Context) (agent.Clip, error) {
	if err := ctx.Err(); err != nil {
		return agent.Clip{}, err
	}
	return agent.Clip(c), nil
}

func (s *Server) createSession(c echo.Context) error {
	if s.deps.Sessions == nil {
		return c.String(http.StatusInternalServerError, "Sessions are not configured")
	}
	sess, err := s.deps.Sessions.Create(c.Request().Context(), "")
	if err != nil {
		log.Printf("sessions: create: %v", err)
		return c.String(http.StatusInternalServerError, "Error creating session")
	}
	return c.JSON(http.StatusCreated, map[string]string{"id": sess.ID})
}

func (s *Server) getSession(c echo.Context) error {
	if s.deps.Turns == nil {
		return c.String(http.StatusInternalServerError, "Sessions are not configured")
	}
	sess, err := s.deps.Turns.Session(c.Request().Context(), c.Param("id"))
	if err != nil {
		return sessionError(c, err)
	}
	return c.JSON(http.StatusOK, sess)
}

func (s *Server) runTurn(c echo.Context) error {
	if s.deps.Turns == nil {
		return c.String(http.StatusInternalServerError, "Sessions are not configured")
	}
	clip, err := readClip(c)
	if err != nil {
		return c.String(http.StatusBadRequest, "No audio file uploaded")
	}
	// The browser speaks the returned text itself.
	turn, err := s.deps.Turns.RunTurn(c.Request().Context(), c.Param("id"), clipCapture(clip), nil)
	if err != nil {
		if turn != nil {
			return c.JSON(http.StatusUnprocessableEntity, turn)
		}
		return sessionError(c, err)
	}
	return c.JSON(http.StatusOK, turn)
}

func (s *Server) resetCustomer(c echo.Context) error {
	if s.deps.Turns == nil {
		return c.String(http.StatusInternalServerError, "Sessions are not configured")
	}
	if err := s.deps.Turns.ResetCustomer(c.Request().Context(), c.Param("id")); err != nil {
		return sessionError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func sessionError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, agent.ErrSessionNotFound):
		return c.String(http.StatusNotFound, "Session not found")
	case errors.Is(err, agent.ErrTurnInProgress):
		return c.String(http.StatusConflict, "A turn is already in progress for this session")
	default:
		log.Printf("sessions: %v", err)
		return c.String(http.StatusInternalServerError, "Error processing session")
	}
}
