package httpserver

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/DrVanHelsing/CallTech/internal/directory"
	"github.com/DrVanHelsing/CallTech/internal/llm"
	"github.com/DrVanHelsing/CallTech/internal/prompt"
)

type chatRequest struct {
	Transcript string              `json:"transcript"`
	Customer   *directory.Customer `json:"customer"`
}

func (s *Server) chat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return c.String(http.StatusBadRequest, "Invalid request body")
	}
	if strings.TrimSpace(req.Transcript) == "" {
		return c.String(http.StatusBadRequest, "transcript is required")
	}
	if req.Customer == nil || req.Customer.ID == "" {
		return c.String(http.StatusBadRequest, "customer is required")
	}
	if s.deps.Chat == nil {
		return c.String(http.StatusInternalServerError, "AI provider is not configured")
	}

	p := prompt.Build(*req.Customer, req.Transcript)
	reply, err := s.deps.Chat.Complete(c.Request().Context(), p.System, p.User)
	switch {
	case err == nil && strings.TrimSpace(reply) != "":
		return c.JSON(http.StatusOK, map[string]string{"response": reply})
	case err == nil, errors.Is(err, llm.ErrEmptyResponse):
		return c.String(http.StatusBadGateway, "Empty response from AI provider")
	case errors.Is(err, llm.ErrNotConfigured):
		return c.String(http.StatusInternalServerError, "AI provider is not configured")
	default:
		log.Printf("llm: %v", err)
		return c.String(http.StatusInternalServerError, "Error processing AI request")
	}
}
