package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/DrVanHelsing/CallTech/internal/agent"
	"github.com/DrVanHelsing/CallTech/internal/config"
	"github.com/DrVanHelsing/CallTech/internal/directory"
	"github.com/DrVanHelsing/CallTech/internal/middleware"
	"github.com/DrVanHelsing/CallTech/internal/sessions"
)

// Customers is the read side of the customer directory.
type Customers interface {
	List(ctx context.Context) ([]directory.Customer, error)
	FindByID(ctx context.Context, id string) (directory.Customer, error)
	FindByPhoneSuffix(ctx context.Context, digits string) (directory.Customer, error)
}

// TokenIssuer hands out short-lived browser speech tokens.
type TokenIssuer interface {
	IssueToken(ctx context.Context) (string, error)
}

// TurnRunner runs voice turns for stored sessions.
type TurnRunner interface {
	RunTurn(ctx context.Context, sessionID string, capture agent.AudioCapture, out agent.SpeechOutput) (*agent.Turn, error)
	ResetCustomer(ctx context.Context, sessionID string) error
	Session(ctx context.Context, sessionID string) (*agent.Session, error)
}

// Deps are the collaborators behind the HTTP surface. Nil providers are
// reported as not configured.
type Deps struct {
	Customers Customers
	STT       agent.Transcriber
	Tokens    TokenIssuer
	Chat      agent.Completer
	Turns     TurnRunner
	Sessions  sessions.Store
	Events    *Hub
}

// Server bundles HTTP router and dependencies.
type Server struct {
	Router *echo.Echo

	cfg  config.Config
	deps Deps
}

// New constructs the HTTP server with routes.
func New(cfg config.Config, deps Deps) *Server {
	if deps.Events == nil {
		deps.Events = NewHub()
	}
	s := &Server{Router: NewRouter(cfg.BodyLimit), cfg: cfg, deps: deps}
	e := s.Router

	api := e.Group("/api")
	api.GET("/health", s.health)

	api.GET("/customers", s.listCustomers)
	api.GET("/customers/lookup/phone/:digits", s.customerByPhone)
	api.GET("/customers/:id", s.getCustomer)

	api.GET("/speech-to-text/token", s.speechToken)
	api.POST("/speech-to-text", s.transcribe)

	api.POST("/ai/chat", s.chat)

	api.POST("/sessions", s.createSession)
	api.GET("/sessions/:id", s.getSession)
	api.POST("/sessions/:id/turns", s.runTurn)
	api.DELETE("/sessions/:id/customer", s.resetCustomer)
	api.GET("/sessions/:id/events", s.sessionEvents)

	if deps.Turns != nil && deps.Sessions != nil {
		phone := newPhoneChannel(cfg, deps.Turns, deps.Sessions)
		tw := e.Group("/twilio", middleware.TwilioAuth(cfg.TwilioAuthToken, cfg.BaseURL))
		tw.POST("/voice", phone.voice)
		tw.POST("/recording-complete", phone.recordingComplete)
	}
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}
