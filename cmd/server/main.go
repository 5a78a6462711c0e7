package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DrVanHelsing/CallTech/internal/agent"
	"github.com/DrVanHelsing/CallTech/internal/config"
	"github.com/DrVanHelsing/CallTech/internal/directory"
	httpserver "github.com/DrVanHelsing/CallTech/internal/httpserver"
	"github.com/DrVanHelsing/CallTech/internal/llm"
	"github.com/DrVanHelsing/CallTech/internal/sessions"
	"github.com/DrVanHelsing/CallTech/internal/stt"
)

func main() {
	// Include sub-second precision in all log timestamps
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)

	cfg := config.Load()
	ctx := context.Background()

	dir := directory.New(customerSource(cfg))

	deps := httpserver.Deps{Customers: dir, Events: httpserver.NewHub()}

	transcriber, err := stt.New(ctx, stt.Config{
		Provider:              cfg.STTProvider,
		AzureKey:              cfg.SpeechKey,
		AzureRegion:           cfg.SpeechRegion,
		Language:              cfg.SpeechLanguage,
		GoogleCredentialsFile: cfg.GoogleCredentialsFile,
		AssemblyAIKey:         cfg.AssemblyAIKey,
	})
	if err != nil {
		log.Printf("stt: %v", err)
		transcriber = stt.Disabled(err)
	} else {
		deps.STT = transcriber
		if az, ok := transcriber.(*stt.AzureClient); ok {
			deps.Tokens = az
		}
		if c, ok := transcriber.(io.Closer); ok {
			defer c.Close()
		}
	}

	chat := llm.NewClient(llm.Config{
		APIKey:    cfg.ChatAPIKey,
		BaseURL:   cfg.ChatBaseURL,
		Model:     cfg.ChatModel,
		MaxTokens: cfg.ChatMaxTokens,
	})
	deps.Chat = chat

	store := sessionStore(ctx, cfg)
	deps.Sessions = store
	if c, ok := store.(io.Closer); ok {
		defer c.Close()
	}

	deps.Turns = agent.NewOrchestrator(transcriber, dir, chat, store, agent.Options{
		NormalizeSpeech: cfg.NormalizeSpeech,
		Observer:        deps.Events.Publish,
	})

	srv := httpserver.New(cfg, deps)

	server := &http.Server{
		Addr:              cfg.HTTPAddress,
		Handler:           srv.Router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in background
	serverErrors := make(chan error, 1)
	go func() {
		log.Printf("server listening on %s", cfg.HTTPAddress)
		serverErrors <- server.ListenAndServe()
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	case sig := <-sigChan:
		log.Printf("shutdown signal received: %v", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = server.Close()
	}
}

func customerSource(cfg config.Config) directory.Source {
	if cfg.SupabaseURL != "" && cfg.SupabaseServiceRoleKey != "" {
		src, err := directory.NewSupabaseSource(directory.SupabaseConfig{
			URL:            cfg.SupabaseURL,
			ServiceRoleKey: cfg.SupabaseServiceRoleKey,
			Table:          cfg.SupabaseCustomersTable,
		})
		if err == nil {
			log.Printf("directory: using supabase table %s", cfg.SupabaseCustomersTable)
			return src
		}
		log.Printf("directory: %v, falling back to %s", err, cfg.CustomersPath)
	}
	log.Printf("directory: using %s", cfg.CustomersPath)
	return directory.NewFileSource(cfg.CustomersPath)
}

func sessionStore(ctx context.Context, cfg config.Config) sessions.Store {
	if cfg.RedisAddr != "" {
		rs, err := sessions.NewRedisStore(ctx, sessions.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.SessionTTL,
		})
		if err == nil {
			log.Printf("sessions: using redis at %s", cfg.RedisAddr)
			return rs
		}
		log.Printf("sessions: %v, falling back to memory", err)
	}
	return sessions.NewMemoryStore(cfg.SessionTTL)
}
