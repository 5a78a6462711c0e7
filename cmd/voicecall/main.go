// Command voicecall runs voice turns from recorded clips, either in-process
// against the backend's transcription and directory endpoints or entirely on
// the backend through its session API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/DrVanHelsing/CallTech/internal/agent"
	"github.com/DrVanHelsing/CallTech/internal/client"
	"github.com/DrVanHelsing/CallTech/internal/config"
	"github.com/DrVanHelsing/CallTech/internal/llm"
	"github.com/DrVanHelsing/CallTech/internal/sessions"
	"github.com/DrVanHelsing/CallTech/internal/tts"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)

	backend := flag.String("backend", "http://localhost:3001", "backend base URL")
	outPath := flag.String("out", "", "write 48kHz s16le PCM replies to this file (default: print text)")
	remote := flag.Bool("remote", false, "run turns on the backend session API")
	sessionID := flag.String("session", "", "existing backend session id (remote mode)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] clip.wav [clip.wav...]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	api := client.New(*backend)

	out, closeOut, err := speechOutput(cfg, *outPath)
	if err != nil {
		log.Fatalf("speech output: %v", err)
	}
	defer closeOut()

	if *remote {
		err = runRemote(api, *sessionID, out, flag.Args())
	} else {
		err = runLocal(cfg, api, out, flag.Args())
	}
	if err != nil {
		log.Fatal(err)
	}
}

func runLocal(cfg config.Config, api *client.Client, out agent.SpeechOutput, clips []string) error {
	chat := llm.NewClient(llm.Config{
		APIKey:    cfg.ChatAPIKey,
		BaseURL:   cfg.ChatBaseURL,
		Model:     cfg.ChatModel,
		MaxTokens: cfg.ChatMaxTokens,
	})
	store := sessions.NewMemoryStore(0)
	sess, err := store.Create(context.Background(), "")
	if err != nil {
		return err
	}
	orch := agent.NewOrchestrator(api, api, chat, store, agent.Options{
		NormalizeSpeech: cfg.NormalizeSpeech,
		Observer: func(ev agent.StageEvent) {
			log.Printf("voicecall: turn %s: %s", ev.TurnID[:8], ev.Stage)
		},
	})

	for _, path := range clips {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		turn, err := orch.RunTurn(ctx, sess.ID, fileCapture{path: path}, out)
		stop()
		if errors.Is(err, agent.ErrCaptureAborted) {
			log.Printf("voicecall: recording stopped")
			return nil
		}
		report(path, turn, err)
	}
	return nil
}

func runRemote(api *client.Client, sessionID string, out agent.SpeechOutput, clips []string) error {
	if sessionID == "" {
		id, err := api.CreateSession(context.Background())
		if err != nil {
			return err
		}
		sessionID = id
		log.Printf("voicecall: session %s", sessionID)
	}
	for _, path := range clips {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		clip, err := fileCapture{path: path}.Capture(ctx)
		if err != nil {
			stop()
			if errors.Is(err, agent.ErrCaptureAborted) {
				return nil
			}
			return err
		}
		turn, err := api.RunTurn(context.WithoutCancel(ctx), sessionID, clip)
		stop()
		report(path, turn, err)
		if turn != nil && turn.Spoken != "" {
			if err := out.Speak(context.Background(), turn.Spoken); err != nil {
				log.Printf("voicecall: speech output error: %v", err)
			}
		}
	}
	return nil
}

func report(path string, turn *agent.Turn, err error) {
	if turn == nil {
		log.Printf("voicecall: %s: %v", path, err)
		return
	}
	log.Printf("voicecall: %s: heard %q, outcome=%s customer=%s", path, turn.Transcript, turn.Outcome, turn.CustomerID)
	if err != nil {
		log.Printf("voicecall: %s: turn failed in %s: %v", path, turn.Stage, err)
	}
}

// speechOutput picks the TTS provider when -out is set and the provider has
// a key, otherwise prints text.
func speechOutput(cfg config.Config, outPath string) (agent.SpeechOutput, func(), error) {
	if outPath == "" {
		return textSpeaker{w: os.Stdout}, func() {}, nil
	}
	if ttsKey(cfg) == "" {
		log.Printf("voicecall: no %s key configured, printing replies instead of writing %s", cfg.TTSProvider, outPath)
		return textSpeaker{w: os.Stdout}, func() {}, nil
	}
	var synth tts.Synthesizer
	switch cfg.TTSProvider {
	case "elevenlabs":
		synth = tts.NewElevenLabs(cfg.ElevenLabsKey, cfg.ElevenLabsVoiceID)
	default:
		synth = tts.NewDeepgram(cfg.DeepgramKey, cfg.DeepgramModel)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return nil, nil, err
	}
	log.Printf("voicecall: writing %d Hz PCM to %s via %s", tts.SampleRate, outPath, cfg.TTSProvider)
	return &tts.Speaker{Synth: synth, Out: f}, func() { _ = f.Close() }, nil
}

func ttsKey(cfg config.Config) string {
	if cfg.TTSProvider == "elevenlabs" {
		return cfg.ElevenLabsKey
	}
	return cfg.DeepgramKey
}
