package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"speechserver/internal/asr"
	"speechserver/internal/config"
	"speechserver/internal/queue"
	"speechserver/internal/server"
	"speechserver/internal/vad"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	vadCfg := vad.Config{
		ModelPath:                cfg.VADModelPath,
		SampleRate:               cfg.SampleRate,
		Threshold:                cfg.VADThreshold,
		MinSpeechDurationMs:      cfg.VADMinSpeechDurationMs,
		MaxSpeechDurationSeconds: cfg.VADMaxSpeechDurationSecs,
		MinSilenceDurationMs:     cfg.VADMinSilenceDurationMs,
		SpeechPadMs:              cfg.VADSpeechPadMs,
	}

	// Fail fast on a bad VAD model path before accepting connections,
	// even though each connection builds its own detector later.
	probe, err := vad.NewDetector(vadCfg)
	if err != nil {
		log.Fatalf("vad model load: %v", err)
	}
	probe.Close()

	transcriber, err := asr.New(cfg.WhisperModelPath, cfg.WhisperLanguage, uint(cfg.WhisperThreads), cfg.SampleRate, cfg.NGWords)
	if err != nil {
		log.Fatalf("asr model load: %v", err)
	}
	defer transcriber.Close()

	done := make(chan struct{})
	jobQueue := queue.New(transcriber, done)

	blockSamples := cfg.SampleRate * cfg.WhisperBlockSecond
	srv := server.New(cfg.Host, cfg.Port, jobQueue, func() (*vad.VadDetector, error) {
		return vad.NewDetector(vadCfg)
	}, blockSamples, cfg.MinSpeechSamples)

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.ListenAndServe() }()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		close(done)
		if err != nil {
			log.Fatalf("server: %v", err)
		}
	case <-sig:
		log.Println("server: shutdown signal received, waiting for connections to drain")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("server: shutdown error: %v", err)
		}
		close(done)
		<-serveErr
	}

	os.Exit(0)
}
