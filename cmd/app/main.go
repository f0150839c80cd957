package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"PumpScan/internal/di"
	"PumpScan/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	mode := flag.String("mode", "serve", "serve (API, monitor, consumers) or once (single scan to stdout)")
	out := flag.String("out", "", "write the JSON report to this path (once mode)")
	analyzeTop := flag.Int("analyze-top", -1, "clusters to send for AI analysis (once mode, -1 uses config)")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	switch *mode {
	case "serve":
	case "once":
		// a single scan needs none of the long-running components
		cfg.Server.Enabled = false
		cfg.Monitor.Enabled = false
		cfg.Queue.Enabled = false
		cfg.Kafka.Consumer.Enabled = false
		if *analyzeTop >= 0 {
			cfg.LLM.AnalyzeTop = *analyzeTop
		}
	default:
		log.Fatalf("unknown mode %q", *mode)
	}

	log.Printf("env=%s backend=%s mode=%s", cfg.Environment, cfg.Backend.Type, *mode)

	app, cleanup, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}
	defer cleanup()

	if *mode == "once" {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if _, err := app.RunOnce(ctx, cfg.LLM.AnalyzeTop, *out, os.Stdout); err != nil {
			log.Printf("scan failed: %v", err)
			stop()
			cleanup()
			os.Exit(1)
		}
		return
	}

	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		cleanup()
		os.Exit(1)
	}
}
