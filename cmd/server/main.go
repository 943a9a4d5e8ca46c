package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Arthur2500/ConvertZ/internal/alerts"
	"github.com/Arthur2500/ConvertZ/internal/config"
	"github.com/Arthur2500/ConvertZ/internal/convert"
	"github.com/Arthur2500/ConvertZ/internal/deliver"
	"github.com/Arthur2500/ConvertZ/internal/pathguard"
	"github.com/Arthur2500/ConvertZ/internal/routes"
	"github.com/Arthur2500/ConvertZ/internal/server"
	"github.com/Arthur2500/ConvertZ/internal/sweeper"
	"github.com/Arthur2500/ConvertZ/internal/util"
)

func main() {
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	util.EnsureDirs(cfg.UploadDir, cfg.OutputDir)

	guard, err := pathguard.New(cfg.UploadDir, cfg.OutputDir)
	if err != nil {
		log.Fatalf("Failed to set up path guard: %v", err)
	}

	sweep := sweeper.New(cfg.FileRetention)
	notify := alerts.NewNotifier(cfg.DiscordWebhookURL, cfg.DiscordPingUserID)

	runner := convert.NewRunner(cfg, guard, sweep)
	orch := convert.NewOrchestrator(runner, cfg.MaxConcurrentJobs)
	pack := deliver.New(cfg, sweep, notify)

	h := routes.NewHandler(cfg, orch, pack, notify)
	srv := server.New(cfg, h)

	server.PrintBanner()

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()
	log.Printf("convertz is running at http://localhost:%s", cfg.Port)
	notify.ServerStarted(config.Version, cfg.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down...")
	notify.ServerStopping()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
	sweep.Stop()
	fmt.Println("Server stopped.")
}
