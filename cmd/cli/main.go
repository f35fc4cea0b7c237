package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cinescope/proj/internal/clients/api"
	"cinescope/proj/internal/config"
	"cinescope/proj/internal/lib/logger"
	"cinescope/proj/internal/services"
	"cinescope/proj/internal/storage/tokens"
)

const shutdownTimeout = 5 * time.Second

func main() {
	configPath := flag.String("config", "", "path to the yaml config file")
	flag.Parse()

	cfg := config.MustLoad(*configPath)
	log := logger.SetupLogger(cfg.Debug)

	store, err := tokens.New(cfg.State.Dir)
	if err != nil {
		log.Error("failed to open session store", "err", err)
		os.Exit(1)
	}

	client := api.New(log, api.Config{
		BaseURL:   cfg.Backend.BaseURL,
		Timeout:   cfg.Backend.Timeout,
		RateRps:   cfg.Backend.RateRps,
		RateBurst: cfg.Backend.RateBurst,
	}, store)

	svc := services.New(log, cfg, client, store)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Confirm or clear whatever session the store remembers before
	// running the command.
	if _, err := svc.Session.ValidateSession(ctx); err != nil {
		log.Warn("session validation failed, continuing anonymous", "err", err)
	}
	go svc.Session.Run(ctx)

	code := runCommand(ctx, svc, flag.Args())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := svc.Tasks.Shutdown(shutdownCtx); err != nil {
		log.Warn("background tasks did not drain", "err", err)
	}
	os.Exit(code)
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: cinescope [-config path] <command> [args]

session:
  login <email> <password>
  register <email> <username> <password>
  logout
  whoami
  forgot-password <email>
  reset-password <email> <otp> <new-password>
  delete-account <password>

movies:
  featured [page]
  search <query> [page]
  director <name>
  actor <name>
  genres
  genre <genre-id> [page]
  movie <movie-id>
  related <movie-id>

watchlist:
  watchlist
  watchlist-add <movie-id>
  watchlist-rm <movie-id>
  stats

comments:
  comments <movie-id>
  comment <movie-id> <text>
  my-comments
  my-likes

analysis:
  sentiment <text>`)
}
