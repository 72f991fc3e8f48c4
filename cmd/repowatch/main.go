package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/bwmarrin/discordgo"

	discordnotify "github.com/ericfisherdev/repowatch/internal/adapter/driven/discord"
	githubadapter "github.com/ericfisherdev/repowatch/internal/adapter/driven/github"
	"github.com/ericfisherdev/repowatch/internal/adapter/driven/jsonstate"
	discordcmd "github.com/ericfisherdev/repowatch/internal/adapter/driving/discord"
	"github.com/ericfisherdev/repowatch/internal/application"
	"github.com/ericfisherdev/repowatch/internal/config"
	"github.com/ericfisherdev/repowatch/internal/domain/port/driven"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on missing chat credentials).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"state_path", cfg.StatePath,
		"poll_interval", cfg.PollInterval,
		"recency_window", cfg.RecencyWindow,
		"command_prefix", cfg.CommandPrefix,
		"run_once", cfg.RunOnce,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open the state file. Missing or malformed state comes back
	// empty with Fresh() set, which makes the first pass a seeding run.
	store, err := jsonstate.Open(cfg.StatePath)
	if err != nil {
		return err
	}
	slog.Info("state opened", "path", cfg.StatePath, "fresh", store.Fresh())

	// 4. Merge the env-configured watch list into the store. Names
	// added here for the first time get seeded below so they do not
	// flood the channel with their existing history.
	var newUsers []string
	for _, username := range cfg.Usernames {
		err := store.AddUser(ctx, username)
		switch {
		case errors.Is(err, driven.ErrUserAlreadyWatched):
			continue
		case err != nil:
			return err
		}
		newUsers = append(newUsers, username)
	}

	// 5. Wire the driven adapters.
	ghClient := githubadapter.NewClient(cfg.GitHubToken)

	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return fmt.Errorf("creating discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentMessageContent

	if err := session.Open(); err != nil {
		return fmt.Errorf("connecting to discord: %w", err)
	}
	defer func() {
		if closeErr := session.Close(); closeErr != nil {
			slog.Error("error closing discord session", "error", closeErr)
		}
	}()
	slog.Info("discord session opened", "channel_id", cfg.DiscordChannelID)

	notifier := discordnotify.NewNotifier(session, cfg.DiscordChannelID)

	// 6. Create the watch service.
	watcher := application.NewWatchService(
		ghClient,
		store,
		notifier,
		cfg.PollInterval,
		cfg.RecencyWindow,
		cfg.CycleTimeout,
		store.Fresh(),
	)

	if len(newUsers) > 0 {
		if err := watcher.Seed(ctx, newUsers); err != nil {
			slog.Error("seeding env-configured users failed", "error", err)
		}
	}

	// 7. Batch mode: one polling pass under a hard watchdog, then exit.
	if cfg.RunOnce {
		return runOnce(ctx, watcher, cfg.CycleTimeout)
	}

	// 8. Serve mode: command handler + polling loops until a signal.
	handler := discordcmd.NewHandler(store, watcher, cfg.DiscordChannelID, cfg.CommandPrefix)
	handler.Register(session)

	go watcher.Start(ctx)

	slog.Info("repowatch started",
		"poll_interval", cfg.PollInterval,
		"command_prefix", cfg.CommandPrefix,
	)

	<-ctx.Done()
	slog.Info("shutting down")
	return nil
}

// runOnce performs a single polling pass. A watchdog force-exits the
// process if the pass outlives the cycle timeout, since a wedged
// network call would otherwise hang a batch-style deployment forever.
// The service already bounds each cycle with the same timeout; the
// watchdog gets a little slack on top.
func runOnce(ctx context.Context, watcher *application.WatchService, timeout time.Duration) error {
	watchdog := time.AfterFunc(timeout+30*time.Second, func() {
		slog.Error("run took too long, force exiting", "timeout", timeout)
		os.Exit(1)
	})
	defer watchdog.Stop()

	if err := watcher.RunOnce(ctx); err != nil {
		return err
	}
	slog.Info("done")
	return nil
}
