// Package config loads application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DiscordToken     string
	DiscordChannelID string
	GitHubToken      string
	StatePath        string
	PollInterval     time.Duration
	RecencyWindow    time.Duration
	CycleTimeout     time.Duration
	CommandPrefix    string
	Usernames        []string
	RunOnce          bool
}

// Load reads configuration from environment variables and returns a
// validated Config. A .env file in the working directory is applied
// first if present. REPOWATCH_DISCORD_TOKEN and
// REPOWATCH_DISCORD_CHANNEL_ID are required; the process cannot do
// anything useful without chat credentials. Optional variables with
// defaults: REPOWATCH_STATE_PATH (state.json), REPOWATCH_POLL_INTERVAL
// (1h), REPOWATCH_RECENCY_WINDOW (168h), REPOWATCH_CYCLE_TIMEOUT (5m),
// REPOWATCH_COMMAND_PREFIX (!), REPOWATCH_USERNAMES (empty),
// REPOWATCH_RUN_ONCE (false).
func Load() (*Config, error) {
	_ = godotenv.Load()

	discordToken := os.Getenv("REPOWATCH_DISCORD_TOKEN")
	if discordToken == "" {
		return nil, errors.New("REPOWATCH_DISCORD_TOKEN must be set")
	}

	channelID := os.Getenv("REPOWATCH_DISCORD_CHANNEL_ID")
	if channelID == "" {
		return nil, errors.New("REPOWATCH_DISCORD_CHANNEL_ID must be set")
	}

	pollInterval, err := durationEnv("REPOWATCH_POLL_INTERVAL", time.Hour)
	if err != nil {
		return nil, err
	}

	recencyWindow, err := durationEnv("REPOWATCH_RECENCY_WINDOW", 168*time.Hour)
	if err != nil {
		return nil, err
	}

	cycleTimeout, err := durationEnv("REPOWATCH_CYCLE_TIMEOUT", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	statePath := "state.json"
	if v, ok := os.LookupEnv("REPOWATCH_STATE_PATH"); ok && v != "" {
		statePath = v
	}

	prefix := "!"
	if v, ok := os.LookupEnv("REPOWATCH_COMMAND_PREFIX"); ok && v != "" {
		prefix = v
	}

	usernames := []string{}
	if v, ok := os.LookupEnv("REPOWATCH_USERNAMES"); ok && v != "" {
		for _, name := range strings.Split(v, ",") {
			name = strings.TrimSpace(name)
			if name != "" {
				usernames = append(usernames, name)
			}
		}
	}

	runOnce := false
	if v, ok := os.LookupEnv("REPOWATCH_RUN_ONCE"); ok && v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("REPOWATCH_RUN_ONCE has invalid value %q: %w", v, err)
		}
		runOnce = parsed
	}

	return &Config{
		DiscordToken:     discordToken,
		DiscordChannelID: channelID,
		GitHubToken:      os.Getenv("REPOWATCH_GITHUB_TOKEN"),
		StatePath:        statePath,
		PollInterval:     pollInterval,
		RecencyWindow:    recencyWindow,
		CycleTimeout:     cycleTimeout,
		CommandPrefix:    prefix,
		Usernames:        usernames,
		RunOnce:          runOnce,
	}, nil
}

// durationEnv reads a duration from the environment, falling back to
// def when the variable is unset or empty.
func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s has invalid duration %q: %w", key, v, err)
	}
	return parsed, nil
}
