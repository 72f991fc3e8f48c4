// Package discord implements the chat command interface that mutates
// the watch list at runtime.
package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/ericfisherdev/repowatch/internal/domain/port/driven"
)

// Seeder records a user's current activity as already seen without
// notifying. Satisfied by application.WatchService.
type Seeder interface {
	SeedUser(ctx context.Context, username string) error
}

// replySender is the slice of *discordgo.Session the handler needs.
// Narrowed for testability.
type replySender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Handler dispatches prefixed commands arriving in a single Discord
// channel. Messages outside that channel, from bot accounts, or
// without the prefix are ignored, as are unrecognized commands.
type Handler struct {
	store     driven.StateStore
	seeder    Seeder
	channelID string
	prefix    string
	now       func() time.Time
}

// NewHandler creates a Handler bound to channelID with the given
// command prefix.
func NewHandler(store driven.StateStore, seeder Seeder, channelID, prefix string) *Handler {
	return &Handler{
		store:     store,
		seeder:    seeder,
		channelID: channelID,
		prefix:    prefix,
		now:       time.Now,
	}
}

// Register attaches the handler to a discordgo session.
func (h *Handler) Register(s *discordgo.Session) {
	s.AddHandler(func(sess *discordgo.Session, m *discordgo.MessageCreate) {
		h.HandleMessage(sess, m)
	})
}

// HandleMessage processes one inbound message and sends at most one
// reply.
func (h *Handler) HandleMessage(s replySender, m *discordgo.MessageCreate) {
	if m.ChannelID != h.channelID {
		return
	}
	if m.Author == nil || m.Author.Bot {
		return
	}
	if !strings.HasPrefix(m.Content, h.prefix) {
		return
	}

	fields := strings.Fields(strings.TrimPrefix(m.Content, h.prefix))
	if len(fields) == 0 {
		return
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	ctx := context.Background()

	var reply string
	switch cmd {
	case "help":
		reply = h.helpText()
	case "ping":
		reply = fmt.Sprintf("pong! %s", h.now().Sub(m.Timestamp).Round(time.Millisecond))
	case "add":
		reply = h.add(ctx, args)
	case "remove":
		reply = h.remove(ctx, args)
	case "list":
		reply = h.list(ctx)
	default:
		// Unrecognized commands get no reply.
		return
	}

	if _, err := s.ChannelMessageSend(m.ChannelID, reply); err != nil {
		slog.Error("command reply failed", "command", cmd, "error", err)
	}
}

// add puts a username on the watch list and kicks off seeding in the
// background so the reply is not held up by GitHub calls.
func (h *Handler) add(ctx context.Context, args []string) string {
	if len(args) != 1 {
		return fmt.Sprintf("usage: %sadd <username>", h.prefix)
	}
	username := args[0]

	err := h.store.AddUser(ctx, username)
	switch {
	case errors.Is(err, driven.ErrUserAlreadyWatched):
		return fmt.Sprintf("`%s` is already added", username)
	case err != nil:
		slog.Error("add user failed", "user", username, "error", err)
		return fmt.Sprintf("could not add `%s`", username)
	}

	go func() {
		// The watch service applies its own cycle deadline.
		if err := h.seeder.SeedUser(context.Background(), username); err != nil {
			slog.Error("seeding failed", "user", username, "error", err)
		}
	}()

	return fmt.Sprintf("added `%s` to the watch list", username)
}

func (h *Handler) remove(ctx context.Context, args []string) string {
	if len(args) != 1 {
		return fmt.Sprintf("usage: %sremove <username>", h.prefix)
	}
	username := args[0]

	err := h.store.RemoveUser(ctx, username)
	switch {
	case errors.Is(err, driven.ErrUserNotWatched):
		return fmt.Sprintf("`%s` is not added", username)
	case err != nil:
		slog.Error("remove user failed", "user", username, "error", err)
		return fmt.Sprintf("could not remove `%s`", username)
	}

	return fmt.Sprintf("removed `%s` from the watch list", username)
}

func (h *Handler) list(ctx context.Context) string {
	users, err := h.store.ListUsers(ctx)
	if err != nil {
		slog.Error("list users failed", "error", err)
		return "could not read the watch list"
	}
	if len(users) == 0 {
		return "watching: (nobody)"
	}
	return "watching: " + strings.Join(users, ", ")
}

func (h *Handler) helpText() string {
	return strings.Join([]string{
		"commands:",
		h.prefix + "help - show this message",
		h.prefix + "ping - measure round-trip latency",
		h.prefix + "add <username> - watch a GitHub user",
		h.prefix + "remove <username> - stop watching a GitHub user",
		h.prefix + "list - show the watch list",
	}, "\n")
}
