package discord

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	sentChannelID string
	sentContent   string
	err           error
}

func (f *fakeSession) ChannelMessageSend(channelID string, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sentChannelID = channelID
	f.sentContent = content
	return &discordgo.Message{}, nil
}

func TestNotify_SendsToConfiguredChannel(t *testing.T) {
	session := &fakeSession{}
	n := NewNotifier(session, "chan-1")

	err := n.Notify(context.Background(), "`alice` just published `new-lib` https://github.com/alice/new-lib")
	require.NoError(t, err)

	assert.Equal(t, "chan-1", session.sentChannelID)
	assert.Equal(t, "`alice` just published `new-lib` https://github.com/alice/new-lib", session.sentContent)
}

func TestNotify_WrapsSendError(t *testing.T) {
	session := &fakeSession{err: errors.New("gateway closed")}
	n := NewNotifier(session, "chan-1")

	err := n.Notify(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sending to channel chan-1")
	assert.ErrorIs(t, err, session.err)
}
