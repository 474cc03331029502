package media

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentCommand struct {
	command string
	input   any
}

type fakeSender struct {
	sent []sentCommand
}

func (s *fakeSender) SendCommand(command string, input any) error {
	s.sent = append(s.sent, sentCommand{command: command, input: input})
	return nil
}

type fakeResolver struct {
	resolved map[string]Resolved
	err      error
}

func (r *fakeResolver) Resolve(_ context.Context, mediaID string) (Resolved, error) {
	if r.err != nil {
		return Resolved{}, r.err
	}
	return r.resolved[mediaID], nil
}

func TestBuiltinNotificationAlwaysChimes(t *testing.T) {
	for _, announce := range []bool{false, true} {
		sender := &fakeSender{}
		router := NewRouter(nil)

		require.NoError(t, router.Route(context.Background(), sender, BuiltinNotification, announce))

		require.Len(t, sender.sent, 1)
		assert.Equal(t, "notify", sender.sent[0].command)
		input := sender.sent[0].input.(notifyInput)
		assert.Equal(t, builtinChimeURL, input.TrackURI)
		assert.Equal(t, 10, input.Timeout)
		assert.Equal(t, 25, input.Volume)
		assert.Equal(t, 600, input.DelayMs)
	}
}

func TestTTSPlaysAsNotification(t *testing.T) {
	sender := &fakeSender{}
	resolver := &fakeResolver{resolved: map[string]Resolved{
		"media-source://tts/cloud?message=hello": {URL: "https://tts.example/hello.mp3", MimeType: "audio/mpeg"},
	}}
	router := NewRouter(resolver)

	require.NoError(t, router.Route(context.Background(), sender, "media-source://tts/cloud?message=hello", false))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "notify", sender.sent[0].command)
	input := sender.sent[0].input.(notifyInput)
	assert.Equal(t, "https://tts.example/hello.mp3", input.TrackURI)
	assert.Equal(t, 30, input.Timeout)
}

func TestAnnouncePlaysAsNotification(t *testing.T) {
	sender := &fakeSender{}
	resolver := &fakeResolver{resolved: map[string]Resolved{
		"media-source://media/doorbell.mp3": {URL: "https://media.example/doorbell.mp3"},
	}}
	router := NewRouter(resolver)

	require.NoError(t, router.Route(context.Background(), sender, "media-source://media/doorbell.mp3", true))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "notify", sender.sent[0].command)
}

func TestRadioStreamReplacesTransportURI(t *testing.T) {
	sender := &fakeSender{}
	resolver := &fakeResolver{resolved: map[string]Resolved{
		"media-source://radio_browser/abc123": {URL: "http://radio.example/stream"},
	}}
	router := NewRouter(resolver)

	require.NoError(t, router.Route(context.Background(), sender, "media-source://radio_browser/abc123", false))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "setavtransporturi", sender.sent[0].command)
	assert.Equal(t, "http://radio.example/stream", sender.sent[0].input)
}

func TestOtherMediaSourceQueues(t *testing.T) {
	sender := &fakeSender{}
	resolver := &fakeResolver{resolved: map[string]Resolved{
		"media-source://media/song.mp3": {URL: "https://media.example/song.mp3"},
	}}
	router := NewRouter(resolver)

	require.NoError(t, router.Route(context.Background(), sender, "media-source://media/song.mp3", false))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "queue", sender.sent[0].command)
	assert.Equal(t, "https://media.example/song.mp3", sender.sent[0].input)
}

func TestSpotifyQueuesRawIdentifier(t *testing.T) {
	sender := &fakeSender{}
	router := NewRouter(nil)

	require.NoError(t, router.Route(context.Background(), sender, "spotify:track:4uLU6hMCjMI75M1A2tKUQC", false))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "queue", sender.sent[0].command)
	assert.Equal(t, "spotify:track:4uLU6hMCjMI75M1A2tKUQC", sender.sent[0].input)
}

func TestUnsupportedIdentifierIsIgnored(t *testing.T) {
	sender := &fakeSender{}
	router := NewRouter(nil)

	require.NoError(t, router.Route(context.Background(), sender, "file:///tmp/song.mp3", false))
	assert.Empty(t, sender.sent)
}

func TestMediaSourceWithoutResolverFails(t *testing.T) {
	sender := &fakeSender{}
	router := NewRouter(nil)

	err := router.Route(context.Background(), sender, "media-source://media/song.mp3", false)
	assert.Error(t, err)
	assert.Empty(t, sender.sent)
}

func TestMediaSourceResolveFailurePropagates(t *testing.T) {
	sender := &fakeSender{}
	router := NewRouter(&fakeResolver{err: errors.New("upstream down")})

	err := router.Route(context.Background(), sender, "media-source://media/song.mp3", false)
	assert.Error(t, err)
	assert.Empty(t, sender.sent)
}
