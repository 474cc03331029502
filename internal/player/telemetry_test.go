package player

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func applyJSON(t *testing.T, state *State, payload string) {
	t.Helper()
	data, err := parseTelemetry([]byte(payload))
	require.NoError(t, err)
	require.NoError(t, state.apply(data))
}

func TestTransportStateMapping(t *testing.T) {
	tests := []struct {
		wire     string
		expected TransportState
	}{
		{"PAUSED_PLAYBACK", TransportPaused},
		{"STOPPED", TransportPaused},
		{"PLAYING", TransportPlaying},
		{"TRANSITIONING", TransportPlaying},
	}
	for _, tt := range tests {
		t.Run(tt.wire, func(t *testing.T) {
			var state State
			applyJSON(t, &state, `{"uuid":"RINCON_1","name":"Kitchen","transportState":"`+tt.wire+`"}`)
			assert.Equal(t, tt.expected, state.Transport)
		})
	}
}

func TestTelemetryMissingRequiredKeysDropped(t *testing.T) {
	payloads := map[string]string{
		"uuid":              `{"name":"Kitchen","transportState":"PLAYING"}`,
		"name":              `{"uuid":"RINCON_1","transportState":"PLAYING"}`,
		"transportState":    `{"uuid":"RINCON_1","name":"Kitchen"}`,
		"currentTrack":      `{"uuid":"RINCON_1","name":"Kitchen","transportState":"PLAYING","currentTrack":{"artist":"x"}}`,
		"enqueuedMetadata":  `{"uuid":"RINCON_1","name":"Kitchen","transportState":"PLAYING","enqueuedMetadata":{"upnpClass":"x"}}`,
		"volume":            `{"uuid":"RINCON_1","name":"Kitchen","transportState":"PLAYING","volume":{}}`,
		"negative volume":   `{"uuid":"RINCON_1","name":"Kitchen","transportState":"PLAYING","volume":{"Master":-5}}`,
		"mute":              `{"uuid":"RINCON_1","name":"Kitchen","transportState":"PLAYING","mute":{}}`,
		"position fields":   `{"uuid":"RINCON_1","name":"Kitchen","transportState":"PLAYING","position":{"position":"0:01:00"}}`,
		"not even json":     `not json`,
		"wrong value types": `{"uuid":"RINCON_1","name":"Kitchen","transportState":42}`,
	}
	for name, payload := range payloads {
		t.Run(name, func(t *testing.T) {
			_, err := parseTelemetry([]byte(payload))
			assert.Error(t, err)
		})
	}
}

func TestTrackFieldMerging(t *testing.T) {
	var state State
	applyJSON(t, &state, `{
		"uuid":"RINCON_1","name":"Kitchen","transportState":"PLAYING",
		"currentTrack":{
			"title":"Song One","album":"Album One","albumArtUri":"https://img.example/1.jpg",
			"artist":"Artist One","trackUri":"x-sonos-spotify:track1","duration":"0:03:20"
		}
	}`)

	assert.Equal(t, "Song One", state.Title)
	require.NotNil(t, state.Album)
	assert.Equal(t, "Album One", *state.Album)
	require.NotNil(t, state.ImageURL)
	assert.Equal(t, "https://img.example/1.jpg", *state.ImageURL)
	assert.True(t, state.ImageRemotelyAccessible)
	assert.Equal(t, "Artist One", state.Artist)
	assert.Equal(t, "Artist One", state.AlbumArtist)
	assert.Equal(t, "x-sonos-spotify:track1", state.ContentID)
	require.NotNil(t, state.DurationSec)
	assert.Equal(t, 200, *state.DurationSec)

	// A sparser track message clears what it no longer reports.
	applyJSON(t, &state, `{
		"uuid":"RINCON_1","name":"Kitchen","transportState":"PLAYING",
		"currentTrack":{"title":"Song Two"}
	}`)

	assert.Equal(t, "Song Two", state.Title)
	assert.Nil(t, state.Album)
	assert.Nil(t, state.ImageURL)
	assert.False(t, state.ImageRemotelyAccessible)
	assert.Equal(t, "", state.Artist)
	assert.Equal(t, "", state.AlbumArtist)
	assert.Nil(t, state.DurationSec)
	// trackUri absent leaves the content id untouched.
	assert.Equal(t, "x-sonos-spotify:track1", state.ContentID)
}

func TestMessageWithoutTrackLeavesTrackFields(t *testing.T) {
	var state State
	applyJSON(t, &state, `{
		"uuid":"RINCON_1","name":"Kitchen","transportState":"PLAYING",
		"currentTrack":{"title":"Song One","album":"Album One","artist":"Artist One"}
	}`)

	applyJSON(t, &state, `{"uuid":"RINCON_1","name":"Kitchen","transportState":"STOPPED","volume":{"Master":30}}`)

	assert.Equal(t, "Song One", state.Title)
	require.NotNil(t, state.Album)
	assert.Equal(t, "Artist One", state.Artist)
	assert.Equal(t, 0.3, state.VolumeLevel)
	assert.Equal(t, TransportPaused, state.Transport)
}

func TestSourceDerivation(t *testing.T) {
	tests := []struct {
		name     string
		trackURI string
		expected Source
	}{
		{"line-in", "x-rincon-stream:RINCON_1", SourceLineIn},
		{"tv", "x-sonos-htastream:RINCON_1:spdif", SourceTV},
		{"anything else", "x-sonos-spotify:track1", SourceApp},
		{"http stream", "http://stream.example/radio", SourceApp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var state State
			applyJSON(t, &state, `{
				"uuid":"RINCON_1","name":"Kitchen","transportState":"PLAYING",
				"currentTrack":{"title":"t","trackUri":"`+tt.trackURI+`"}
			}`)
			assert.Equal(t, tt.expected, state.Source)
		})
	}
}

func TestQueueSourceFromPlaylistContainer(t *testing.T) {
	var state State
	applyJSON(t, &state, `{
		"uuid":"RINCON_1","name":"Kitchen","transportState":"PLAYING",
		"currentTrack":{"title":"t","trackUri":"x-sonos-spotify:track1"},
		"enqueuedMetadata":{"title":"My Playlist","upnpClass":"object.container.playlistContainer.sameArtist"}
	}`)
	assert.Equal(t, SourceQueue, state.Source)
	require.NotNil(t, state.Playlist)
	assert.Equal(t, "My Playlist", *state.Playlist)

	// Dropping the metadata clears the playlist but keeps the source.
	applyJSON(t, &state, `{"uuid":"RINCON_1","name":"Kitchen","transportState":"PLAYING"}`)
	assert.Nil(t, state.Playlist)
	assert.Equal(t, SourceQueue, state.Source)
}

func TestImageNotRemotelyAccessibleOverHTTP(t *testing.T) {
	var state State
	applyJSON(t, &state, `{
		"uuid":"RINCON_1","name":"Kitchen","transportState":"PLAYING",
		"currentTrack":{"title":"t","albumArtUri":"http://192.168.1.5:1400/getaa?x"}
	}`)
	assert.False(t, state.ImageRemotelyAccessible)
}

func TestVolumeMuteShuffleRepeat(t *testing.T) {
	var state State
	applyJSON(t, &state, `{
		"uuid":"RINCON_1","name":"Kitchen","transportState":"PLAYING",
		"volume":{"Master":25},"mute":{"Master":true},"shuffle":true,"repeat":"REPEAT_ALL"
	}`)
	assert.Equal(t, 0.25, state.VolumeLevel)
	assert.True(t, state.Muted)
	assert.True(t, state.Shuffle)
	assert.Equal(t, RepeatAll, state.Repeat)

	applyJSON(t, &state, `{"uuid":"RINCON_1","name":"Kitchen","transportState":"PLAYING","repeat":"REPEAT_ONE"}`)
	assert.Equal(t, RepeatOne, state.Repeat)
	// The other fields merge through untouched.
	assert.Equal(t, 0.25, state.VolumeLevel)
	assert.True(t, state.Muted)

	applyJSON(t, &state, `{"uuid":"RINCON_1","name":"Kitchen","transportState":"PLAYING","repeat":"REPEAT_OFF"}`)
	assert.Equal(t, RepeatOff, state.Repeat)
}

func TestPositionMergesAndNeverClears(t *testing.T) {
	var state State
	applyJSON(t, &state, `{
		"uuid":"RINCON_1","name":"Kitchen","transportState":"PLAYING",
		"position":{"position":"0:01:30","lastUpdate":1700000000000}
	}`)
	require.NotNil(t, state.PositionSec)
	assert.Equal(t, 90, *state.PositionSec)
	require.NotNil(t, state.PositionUpdatedAt)
	assert.Equal(t, time.UnixMilli(1700000000000).UTC(), *state.PositionUpdatedAt)

	// Absent position leaves both fields alone.
	applyJSON(t, &state, `{"uuid":"RINCON_1","name":"Kitchen","transportState":"PLAYING"}`)
	require.NotNil(t, state.PositionSec)
	assert.Equal(t, 90, *state.PositionSec)
	require.NotNil(t, state.PositionUpdatedAt)
}

func TestPositionSentinelYieldsNil(t *testing.T) {
	var state State
	applyJSON(t, &state, `{
		"uuid":"RINCON_1","name":"Kitchen","transportState":"PLAYING",
		"position":{"position":"NOT_IMPLEMENTED","lastUpdate":1700000000000}
	}`)
	assert.Nil(t, state.PositionSec)
	require.NotNil(t, state.PositionUpdatedAt)
}

func TestCrossfadeRecomputedEveryMessage(t *testing.T) {
	var state State
	applyJSON(t, &state, `{"uuid":"RINCON_1","name":"Kitchen","transportState":"PLAYING","crossfade":"On"}`)
	assert.True(t, state.Crossfade)

	applyJSON(t, &state, `{"uuid":"RINCON_1","name":"Kitchen","transportState":"PLAYING"}`)
	assert.False(t, state.Crossfade)

	applyJSON(t, &state, `{"uuid":"RINCON_1","name":"Kitchen","transportState":"PLAYING","crossfade":"Off"}`)
	assert.False(t, state.Crossfade)
}
