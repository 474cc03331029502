package player

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/strefethen/sonos-mqtt-go/internal/apperrors"
)

// Wire-format constants for the sonos2mqtt state payload.
const (
	transportPausedPlayback = "PAUSED_PLAYBACK"
	transportStopped        = "STOPPED"

	lineInURIPrefix = "x-rincon-stream:"
	tvURIPrefix     = "x-sonos-htastream:RINCON_"

	playlistContainerClass = "object.container.playlistContainer"

	repeatAllToken = "REPEAT_ALL"
	repeatOneToken = "REPEAT_ONE"
	repeatOffToken = "REPEAT_OFF"

	crossfadeOn  = "On"
	crossfadeOff = "Off"
)

// telemetryPayload is the inbound state message. Pointer fields distinguish
// absent keys from zero values; unknown keys are ignored.
type telemetryPayload struct {
	UUID             *string          `json:"uuid"`
	Name             *string          `json:"name"`
	TransportState   *string          `json:"transportState"`
	CurrentTrack     *trackPayload    `json:"currentTrack"`
	EnqueuedMetadata *metadataPayload `json:"enqueuedMetadata"`
	Volume           *channelLevels   `json:"volume"`
	Mute             *channelFlags    `json:"mute"`
	Shuffle          *bool            `json:"shuffle"`
	Repeat           *string          `json:"repeat"`
	Position         *positionPayload `json:"position"`
	Crossfade        *string          `json:"crossfade"`
}

type trackPayload struct {
	Title       *string `json:"title"`
	Album       *string `json:"album"`
	AlbumArtURI *string `json:"albumArtUri"`
	Artist      *string `json:"artist"`
	TrackURI    *string `json:"trackUri"`
	Duration    *string `json:"duration"`
}

type metadataPayload struct {
	Title     *string `json:"title"`
	UpnpClass *string `json:"upnpClass"`
}

// Speakers report volume and mute per channel; only Master is mapped.
type channelLevels struct {
	Master *int `json:"Master"`
}

type channelFlags struct {
	Master *bool `json:"Master"`
}

type positionPayload struct {
	Position   *string `json:"position"`
	LastUpdate *int64  `json:"lastUpdate"`
}

// parseTelemetry validates an inbound state message. A failure means the
// message must be dropped whole; no state is touched.
func parseTelemetry(payload []byte) (*telemetryPayload, error) {
	var data telemetryPayload
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, apperrors.NewValidationError("malformed state payload: "+err.Error(), nil)
	}
	missing := func(key string) error {
		return apperrors.NewValidationError("state payload missing required key", map[string]any{"key": key})
	}
	if data.UUID == nil {
		return nil, missing("uuid")
	}
	if data.Name == nil {
		return nil, missing("name")
	}
	if data.TransportState == nil {
		return nil, missing("transportState")
	}
	if data.CurrentTrack != nil && data.CurrentTrack.Title == nil {
		return nil, missing("currentTrack.title")
	}
	if data.EnqueuedMetadata != nil && data.EnqueuedMetadata.Title == nil {
		return nil, missing("enqueuedMetadata.title")
	}
	if data.Volume != nil && data.Volume.Master == nil {
		return nil, missing("volume.Master")
	}
	if data.Volume != nil && *data.Volume.Master < 0 {
		return nil, apperrors.NewValidationError("volume.Master must not be negative", nil)
	}
	if data.Mute != nil && data.Mute.Master == nil {
		return nil, missing("mute.Master")
	}
	if data.Position != nil {
		if data.Position.Position == nil {
			return nil, missing("position.position")
		}
		if data.Position.LastUpdate == nil {
			return nil, missing("position.lastUpdate")
		}
	}
	return &data, nil
}

// apply merges a validated telemetry message onto the state, field by
// field. Keys absent from the message leave their fields untouched except
// where a clearing rule says otherwise. The asymmetries here (artist clears
// to empty string, album clears to nil, position never clears) mirror the
// speaker firmware's reporting quirks and are deliberate.
func (s *State) apply(data *telemetryPayload) error {
	switch *data.TransportState {
	case transportPausedPlayback, transportStopped:
		s.Transport = TransportPaused
	default:
		s.Transport = TransportPlaying
	}

	if track := data.CurrentTrack; track != nil {
		s.Title = *track.Title

		s.Album = track.Album

		if track.AlbumArtURI != nil {
			s.ImageURL = track.AlbumArtURI
			s.ImageRemotelyAccessible = strings.HasPrefix(*track.AlbumArtURI, "https://")
		} else {
			s.ImageURL = nil
			s.ImageRemotelyAccessible = false
		}

		if track.Artist != nil {
			s.Artist = *track.Artist
			s.AlbumArtist = *track.Artist
		} else {
			s.Artist = ""
			s.AlbumArtist = ""
		}

		if track.TrackURI != nil {
			uri := *track.TrackURI
			s.ContentID = uri
			switch {
			case strings.HasPrefix(uri, lineInURIPrefix):
				s.Source = SourceLineIn
			case strings.HasPrefix(uri, tvURIPrefix):
				s.Source = SourceTV
			default:
				s.Source = SourceApp
			}
		}

		if track.Duration != nil {
			duration, err := ParseTimeString(*track.Duration)
			if err != nil {
				return err
			}
			s.DurationSec = duration
		} else {
			s.DurationSec = nil
		}
	}

	if meta := data.EnqueuedMetadata; meta != nil {
		s.Playlist = meta.Title
		if meta.UpnpClass != nil && strings.HasPrefix(*meta.UpnpClass, playlistContainerClass) {
			s.Source = SourceQueue
		}
	} else {
		s.Playlist = nil
	}

	if data.Volume != nil {
		s.VolumeLevel = float64(*data.Volume.Master) / 100
	}

	if data.Mute != nil {
		s.Muted = *data.Mute.Master
	}

	if data.Shuffle != nil {
		s.Shuffle = *data.Shuffle
	}

	if data.Repeat != nil {
		switch *data.Repeat {
		case repeatAllToken:
			s.Repeat = RepeatAll
		case repeatOneToken:
			s.Repeat = RepeatOne
		default:
			s.Repeat = RepeatOff
		}
	}

	if data.Position != nil {
		position, err := ParseTimeString(*data.Position.Position)
		if err != nil {
			return err
		}
		s.PositionSec = position
		updatedAt := time.UnixMilli(*data.Position.LastUpdate).UTC()
		s.PositionUpdatedAt = &updatedAt
	}

	// The crossfade flag is recomputed on every message: an absent key
	// means the feature is off, not unknown.
	s.Crossfade = data.Crossfade != nil && *data.Crossfade == crossfadeOn

	return nil
}
