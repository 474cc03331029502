package player

import "time"

// TransportState is the playback state shown to consumers.
type TransportState string

const (
	TransportPlaying TransportState = "PLAYING"
	TransportPaused  TransportState = "PAUSED"
	// TransportBuffering is only ever set optimistically after a play
	// command, until the next authoritative telemetry message lands.
	TransportBuffering TransportState = "BUFFERING"
)

// RepeatMode is the queue repeat setting.
type RepeatMode string

const (
	RepeatOff RepeatMode = "off"
	RepeatOne RepeatMode = "one"
	RepeatAll RepeatMode = "all"
)

// Source is the active input of a speaker.
type Source string

const (
	SourceApp    Source = "3rd Party"
	SourceQueue  Source = "Queue"
	SourceLineIn Source = "Line-in"
	SourceTV     Source = "TV"
)

// State is the full modeled state of one speaker. Telemetry messages apply
// as a merge-patch: only keys present in a message touch their fields, with
// the per-field clearing rules implemented in telemetry.go.
type State struct {
	Transport TransportState `json:"transport_state"`

	Title                   string     `json:"media_title,omitempty"`
	Album                   *string    `json:"media_album,omitempty"`
	ImageURL                *string    `json:"media_image_url,omitempty"`
	ImageRemotelyAccessible bool       `json:"media_image_remotely_accessible"`
	Artist                  string     `json:"media_artist"`
	AlbumArtist             string     `json:"media_album_artist"`
	ContentID               string     `json:"media_content_id,omitempty"`
	DurationSec             *int       `json:"media_duration,omitempty"`
	Playlist                *string    `json:"media_playlist,omitempty"`
	PositionSec             *int       `json:"media_position,omitempty"`
	PositionUpdatedAt       *time.Time `json:"media_position_updated_at,omitempty"`

	VolumeLevel float64    `json:"volume_level"`
	Muted       bool       `json:"is_volume_muted"`
	Shuffle     bool       `json:"shuffle"`
	Repeat      RepeatMode `json:"repeat"`
	Source      Source     `json:"source,omitempty"`
	Crossfade   bool       `json:"crossfade"`

	Available bool `json:"available"`
}
