package player

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Connection exposes the connection record an entity controls through.
// The record may be overwritten in place on re-discovery, so topics are
// read per operation rather than captured at construction.
type Connection interface {
	Identifier() string
	Name() string
	CommandTopic() string
	SourceList() []string
}

// Publisher sends a payload to a message-bus topic. Failures propagate to
// the caller; commands are fire-and-forget with no retry.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// StateSink is notified once per applied state change.
type StateSink interface {
	PlayerStateChanged(id string, state State)
}

// commandEnvelope is the outbound command wire format. Input is always
// present, null when the command carries no value.
type commandEnvelope struct {
	Command string `json:"command"`
	Input   any    `json:"input"`
}

// Entity owns and mutates the PlayerState for one speaker. Commands apply
// their optimistic effect immediately; the next telemetry message is
// authoritative and overwrites it.
type Entity struct {
	conn Connection
	bus  Publisher
	sink StateSink

	mu            sync.Mutex
	state         State
	lastTelemetry time.Time
}

// NewEntity creates the entity for a discovered connection. Entities start
// available; the availability sweeper flips them if telemetry stays silent.
func NewEntity(conn Connection, bus Publisher, sink StateSink) *Entity {
	return &Entity{
		conn: conn,
		bus:  bus,
		sink: sink,
		state: State{
			Repeat:    RepeatOff,
			Available: true,
		},
		lastTelemetry: time.Now(),
	}
}

func (e *Entity) ID() string           { return e.conn.Identifier() }
func (e *Entity) Name() string         { return e.conn.Name() }
func (e *Entity) SourceList() []string { return e.conn.SourceList() }

// State returns a copy of the current player state.
func (e *Entity) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// LastTelemetry returns when the entity last applied a telemetry message.
func (e *Entity) LastTelemetry() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastTelemetry
}

// HandleTelemetry applies one inbound state message. Validation failures
// drop the message without touching state; the caller logs and moves on.
// Consumers are notified exactly once, after all fields are applied.
func (e *Entity) HandleTelemetry(payload []byte) error {
	data, err := parseTelemetry(payload)
	if err != nil {
		return err
	}

	e.mu.Lock()
	if err := e.state.apply(data); err != nil {
		e.mu.Unlock()
		return err
	}
	e.state.Available = true
	e.lastTelemetry = time.Now()
	snapshot := e.state
	e.mu.Unlock()

	e.sink.PlayerStateChanged(e.ID(), snapshot)
	return nil
}

// MarkUnavailable flags the entity as stale. No-op if already unavailable.
func (e *Entity) MarkUnavailable() {
	e.mu.Lock()
	if !e.state.Available {
		e.mu.Unlock()
		return
	}
	e.state.Available = false
	snapshot := e.state
	e.mu.Unlock()

	e.sink.PlayerStateChanged(e.ID(), snapshot)
}

// SendCommand publishes a raw command envelope to the speaker's command
// topic. Prefer the typed methods below; this is exported for the media
// router and the command pass-through endpoint.
func (e *Entity) SendCommand(command string, input any) error {
	payload, err := json.Marshal(commandEnvelope{Command: command, Input: input})
	if err != nil {
		return fmt.Errorf("marshal command %s: %w", command, err)
	}
	return e.bus.Publish(e.conn.CommandTopic(), payload)
}

// mutate applies an optimistic state change and notifies once.
func (e *Entity) mutate(change func(*State)) {
	e.mu.Lock()
	change(&e.state)
	snapshot := e.state
	e.mu.Unlock()

	e.sink.PlayerStateChanged(e.ID(), snapshot)
}

// Play starts playback. The entity shows BUFFERING until telemetry lands.
func (e *Entity) Play() error {
	if err := e.SendCommand("play", nil); err != nil {
		return err
	}
	e.mutate(func(s *State) { s.Transport = TransportBuffering })
	return nil
}

// Pause pauses playback.
func (e *Entity) Pause() error {
	if err := e.SendCommand("pause", nil); err != nil {
		return err
	}
	e.mutate(func(s *State) { s.Transport = TransportPaused })
	return nil
}

// PlayPause toggles playback. No optimistic effect; the outcome depends on
// speaker-side state.
func (e *Entity) PlayPause() error {
	return e.SendCommand("toggle", nil)
}

// NextTrack skips forward.
func (e *Entity) NextTrack() error {
	return e.SendCommand("next", nil)
}

// PreviousTrack skips back.
func (e *Entity) PreviousTrack() error {
	return e.SendCommand("previous", nil)
}

// Seek jumps to a position in the current track. The position fields update
// on the next telemetry message rather than optimistically.
func (e *Entity) Seek(positionSec float64) error {
	return e.SendCommand("seek", FormatTimeString(positionSec))
}

// MuteVolume sets or clears mute.
func (e *Entity) MuteVolume(mute bool) error {
	if err := e.SendCommand("mute", mute); err != nil {
		return err
	}
	e.mutate(func(s *State) { s.Muted = mute })
	return nil
}

// SetVolumeLevel sets the volume from a 0..1 level. Setting a volume on a
// muted speaker also unmutes it, so this can emit two commands.
func (e *Entity) SetVolumeLevel(level float64) error {
	if err := e.SendCommand("volume", level*100); err != nil {
		return err
	}
	e.mu.Lock()
	e.state.VolumeLevel = level
	wasMuted := e.state.Muted
	snapshot := e.state
	e.mu.Unlock()

	if wasMuted {
		if err := e.SendCommand("unmute", nil); err != nil {
			return err
		}
		e.mu.Lock()
		e.state.Muted = false
		snapshot = e.state
		e.mu.Unlock()
	}
	e.sink.PlayerStateChanged(e.ID(), snapshot)
	return nil
}

// VolumeUp nudges the volume one step. Unmutes like SetVolumeLevel does.
// The speaker reports the real level on the next telemetry message.
func (e *Entity) VolumeUp() error {
	if err := e.SendCommand("volumeup", 1); err != nil {
		return err
	}
	e.mu.Lock()
	e.state.VolumeLevel += 0.01
	wasMuted := e.state.Muted
	snapshot := e.state
	e.mu.Unlock()

	if wasMuted {
		if err := e.SendCommand("unmute", nil); err != nil {
			return err
		}
		e.mu.Lock()
		e.state.Muted = false
		snapshot = e.state
		e.mu.Unlock()
	}
	e.sink.PlayerStateChanged(e.ID(), snapshot)
	return nil
}

// VolumeDown nudges the volume one step down. Does not unmute.
func (e *Entity) VolumeDown() error {
	if err := e.SendCommand("volumedown", 1); err != nil {
		return err
	}
	e.mutate(func(s *State) { s.VolumeLevel -= 0.01 })
	return nil
}

// SetShuffle sets the shuffle flag.
func (e *Entity) SetShuffle(shuffle bool) error {
	if err := e.SendCommand("shuffle", shuffle); err != nil {
		return err
	}
	e.mutate(func(s *State) { s.Shuffle = shuffle })
	return nil
}

// SetRepeat sets the repeat mode. All three modes map to distinct wire
// tokens.
func (e *Entity) SetRepeat(mode RepeatMode) error {
	var token string
	switch mode {
	case RepeatAll:
		token = repeatAllToken
	case RepeatOne:
		token = repeatOneToken
	case RepeatOff:
		token = repeatOffToken
	default:
		return fmt.Errorf("unknown repeat mode %q", mode)
	}
	if err := e.SendCommand("repeat", token); err != nil {
		return err
	}
	e.mutate(func(s *State) { s.Repeat = mode })
	return nil
}

// SelectSource switches the speaker input. Unknown sources are ignored.
func (e *Entity) SelectSource(source string) error {
	switch Source(source) {
	case SourceLineIn:
		return e.SendCommand("switchtoline", nil)
	case SourceTV:
		return e.SendCommand("switchtotv", nil)
	case SourceQueue:
		return e.SendCommand("switchtoqueue", nil)
	}
	return nil
}

// SetCrossfade turns crossfade on or off.
func (e *Entity) SetCrossfade(on bool) error {
	input := crossfadeOff
	if on {
		input = crossfadeOn
	}
	if err := e.SendCommand("crossfade", input); err != nil {
		return err
	}
	e.mutate(func(s *State) { s.Crossfade = on })
	return nil
}

// SetSleepTimer puts the speaker to sleep after the given duration.
func (e *Entity) SetSleepTimer(sleepSec float64) error {
	return e.SendCommand("sleep", FormatTimeString(sleepSec))
}

// ClearSleepTimer cancels the sleep timer.
func (e *Entity) ClearSleepTimer() error {
	return e.SendCommand("sleep", nil)
}

// Snooze delays a ringing alarm by the given duration.
func (e *Entity) Snooze(snoozeSec float64) error {
	return e.SendCommand("snooze", FormatTimeString(snoozeSec))
}

// ClearSnooze cancels a snoozed alarm.
func (e *Entity) ClearSnooze() error {
	return e.SendCommand("snooze", "")
}

// SetGroupVolume sets the volume for the speaker's whole group.
func (e *Entity) SetGroupVolume(level float64) error {
	return e.SendCommand("groupvolume", level*100)
}

// GroupVolumeUp nudges the group volume up one step.
func (e *Entity) GroupVolumeUp() error {
	return e.SendCommand("groupvolumeup", 1)
}

// GroupVolumeDown nudges the group volume down one step.
func (e *Entity) GroupVolumeDown() error {
	return e.SendCommand("groupvolumedown", 1)
}
