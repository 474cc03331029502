package bridge

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/strefethen/sonos-mqtt-go/internal/apperrors"
	"github.com/strefethen/sonos-mqtt-go/internal/player"
)

const sonosModelPrefix = "Sonos "

// Models whose source list differs from the plain queue-only default.
const (
	modelPlay5   = "Play:5"
	modelPlaybar = "Playbar"
)

// DeviceMeta is the optional hardware description from a discovery message.
type DeviceMeta struct {
	Identifiers  []string `json:"identifiers"`
	Manufacturer string   `json:"manufacturer"`
	Model        string   `json:"model"`
	SWVersion    string   `json:"sw_version"`
}

// Connection holds how to reach one discovered speaker. Re-discovery
// overwrites the record in place, so readers go through the accessors.
type Connection struct {
	mu                sync.RWMutex
	identifier        string
	name              string
	stateTopic        string
	commandTopic      string
	availabilityTopic string
	device            *DeviceMeta
}

func (c *Connection) Identifier() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.identifier
}

func (c *Connection) Name() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.name
}

func (c *Connection) StateTopic() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stateTopic
}

func (c *Connection) CommandTopic() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.commandTopic
}

func (c *Connection) AvailabilityTopic() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.availabilityTopic
}

// Device returns a copy of the hardware description, nil if the discovery
// message carried none.
func (c *Connection) Device() *DeviceMeta {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.device == nil {
		return nil
	}
	device := *c.device
	return &device
}

// SourceList derives the selectable inputs from the device model. Unknown
// models fall back to the queue-only default.
func (c *Connection) SourceList() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.device != nil {
		switch c.device.Model {
		case modelPlay5:
			return []string{string(player.SourceQueue), string(player.SourceLineIn)}
		case modelPlaybar:
			return []string{string(player.SourceQueue), string(player.SourceTV)}
		}
	}
	return []string{string(player.SourceQueue)}
}

// overwrite replaces the record's fields with those from a re-discovery
// message. The identifier never changes; it is the map key.
func (c *Connection) overwrite(from *Connection) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.name = from.name
	c.stateTopic = from.stateTopic
	c.commandTopic = from.commandTopic
	c.availabilityTopic = from.availabilityTopic
	c.device = from.device
}

// discoveryPayload is the inbound announcement wire format, shaped like a
// Home Assistant MQTT discovery message.
type discoveryPayload struct {
	Name              *string        `json:"name"`
	StateTopic        *string        `json:"state_topic"`
	CommandTopic      *string        `json:"command_topic"`
	UniqueID          *string        `json:"unique_id"`
	DeviceClass       *string        `json:"device_class"`
	Icon              *string        `json:"icon"`
	AvailabilityTopic *string        `json:"availability_topic"`
	Device            *devicePayload `json:"device"`
}

type devicePayload struct {
	Identifiers  []string `json:"identifiers"`
	Manufacturer *string  `json:"manufacturer"`
	Model        *string  `json:"model"`
	SWVersion    *string  `json:"sw_version"`
}

// parseDiscovery validates an announcement and builds the Connection for
// it. The identifier prefers the device identifier over the entity
// unique_id so that all entities of one speaker share a record.
func parseDiscovery(payload []byte) (*Connection, error) {
	var data discoveryPayload
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, apperrors.NewValidationError("malformed discovery payload: "+err.Error(), nil)
	}
	missing := func(key string) error {
		return apperrors.NewValidationError("discovery payload missing required key", map[string]any{"key": key})
	}
	if data.Name == nil {
		return nil, missing("name")
	}
	if data.StateTopic == nil {
		return nil, missing("state_topic")
	}
	if data.CommandTopic == nil {
		return nil, missing("command_topic")
	}
	if data.UniqueID == nil {
		return nil, missing("unique_id")
	}

	conn := &Connection{
		identifier:   *data.UniqueID,
		name:         *data.Name,
		stateTopic:   *data.StateTopic,
		commandTopic: *data.CommandTopic,
	}
	if data.AvailabilityTopic != nil {
		conn.availabilityTopic = *data.AvailabilityTopic
	}

	if data.Device != nil {
		if data.Device.Manufacturer == nil {
			return nil, missing("device.manufacturer")
		}
		if data.Device.Model == nil {
			return nil, missing("device.model")
		}
		meta := &DeviceMeta{
			Identifiers:  data.Device.Identifiers,
			Manufacturer: *data.Device.Manufacturer,
			Model:        strings.TrimPrefix(*data.Device.Model, sonosModelPrefix),
		}
		if data.Device.SWVersion != nil {
			meta.SWVersion = *data.Device.SWVersion
		}
		if len(meta.Identifiers) > 0 {
			conn.identifier = meta.Identifiers[0]
		}
		conn.device = meta
	}

	return conn, nil
}
