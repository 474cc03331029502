package bridge

import (
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/strefethen/sonos-mqtt-go/internal/mqttbus"
	"github.com/strefethen/sonos-mqtt-go/internal/player"
	"github.com/strefethen/sonos-mqtt-go/internal/store"
)

// SpeakerStore persists discovered speakers across restarts. A nil store
// disables persistence.
type SpeakerStore interface {
	Upsert(speaker store.Speaker) error
	List() ([]store.Speaker, error)
}

// Options controls manager wiring.
type Options struct {
	// DiscoveryTopic is the wildcard topic speakers announce on.
	DiscoveryTopic string
	// StaleAfter is how long an entity may go without telemetry before the
	// sweeper marks it unavailable.
	StaleAfter time.Duration
	// SweepSchedule is the cron expression driving the availability sweep.
	SweepSchedule string
	// OnPlayerAdded fires once per newly registered speaker, never on
	// re-discovery of a known one.
	OnPlayerAdded func(entity *player.Entity)
}

// Manager is the discovery registry. It deduplicates announcements into
// Connection records, owns the per-speaker entities, and keeps their
// availability fresh. Records live for the life of the manager.
type Manager struct {
	bus  mqttbus.Bus
	sink player.StateSink
	repo SpeakerStore
	opts Options

	mu          sync.RWMutex
	connections map[string]*Connection
	entities    map[string]*player.Entity

	cron *cron.Cron
}

// NewManager creates the registry. repo may be nil.
func NewManager(bus mqttbus.Bus, sink player.StateSink, repo SpeakerStore, opts Options) *Manager {
	return &Manager{
		bus:         bus,
		sink:        sink,
		repo:        repo,
		opts:        opts,
		connections: make(map[string]*Connection),
		entities:    make(map[string]*player.Entity),
	}
}

// Start re-seeds the registry from the store, subscribes to the discovery
// topic, and starts the availability sweeper.
func (m *Manager) Start() error {
	if m.repo != nil {
		speakers, err := m.repo.List()
		if err != nil {
			return err
		}
		for _, speaker := range speakers {
			m.register(connectionFromSpeaker(speaker), false)
		}
		if len(speakers) > 0 {
			log.Printf("Restored %d speaker(s) from store", len(speakers))
		}
	}

	if err := m.bus.Subscribe(m.opts.DiscoveryTopic, m.HandleDiscovery); err != nil {
		return err
	}
	log.Printf("Listening for speaker discovery on %s", m.opts.DiscoveryTopic)

	if m.opts.SweepSchedule != "" && m.opts.StaleAfter > 0 {
		m.cron = cron.New()
		if _, err := m.cron.AddFunc(m.opts.SweepSchedule, m.sweepAvailability); err != nil {
			return err
		}
		m.cron.Start()
	}
	return nil
}

// Close stops the availability sweeper. Connections persist until then.
func (m *Manager) Close() {
	if m.cron != nil {
		m.cron.Stop()
	}
}

// HandleDiscovery processes one announcement. Malformed payloads are
// dropped with a warning and never touch the registry.
func (m *Manager) HandleDiscovery(topic string, payload []byte) {
	conn, err := parseDiscovery(payload)
	if err != nil {
		log.Printf("Skipping discovery on %s because of malformed data: %v", topic, err)
		return
	}
	m.register(conn, true)
}

// register stores a connection. First sight of an identifier creates the
// entity and subscribes its state topic; later sightings overwrite the
// stored record in place without re-notifying.
func (m *Manager) register(conn *Connection, persist bool) {
	id := conn.Identifier()

	m.mu.Lock()
	existing, known := m.connections[id]
	if known {
		existing.overwrite(conn)
		conn = existing
	} else {
		m.connections[id] = conn
		m.entities[id] = player.NewEntity(conn, m.bus, m.sink)
	}
	entity := m.entities[id]
	m.mu.Unlock()

	if known {
		log.Printf("Refreshed discovery data for %s", id)
	} else {
		log.Printf("Discovered speaker %s (%s)", conn.Name(), id)
		if err := m.bus.Subscribe(conn.StateTopic(), func(_ string, payload []byte) {
			if err := entity.HandleTelemetry(payload); err != nil {
				log.Printf("Skipping update for %s because of malformed data: %v", id, err)
			}
		}); err != nil {
			log.Printf("Subscribe to state topic for %s failed: %v", id, err)
		}
		if m.opts.OnPlayerAdded != nil {
			m.opts.OnPlayerAdded(entity)
		}
	}

	if persist && m.repo != nil {
		if err := m.repo.Upsert(speakerFromConnection(conn)); err != nil {
			log.Printf("Persisting speaker %s failed: %v", id, err)
		}
	}
}

// Player returns the entity for an identifier.
func (m *Manager) Player(id string) (*player.Entity, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entity, ok := m.entities[id]
	return entity, ok
}

// Players returns a snapshot of all registered entities.
func (m *Manager) Players() []*player.Entity {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entities := make([]*player.Entity, 0, len(m.entities))
	for _, entity := range m.entities {
		entities = append(entities, entity)
	}
	return entities
}

// Connection returns the stored record for an identifier.
func (m *Manager) Connection(id string) (*Connection, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	conn, ok := m.connections[id]
	return conn, ok
}

// sweepAvailability marks entities unavailable when their telemetry has
// gone quiet for longer than StaleAfter.
func (m *Manager) sweepAvailability() {
	for _, entity := range m.Players() {
		if time.Since(entity.LastTelemetry()) > m.opts.StaleAfter {
			entity.MarkUnavailable()
		}
	}
}

func speakerFromConnection(conn *Connection) store.Speaker {
	speaker := store.Speaker{
		Identifier:        conn.Identifier(),
		Name:              conn.Name(),
		StateTopic:        conn.StateTopic(),
		CommandTopic:      conn.CommandTopic(),
		AvailabilityTopic: conn.AvailabilityTopic(),
		LastSeenAt:        time.Now(),
	}
	if device := conn.Device(); device != nil {
		speaker.Manufacturer = device.Manufacturer
		speaker.Model = device.Model
		speaker.SWVersion = device.SWVersion
	}
	return speaker
}

func connectionFromSpeaker(speaker store.Speaker) *Connection {
	conn := &Connection{
		identifier:        speaker.Identifier,
		name:              speaker.Name,
		stateTopic:        speaker.StateTopic,
		commandTopic:      speaker.CommandTopic,
		availabilityTopic: speaker.AvailabilityTopic,
	}
	if speaker.Manufacturer != "" || speaker.Model != "" {
		conn.device = &DeviceMeta{
			Identifiers:  []string{speaker.Identifier},
			Manufacturer: speaker.Manufacturer,
			Model:        speaker.Model,
			SWVersion:    speaker.SWVersion,
		}
	}
	return conn
}
