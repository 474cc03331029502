package store

import (
	"fmt"
	"time"
)

// Speaker is one persisted discovery record. Re-seeding the registry from
// these rows lets players reappear after a restart before the speakers
// re-announce themselves.
type Speaker struct {
	Identifier        string
	Name              string
	StateTopic        string
	CommandTopic      string
	AvailabilityTopic string
	Manufacturer      string
	Model             string
	SWVersion         string
	LastSeenAt        time.Time
}

// SpeakerRepository persists discovered speakers.
type SpeakerRepository struct {
	db *DBPair
}

// NewSpeakerRepository creates the repository on an initialized database.
func NewSpeakerRepository(db *DBPair) *SpeakerRepository {
	return &SpeakerRepository{db: db}
}

// Upsert inserts or refreshes a speaker row by identifier.
func (r *SpeakerRepository) Upsert(speaker Speaker) error {
	_, err := r.db.Writer().Exec(`
		INSERT INTO speakers (identifier, name, state_topic, command_topic, availability_topic, manufacturer, model, sw_version, last_seen_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(identifier) DO UPDATE SET
			name = excluded.name,
			state_topic = excluded.state_topic,
			command_topic = excluded.command_topic,
			availability_topic = excluded.availability_topic,
			manufacturer = excluded.manufacturer,
			model = excluded.model,
			sw_version = excluded.sw_version,
			last_seen_at = excluded.last_seen_at`,
		speaker.Identifier,
		speaker.Name,
		speaker.StateTopic,
		speaker.CommandTopic,
		speaker.AvailabilityTopic,
		speaker.Manufacturer,
		speaker.Model,
		speaker.SWVersion,
		speaker.LastSeenAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upsert speaker %s: %w", speaker.Identifier, err)
	}
	return nil
}

// List returns all persisted speakers, oldest sighting first.
func (r *SpeakerRepository) List() ([]Speaker, error) {
	rows, err := r.db.Reader().Query(`
		SELECT identifier, name, state_topic, command_topic, availability_topic, manufacturer, model, sw_version, last_seen_at
		FROM speakers
		ORDER BY last_seen_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list speakers: %w", err)
	}
	defer rows.Close()

	var speakers []Speaker
	for rows.Next() {
		var speaker Speaker
		var lastSeen string
		if err := rows.Scan(
			&speaker.Identifier,
			&speaker.Name,
			&speaker.StateTopic,
			&speaker.CommandTopic,
			&speaker.AvailabilityTopic,
			&speaker.Manufacturer,
			&speaker.Model,
			&speaker.SWVersion,
			&lastSeen,
		); err != nil {
			return nil, fmt.Errorf("scan speaker: %w", err)
		}
		if parsed, err := time.Parse(time.RFC3339, lastSeen); err == nil {
			speaker.LastSeenAt = parsed
		}
		speakers = append(speakers, speaker)
	}
	return speakers, rows.Err()
}

// Delete removes a speaker row.
func (r *SpeakerRepository) Delete(identifier string) error {
	_, err := r.db.Writer().Exec(`DELETE FROM speakers WHERE identifier = ?`, identifier)
	if err != nil {
		return fmt.Errorf("delete speaker %s: %w", identifier, err)
	}
	return nil
}
