package store

const schemaSQL = `
-- ===========================================================================
-- SPEAKERS (discovered over MQTT)
-- ===========================================================================

CREATE TABLE IF NOT EXISTS speakers (
  identifier TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  state_topic TEXT NOT NULL,
  command_topic TEXT NOT NULL,
  availability_topic TEXT NOT NULL DEFAULT '',
  manufacturer TEXT NOT NULL DEFAULT '',
  model TEXT NOT NULL DEFAULT '',
  sw_version TEXT NOT NULL DEFAULT '',
  last_seen_at TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_speakers_last_seen ON speakers(last_seen_at);
`
